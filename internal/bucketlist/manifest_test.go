package bucketlist_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gdcmeta/internal/bucketlist"
	"gdcmeta/internal/manifest"
)

type fakeSource struct {
	objects []bucketlist.Object
	err     error
	bucket  string
	prefix  string
}

func (f *fakeSource) List(_ context.Context, bucket, prefix string, fn func(bucketlist.Object) error) error {
	f.bucket, f.prefix = bucket, prefix
	for _, obj := range f.objects {
		if err := fn(obj); err != nil {
			return err
		}
	}
	return f.err
}

const testID = "0a1b2c3d-1111-2222-3333-444455556666"

func TestWriteManifestRoundTripsThroughCSVParser(t *testing.T) {
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{objects: []bucketlist.Object{
		{Name: "data/", Size: 0},
		{Name: "data/" + testID + "/reads.bam", Size: 42, Updated: updated},
		{Name: "data/readme.txt", Size: 10},
	}}
	var buf bytes.Buffer
	stats, err := bucketlist.WriteManifest(context.Background(), &buf, src, "my-bucket", "data/", nil)
	if err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	if stats.Listed != 3 || stats.Written != 1 || stats.Skipped != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if src.bucket != "my-bucket" || src.prefix != "data/" {
		t.Fatalf("unexpected list args %q %q", src.bucket, src.prefix)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != strings.Join(bucketlist.Header, ",") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	want := "gs://my-bucket/data/" + testID + "/reads.bam," + testID + ",42,2024-03-01T12:00:00Z,reads.bam"
	if lines[1] != want {
		t.Fatalf("unexpected row %q", lines[1])
	}

	parser := manifest.CSVManifest{ACLs: manifest.BucketACLs{"gs://my-bucket": {"phs000178"}}}
	res, err := manifest.Parse(strings.NewReader(buf.String()), parser, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Stubs) != 1 || res.Stubs[0].ID != testID || res.Stubs[0].FileName != "reads.bam" {
		t.Fatalf("unexpected parse result %+v", res)
	}
}

func TestWriteManifestPropagatesListError(t *testing.T) {
	boom := errors.New("boom")
	_, err := bucketlist.WriteManifest(context.Background(), &bytes.Buffer{}, &fakeSource{err: boom}, "b", "", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected list error, got %v", err)
	}
}

func TestParseBucketURL(t *testing.T) {
	tests := []struct {
		in, bucket, prefix string
		wantErr            bool
	}{
		{in: "gs://bucket", bucket: "bucket"},
		{in: "gs://bucket/some/prefix", bucket: "bucket", prefix: "some/prefix"},
		{in: "bucket/p", bucket: "bucket", prefix: "p"},
		{in: "s3://bucket", wantErr: true},
		{in: "gs://", wantErr: true},
	}
	for _, tc := range tests {
		bucket, prefix, err := bucketlist.ParseBucketURL(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tc.in)
			}
			continue
		}
		if err != nil || bucket != tc.bucket || prefix != tc.prefix {
			t.Errorf("%s: got %q %q %v", tc.in, bucket, prefix, err)
		}
	}
}
