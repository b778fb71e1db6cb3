package record_test

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"gdcmeta/internal/record"
)

const testID = "0003c9fa-6e97-4fc7-8405-be4be66bf914"

func validRecord() record.IndexRecord {
	return record.IndexRecord{
		DID:    testID,
		ACL:    []string{"phs000178"},
		Form:   record.FormObject,
		Hashes: record.Hashes{MD5: "d41d8cd98f00b204e9800998ecf8427e"},
		Size:   1024,
		URLs:   []string{"s3://bucket/" + testID + "/file.bam"},
	}
}

func TestNormalizeACL(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"PHS000178", "phs000178", "Public"}, []string{"phs000178", "*"}},
		{[]string{"*", "public", " "}, []string{"*"}},
		{[]string{}, []string{}},
		{nil, nil},
	}
	for _, tc := range tests {
		got := record.NormalizeACL(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("NormalizeACL(%v) = %v, want %v", tc.in, got, tc.want)
		}
		if again := record.NormalizeACL(got); !reflect.DeepEqual(again, got) {
			t.Fatalf("NormalizeACL not idempotent: %v -> %v", got, again)
		}
	}
}

func TestNormalizeACLConcurrentCallers(t *testing.T) {
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				got := record.NormalizeACL([]string{"PHS000178", "Public"})
				if len(got) != 2 || got[0] != "phs000178" || got[1] != "*" {
					t.Errorf("unexpected result %v", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestValidateAcceptsWellFormedRecord(t *testing.T) {
	if err := record.Validate(validRecord()); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
	open := validRecord()
	open.ACL = []string{"*"}
	if err := record.Validate(open); err != nil {
		t.Fatalf("expected open acl to validate, got %v", err)
	}
}

func TestValidateRejectsEachProblem(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*record.IndexRecord)
		problem string
	}{
		{"no id", func(r *record.IndexRecord) { r.DID = "" }, "missing did"},
		{"empty acl", func(r *record.IndexRecord) { r.ACL = nil }, "empty acl"},
		{"bad acl", func(r *record.IndexRecord) { r.ACL = []string{"open"} }, `invalid acl entry "open"`},
		{"no md5", func(r *record.IndexRecord) { r.Hashes.MD5 = "" }, "missing md5"},
		{"short md5", func(r *record.IndexRecord) { r.Hashes.MD5 = "bbb" }, `invalid md5 "bbb"`},
		{"non-hex md5", func(r *record.IndexRecord) { r.Hashes.MD5 = "zz1d8cd98f00b204e9800998ecf8427e" }, "invalid md5"},
		{"upper-case md5", func(r *record.IndexRecord) { r.Hashes.MD5 = "D41D8CD98F00B204E9800998ECF8427E" }, "invalid md5"},
		{"zero size", func(r *record.IndexRecord) { r.Size = 0 }, "invalid size 0"},
		{"no urls", func(r *record.IndexRecord) { r.URLs = nil }, "no urls"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := validRecord()
			tc.mutate(&rec)
			err := record.Validate(rec)
			var verr *record.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.Contains(verr.Error(), tc.problem) {
				t.Fatalf("expected %q in %q", tc.problem, verr.Error())
			}
		})
	}
}

func TestBuildLayersLaterWins(t *testing.T) {
	defaults := record.Fields{ACL: []string{"phs000178"}, MD5: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Size: 10, FileName: "default.bam"}
	server := record.Fields{MD5: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Size: 20}
	overrides := record.Fields{
		URLs:     []string{"gs://bucket/" + testID + "/file.bam"},
		ACL:      []string{"Public"},
		Metadata: map[string]string{"source": "manifest"},
	}

	rec, err := record.Build(testID, defaults, server, overrides)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rec.DID != testID || rec.Form != record.FormObject {
		t.Fatalf("unexpected identity: %+v", rec)
	}
	if rec.Hashes.MD5 != "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb" || rec.Size != 20 {
		t.Fatalf("expected server fields, got md5=%q size=%d", rec.Hashes.MD5, rec.Size)
	}
	if !reflect.DeepEqual(rec.ACL, []string{"*"}) {
		t.Fatalf("expected override acl normalized, got %v", rec.ACL)
	}
	if rec.FileName != "default.bam" {
		t.Fatalf("expected defaults filename to survive, got %q", rec.FileName)
	}
	if rec.Metadata["source"] != "manifest" {
		t.Fatalf("expected metadata carried, got %v", rec.Metadata)
	}
}

func TestBuildEmptyOverrideDoesNotClobber(t *testing.T) {
	server := record.Fields{ACL: []string{"phs000178"}, MD5: "abcdabcdabcdabcdabcdabcdabcdabcd", Size: 5, URLs: []string{"s3://b/k"}}
	rec, err := record.Build(testID, server, record.Fields{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rec.Hashes.MD5 != "abcdabcdabcdabcdabcdabcdabcdabcd" || len(rec.URLs) != 1 {
		t.Fatalf("empty override clobbered fields: %+v", rec)
	}
}

func TestBuildRejectsInvalid(t *testing.T) {
	_, err := record.Build(testID, record.Fields{ACL: []string{"phs1"}, Size: 5, URLs: []string{"s3://b/k"}})
	var verr *record.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.ID != testID {
		t.Fatalf("unexpected id on error: %q", verr.ID)
	}
}

func TestCloneIsDeep(t *testing.T) {
	rec := validRecord()
	rec.Metadata = map[string]string{"a": "1"}
	cp := rec.Clone()
	cp.ACL[0] = "changed"
	cp.Metadata["a"] = "2"
	if rec.ACL[0] != "phs000178" || rec.Metadata["a"] != "1" {
		t.Fatalf("clone shares state with original: %+v", rec)
	}
}
