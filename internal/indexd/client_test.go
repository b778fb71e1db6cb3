package indexd_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"gdcmeta/internal/fetch"
	"gdcmeta/internal/indexd"
	"gdcmeta/internal/record"
)

const testID = "0003c9fa-6e97-4fc7-8405-be4be66bf914"

type fakeIndexd struct {
	mu      sync.Mutex
	records map[string]record.IndexRecord
	methods []string
	revs    int
	// staleOnPut bumps the stored revision before a PUT is applied
	staleOnPut bool
}

func newFakeIndexd(t *testing.T) (*fakeIndexd, *httptest.Server) {
	t.Helper()
	f := &fakeIndexd{records: map[string]record.IndexRecord{}}
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeIndexd) nextRev() string {
	f.revs++
	return "rev" + strconv.Itoa(f.revs)
}

func (f *fakeIndexd) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, r.Method)

	id := strings.TrimPrefix(r.URL.Path, "/index/")
	if r.Method != http.MethodGet {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "indexer" || pass != "pw" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}
	switch r.Method {
	case http.MethodGet:
		rec, ok := f.records[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(rec)
	case http.MethodPost:
		if id != "" {
			http.NotFound(w, r)
			return
		}
		var rec record.IndexRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.Rev = f.nextRev()
		f.records[rec.DID] = rec
		_ = json.NewEncoder(w).Encode(map[string]string{"did": rec.DID, "rev": rec.Rev})
	case http.MethodPut:
		rec, ok := f.records[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if f.staleOnPut {
			rec.Rev = f.nextRev()
			f.records[id] = rec
		}
		if r.URL.Query().Get("rev") != rec.Rev {
			http.Error(w, "revision mismatch", http.StatusConflict)
			return
		}
		var body struct {
			ACL  []string `json:"acl"`
			URLs []string `json:"urls"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.ACL, rec.URLs = body.ACL, body.URLs
		rec.Rev = f.nextRev()
		f.records[id] = rec
		_ = json.NewEncoder(w).Encode(map[string]string{"did": id, "rev": rec.Rev})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (f *fakeIndexd) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

func newRecord(urls ...string) record.IndexRecord {
	return record.IndexRecord{
		DID:          testID,
		ACL:          []string{"phs000178"},
		Form:         record.FormObject,
		Hashes:       record.Hashes{MD5: "5052597f8752fd2bed1f662ce38e1e70"},
		Size:         1172,
		URLs:         urls,
		URLsMetadata: map[string]any{},
		Metadata:     map[string]string{},
	}
}

func newClient(server *httptest.Server) *indexd.Client {
	doer := fetch.New(fetch.WithSchedule(nil), fetch.WithSleeper(func(time.Duration) {}))
	return indexd.NewClient(indexd.Config{Host: server.URL, Username: "indexer", Password: "pw"}, doer, nil)
}

func TestUpsertCreatesMissingRecord(t *testing.T) {
	f, server := newFakeIndexd(t)
	client := newClient(server)

	got, err := client.Upsert(context.Background(), newRecord("s3://bucket/"+testID+"/a.vcf.gz"))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got.Rev != "rev1" {
		t.Fatalf("expected server-confirmed revision, got %q", got.Rev)
	}
	want := []string{http.MethodGet, http.MethodPost, http.MethodGet}
	if calls := f.calls(); !reflect.DeepEqual(calls, want) {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestUpsertMergesNewSchemeURL(t *testing.T) {
	f, server := newFakeIndexd(t)
	existing := newRecord("s3://bucket/" + testID + "/a.vcf.gz")
	existing.Rev = "rev0"
	f.records[testID] = existing

	client := newClient(server)
	got, err := client.Upsert(context.Background(), newRecord("gs://other/"+testID+"/a.vcf.gz"))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	wantURLs := []string{"s3://bucket/" + testID + "/a.vcf.gz", "gs://other/" + testID + "/a.vcf.gz"}
	if !reflect.DeepEqual(got.URLs, wantURLs) {
		t.Fatalf("unexpected merged urls: %v", got.URLs)
	}
	if got.Rev != "rev1" {
		t.Fatalf("expected new revision from server, got %q", got.Rev)
	}
	wantCalls := []string{http.MethodGet, http.MethodPut, http.MethodGet}
	if calls := f.calls(); !reflect.DeepEqual(calls, wantCalls) {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestUpsertSkipsPutWhenURLsPresent(t *testing.T) {
	f, server := newFakeIndexd(t)
	existing := newRecord("s3://bucket/"+testID+"/a.vcf.gz", "gs://other/"+testID+"/a.vcf.gz")
	existing.Rev = "rev0"
	f.records[testID] = existing

	client := newClient(server)
	got, err := client.Upsert(context.Background(), newRecord("gs://other/"+testID+"/a.vcf.gz"))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got.Rev != "rev0" || len(got.URLs) != 2 {
		t.Fatalf("expected existing record unchanged, got %+v", got)
	}
	if calls := f.calls(); !reflect.DeepEqual(calls, []string{http.MethodGet}) {
		t.Fatalf("expected only GET, got %v", calls)
	}
}

func TestUpsertStaleRevisionFails(t *testing.T) {
	f, server := newFakeIndexd(t)
	existing := newRecord("s3://bucket/" + testID + "/a.vcf.gz")
	existing.Rev = "rev0"
	f.records[testID] = existing
	f.staleOnPut = true

	client := newClient(server)
	_, err := client.Upsert(context.Background(), newRecord("s3://moved/"+testID+"/a.vcf.gz"))
	var uerr *indexd.UpsertError
	if !errors.As(err, &uerr) || uerr.Op != indexd.OpUpdate {
		t.Fatalf("expected update UpsertError, got %v", err)
	}
	if !fetch.IsConflict(err) {
		t.Fatalf("expected conflict status in chain, got %v", err)
	}
	if stored := f.records[testID]; stored.URLs[0] != "s3://bucket/"+testID+"/a.vcf.gz" {
		t.Fatalf("stale update overwrote record: %+v", stored)
	}
}

func TestUpsertRejectsInvalidRecord(t *testing.T) {
	f, server := newFakeIndexd(t)
	client := newClient(server)
	rec := newRecord()
	_, err := client.Upsert(context.Background(), rec)
	var verr *record.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.calls()) != 0 {
		t.Fatalf("expected no remote calls, got %v", f.calls())
	}
}

func TestMergeURLs(t *testing.T) {
	got, err := indexd.MergeURLs(
		[]string{"gs://old/x", "s3://old/x"},
		[]string{"S3://new/x"},
	)
	if err != nil {
		t.Fatalf("MergeURLs: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"S3://new/x", "gs://old/x"}) {
		t.Fatalf("unexpected merge: %v", got)
	}
	if _, err := indexd.MergeURLs([]string{"https://x"}, []string{"s3://y"}); !errors.Is(err, indexd.ErrUnknownScheme) {
		t.Fatalf("expected unknown scheme error, got %v", err)
	}
}
