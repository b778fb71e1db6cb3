package reconcile_test

import (
	"reflect"
	"testing"

	"gdcmeta/internal/manifest"
	"gdcmeta/internal/reconcile"
)

const (
	idA = "0045c267-ff51-49df-855f-0af0b4f3d151"
	idB = "005a752e-cf77-446a-b708-5a28d3a03170"
	idC = "1d322a14-026a-4d35-8de6-1666c8633416"
	idD = "20ca17de-de36-492a-84d2-0ab0b8605a27"
)

func reference() map[string]manifest.Stub {
	return reconcile.BuildReference([]manifest.Stub{
		{ID: idA, FileName: "a.bam", MD5: "ma", Size: 1},
		{ID: idB, FileName: "b.bam", MD5: "mb", Size: 2},
		{ID: idC, FileName: "c.bam", MD5: "mc", Size: 3},
		{ID: idA, FileName: "ignored.bam", MD5: "zz", Size: 9},
	})
}

func TestBuildReferenceFirstWins(t *testing.T) {
	ref := reference()
	if ref[idA].FileName != "a.bam" {
		t.Fatalf("expected first occurrence to win, got %+v", ref[idA])
	}
}

func TestReconcileMergesAndFlags(t *testing.T) {
	observed := []manifest.Stub{
		{ID: idA, FileName: "a.bam", URLs: []string{"s3://b/" + idA + "/a.bam"}, ACL: []string{"*"}, Size: 1},
		{ID: idB, FileName: "wrong.bam", URLs: []string{"s3://b/" + idB + "/wrong.bam"}},
		{ID: idD, FileName: "d.bam", URLs: []string{"s3://b/" + idD + "/d.bam"}},
		{ID: idA, FileName: "a.bam", URLs: []string{"s3://b2/" + idA + "/a.bam"}},
	}

	res := reconcile.Reconcile(observed, reference())

	merged := res.Observed()
	if len(merged) != 1 {
		t.Fatalf("expected one merged record, got %v", merged)
	}
	a := merged[idA]
	if a.MD5 != "ma" || a.Size != 1 {
		t.Fatalf("expected reference fields carried, got %+v", a)
	}
	if !reflect.DeepEqual(a.URLs, []string{"s3://b2/" + idA + "/a.bam"}) {
		t.Fatalf("expected later duplicate to win, got %v", a.URLs)
	}
	if len(a.ACL) != 0 {
		t.Fatalf("expected later entry to replace the earlier one wholesale, got acl %v", a.ACL)
	}

	issues := res.Issues()
	kinds := make([]string, 0, len(issues))
	for _, issue := range issues {
		kinds = append(kinds, issue.Kind)
	}
	wantKinds := []string{reconcile.KindMismatch, reconcile.KindUntracked, reconcile.KindDuplicate}
	if !reflect.DeepEqual(kinds, wantKinds) {
		t.Fatalf("unexpected issue kinds: %v", kinds)
	}
	if issues[0].ID != idB || issues[1].ID != idD || issues[2].ID != idA {
		t.Fatalf("unexpected issue ids: %+v", issues)
	}
	if len(issues[2].Detail) != 2 {
		t.Fatalf("expected duplicate issue to carry both entries, got %+v", issues[2].Detail)
	}

	if missing := res.Missing(); !reflect.DeepEqual(missing, []string{idB, idC}) {
		t.Fatalf("unexpected missing ids: %v", missing)
	}
	if counts := res.Counts(); counts[reconcile.KindDuplicate] != 1 || counts[reconcile.KindUntracked] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestResultAccessorsReturnCopies(t *testing.T) {
	res := reconcile.Reconcile([]manifest.Stub{{ID: idA, FileName: "a.bam"}}, reference())
	obs := res.Observed()
	delete(obs, idA)
	if _, ok := res.Observed()[idA]; !ok {
		t.Fatal("mutating accessor result changed the Result")
	}
	ref := res.Reference()
	ref[idD] = manifest.Stub{ID: idD}
	if _, ok := res.Reference()[idD]; ok {
		t.Fatal("mutating reference copy changed the Result")
	}
	if len(res.Merged()) != 1 {
		t.Fatalf("unexpected merged list: %v", res.Merged())
	}
}
