package services_test

import (
	"errors"
	"strings"
	"testing"

	"gdcmeta/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrRemote, "post-recs", "upsert", "rejected", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"post-recs", "upsert", "rejected"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrValidation, "gen-recs", "build", "invalid", nil), "validation"},
		{services.Wrap(services.ErrConfiguration, "post-recs", "", "missing password", nil), "configuration"},
		{services.Wrap(services.ErrNotFound, "gen-recs", "resolve", "", nil), "not_found"},
		{services.Wrap(services.ErrTransient, "gen-recs", "fetch", "", errors.New("io")), "transient"},
		{errors.New("plain"), "transient"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestIsFatalOnlyForConfiguration(t *testing.T) {
	if !services.IsFatal(services.Wrap(services.ErrConfiguration, "", "", "x", nil)) {
		t.Fatal("expected configuration error to be fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrRemote, "", "", "x", nil)) {
		t.Fatal("expected remote error to be non-fatal")
	}
}
