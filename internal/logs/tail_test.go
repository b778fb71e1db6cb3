package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gdcmeta/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdcmeta.log")
	writeLog(t, path, "a\nb\nc\n")

	lines, offset, err := logs.Last(path, 2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("expected offset 6, got %d", offset)
	}
}

func TestLastShortFileAndMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gdcmeta.log")
	writeLog(t, path, "only\n")

	lines, _, err := logs.Last(path, 10)
	if err != nil || len(lines) != 1 || lines[0] != "only" {
		t.Fatalf("unexpected result %#v err=%v", lines, err)
	}

	lines, offset, err := logs.Last(filepath.Join(dir, "missing.log"), 10)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("missing file: lines=%#v offset=%d err=%v", lines, offset, err)
	}

	if _, _, err := logs.Last(dir, 1); err == nil {
		t.Fatal("expected error for directory path")
	}
}

func TestFollowEmitsAppendedCompleteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdcmeta.log")
	writeLog(t, path, "start\n")
	_, offset, err := logs.Last(path, 1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, func(line string) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, line)
			if len(got) == 2 {
				cancel()
			}
			return nil
		})
	}()

	appendLog(t, path, "first\nsec")
	time.Sleep(50 * time.Millisecond)
	appendLog(t, path, "ond\n")

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("follow did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("unexpected lines: %#v", got)
	}
}

func TestFollowRestartsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdcmeta.log")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stop := errors.New("stop")
	writeLog(t, path, "new\n")
	err := logs.Follow(ctx, path, 1000, 10*time.Millisecond, func(line string) error {
		if line != "new" {
			t.Errorf("unexpected line %q", line)
		}
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected emit error, got %v", err)
	}
}
