package fetch_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gdcmeta/internal/fetch"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func TestDoRetriesThrottledRequests(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))
	defer server.Close()

	rec := &sleepRecorder{}
	client := fetch.New(fetch.WithSleeper(rec.sleep))

	var out struct {
		ID string `json:"id"`
	}
	if err := client.GetJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.ID != "abc" {
		t.Fatalf("unexpected decoded body: %+v", out)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}

	delays := rec.recorded()
	if len(delays) != 2 {
		t.Fatalf("expected 2 sleeps, got %v", delays)
	}
	bounds := [][2]time.Duration{{2 * time.Second, 4 * time.Second}, {4 * time.Second, 6 * time.Second}}
	for i, d := range delays {
		if d < bounds[i][0] || d >= bounds[i][1] {
			t.Fatalf("delay %d = %v outside [%v, %v)", i, d, bounds[i][0], bounds[i][1])
		}
	}
}

func TestDoGivesUpAfterSchedule(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	rec := &sleepRecorder{}
	schedule := []time.Duration{time.Millisecond, 2 * time.Millisecond}
	client := fetch.New(fetch.WithSleeper(rec.sleep), fetch.WithSchedule(schedule), fetch.WithJitter(0))

	err := client.GetJSON(context.Background(), server.URL, nil)
	if fetch.StatusOf(err) != http.StatusTooManyRequests {
		t.Fatalf("expected final 429 error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 1 call + 2 retries, got %d", calls.Load())
	}
	delays := rec.recorded()
	if len(delays) != 2 || delays[0] != time.Millisecond || delays[1] != 2*time.Millisecond {
		t.Fatalf("unexpected delays: %v", delays)
	}
}

func TestDoDoesNotRetryServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	rec := &sleepRecorder{}
	client := fetch.New(fetch.WithSleeper(rec.sleep))
	err := client.GetJSON(context.Background(), server.URL, nil)

	var fe *fetch.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Status != http.StatusInternalServerError || fe.Body != "boom" {
		t.Fatalf("unexpected error detail: %+v", fe)
	}
	if calls.Load() != 1 || len(rec.recorded()) != 0 {
		t.Fatalf("expected no retries, calls=%d sleeps=%v", calls.Load(), rec.recorded())
	}
}

func TestDoRetriesNetworkErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	rec := &sleepRecorder{}
	client := fetch.New(fetch.WithSleeper(rec.sleep), fetch.WithSchedule([]time.Duration{time.Millisecond}), fetch.WithJitter(0))
	err := client.GetJSON(context.Background(), url, nil)

	var ne *fetch.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if len(rec.recorded()) != 1 {
		t.Fatalf("expected one retry sleep, got %v", rec.recorded())
	}
}

func TestDoSendsBodyAndCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "pw" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPut || r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"echo": body["name"]})
	}))
	defer server.Close()

	client := fetch.New()
	var out map[string]string
	err := client.Do(context.Background(), fetch.Request{
		Method:   http.MethodPut,
		URL:      server.URL,
		Body:     map[string]string{"name": "value"},
		Username: "alice",
		Password: "pw",
	}, &out)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out["echo"] != "value" {
		t.Fatalf("unexpected echo: %v", out)
	}
}

func TestNotFoundHelper(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	err := fetch.New().GetJSON(context.Background(), server.URL, nil)
	if !fetch.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if fetch.IsConflict(err) {
		t.Fatal("not found must not be a conflict")
	}
}

func TestRetrySleepHonoursCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := fetch.New(fetch.WithSchedule([]time.Duration{time.Hour}), fetch.WithJitter(0))
	start := time.Now()
	err := client.GetJSON(ctx, server.URL, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("retry sleep ignored cancellation")
	}
}
