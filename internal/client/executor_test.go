package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitchyjs/skiff/internal/cluster"
)

// memberFor derives a Member from a running test server, so redirect
// payloads can point at it via the internal-port-minus-offset convention.
func memberFor(t *testing.T, srv *httptest.Server) cluster.Member {
	t.Helper()

	port := srv.Listener.Addr().(*net.TCPAddr).Port
	return cluster.Member{
		Addr:     fmt.Sprintf("/ip4/127.0.0.1/tcp/%d", port-cluster.ClientPortOffset),
		Endpoint: cluster.Endpoint{Host: "127.0.0.1", Port: port},
	}
}

func newTestClient(members []cluster.Member, keys ...string) *Client {
	if len(keys) == 0 {
		keys = []string{"a"}
	}

	return New(members, Options{
		Keys: keys,
		Rand: rand.New(rand.NewSource(1)),
	})
}

func TestPutHappyPath(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient([]cluster.Member{memberFor(t, srv)})

	value, err := c.Put(context.Background(), "a")
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if value != 0 {
		t.Errorf("first put value = %d, want 0", value)
	}

	if gotBody != "0" {
		t.Errorf("put payload = %q, want \"0\"", gotBody)
	}

	// Second put bumps before attempting.
	if value, _ = c.Put(context.Background(), "a"); value != 1 {
		t.Errorf("second put value = %d, want 1", value)
	}
}

func TestPutFollowsLeaderRedirect(t *testing.T) {
	// Leader accepts writes; the follower answers every write with a
	// redirect naming the leader's cluster-internal address.
	leader := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer leader.Close()

	leaderMember := memberFor(t, leader)

	follower := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, `{"error":{"code":"ENOTLEADER","leader":"%s"}}`, leaderMember.Addr)
	}))
	defer follower.Close()

	c := newTestClient([]cluster.Member{leaderMember, memberFor(t, follower)})

	value, err := c.Put(context.Background(), "a")
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if value != 0 {
		t.Errorf("put value = %d, want 0", value)
	}

	// The hint is recorded from the redirect, even though selection never
	// enforces it.
	if hint := c.LeaderHint(); hint == nil || *hint != leaderMember.Endpoint {
		t.Errorf("leader hint = %v, want %v", hint, leaderMember.Endpoint)
	}
}

func TestPutFatalOnUnknownError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"code":"ESTRANGE"}}`)
	}))
	defer srv.Close()

	c := newTestClient([]cluster.Member{memberFor(t, srv)})

	_, err := c.Put(context.Background(), "a")

	var unexpected *UnexpectedResponseError
	if !errors.As(err, &unexpected) {
		t.Fatalf("Put error = %v, want *UnexpectedResponseError", err)
	}

	if unexpected.Status != http.StatusInternalServerError {
		t.Errorf("error status = %d, want 500", unexpected.Status)
	}
}

func TestPutRetriesTimedOutWrites(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"code":"ETIMEDOUT"}}`)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient([]cluster.Member{memberFor(t, srv)})

	value, err := c.Put(context.Background(), "a")
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if value != 0 {
		t.Errorf("put value = %d, want 0: retries must not re-bump", value)
	}

	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestGetValidatesAgainstExpected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			fmt.Fprint(w, "0")
		}
	}))
	defer srv.Close()

	c := newTestClient([]cluster.Member{memberFor(t, srv)})

	if _, err := c.Put(context.Background(), "a"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	value, err := c.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	if value != 0 {
		t.Errorf("get value = %d, want 0", value)
	}
}

func TestGetSecondChanceOnStaleRead(t *testing.T) {
	reads := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			reads++
			if reads == 1 {
				fmt.Fprint(w, "-1") // stale: write not yet visible
				return
			}

			fmt.Fprint(w, "0")
		}
	}))
	defer srv.Close()

	c := newTestClient([]cluster.Member{memberFor(t, srv)})

	if _, err := c.Put(context.Background(), "a"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	start := time.Now()
	value, err := c.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	if value != 0 {
		t.Errorf("get value = %d, want 0", value)
	}

	if reads != 2 {
		t.Errorf("reads = %d, want 2 (one second chance)", reads)
	}

	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("second chance waited %v, want >= 200ms", elapsed)
	}
}

func TestGetConsistencyViolationAfterSecondChance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			fmt.Fprint(w, "-1") // never catches up
		}
	}))
	defer srv.Close()

	c := newTestClient([]cluster.Member{memberFor(t, srv)})

	if _, err := c.Put(context.Background(), "a"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	_, err := c.Get(context.Background(), "a")

	var violation *ConsistencyError
	if !errors.As(err, &violation) {
		t.Fatalf("Get error = %v, want *ConsistencyError", err)
	}

	if violation.Key != "a" || violation.Expected != 0 || violation.Actual != "-1" {
		t.Errorf("violation = %+v, want key a, expected 0, actual -1", violation)
	}
}

func TestGetSelectionExhausted(t *testing.T) {
	members := []cluster.Member{{
		Addr:     "/ip4/127.0.0.1/tcp/9190",
		Endpoint: cluster.Endpoint{Host: "127.0.0.1", Port: 9191},
	}}

	c := New(members, Options{
		Keys:  []string{"a"},
		Alive: func(string) bool { return false },
		Rand:  rand.New(rand.NewSource(1)),
	})

	_, err := c.Get(context.Background(), "a")
	if !errors.Is(err, ErrSelectionExhausted) {
		t.Fatalf("Get error = %v, want ErrSelectionExhausted", err)
	}
}

func TestTransportFailureClearsHintAndRetries(t *testing.T) {
	// First member is a closed port: dialing it fails at the transport
	// level. The live member eventually gets picked and serves the write.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadMember := memberFor(t, dead)
	dead.Close()

	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer live.Close()

	c := newTestClient([]cluster.Member{deadMember, memberFor(t, live)})

	value, err := c.Put(context.Background(), "a")
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if value != 0 {
		t.Errorf("put value = %d, want 0", value)
	}

	if c.LeaderHint() != nil {
		t.Errorf("leader hint = %v, want nil after transport failures", c.LeaderHint())
	}
}
