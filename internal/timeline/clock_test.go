package timeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClock_SyncFromDateHeader(t *testing.T) {
	server := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Date", server.Format(http.TimeFormat))
	}))
	defer srv.Close()

	c := &Clock{now: func() time.Time { return server.Add(-90 * time.Second) }}
	offset, err := c.Sync(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if offset != 90*time.Second {
		t.Errorf("offset = %v, want 90s", offset)
	}
	if got := c.Now(); !got.Equal(server) {
		t.Errorf("now = %v, want %v", got, server)
	}
}

func TestClock_SyncFromBodyMarker(t *testing.T) {
	server := time.Unix(1900000000, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Date"] = nil
		fmt.Fprintf(w, "fl=1\nh=example\nts=%d.123\n", server.Unix())
	}))
	defer srv.Close()

	c := &Clock{now: func() time.Time { return server.Add(time.Minute) }}
	offset, err := c.Sync(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if offset != -time.Minute {
		t.Errorf("offset = %v, want -1m", offset)
	}
}

func TestClock_SyncFailureKeepsOffset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Date"] = nil
		fmt.Fprint(w, "nothing useful")
	}))
	defer srv.Close()

	c := NewClock()
	c.SetOffset(5 * time.Second)
	if _, err := c.Sync(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("expected an error")
	}
	if c.Offset() != 5*time.Second {
		t.Errorf("offset = %v, want unchanged 5s", c.Offset())
	}
}
