package timeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"
)

// DefaultTimeSyncURL answers with a Date header and is reachable almost
// everywhere.
const DefaultTimeSyncURL = "https://1.1.1.1"

var tsPattern = regexp.MustCompile(`ts=(\d+)`)

// Clock is wall-clock time corrected by a single server offset.
type Clock struct {
	mu     sync.RWMutex
	offset time.Duration
	now    func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockFunc reads the uncorrected time from now instead of the system clock.
func NewClockFunc(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the corrected current time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Add(c.offset)
}

func (c *Clock) NowMs() int64 {
	return c.Now().UnixMilli()
}

func (c *Clock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

func (c *Clock) SetOffset(d time.Duration) {
	c.mu.Lock()
	c.offset = d
	c.mu.Unlock()
}

// Sync measures the offset against url once. The server time comes from the
// Date header, or a ts=<unix seconds> marker in the body. The offset is left
// untouched on any failure.
func (c *Clock) Sync(ctx context.Context, client *http.Client, url string) (time.Duration, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch time: %w", err)
	}
	defer resp.Body.Close()

	local := c.now()
	server, err := serverTime(resp)
	if err != nil {
		return 0, err
	}
	offset := server.Sub(local)
	c.SetOffset(offset)
	return offset, nil
}

func serverTime(resp *http.Response) (time.Time, error) {
	if h := resp.Header.Get("Date"); h != "" {
		if t, err := http.ParseTime(h); err == nil {
			return t, nil
		}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return time.Time{}, fmt.Errorf("read body: %w", err)
	}
	m := tsPattern.FindSubmatch(body)
	if m == nil {
		return time.Time{}, fmt.Errorf("no server time in response")
	}
	secs, err := strconv.ParseInt(string(m[1]), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse ts: %w", err)
	}
	return time.Unix(secs, 0), nil
}
