// Package mirror inspects the configured pacman mirror.
package mirror

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/johndauphine/pacfetch/internal/logging"
)

// DefaultTimeout bounds each lastsync request.
const DefaultTimeout = 5 * time.Second

const maxBody = 64

// Checker fetches a mirror's lastsync marker.
type Checker struct {
	httpClient *http.Client
	now        func() time.Time
}

// New creates a Checker whose requests time out after timeout.
func New(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// Result is the outcome of a background probe. OK is false when the age
// is unknown.
type Result struct {
	AgeHours float64
	OK       bool
}

// Probe runs SyncAge in the background. The channel yields one Result.
func (c *Checker) Probe(ctx context.Context, baseURL string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		age, ok := c.SyncAge(ctx, baseURL)
		ch <- Result{AgeHours: age, OK: ok}
	}()
	return ch
}

// SyncAge returns how many hours ago the mirror last synced. Failures are
// logged and reported as unknown.
func (c *Checker) SyncAge(ctx context.Context, baseURL string) (float64, bool) {
	url := strings.TrimSuffix(baseURL, "/") + "/lastsync"

	ts, err := c.fetch(ctx, url)
	if isTransient(err) {
		logging.Debug("fetching %s (retrying): %v", url, err)
		ts, err = c.fetch(ctx, url)
	}
	if err != nil {
		logging.Warn("mirror sync age unknown: %v", err)
		return 0, false
	}

	age := c.now().Sub(time.Unix(ts, 0))
	if age < 0 {
		age = 0
	}
	return age.Hours(), true
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("mirror returned status %d", e.code)
}

var errParse = errors.New("unparsable lastsync")

func isTransient(err error) bool {
	if err == nil || errors.Is(err, errParse) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return true
}

func (c *Checker) fetch(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", url, err)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q", errParse, strings.TrimSpace(string(body)))
	}
	return ts, nil
}

// FirstServer returns the base URL of the first Server entry in a pacman
// mirrorlist, with the "/$repo/..." suffix removed.
func FirstServer(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		logging.Debug("reading mirrorlist: %v", err)
		return "", false
	}
	defer f.Close()
	return ParseMirrorlist(f)
}

// ParseMirrorlist is FirstServer for an already open mirrorlist.
func ParseMirrorlist(r io.Reader) (string, bool) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "Server") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != "Server" {
			continue
		}
		url := strings.TrimSpace(value)
		if i := strings.Index(url, "/$repo"); i >= 0 {
			url = url[:i]
		}
		if url != "" {
			return url, true
		}
	}
	return "", false
}
