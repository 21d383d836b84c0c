package mirror

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newChecker(now time.Time) *Checker {
	c := New(time.Second)
	c.now = func() time.Time { return now }
	return c
}

func TestSyncAge(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name    string
		status  int
		body    string
		wantAge float64
		wantOK  bool
	}{
		{"two hours", http.StatusOK, fmt.Sprintf("%d\n", now.Unix()-7200), 2, true},
		{"future clamps to zero", http.StatusOK, fmt.Sprintf("%d", now.Unix()+600), 0, true},
		{"not found", http.StatusNotFound, "", 0, false},
		{"garbage", http.StatusOK, "yesterday", 0, false},
		{"empty", http.StatusOK, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/lastsync" {
					t.Errorf("requested %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			age, ok := newChecker(now).SyncAge(context.Background(), srv.URL+"/")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if math.Abs(age-tt.wantAge) > 1e-9 {
				t.Errorf("age = %v, want %v", age, tt.wantAge)
			}
		})
	}
}

func TestSyncAge_RetriesOnceOnServerError(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, "%d", now.Unix()-3600)
	}))
	defer srv.Close()

	age, ok := newChecker(now).SyncAge(context.Background(), srv.URL)
	if !ok || age != 1 {
		t.Errorf("SyncAge = %v, %v; want 1, true", age, ok)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestSyncAge_GivesUpAfterRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, ok := New(time.Second).SyncAge(context.Background(), srv.URL); ok {
		t.Error("SyncAge reported a value from a failing mirror")
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestSyncAge_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	New(time.Second).SyncAge(context.Background(), srv.URL)
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestSyncAge_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(50 * time.Millisecond)
	start := time.Now()
	if _, ok := c.SyncAge(context.Background(), srv.URL); ok {
		t.Error("SyncAge succeeded against a hanging mirror")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("SyncAge took %s", elapsed)
	}
}

func TestProbe(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%d", now.Unix()-1800)
	}))
	defer srv.Close()

	res := <-newChecker(now).Probe(context.Background(), srv.URL)
	if !res.OK || res.AgeHours != 0.5 {
		t.Errorf("Probe = %+v", res)
	}
}

func TestParseMirrorlist(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"first server", "## Worldwide\n#Server = https://commented.example/$repo/os/$arch\nServer = https://geo.mirror.pkgbuild.com/$repo/os/$arch\nServer = https://second.example/$repo/os/$arch\n", "https://geo.mirror.pkgbuild.com", true},
		{"no spaces", "Server=https://a.example/archlinux/$repo/os/$arch", "https://a.example/archlinux", true},
		{"no repo suffix", "Server = https://plain.example/arch", "https://plain.example/arch", true},
		{"none", "# nothing here\n", "", false},
		{"other key", "ServerName = x\n", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMirrorlist(strings.NewReader(tt.in))
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseMirrorlist = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFirstServer_MissingFile(t *testing.T) {
	if _, ok := FirstServer("/nonexistent/mirrorlist"); ok {
		t.Error("FirstServer found a server in a missing file")
	}
}
