package buildinfo

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/goccy/go-json"
)

func withoutVCS(t *testing.T) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }
	t.Cleanup(func() { readBuildInfo = orig })
}

func withVars(t *testing.T, version, commit, buildTime string) {
	t.Helper()
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	Version, Commit, BuildTime = version, commit, buildTime
	t.Cleanup(func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	})
}

func TestGet_Defaults(t *testing.T) {
	withoutVCS(t)
	info := Get("deskspin")

	if info.ServiceName != "deskspin" {
		t.Errorf("expected ServiceName='deskspin', got %q", info.ServiceName)
	}
	if info.Version != "dev" {
		t.Errorf("expected Version='dev', got %q", info.Version)
	}
	if info.Commit != "unknown" {
		t.Errorf("expected Commit='unknown', got %q", info.Commit)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("expected GoVersion=%q, got %q", runtime.Version(), info.GoVersion)
	}
}

func TestGet_VCSFallback(t *testing.T) {
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-09-30T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		}}, true
	}
	t.Cleanup(func() { readBuildInfo = orig })

	info := Get("deskspin")
	if info.Commit != "0123456" {
		t.Errorf("expected short revision, got %q", info.Commit)
	}
	if info.BuildTime != "2026-09-30T12:00:00Z" {
		t.Errorf("expected vcs time, got %q", info.BuildTime)
	}
	if !info.Modified {
		t.Error("expected Modified to be true")
	}

	// ldflags win over the VCS stamp.
	withVars(t, "v1.0.0", "abc1234", "2026-10-01T00:00:00Z")
	info = Get("deskspin")
	if info.Commit != "abc1234" || info.BuildTime != "2026-10-01T00:00:00Z" {
		t.Errorf("expected ldflags values, got %+v", info)
	}
}

func TestString(t *testing.T) {
	withoutVCS(t)
	if got := String(); got != "dev (unknown, unknown)" {
		t.Errorf("unexpected default String(): %q", got)
	}

	withVars(t, "v0.3.0", "1f9c2ab", "2026-10-01T09:00:00Z")
	if got := String(); got != "v0.3.0 (1f9c2ab, 2026-10-01T09:00:00Z)" {
		t.Errorf("unexpected String(): %q", got)
	}
}

func TestHandler(t *testing.T) {
	withoutVCS(t)
	withVars(t, "v0.3.0", "1f9c2ab", "2026-10-01T09:00:00Z")

	rec := httptest.NewRecorder()
	Handler("deskspin")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	want := map[string]string{
		"service_name": "deskspin",
		"version":      "v0.3.0",
		"commit":       "1f9c2ab",
		"build_time":   "2026-10-01T09:00:00Z",
	}
	for k, v := range want {
		if decoded[k] != v {
			t.Errorf("key %q: expected %q, got %v", k, v, decoded[k])
		}
	}
	if _, ok := decoded["modified"]; ok {
		t.Error("expected modified to be omitted for clean builds")
	}
}
