// Package buildinfo reports the version of the running deskspin binary.
package buildinfo

import (
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/goccy/go-json"
)

// These vars are set at build time via ldflags:
//
//	-X github.com/otherjamesbrown/deskspin/pkg/buildinfo.Version=v0.3.0
//	-X github.com/otherjamesbrown/deskspin/pkg/buildinfo.Commit=1f9c2ab
//	-X github.com/otherjamesbrown/deskspin/pkg/buildinfo.BuildTime=2026-10-01T09:00:00Z
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info holds build information for one binary or service.
type Info struct {
	ServiceName string `json:"service_name"`
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildTime   string `json:"build_time"`
	GoVersion   string `json:"go_version"`
	Modified    bool   `json:"modified,omitempty"`
}

// Get returns build info for serviceName. When the binary was built without
// ldflags, commit and build time fall back to the VCS stamp Go embeds.
func Get(serviceName string) Info {
	info := Info{
		ServiceName: serviceName,
		Version:     Version,
		Commit:      Commit,
		BuildTime:   BuildTime,
		GoVersion:   runtime.Version(),
	}

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" && s.Value != "" {
				info.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.BuildTime == "unknown" && s.Value != "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// String returns a one-liner like "v0.3.0 (1f9c2ab, 2026-10-01T09:00:00Z)".
func String() string {
	info := Get("")
	s := info.Version + " (" + info.Commit + ", " + info.BuildTime + ")"
	if info.Modified {
		s += " dirty"
	}
	return s
}

// Handler serves build info as JSON, for /version.
func Handler(serviceName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Get(serviceName))
	}
}
