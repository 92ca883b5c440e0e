// Package source fetches personal-workspace documents and turns them into
// product mentions for the pipeline.
package source

import (
	"bufio"
	"context"
	"io"
	"net/url"
	"path"
	"strings"
)

// Item is one product listed on a workspace.
type Item struct {
	Name        string `json:"name"`
	Brand       string `json:"brand,omitempty"`
	Model       string `json:"model,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Workspace is one fetched workspace document.
type Workspace struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	URL      string `json:"url,omitempty"`
	Products []Item `json:"products"`
}

// Source fetches a workspace by reference, either a URL or a bare id.
type Source interface {
	Fetch(ctx context.Context, ref string) (*Workspace, error)
}

// WorkspaceID derives a workspace id from a reference: the segment after
// "/p/" when present, otherwise the last path element without a ".json"
// extension.
func WorkspaceID(ref string) string {
	p := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		p = u.Path
	}
	if _, after, ok := strings.Cut(p, "/p/"); ok {
		p = after
	}
	p = strings.Trim(p, "/")
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, ".json")
}

// ReadRefs reads workspace references, one per line. Blank lines and lines
// starting with "#" are skipped.
func ReadRefs(r io.Reader) ([]string, error) {
	var refs []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	return refs, sc.Err()
}
