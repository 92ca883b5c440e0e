package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
)

// FileSource reads workspace documents from a directory, one <id>.json file
// per workspace. A reference that names an existing file is read directly.
type FileSource struct {
	dir string
}

// NewFileSource creates a FileSource rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context, ref string) (*Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimSpace(ref)
	if _, err := os.Stat(path); err != nil {
		id := WorkspaceID(path)
		if id == "" {
			return nil, fmt.Errorf("workspace %q: %w", ref, dserrors.ErrValidation)
		}
		path = filepath.Join(s.dir, id+".json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workspace %s: %v: %w", path, err, dserrors.ErrFetchFailed)
	}

	var ws Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("decoding workspace %s: %w", path, err)
	}
	if ws.ID == "" {
		ws.ID = WorkspaceID(path)
	}
	return &ws, nil
}
