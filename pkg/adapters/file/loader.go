// Package file loads a whole flow from a single YAML or JSON file.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aretw0/flowkit/internal/flowdef"
	"github.com/aretw0/flowkit/pkg/domain"
)

// Loader implements ports.FlowLoader over a definition file.
// The file is read on every LoadFlow, so edits are picked up by the next reload.
type Loader struct {
	path   string
	parser *flowdef.Parser
}

// NewLoader creates a loader for path.
func NewLoader(path string) *Loader {
	return &Loader{path: path, parser: flowdef.NewParser()}
}

// Path returns the file being loaded.
func (l *Loader) Path() string { return l.path }

// LoadFlow reads and parses the file. A flow without ID takes the file name.
func (l *Loader) LoadFlow(ctx context.Context) (*domain.Flow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, l.path)
		}
		return nil, fmt.Errorf("failed to read flow: %w", err)
	}
	flow, err := l.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	if flow.ID == "" {
		flow.ID = flowdef.TrimExtension(filepath.Base(l.path))
	}
	return flow, nil
}
