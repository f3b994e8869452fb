package statusserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/s22625/execmon/internal/model"
	"gopkg.in/yaml.v3"
)

// SnapshotSource produces the snapshot served for each status request.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*model.StatusSnapshot, error)
}

// SourceFunc adapts a function to SnapshotSource.
type SourceFunc func(ctx context.Context) (*model.StatusSnapshot, error)

func (f SourceFunc) Snapshot(ctx context.Context) (*model.StatusSnapshot, error) {
	return f(ctx)
}

// FileSource reads a snapshot file on every request, so edits show up on the
// next refresh. Files ending in .yaml or .yml are parsed as YAML, anything
// else as JSON.
type FileSource struct {
	Path string
}

func (s FileSource) Snapshot(ctx context.Context) (*model.StatusSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot %s: %w", s.Path, err)
		}
	}

	var snap model.StatusSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", s.Path, err)
	}
	return &snap, nil
}

// yamlToJSON converts a YAML document to JSON so executions keep their
// arbitrary shape.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(doc)
}
