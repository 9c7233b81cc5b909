package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DocHandle is an ephemeral local copy of the battle document, spilled to
// a temp file so external viewers can open it by path. Release removes the
// file; releasing twice is a no-op.
type DocHandle struct {
	name string
	path string
	once sync.Once
}

// NewDocHandle writes data to a fresh temp file. name is the display name
// of the document (its extension is kept so viewers pick the right type).
func NewDocHandle(name string, data []byte) (*DocHandle, error) {
	f, err := os.CreateTemp("", "arena-doc-*"+filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("create document handle: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write document handle: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close document handle: %w", err)
	}
	return &DocHandle{name: name, path: f.Name()}, nil
}

// Name returns the document's display name.
func (h *DocHandle) Name() string { return h.name }

// Path returns the temp file location. Invalid after Release.
func (h *DocHandle) Path() string { return h.path }

// Release removes the temp file exactly once.
func (h *DocHandle) Release() {
	h.once.Do(func() {
		os.Remove(h.path)
	})
}
