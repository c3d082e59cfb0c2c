package storage

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	// Decoders registered for Probe
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/natefinch/atomic"
	"lukechampine.com/blake3"
)

// SaveResult describes a file written by Save
type SaveResult struct {
	Path     string
	Bytes    int64
	ModTime  time.Time
	Checksum string
	Width    int
	Height   int
	Format   string
}

// Manager owns the destination directory of a run
type Manager struct {
	outputDir string
	present   map[string]bool
	mu        sync.RWMutex
}

// NewManager creates the destination directory if needed and records the
// files already in it.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	m := &Manager{
		outputDir: outputDir,
		present:   make(map[string]bool),
	}
	if err := m.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}
	return m, nil
}

func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			m.present[entry.Name()] = true
		}
	}
	return nil
}

// Dir returns the destination directory
func (m *Manager) Dir() string {
	return m.outputDir
}

// Path returns where a file called name is stored
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// Exists reports whether name is already stored
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	known := m.present[name]
	m.mu.RUnlock()
	if known {
		return true
	}

	info, err := os.Stat(m.Path(name))
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	m.mu.Lock()
	m.present[name] = true
	m.mu.Unlock()
	return true
}

// Count returns the number of stored files known to the manager
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.present)
}

// Save writes data to name atomically and stamps it with modTime. Readers
// never observe a partially written file.
func (m *Manager) Save(name string, data []byte, modTime time.Time) (SaveResult, error) {
	if name == "" || name != filepath.Base(name) {
		return SaveResult{}, fmt.Errorf("invalid file name %q", name)
	}
	p := m.Path(name)

	if err := atomic.WriteFile(p, bytes.NewReader(data)); err != nil {
		return SaveResult{}, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Chmod(p, 0644); err != nil {
		return SaveResult{}, fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	if !modTime.IsZero() {
		if err := os.Chtimes(p, modTime, modTime); err != nil {
			return SaveResult{}, fmt.Errorf("failed to set times on %s: %w", name, err)
		}
	}

	m.mu.Lock()
	m.present[name] = true
	m.mu.Unlock()

	res := SaveResult{
		Path:     p,
		Bytes:    int64(len(data)),
		ModTime:  modTime,
		Checksum: Checksum(data),
	}
	if w, h, format, err := Probe(data); err == nil {
		res.Width, res.Height, res.Format = w, h, format
	}
	return res, nil
}

// Checksum returns the hex blake3-256 digest of data
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Probe decodes the image header of data
func Probe(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", err
	}
	return cfg.Width, cfg.Height, format, nil
}

// BaseName returns the final path segment of a media URL
func BaseName(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		rawURL = rawURL[:i]
	}
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		rawURL = u.Path
	}
	if strings.HasSuffix(rawURL, "/") {
		return ""
	}
	return path.Base(rawURL)
}
