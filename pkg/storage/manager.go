package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// Manager archives crawl results as JSON files under an output directory.
type Manager struct {
	outputDir string
	saved     map[string]string // run id -> path
	mu        sync.RWMutex
}

// ResultFile describes one archived result.
type ResultFile struct {
	Path     string
	Platform string
	Handle   string
	RunID    string
	ModTime  time.Time
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	m := &Manager{
		outputDir: outputDir,
		saved:     make(map[string]string),
	}
	if err := m.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}
	return m, nil
}

func (m *Manager) scanExistingFiles() error {
	files, err := m.List("")
	if err != nil {
		return err
	}
	for _, f := range files {
		m.saved[f.RunID] = f.Path
	}
	return nil
}

// SaveResult writes v as {platform}_{handle}_{runID}.json and returns the path.
func (m *Manager) SaveResult(platform, handle, runID string, v interface{}) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}
	name := fmt.Sprintf("%s_%s_%s.json",
		sanitize(platform), sanitize(handle), sanitize(runID))
	path := filepath.Join(m.outputDir, name)

	if err := WriteJSONAtomic(path, v, 0644); err != nil {
		return "", fmt.Errorf("failed to save result: %w", err)
	}

	m.mu.Lock()
	m.saved[runID] = path
	m.mu.Unlock()
	return path, nil
}

// IsSaved reports whether a result for runID exists in the archive.
func (m *Manager) IsSaved(runID string) bool {
	m.mu.RLock()
	path, ok := m.saved[runID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// List returns archived results, newest first, optionally filtered by platform.
func (m *Manager) List(platform string) ([]ResultFile, error) {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []ResultFile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		parts := strings.SplitN(strings.TrimSuffix(entry.Name(), ".json"), "_", 3)
		if len(parts) != 3 {
			continue
		}
		// handles may contain underscores; the run id never does
		rest := parts[1] + "_" + parts[2]
		cut := strings.LastIndex(rest, "_")
		f := ResultFile{
			Path:     filepath.Join(m.outputDir, entry.Name()),
			Platform: parts[0],
			Handle:   rest[:cut],
			RunID:    rest[cut+1:],
		}
		if platform != "" && f.Platform != platform {
			continue
		}
		if info, err := entry.Info(); err == nil {
			f.ModTime = info.ModTime()
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

func sanitize(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "@")
	s = unsafeChars.ReplaceAllString(s, "-")
	if s == "" {
		return "unknown"
	}
	return s
}
