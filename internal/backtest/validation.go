package backtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ValidationLedger records which model versions passed a CLV retention decision.
type ValidationLedger interface {
	MarkValidated(ctx context.Context, version string) error
	IsValidated(ctx context.Context, version string) (bool, error)
}

// FileValidationLedger keeps validated versions in a JSON file next to the
// model artifact, for runs without a database.
type FileValidationLedger struct {
	path string
	mu   sync.Mutex
}

type validationEntry struct {
	Version     string    `json:"version"`
	ValidatedAt time.Time `json:"validated_at"`
}

// NewFileValidationLedger uses path as the ledger file.
func NewFileValidationLedger(path string) *FileValidationLedger {
	return &FileValidationLedger{path: path}
}

// ValidationPath returns the ledger file used alongside an artifact path.
func ValidationPath(artifactPath string) string {
	return artifactPath + ".validated.json"
}

// MarkValidated adds version to the ledger. Marking twice is a no-op.
func (l *FileValidationLedger) MarkValidated(_ context.Context, version string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Version == version {
			return nil
		}
	}
	entries = append(entries, validationEntry{Version: version, ValidatedAt: time.Now().UTC()})
	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0o644)
}

// IsValidated reports whether version is in the ledger. A missing file means nothing is validated.
func (l *FileValidationLedger) IsValidated(_ context.Context, version string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Version == version {
			return true, nil
		}
	}
	return false, nil
}

func (l *FileValidationLedger) read() ([]validationEntry, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read validation ledger: %w", err)
	}
	var entries []validationEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse validation ledger %s: %w", l.path, err)
	}
	return entries, nil
}
