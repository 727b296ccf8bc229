package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DiskStore stores snapshots on the local filesystem as <id>.html with a
// JSON sidecar <id>.meta.
type DiskStore struct {
	dir string
	mu  sync.Mutex
}

type diskMeta struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Size      int       `json:"size"`
}

// NewDiskStore creates a DiskStore rooted at dir, creating it if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

// Save implements Store.
func (s *DiskStore) Save(_ context.Context, snap *Snapshot) error {
	prepare(snap)
	if !validID(snap.ID) {
		return writeFailed(snap.ID, errors.New("invalid id"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.htmlPath(snap.ID), snap.HTML, 0o644); err != nil {
		return writeFailed(snap.ID, err)
	}
	meta, err := json.Marshal(diskMeta{
		SessionID: snap.SessionID,
		CreatedAt: snap.CreatedAt,
		Size:      len(snap.HTML),
	})
	if err != nil {
		return writeFailed(snap.ID, err)
	}
	if err := os.WriteFile(s.metaPath(snap.ID), meta, 0o644); err != nil {
		os.Remove(s.htmlPath(snap.ID))
		return writeFailed(snap.ID, err)
	}
	return nil
}

// Load implements Store.
func (s *DiskStore) Load(_ context.Context, id string) (*Snapshot, error) {
	if !validID(id) {
		return nil, notFound(id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	html, err := os.ReadFile(s.htmlPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{ID: id, HTML: html}
	data, err := os.ReadFile(s.metaPath(id))
	if err == nil {
		var meta diskMeta
		if err := json.Unmarshal(data, &meta); err == nil {
			snap.SessionID = meta.SessionID
			snap.CreatedAt = meta.CreatedAt
		}
	}
	if snap.CreatedAt.IsZero() {
		if info, err := os.Stat(s.htmlPath(id)); err == nil {
			snap.CreatedAt = info.ModTime().UTC()
		}
	}
	return snap, nil
}

// Delete implements Store.
func (s *DiskStore) Delete(_ context.Context, id string) error {
	if !validID(id) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.htmlPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Remove(s.metaPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Cleanup implements Store. Age is taken from the file modification time
// so orphaned files without a sidecar are collected too.
func (s *DiskStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		id, ok := strings.CutSuffix(name, ".html")
		if !ok || !validID(id) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		os.Remove(filepath.Join(s.dir, name))
		os.Remove(s.metaPath(id))
		removed++
	}
	return removed, nil
}

func (s *DiskStore) htmlPath(id string) string {
	return filepath.Join(s.dir, id+".html")
}

func (s *DiskStore) metaPath(id string) string {
	return filepath.Join(s.dir, id+".meta")
}
