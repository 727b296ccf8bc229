package snapshot

import (
	"context"
	"time"

	"github.com/google/uuid"

	errs "github.com/edom-dev/edom/internal/errors"
)

// ErrNotFound is returned when a snapshot doesn't exist. It matches any
// error carrying code E180.
var ErrNotFound = errs.New("E180")

// Snapshot is the rendered markup of one session at one point in time.
type Snapshot struct {
	ID        string
	SessionID string
	CreatedAt time.Time
	HTML      []byte
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Save stores s. An empty ID is replaced by a new one; CreatedAt
	// defaults to now.
	Save(ctx context.Context, s *Snapshot) error

	// Load returns the snapshot with the given id or ErrNotFound.
	Load(ctx context.Context, id string) (*Snapshot, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes snapshots older than maxAge and reports how many.
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
}

// New returns a snapshot of html for sessionID with a fresh id.
func New(sessionID string, html []byte) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
		HTML:      html,
	}
}

func prepare(s *Snapshot) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
}

// validID reports whether id is a canonical snapshot id. Ids end up in
// file names and object keys, so anything else is rejected.
func validID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id
}

func notFound(id string) error {
	return errs.New("E180").WithDetailf("snapshot %q", id)
}

func writeFailed(id string, err error) error {
	return errs.New("E181").WithDetailf("snapshot %q", id).Wrap(err)
}
