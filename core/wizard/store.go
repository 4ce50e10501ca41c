package wizard

import "context"

// Store keeps wizard sessions between requests. Sessions expire; nothing is written to the database.
type Store interface {
	Locker

	Save(ctx context.Context, st *State) error
	// Get returns ErrNotFound for unknown or expired wizards.
	Get(ctx context.Context, id string) (*State, error)
	Delete(ctx context.Context, id string) error
}
