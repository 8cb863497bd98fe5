package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/collabwrite/collabwrite/internal/document"
)

var ErrNotFound = errors.New("document not found")

// Repository is the persistence contract for documents. Both the in-memory
// and the Mongo implementations satisfy it.
type Repository interface {
	Create(ctx context.Context, doc *document.Document) (string, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	GetByShareToken(ctx context.Context, token string) (*document.Document, error)
	// ListForUser returns documents the user owns or is shared on.
	ListForUser(ctx context.Context, userID string) ([]*document.Document, error)
	// SetContent overwrites the content snapshot and refreshes updatedAt.
	SetContent(ctx context.Context, id string, content json.RawMessage) error
	SetTitle(ctx context.Context, id string, title string) error
	// Share upserts the grant for userID (one grant per user).
	Share(ctx context.Context, id string, userID string, role document.Role) error
	SetShareToken(ctx context.Context, id string, token string) error
	Delete(ctx context.Context, id string) error
}
