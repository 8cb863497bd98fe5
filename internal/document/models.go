package document

import (
	"encoding/json"
	"time"
)

// Role describes the access level a share grant gives a user.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
)

// ShareGrant links one user to a document with a role. A document holds at
// most one grant per user.
type ShareGrant struct {
	UserID string `bson:"user" json:"user"`
	Role   Role   `bson:"role" json:"role"`
}

// Document is the persisted rich-text document model. Content is an opaque
// editor delta (Quill-style op list); the server stores and relays it without
// interpreting individual operations.
type Document struct {
	ID         string          `bson:"_id,omitempty" json:"id"`
	Title      string          `bson:"title" json:"title"`
	Content    json.RawMessage `bson:"content,omitempty" json:"content,omitempty"`
	Owner      string          `bson:"owner" json:"owner"`
	SharedWith []ShareGrant    `bson:"sharedWith" json:"sharedWith"`
	ShareToken string          `bson:"shareToken,omitempty" json:"shareToken,omitempty"`
	CreatedAt  time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// DefaultContent is the delta for a freshly created empty document.
var DefaultContent = json.RawMessage(`{"ops":[{"insert":"\n"}]}`)
