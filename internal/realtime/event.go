package realtime

import "encoding/json"

// Wire event names at the session boundary. Client-to-server events carry a
// documentId; server-to-client events are addressed by the room they are
// broadcast into.
const (
	EventJoinDocument      = "join-document"
	EventLoadDocument      = "load-document"
	EventDocumentNotFound  = "document-not-found"
	EventDocumentError     = "document-error"
	EventSendChanges       = "send-changes"
	EventReceiveChanges    = "receive-changes"
	EventCursorActivity    = "cursor-activity"
	EventUserJoined        = "user-joined"
	EventUserLeft          = "user-left"
	EventActiveUsers       = "active-users"
	EventSaveDocument      = "save-document"
	EventDocumentSaved     = "document-saved"
	EventDocumentSaveError = "document-save-error"
)

// Envelope is the single frame shape used in both directions. Fields not
// relevant to an event are omitted on the wire. Operation, Content and
// Selection are opaque to the server; only the client editor interprets them.
type Envelope struct {
	Event      string          `json:"event"`
	DocumentID string          `json:"documentId,omitempty"`
	UserID     string          `json:"userId,omitempty"`
	Username   string          `json:"username,omitempty"`
	Operation  json.RawMessage `json:"operation,omitempty"`
	Content    json.RawMessage `json:"content,omitempty"`
	Selection  json.RawMessage `json:"selection,omitempty"`
	Users      []string        `json:"users,omitempty"`
	Error      string          `json:"error,omitempty"`
}
