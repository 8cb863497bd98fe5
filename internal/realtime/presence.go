package realtime

import (
	"sort"
	"sync"
)

// Registry tracks which users are present in which document. It is advisory
// state: rebuilt from live connections, never persisted. One lock guards the
// whole table; mutations are single map updates, so churn on one document
// never blocks reads on another for long.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]map[string]string // documentID -> userID -> username
}

func NewRegistry() *Registry {
	return &Registry{docs: make(map[string]map[string]string)}
}

// Join records the user as present. A second join for the same user
// (reconnect) overwrites the existing entry instead of duplicating it.
func (r *Registry) Join(documentID, userID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.docs[documentID]
	if !ok {
		m = make(map[string]string)
		r.docs[documentID] = m
	}
	m[userID] = username
}

// Leave removes the user's entry; the document's map is discarded once empty.
func (r *Registry) Leave(documentID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.docs[documentID]
	if !ok {
		return
	}
	delete(m, userID)
	if len(m) == 0 {
		delete(r.docs, documentID)
	}
}

// Active returns a snapshot of the usernames present in the document, sorted
// for stable display.
func (r *Registry) Active(documentID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.docs[documentID]
	users := make([]string, 0, len(m))
	for _, name := range m {
		users = append(users, name)
	}
	sort.Strings(users)
	return users
}
