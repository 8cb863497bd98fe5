package realtime

import (
	"encoding/json"
	"sync"

	"github.com/collabwrite/collabwrite/pkg/logger"
	"github.com/collabwrite/collabwrite/pkg/metrics"
)

// room groups the live sessions of one document and caches the last content
// snapshot the server has seen for it. rev increments on every cache change so
// the autosave loop can tell whether edits arrived while a save was in flight.
type room struct {
	clients map[*client]struct{}
	content json.RawMessage
	dirty   bool
	rev     uint64
}

// Hub owns the room table. Broadcast is read-only fan-out over the member set
// at the moment of the event; joins and leaves are single map updates. A
// session joining mid-broadcast may or may not see that broadcast.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

// join adds the client to the document's room, creating it on first join and
// seeding the content cache from the persisted snapshot. It returns the
// snapshot the joining session should be handed, which is the cached content
// when the room already existed.
func (h *Hub) join(documentID string, c *client, persisted json.RawMessage) json.RawMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[documentID]
	if !ok {
		r = &room{clients: make(map[*client]struct{}), content: persisted}
		h.rooms[documentID] = r
	}
	r.clients[c] = struct{}{}
	return r.content
}

// leave drops the client; an empty room is discarded together with its cache.
func (h *Hub) leave(documentID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[documentID]
	if !ok {
		return
	}
	delete(r.clients, c)
	if len(r.clients) == 0 {
		delete(h.rooms, documentID)
	}
}

// broadcast fans the envelope out to every session in the room except sender
// (nil sender reaches everyone). Delivery is best effort: a recipient whose
// send buffer is full misses the event rather than stalling the room.
func (h *Hub) broadcast(documentID string, sender *client, env *Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		logger.Errorf("marshal %s event: %v", env.Event, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[documentID]
	if !ok {
		return
	}
	for c := range r.clients {
		if c == sender {
			continue
		}
		select {
		case c.send <- b:
			metrics.EventsRelayed.WithLabelValues(env.Event).Inc()
		default:
			logger.Debugf("dropping %s event for slow session %s", env.Event, c.sessionID)
		}
	}
}

// markDirty flags the room as having unsaved edits. When the edit carried a
// full content snapshot it refreshes the cache too.
func (h *Hub) markDirty(documentID string, content json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[documentID]
	if !ok {
		return
	}
	r.dirty = true
	r.rev++
	if content != nil {
		r.content = content
	}
}

// snapshot returns the cached content, the current revision and whether
// unsaved edits exist.
func (h *Hub) snapshot(documentID string) (json.RawMessage, uint64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[documentID]
	if !ok {
		return nil, 0, false
	}
	return r.content, r.rev, r.dirty
}

// markSaved records a successful save of the given revision's content. The
// dirty flag is cleared only if no newer edit bumped the revision while the
// save was in flight.
func (h *Hub) markSaved(documentID string, rev uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[documentID]
	if !ok {
		return
	}
	if r.rev == rev {
		r.dirty = false
	}
}

// setContent installs a freshly saved snapshot as the clean cache state.
func (h *Hub) setContent(documentID string, content json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[documentID]
	if !ok {
		return
	}
	r.content = content
	r.dirty = false
	r.rev++
}
