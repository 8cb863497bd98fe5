package realtime

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/collabwrite/collabwrite/internal/config"
	"github.com/collabwrite/collabwrite/internal/document"
	"github.com/collabwrite/collabwrite/internal/document/service"
	"github.com/collabwrite/collabwrite/internal/tokens"
	"github.com/collabwrite/collabwrite/pkg/logger"
	"github.com/collabwrite/collabwrite/pkg/metrics"
)

const defaultSendBuffer = 64

// Gateway is the connection-oriented entry point. It upgrades HTTP requests
// to websockets, binds each connection to a (document, user, role) session on
// join, and routes edit, cursor and save events between the hub, the presence
// registry and the persistence coordinator.
type Gateway struct {
	cfg      *config.Config
	docs     *service.Service
	saver    *Coordinator
	hub      *Hub
	presence *Registry
	upgrader websocket.Upgrader
}

func NewGateway(cfg *config.Config, docs *service.Service, saver *Coordinator) *Gateway {
	return &Gateway{
		cfg:      cfg,
		docs:     docs,
		saver:    saver,
		hub:      NewHub(),
		presence: NewRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// cross-origin clients are expected; identity comes from the
			// token, not the Origin header
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handle upgrades the request and runs the connection's pumps. The access
// token may ride in a "token" query parameter or an Authorization header;
// when present it fixes the session identity before any join is accepted.
func (g *Gateway) Handle(c *gin.Context) {
	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	buf := g.cfg.Collab.SendBuffer
	if buf <= 0 {
		buf = defaultSendBuffer
	}
	cl := &client{
		gw:        g,
		conn:      conn,
		send:      make(chan []byte, buf),
		sessionID: uuid.NewString(),
	}
	if raw := bearerToken(c); raw != "" {
		if claims, err := tokens.ParseAccessToken(g.cfg, raw); err == nil {
			cl.authedUserID = claims.Subject
			cl.authedUsername = claims.Username
		} else {
			logger.Debugf("session %s presented an invalid token", cl.sessionID)
		}
	}

	metrics.ActiveSessions.Inc()
	go cl.writePump()
	go cl.readPump()
}

func bearerToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	if after, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// dispatch handles one inbound event. It runs on the connection's readPump
// goroutine, so events from one sender are processed strictly in order.
func (g *Gateway) dispatch(c *client, env *Envelope) {
	switch env.Event {
	case EventJoinDocument:
		g.handleJoin(c, env)
	case EventSendChanges:
		g.handleChanges(c, env)
	case EventCursorActivity:
		g.handleCursor(c, env)
	case EventSaveDocument:
		g.handleSave(c, env)
	default:
		logger.Debugf("session %s sent unknown event %q", c.sessionID, env.Event)
	}
}

func (g *Gateway) handleJoin(c *client, env *Envelope) {
	if c.joined {
		c.enqueue(&Envelope{Event: EventDocumentError, Error: "session already joined a document"})
		return
	}
	userID, username := c.authedUserID, c.authedUsername
	if userID == "" {
		userID, username = env.UserID, env.Username
	}
	if env.DocumentID == "" || userID == "" {
		c.enqueue(&Envelope{Event: EventDocumentError, Error: "documentId and userId are required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	doc, err := g.docs.Load(ctx, env.DocumentID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.enqueue(&Envelope{Event: EventDocumentNotFound, DocumentID: env.DocumentID})
		} else {
			logger.Errorf("load document %s: %v", env.DocumentID, err)
			c.enqueue(&Envelope{Event: EventDocumentError, Error: "failed to load document"})
		}
		return
	}
	// re-check grants against the authoritative record on every join
	if !document.CanView(doc, userID) {
		c.enqueue(&Envelope{Event: EventDocumentError, Error: "access denied"})
		return
	}

	c.joined = true
	c.documentID = doc.ID
	c.userID = userID
	c.username = username
	c.canEdit = document.CanEdit(doc, userID)

	snapshot := g.hub.join(doc.ID, c, doc.Content)
	g.presence.Join(doc.ID, userID, username)

	c.enqueue(&Envelope{Event: EventLoadDocument, DocumentID: doc.ID, Content: snapshot})
	g.hub.broadcast(doc.ID, c, &Envelope{Event: EventUserJoined, UserID: userID, Username: username})
	g.hub.broadcast(doc.ID, nil, &Envelope{Event: EventActiveUsers, Users: g.presence.Active(doc.ID)})

	if c.canEdit {
		actx, stop := context.WithCancel(context.Background())
		c.stopAutosave = stop
		go g.autosaveLoop(actx, doc.ID)
	}
	logger.Infof("user %s joined document %s (session %s)", username, doc.ID, c.sessionID)
}

func (g *Gateway) handleChanges(c *client, env *Envelope) {
	if !c.joined {
		c.enqueue(&Envelope{Event: EventDocumentError, Error: "join a document first"})
		return
	}
	if !c.canEdit {
		c.enqueue(&Envelope{Event: EventDocumentError, Error: "view-only access"})
		return
	}
	if len(env.Operation) == 0 {
		c.enqueue(&Envelope{Event: EventDocumentError, Error: "operation is required"})
		return
	}
	g.hub.markDirty(c.documentID, env.Content)
	g.hub.broadcast(c.documentID, c, &Envelope{
		Event:     EventReceiveChanges,
		UserID:    c.userID,
		Operation: env.Operation,
	})
}

func (g *Gateway) handleCursor(c *client, env *Envelope) {
	if !c.joined {
		return
	}
	g.hub.broadcast(c.documentID, c, &Envelope{
		Event:     EventCursorActivity,
		UserID:    c.userID,
		Username:  c.username,
		Selection: env.Selection,
	})
}

func (g *Gateway) handleSave(c *client, env *Envelope) {
	if !c.joined || !c.canEdit {
		c.enqueue(&Envelope{Event: EventDocumentSaveError, Error: "view-only access"})
		return
	}
	if len(env.Content) == 0 {
		c.enqueue(&Envelope{Event: EventDocumentSaveError, Error: "content is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := g.saver.Save(ctx, c.documentID, env.Content, TriggerManual); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.enqueue(&Envelope{Event: EventDocumentSaveError, Error: "document no longer exists"})
		} else {
			logger.Errorf("save document %s: %v", c.documentID, err)
			c.enqueue(&Envelope{Event: EventDocumentSaveError, Error: "save failed"})
		}
		return
	}
	g.hub.setContent(c.documentID, env.Content)
	g.hub.broadcast(c.documentID, nil, &Envelope{Event: EventDocumentSaved, DocumentID: c.documentID})
}

// autosaveLoop flushes the room's cached snapshot while it has unsaved edits.
// The loop is scoped to the editing session that started it and stops when
// that session disconnects.
func (g *Gateway) autosaveLoop(ctx context.Context, documentID string) {
	interval := g.cfg.Collab.AutosaveInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			content, rev, dirty := g.hub.snapshot(documentID)
			if !dirty || content == nil {
				continue
			}
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := g.saver.Save(sctx, documentID, content, TriggerAutosave)
			cancel()
			if err != nil {
				logger.Warnf("autosave of document %s failed: %v", documentID, err)
				g.hub.broadcast(documentID, nil, &Envelope{Event: EventDocumentSaveError, Error: "autosave failed"})
				continue
			}
			g.hub.markSaved(documentID, rev)
			g.hub.broadcast(documentID, nil, &Envelope{Event: EventDocumentSaved, DocumentID: documentID})
		}
	}
}

// disconnect tears the session down: presence leave, room departure, a
// presence update to the remaining members, and cancellation of the session's
// autosave timer. Runs exactly once per connection, from readPump's defer.
func (g *Gateway) disconnect(c *client) {
	if c.stopAutosave != nil {
		c.stopAutosave()
	}
	if c.joined {
		g.hub.leave(c.documentID, c)
		g.presence.Leave(c.documentID, c.userID)
		g.hub.broadcast(c.documentID, nil, &Envelope{Event: EventUserLeft, UserID: c.userID, Username: c.username})
		g.hub.broadcast(c.documentID, nil, &Envelope{Event: EventActiveUsers, Users: g.presence.Active(c.documentID)})
		logger.Infof("user %s left document %s (session %s)", c.username, c.documentID, c.sessionID)
	}
	c.close()
	metrics.ActiveSessions.Dec()
}
