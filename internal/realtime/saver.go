package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/collabwrite/collabwrite/internal/document/service"
	"github.com/collabwrite/collabwrite/internal/storage"
	"github.com/collabwrite/collabwrite/pkg/logger"
	"github.com/collabwrite/collabwrite/pkg/metrics"
)

// Save trigger sources, used as the metrics label.
const (
	TriggerManual   = "manual"
	TriggerAutosave = "autosave"
)

// Coordinator writes editor state back to the document store. Manual saves
// and the periodic autosave both run through it; it always writes the full
// current snapshot, never a diff. When a snapshot archive is configured, each
// successful save is also archived asynchronously.
type Coordinator struct {
	docs      *service.Service
	snapshots *storage.SnapshotStore
}

func NewCoordinator(docs *service.Service, snapshots *storage.SnapshotStore) *Coordinator {
	return &Coordinator{docs: docs, snapshots: snapshots}
}

// Save persists the content snapshot for the document. The returned error is
// service.ErrNotFound when the document was deleted underneath the session.
func (s *Coordinator) Save(ctx context.Context, documentID string, content json.RawMessage, trigger string) error {
	err := s.docs.SaveContent(ctx, documentID, content)
	if err != nil {
		outcome := "error"
		if errors.Is(err, service.ErrNotFound) {
			outcome = "not_found"
		}
		metrics.DocumentSaves.WithLabelValues(trigger, outcome).Inc()
		return err
	}
	metrics.DocumentSaves.WithLabelValues(trigger, "success").Inc()

	if s.snapshots != nil {
		archived := append(json.RawMessage(nil), content...)
		go func() {
			actx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.snapshots.PutSnapshot(actx, documentID, archived); err != nil {
				logger.Warnf("snapshot archive for document %s failed: %v", documentID, err)
			}
		}()
	}
	return nil
}
