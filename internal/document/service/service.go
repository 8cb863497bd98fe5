package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/collabwrite/collabwrite/internal/document"
	"github.com/collabwrite/collabwrite/internal/document/repository"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrAccessDenied = errors.New("access denied")
	ErrBadRequest   = errors.New("invalid request")
)

// Service applies the ownership and sharing rules on top of a Repository.
type Service struct {
	repo repository.Repository
}

func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Create makes a new empty document owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID, title string) (*document.Document, error) {
	if ownerID == "" {
		return nil, ErrBadRequest
	}
	if title == "" {
		title = "Untitled Document"
	}
	d := &document.Document{
		Title:      title,
		Owner:      ownerID,
		Content:    append(json.RawMessage(nil), document.DefaultContent...),
		SharedWith: []document.ShareGrant{},
	}
	if _, err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Load fetches the authoritative document record with no access check. The
// realtime gateway uses it at join time and applies the access gate itself.
func (s *Service) Load(ctx context.Context, id string) (*document.Document, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// GetForUser fetches a document the user may view.
func (s *Service) GetForUser(ctx context.Context, id, userID string) (*document.Document, error) {
	d, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !document.CanView(d, userID) {
		return nil, ErrAccessDenied
	}
	return d, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]*document.Document, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Update changes title and/or content on behalf of a user with edit rights.
func (s *Service) Update(ctx context.Context, id, userID string, title *string, content json.RawMessage) (*document.Document, error) {
	d, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !document.CanEdit(d, userID) {
		return nil, ErrAccessDenied
	}
	if title != nil {
		if err := s.repo.SetTitle(ctx, id, *title); err != nil {
			return nil, err
		}
	}
	if content != nil {
		if err := s.repo.SetContent(ctx, id, content); err != nil {
			return nil, err
		}
	}
	return s.Load(ctx, id)
}

// SaveContent overwrites the full content snapshot. Role enforcement happens
// at the session gateway before this is called.
func (s *Service) SaveContent(ctx context.Context, id string, content json.RawMessage) error {
	err := s.repo.SetContent(ctx, id, content)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Delete removes a document; owner only.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	d, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if d.Owner != userID {
		return ErrAccessDenied
	}
	return s.repo.Delete(ctx, id)
}

// Share grants targetID the given role; owner only, never with yourself.
func (s *Service) Share(ctx context.Context, id, ownerID, targetID string, role document.Role) (*document.Document, error) {
	if role != document.RoleViewer && role != document.RoleEditor {
		return nil, ErrBadRequest
	}
	d, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Owner != ownerID {
		return nil, ErrAccessDenied
	}
	if targetID == "" || targetID == ownerID {
		return nil, ErrBadRequest
	}
	if err := s.repo.Share(ctx, id, targetID, role); err != nil {
		return nil, err
	}
	return s.Load(ctx, id)
}

// GenerateShareToken mints a fresh opaque token for the document; owner only.
// A new call replaces any previous token.
func (s *Service) GenerateShareToken(ctx context.Context, id, userID string) (string, error) {
	d, err := s.Load(ctx, id)
	if err != nil {
		return "", err
	}
	if d.Owner != userID {
		return "", ErrAccessDenied
	}
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	if err := s.repo.SetShareToken(ctx, id, token); err != nil {
		return "", err
	}
	return token, nil
}

// ResolveShareToken maps a share token to its document. Callers expose only
// id and title; the token does not grant content access by itself.
func (s *Service) ResolveShareToken(ctx context.Context, token string) (*document.Document, error) {
	d, err := s.repo.GetByShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}
