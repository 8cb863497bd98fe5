package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collabwrite/collabwrite/internal/document"
	"github.com/collabwrite/collabwrite/internal/document/repository"
)

func newSvc() *Service {
	return New(repository.NewMemoryRepo())
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newSvc()

	d, err := s.Create(ctx, "alice", "")
	require.NoError(t, err)
	require.Equal(t, "Untitled Document", d.Title)
	require.JSONEq(t, string(document.DefaultContent), string(d.Content))

	got, err := s.GetForUser(ctx, d.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, d.ID, got.ID)

	_, err = s.GetForUser(ctx, d.ID, "bob")
	require.ErrorIs(t, err, ErrAccessDenied)

	_, err = s.GetForUser(ctx, "missing", "alice")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRequiresEditor(t *testing.T) {
	ctx := context.Background()
	s := newSvc()
	d, _ := s.Create(ctx, "alice", "doc")
	_, err := s.Share(ctx, d.ID, "alice", "carol", document.RoleViewer)
	require.NoError(t, err)

	_, err = s.Update(ctx, d.ID, "carol", nil, json.RawMessage(`{"ops":[]}`))
	require.ErrorIs(t, err, ErrAccessDenied)

	title := "renamed"
	got, err := s.Update(ctx, d.ID, "alice", &title, json.RawMessage(`{"ops":[{"insert":"x"}]}`))
	require.NoError(t, err)
	require.Equal(t, "renamed", got.Title)
	require.JSONEq(t, `{"ops":[{"insert":"x"}]}`, string(got.Content))
}

func TestShareRules(t *testing.T) {
	ctx := context.Background()
	s := newSvc()
	d, _ := s.Create(ctx, "alice", "doc")

	// only the owner may share
	_, err := s.Share(ctx, d.ID, "bob", "carol", document.RoleEditor)
	require.ErrorIs(t, err, ErrAccessDenied)

	// not with yourself
	_, err = s.Share(ctx, d.ID, "alice", "alice", document.RoleEditor)
	require.ErrorIs(t, err, ErrBadRequest)

	// bad role
	_, err = s.Share(ctx, d.ID, "alice", "bob", document.Role("admin"))
	require.ErrorIs(t, err, ErrBadRequest)

	got, err := s.Share(ctx, d.ID, "alice", "bob", document.RoleEditor)
	require.NoError(t, err)
	require.Len(t, got.SharedWith, 1)

	// re-sharing the same user updates the role in place
	got, err = s.Share(ctx, d.ID, "alice", "bob", document.RoleViewer)
	require.NoError(t, err)
	require.Len(t, got.SharedWith, 1)
	require.Equal(t, document.RoleViewer, got.SharedWith[0].Role)
}

func TestShareToken(t *testing.T) {
	ctx := context.Background()
	s := newSvc()
	d, _ := s.Create(ctx, "alice", "doc")

	_, err := s.GenerateShareToken(ctx, d.ID, "bob")
	require.ErrorIs(t, err, ErrAccessDenied)

	tok, err := s.GenerateShareToken(ctx, d.ID, "alice")
	require.NoError(t, err)
	require.Len(t, tok, 32)

	got, err := s.ResolveShareToken(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, d.ID, got.ID)

	_, err = s.ResolveShareToken(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteOwnerOnly(t *testing.T) {
	ctx := context.Background()
	s := newSvc()
	d, _ := s.Create(ctx, "alice", "doc")
	_, _ = s.Share(ctx, d.ID, "alice", "bob", document.RoleEditor)

	require.ErrorIs(t, s.Delete(ctx, d.ID, "bob"), ErrAccessDenied)
	require.NoError(t, s.Delete(ctx, d.ID, "alice"))
	require.ErrorIs(t, s.Delete(ctx, d.ID, "alice"), ErrNotFound)
}

func TestSaveContentNotFound(t *testing.T) {
	ctx := context.Background()
	s := newSvc()
	require.ErrorIs(t, s.SaveContent(ctx, "missing", json.RawMessage(`{}`)), ErrNotFound)
}
