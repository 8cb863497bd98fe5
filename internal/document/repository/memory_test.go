package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collabwrite/collabwrite/internal/document"
)

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	d := &document.Document{Title: "notes", Owner: "alice", Content: document.DefaultContent}
	id, err := r.Create(ctx, d)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "notes", got.Title)
	require.JSONEq(t, string(document.DefaultContent), string(got.Content))

	err = r.SetContent(ctx, id, json.RawMessage(`{"ops":[{"insert":"hi\n"}]}`))
	require.NoError(t, err)
	got, err = r.Get(ctx, id)
	require.NoError(t, err)
	require.JSONEq(t, `{"ops":[{"insert":"hi\n"}]}`, string(got.Content))

	require.NoError(t, r.SetTitle(ctx, id, "renamed"))
	got, _ = r.Get(ctx, id)
	require.Equal(t, "renamed", got.Title)

	require.NoError(t, r.Delete(ctx, id))
	_, err = r.Get(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, r.SetContent(ctx, id, nil), ErrNotFound)
}

func TestMemoryRepoShareUpsert(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	id, err := r.Create(ctx, &document.Document{Title: "t", Owner: "alice"})
	require.NoError(t, err)

	require.NoError(t, r.Share(ctx, id, "bob", document.RoleViewer))
	require.NoError(t, r.Share(ctx, id, "bob", document.RoleEditor))

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.SharedWith, 1, "one grant per user")
	require.Equal(t, document.RoleEditor, got.SharedWith[0].Role)
}

func TestMemoryRepoListForUser(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	id1, _ := r.Create(ctx, &document.Document{Title: "owned", Owner: "alice"})
	id2, _ := r.Create(ctx, &document.Document{Title: "shared", Owner: "bob"})
	_, _ = r.Create(ctx, &document.Document{Title: "other", Owner: "carol"})
	require.NoError(t, r.Share(ctx, id2, "alice", document.RoleViewer))

	list, err := r.ListForUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	ids := []string{list[0].ID, list[1].ID}
	require.ElementsMatch(t, []string{id1, id2}, ids)
}

func TestMemoryRepoShareToken(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	id, _ := r.Create(ctx, &document.Document{Title: "t", Owner: "alice"})

	_, err := r.GetByShareToken(ctx, "tok")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.SetShareToken(ctx, id, "tok"))
	got, err := r.GetByShareToken(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, id, got.ID)

	_, err = r.GetByShareToken(ctx, "")
	require.ErrorIs(t, err, ErrNotFound)
}
