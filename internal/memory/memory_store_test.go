package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/tablebuddy/internal/models"
)

func TestInMemoryStore_Lifecycle(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	sess, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sess.Messages, 1)

	require.NoError(t, store.SaveMessage(ctx, "s1", Message{Role: RoleUser, Content: "hello"}))
	require.NoError(t, store.SaveContext(ctx, "s1", models.DialogueContext{PartySize: 4}))

	exists, err := store.SessionExists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, exists)

	msgs, err := store.GetMessages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[1].Content)

	sess, err = store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, sess.Context.PartySize)

	require.NoError(t, store.ClearSession(ctx, "s1"))
	exists, err = store.SessionExists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SaveContext(ctx, "s1", models.DialogueContext{Date: "2025-08-09"}))

	sess, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	sess.Context.Clear()
	sess.Messages = append(sess.Messages, Message{Role: RoleUser, Content: "unsaved"})

	again, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-09", again.Context.Date)
	assert.Len(t, again.Messages, 1)
}
