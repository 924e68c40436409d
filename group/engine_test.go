package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineCreateAndGet(t *testing.T) {
	e := NewEngine()

	g, err := e.Create("Team", VisibilityPublic, "creator")
	require.NoError(t, err)

	got, err := e.Get(g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)

	_, err = e.Get("missing")
	assert.ErrorIs(t, err, ErrGroupNotFound)

	assert.Len(t, e.Groups(), 1)
}

func TestEngineCanPerform(t *testing.T) {
	e := NewEngine()
	g, err := e.Create("Team", VisibilityPublic, "creator")
	require.NoError(t, err)

	assert.True(t, e.CanPerform(g.ID, "creator", ActionSendMessage))
	assert.False(t, e.CanPerform(g.ID, "stranger", ActionSendMessage))
	assert.False(t, e.CanPerform("missing", "creator", ActionSendMessage))
}

func TestEngineDelete(t *testing.T) {
	e := NewEngine()
	g, err := e.Create("Team", VisibilityPublic, "creator")
	require.NoError(t, err)
	require.NoError(t, g.AddMember("creator", "member"))

	assert.ErrorIs(t, e.Delete(g.ID, "member"), ErrPermissionDenied)
	assert.ErrorIs(t, e.Delete("missing", "creator"), ErrGroupNotFound)

	require.NoError(t, e.Delete(g.ID, "creator"))
	_, err = e.Get(g.ID)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}
