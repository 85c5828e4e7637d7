package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRenderInvitation(t *testing.T) {
	subject, body, err := Render(Invitation, map[string]string{
		"inviter":   "owner@example.com",
		"groups":    "Morning meds",
		"canEdit":   "true",
		"signInURL": "https://medtrack.example/register",
	})
	require.NoError(t, err)

	assert.Equal(t, "You've been granted access to medications on MedTrack", subject)
	assert.Contains(t, body, "owner@example.com shared Morning meds with you")
	assert.Contains(t, body, "view and record doses")
	assert.Contains(t, body, "https://medtrack.example/register")
}

func TestRenderViewOnlyInvitation(t *testing.T) {
	_, body, err := Render(Invitation, map[string]string{"canEdit": "false"})
	require.NoError(t, err)
	assert.NotContains(t, body, "record")
}

func TestRenderUnknownKind(t *testing.T) {
	_, _, err := Render(Kind("nope"), nil)
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLog(zap.New(core))

	err := s.Send(context.Background(), "invitee@example.com", Invitation, map[string]string{"inviter": "a@b.c"})
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "invitee@example.com", entry.ContextMap()["to"])
	assert.Equal(t, "invitation", entry.ContextMap()["kind"])
}
