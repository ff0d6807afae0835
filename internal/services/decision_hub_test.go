package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lernwerk/backend/internal/assets"
)

func TestDecisionHubDeliversSubmittedChoice(t *testing.T) {
	hub := NewDecisionHub()
	sessionID := uuid.New()

	done := make(chan assets.CleanupChoice, 1)
	go func() {
		choice, _ := hub.Decide(context.Background(), sessionID, assets.SessionSummary{})
		done <- choice
	}()

	require.Eventually(t, func() bool {
		return hub.Awaiting(sessionID)
	}, time.Second, 5*time.Millisecond)

	assert.True(t, hub.Submit(sessionID, assets.CleanupRollback))

	select {
	case choice := <-done:
		assert.Equal(t, assets.CleanupRollback, choice)
	case <-time.After(time.Second):
		t.Fatal("decision never delivered")
	}
	assert.False(t, hub.Awaiting(sessionID))
}

func TestDecisionHubTimeoutDefaultsToKeep(t *testing.T) {
	hub := NewDecisionHub()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	choice, err := hub.Decide(ctx, uuid.New(), assets.SessionSummary{})
	require.NoError(t, err)
	assert.Equal(t, assets.CleanupKeep, choice, "silence must never trigger deletes")
}

func TestDecisionHubSubmitWithoutWaiter(t *testing.T) {
	hub := NewDecisionHub()
	assert.False(t, hub.Submit(uuid.New(), assets.CleanupKeep))
}

// End-to-end: cancel over the service, answer through the hub.
func TestSubmitCleanupChoiceResolvesNegotiation(t *testing.T) {
	store := newFakeStore()
	store.gate()
	hub := NewDecisionHub()
	svc := newTestEngine(store, &fakePatcher{}, hub, 300*time.Millisecond)

	session, err := svc.Upload(context.Background(), seminarProduct("sem-envs-1"), slideFiles("f1.pdf", "f2.pdf", "f3.pdf"), UploadOptions{Kind: assets.KindSlide})
	require.NoError(t, err)

	releaseUploads(t, store, 2)
	_, err = svc.Cancel(session.ID)
	require.NoError(t, err)

	waitState(t, session, assets.SessionAwaitingDecision)
	require.Eventually(t, func() bool {
		return hub.Awaiting(session.ID)
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, svc.SubmitCleanupChoice(session.ID, assets.CleanupRollback))

	waitState(t, session, assets.SessionCancelled)
	assert.Len(t, store.deletedNames(), 2)
	assert.Empty(t, store.remaining())
}

func TestSubmitCleanupChoiceWithoutPendingNegotiation(t *testing.T) {
	store := newFakeStore()
	hub := NewDecisionHub()
	svc := newTestEngine(store, &fakePatcher{}, hub, 0)

	session, err := svc.Upload(context.Background(), seminarProduct("sem-envs-1"), slideFiles("f1.pdf"), UploadOptions{Kind: assets.KindSlide})
	require.NoError(t, err)
	waitState(t, session, assets.SessionCompleted)

	err = svc.SubmitCleanupChoice(session.ID, assets.CleanupKeep)
	require.Error(t, err)
}
