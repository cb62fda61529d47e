package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queuedProspects(n int) ([]*model.Prospect, []QueueEntry) {
	prospects := make([]*model.Prospect, 0, n)
	entries := make([]QueueEntry, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("p%d", i+1)
		prospects = append(prospects, &model.Prospect{
			UUIDBase:    model.UUIDBase{ID: id},
			OwnerID:     1,
			Name:        "Player " + id,
			Position:    "CM",
			Status:      model.StatusLead,
			PendingSync: true,
		})
		entries = append(entries, QueueEntry{LocalID: id, OwnerID: 1, EnqueuedAt: time.Now()})
	}
	return prospects, entries
}

func TestEnqueuePreservesOrder(t *testing.T) {
	store := &memQueueStore{}
	prospects, _ := queuedProspects(3)
	svc := NewSyncQueueService(store, newFakeCommitter(), newFakeProspectStore(prospects...), &fakeNotifier{})

	for _, p := range prospects {
		require.NoError(t, svc.Enqueue(context.Background(), p))
	}

	entries, err := svc.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "p1", entries[0].LocalID)
	assert.Equal(t, "p2", entries[1].LocalID)
	assert.Equal(t, "p3", entries[2].LocalID)
}

func TestDrainCommitsFIFOAndMarksSynced(t *testing.T) {
	prospects, entries := queuedProspects(3)
	store := &memQueueStore{entries: entries}
	committer := newFakeCommitter()
	prospectStore := newFakeProspectStore(prospects...)
	svc := NewSyncQueueService(store, committer, prospectStore, &fakeNotifier{})

	committed, err := svc.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, committed)

	assert.Equal(t, []string{"p1", "p2", "p3"}, committer.inserted, "drain must go oldest first")
	assert.Empty(t, store.entries)
	assert.Equal(t, "remote-p2", prospectStore.synced["p2"])
}

func TestDrainStopsOnConnectivityFailureWithoutLoss(t *testing.T) {
	prospects, entries := queuedProspects(3)
	store := &memQueueStore{entries: entries}
	committer := newFakeCommitter()
	committer.failWith["p2"] = fmt.Errorf("%w: connection refused", util.ErrRemoteUnavailable)
	svc := NewSyncQueueService(store, committer, newFakeProspectStore(prospects...), &fakeNotifier{})

	atomic.StoreInt32(&svc.online, 1)
	committed, err := svc.Drain(context.Background())
	require.ErrorIs(t, err, util.ErrRemoteUnavailable)
	assert.Equal(t, 1, committed)

	// p1 committed and left the queue; p2 and p3 stay exactly once each.
	require.Len(t, store.entries, 2)
	assert.Equal(t, "p2", store.entries[0].LocalID)
	assert.Equal(t, "p3", store.entries[1].LocalID)
	assert.False(t, store.entries[0].NeedsAttention, "an outage is not the entry's fault")
	assert.False(t, svc.Online(), "failed drain must flip the service offline")

	// A later drain picks up where it left off with no duplicates.
	delete(committer.failWith, "p2")
	committed, err = svc.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, committed)
	assert.Equal(t, []string{"p1", "p2", "p3"}, committer.inserted)
	assert.Empty(t, store.entries)
}

func TestDrainBlocksOnRejectedHead(t *testing.T) {
	prospects, entries := queuedProspects(2)
	store := &memQueueStore{entries: entries}
	committer := newFakeCommitter()
	committer.failWith["p1"] = &RejectionError{StatusCode: 422, Message: "name too long"}
	notifier := &fakeNotifier{}
	svc := NewSyncQueueService(store, committer, newFakeProspectStore(prospects...), notifier)

	committed, err := svc.Drain(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, committed)

	require.Len(t, store.entries, 2)
	assert.True(t, store.entries[0].NeedsAttention)
	assert.Equal(t, 1, store.entries[0].Attempts)
	assert.Contains(t, store.entries[0].LastError, "name too long")

	failures := notifier.ofKind(model.NotificationSyncFailure)
	require.Len(t, failures, 1)
	assert.Equal(t, "p1", failures[0].ProspectID)

	// The blocked head stops later drains cold; nothing behind it jumps
	// the queue.
	committed, err = svc.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, committed)
	assert.Empty(t, committer.inserted)

	// Discarding the poisoned entry unblocks the rest.
	require.NoError(t, svc.Discard(context.Background(), "p1"))
	committed, err = svc.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, committed)
	assert.Equal(t, []string{"p2"}, committer.inserted)
}

func TestDrainDropsEntriesForDeletedProspects(t *testing.T) {
	prospects, entries := queuedProspects(2)
	store := &memQueueStore{entries: entries}
	committer := newFakeCommitter()
	// Only p2 still exists locally.
	svc := NewSyncQueueService(store, committer, newFakeProspectStore(prospects[1]), &fakeNotifier{})

	committed, err := svc.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, committed)
	assert.Equal(t, []string{"p2"}, committer.inserted)
	assert.Empty(t, store.entries)
}

func TestDrainSingleFlight(t *testing.T) {
	prospects, entries := queuedProspects(1)
	store := &memQueueStore{entries: entries}

	started := make(chan struct{})
	release := make(chan struct{})
	blocking := &blockingCommitter{started: started, release: release}
	svc := NewSyncQueueService(store, blocking, newFakeProspectStore(prospects...), &fakeNotifier{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Drain(context.Background())
		done <- err
	}()

	<-started
	_, err := svc.Drain(context.Background())
	assert.ErrorIs(t, err, util.ErrDrainInProgress)

	close(release)
	require.NoError(t, <-done)
}

type blockingCommitter struct {
	started chan struct{}
	release chan struct{}
	once    bool
}

func (c *blockingCommitter) InsertProspect(ctx context.Context, p *model.Prospect) (string, error) {
	if !c.once {
		c.once = true
		close(c.started)
	}
	<-c.release
	return "remote-" + p.ID, nil
}

func TestDiscardUnknownEntry(t *testing.T) {
	svc := NewSyncQueueService(&memQueueStore{}, newFakeCommitter(), newFakeProspectStore(), &fakeNotifier{})
	err := svc.Discard(context.Background(), "missing")
	assert.ErrorIs(t, err, util.ErrQueueEntryNotFound)
}

func TestDrainResumesAfterRestart(t *testing.T) {
	// A restart with a durable backlog: the store still holds entries
	// but the fresh service has seen no connectivity yet.
	prospects, entries := queuedProspects(2)
	store := &memQueueStore{entries: entries}
	committer := newFakeCommitter()
	svc := NewSyncQueueService(store, committer, newFakeProspectStore(prospects...), &fakeNotifier{})

	assert.False(t, svc.Online(), "a fresh service must not assume connectivity")

	// The very first successful probe is itself an offline-to-online
	// edge, so the leftover backlog drains without any flap.
	svc.SetOnline(context.Background(), true)

	require.Eventually(t, func() bool {
		entries, err := svc.Entries(context.Background())
		return err == nil && len(entries) == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"p1", "p2"}, committer.inserted)
}

func TestSetOnlineEdgeTriggeredDrain(t *testing.T) {
	prospects, entries := queuedProspects(1)
	store := &memQueueStore{entries: entries}
	committer := newFakeCommitter()
	svc := NewSyncQueueService(store, committer, newFakeProspectStore(prospects...), &fakeNotifier{})
	atomic.StoreInt32(&svc.online, 1)

	// Already online: repeated online reports must not start drains.
	svc.SetOnline(context.Background(), true)
	svc.SetOnline(context.Background(), true)
	assert.Empty(t, committer.inserted)

	// Offline then online is the edge that drains.
	svc.SetOnline(context.Background(), false)
	svc.SetOnline(context.Background(), true)

	require.Eventually(t, func() bool {
		entries, err := svc.Entries(context.Background())
		return err == nil && len(entries) == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"p1"}, committer.inserted)
}

func TestRejectionErrorIsNotUnavailable(t *testing.T) {
	var err error = &RejectionError{StatusCode: 409, Message: "duplicate"}
	assert.False(t, errors.Is(err, util.ErrRemoteUnavailable))
	var rejection *RejectionError
	assert.True(t, errors.As(err, &rejection))
}
