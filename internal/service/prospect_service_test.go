package service

import (
	"context"
	"fmt"
	"testing"

	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueueSink struct {
	online    bool
	enqueued  []string
	discarded []string
	reports   []bool
}

func (q *fakeQueueSink) Enqueue(ctx context.Context, p *model.Prospect) error {
	q.enqueued = append(q.enqueued, p.ID)
	return nil
}

func (q *fakeQueueSink) SetOnline(ctx context.Context, online bool) {
	q.online = online
	q.reports = append(q.reports, online)
}

func (q *fakeQueueSink) Online() bool {
	return q.online
}

func (q *fakeQueueSink) Discard(ctx context.Context, localID string) error {
	for i, id := range q.enqueued {
		if id == localID {
			q.enqueued = append(q.enqueued[:i], q.enqueued[i+1:]...)
			q.discarded = append(q.discarded, localID)
			return nil
		}
	}
	return util.ErrQueueEntryNotFound
}

type fakeRemoteWriter struct {
	inserts   []string
	patches   []recordedPatch
	deletes   []string
	insertErr error
}

func (w *fakeRemoteWriter) InsertProspect(ctx context.Context, p *model.Prospect) (string, error) {
	if w.insertErr != nil {
		return "", w.insertErr
	}
	w.inserts = append(w.inserts, p.ID)
	return "remote-" + p.ID, nil
}

func (w *fakeRemoteWriter) PatchProspect(ctx context.Context, remoteID string, patch ProspectPatch) error {
	w.patches = append(w.patches, recordedPatch{remoteID, patch})
	return nil
}

func (w *fakeRemoteWriter) DeleteRow(ctx context.Context, remoteID string) error {
	w.deletes = append(w.deletes, remoteID)
	return nil
}

func TestCreateSyncsRemoteWhenOnline(t *testing.T) {
	store := newFakeProspectStore()
	remote := &fakeRemoteWriter{}
	queue := &fakeQueueSink{online: true}
	svc := NewProspectService(store, remote, queue, &fakeNotifier{})

	p, err := svc.Create(context.Background(), 1, CreateProspectRequest{Name: "Luca", Position: "CDM"})
	require.NoError(t, err)

	assert.Equal(t, []string{p.ID}, remote.inserts)
	assert.False(t, p.PendingSync)
	require.NotNil(t, p.RemoteID)
	assert.Equal(t, "remote-"+p.ID, *p.RemoteID)
	assert.Empty(t, queue.enqueued)
}

func TestCreateSkipsRemoteInsertWhileOffline(t *testing.T) {
	store := newFakeProspectStore()
	remote := &fakeRemoteWriter{insertErr: fmt.Errorf("%w: dial tcp", util.ErrRemoteUnavailable)}
	queue := &fakeQueueSink{online: false}
	notifier := &fakeNotifier{}
	svc := NewProspectService(store, remote, queue, notifier)

	p, err := svc.Create(context.Background(), 1, CreateProspectRequest{Name: "Luca", Position: "CDM"})
	require.NoError(t, err, "a create never fails because the store is down")

	assert.Empty(t, remote.inserts, "known-offline creates must not attempt a remote insert")
	assert.Equal(t, []string{p.ID}, queue.enqueued)
	assert.True(t, p.PendingSync)

	stored, err := store.FindByID(p.ID)
	require.NoError(t, err)
	assert.True(t, stored.PendingSync)
	assert.Empty(t, notifier.sent, "an outage is not worth an alert per create")
}

func TestCreateQueuesOnRemoteOutage(t *testing.T) {
	store := newFakeProspectStore()
	remote := &fakeRemoteWriter{insertErr: fmt.Errorf("%w: status 503", util.ErrRemoteUnavailable)}
	queue := &fakeQueueSink{online: true}
	notifier := &fakeNotifier{}
	svc := NewProspectService(store, remote, queue, notifier)

	p, err := svc.Create(context.Background(), 1, CreateProspectRequest{Name: "Luca", Position: "CDM"})
	require.NoError(t, err)

	assert.Equal(t, []string{p.ID}, queue.enqueued)
	assert.True(t, p.PendingSync)
	assert.Equal(t, []bool{false}, queue.reports, "a failed insert flips the queue offline")
	assert.Empty(t, notifier.ofKind(model.NotificationSyncFailure))
}

func TestCreateNotifiesOnRemoteRejection(t *testing.T) {
	store := newFakeProspectStore()
	remote := &fakeRemoteWriter{insertErr: &RejectionError{StatusCode: 422, Message: "name too long"}}
	queue := &fakeQueueSink{online: true}
	notifier := &fakeNotifier{}
	svc := NewProspectService(store, remote, queue, notifier)

	p, err := svc.Create(context.Background(), 1, CreateProspectRequest{Name: "Luca", Position: "CDM"})
	require.NoError(t, err)

	assert.Equal(t, []string{p.ID}, queue.enqueued)
	failures := notifier.ofKind(model.NotificationSyncFailure)
	require.Len(t, failures, 1)
	assert.Equal(t, p.ID, failures[0].ProspectID)
	assert.Empty(t, queue.reports, "a rejection says nothing about connectivity")
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	svc := NewProspectService(newFakeProspectStore(), &fakeRemoteWriter{}, &fakeQueueSink{online: true}, &fakeNotifier{})
	_, err := svc.Create(context.Background(), 1, CreateProspectRequest{Name: "Luca", Position: "CDM", Status: "superstar"})
	assert.ErrorIs(t, err, util.ErrInvalidStatus)
}

func TestDeleteDropsQueueEntry(t *testing.T) {
	store := newFakeProspectStore()
	queue := &fakeQueueSink{online: false}
	svc := NewProspectService(store, &fakeRemoteWriter{}, queue, &fakeNotifier{})

	p, err := svc.Create(context.Background(), 1, CreateProspectRequest{Name: "Luca", Position: "CDM"})
	require.NoError(t, err)
	require.Equal(t, []string{p.ID}, queue.enqueued)

	require.NoError(t, svc.Delete(context.Background(), p.ID))
	assert.Equal(t, []string{p.ID}, queue.discarded)
	_, err = store.FindByID(p.ID)
	assert.ErrorIs(t, err, util.ErrProspectNotFound)
}
