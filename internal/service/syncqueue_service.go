package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/util"
	"scout_crm_backend/pkg/logger"
	"scout_crm_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// RemoteCommitter is the single queue-facing remote operation: push one
// prospect and get back the id the hosted store assigned.
type RemoteCommitter interface {
	InsertProspect(ctx context.Context, p *model.Prospect) (string, error)
}

type syncProspectStore interface {
	FindByID(id string) (*model.Prospect, error)
	MarkSynced(id string, remoteID string) error
}

// SyncQueueService owns the offline queue. Entries drain strictly FIFO,
// one drain pass runs at a time, and an entry is only removed after the
// remote store confirms the insert.
type SyncQueueService struct {
	store     QueueStore
	remote    RemoteCommitter
	prospects syncProspectStore
	notifier  Notifier

	mu       sync.Mutex
	draining int32
	online   int32
}

// NewSyncQueueService returns a service that starts offline. The first
// successful connectivity report is then an offline-to-online edge, so
// a backlog left behind by a previous process resumes draining as soon
// as the store is confirmed reachable.
func NewSyncQueueService(store QueueStore, remote RemoteCommitter, prospects syncProspectStore, notifier Notifier) *SyncQueueService {
	return &SyncQueueService{
		store:     store,
		remote:    remote,
		prospects: prospects,
		notifier:  notifier,
	}
}

func (s *SyncQueueService) Online() bool {
	return atomic.LoadInt32(&s.online) == 1
}

// SetOnline records a connectivity transition. A drain is kicked off only
// on the offline-to-online edge, never on repeated online reports, so
// noisy health probes cannot stack drains.
func (s *SyncQueueService) SetOnline(ctx context.Context, online bool) {
	if online {
		if atomic.CompareAndSwapInt32(&s.online, 0, 1) {
			logger.Log.Info("remote store reachable again, draining sync queue")
			go func() {
				if _, err := s.Drain(context.Background()); err != nil && !errors.Is(err, util.ErrDrainInProgress) {
					logger.Log.Warn("sync queue drain after reconnect failed", zap.Error(err))
				}
			}()
		}
		return
	}
	if atomic.CompareAndSwapInt32(&s.online, 1, 0) {
		logger.Log.Warn("remote store unreachable, queueing writes")
	}
}

// Enqueue appends a pending insert for the given prospect.
func (s *SyncQueueService) Enqueue(ctx context.Context, p *model.Prospect) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	entries = append(entries, QueueEntry{
		LocalID:    p.ID,
		OwnerID:    p.OwnerID,
		EnqueuedAt: time.Now(),
	})
	if err := s.store.Save(ctx, entries); err != nil {
		return err
	}
	monitoring.SyncQueueDepth.Set(float64(len(entries)))
	return nil
}

func (s *SyncQueueService) Entries(ctx context.Context) ([]QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load(ctx)
}

// Discard removes an entry without syncing it. This is the operator
// escape hatch for an entry the remote store keeps rejecting.
func (s *SyncQueueService) Discard(ctx context.Context, localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	kept := entries[:0]
	found := false
	for _, e := range entries {
		if e.LocalID == localID {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return util.ErrQueueEntryNotFound
	}
	if err := s.store.Save(ctx, kept); err != nil {
		return err
	}
	monitoring.SyncQueueDepth.Set(float64(len(kept)))
	return nil
}

// Drain pushes queued entries oldest-first, removing each one only after
// the remote insert is confirmed. The pass stops at the first failure:
// connectivity errors flip the service offline and leave the queue
// intact, rejections mark the head so it blocks the queue until an
// operator discards or fixes it. Returns how many entries committed.
func (s *SyncQueueService) Drain(ctx context.Context) (int, error) {
	if !atomic.CompareAndSwapInt32(&s.draining, 0, 1) {
		return 0, util.ErrDrainInProgress
	}
	defer atomic.StoreInt32(&s.draining, 0)

	committed := 0
	for {
		s.mu.Lock()
		entries, err := s.store.Load(ctx)
		s.mu.Unlock()
		if err != nil {
			return committed, err
		}
		if len(entries) == 0 {
			break
		}

		head := entries[0]
		if head.NeedsAttention {
			logger.Log.Warn("sync queue blocked on entry needing attention",
				zap.String("prospect_id", head.LocalID),
				zap.String("last_error", head.LastError))
			break
		}

		p, err := s.prospects.FindByID(head.LocalID)
		if errors.Is(err, util.ErrProspectNotFound) {
			// Deleted locally before it ever synced; nothing to push.
			if err := s.dropHead(ctx, head.LocalID); err != nil {
				return committed, err
			}
			continue
		}
		if err != nil {
			return committed, err
		}

		remoteID, err := s.remote.InsertProspect(ctx, p)
		if err != nil {
			if errors.Is(err, util.ErrRemoteUnavailable) {
				atomic.StoreInt32(&s.online, 0)
				monitoring.SyncDrainTotal.WithLabelValues("offline").Inc()
				return committed, err
			}
			if markErr := s.markHeadFailed(ctx, head.LocalID, err); markErr != nil {
				logger.Log.Error("failed to mark rejected sync entry", zap.Error(markErr))
			}
			s.notifier.Notify(ctx, head.OwnerID, head.LocalID, model.NotificationSyncFailure,
				"Sync blocked",
				fmt.Sprintf("%s could not be saved to the shared database: %v", p.Name, err))
			monitoring.SyncDrainTotal.WithLabelValues("rejected").Inc()
			return committed, err
		}

		if err := s.prospects.MarkSynced(head.LocalID, remoteID); err != nil {
			return committed, err
		}
		if err := s.dropHead(ctx, head.LocalID); err != nil {
			return committed, err
		}
		committed++
	}

	monitoring.SyncDrainTotal.WithLabelValues("success").Inc()
	return committed, nil
}

func (s *SyncQueueService) dropHead(ctx context.Context, localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 || entries[0].LocalID != localID {
		return nil
	}
	entries = entries[1:]
	if err := s.store.Save(ctx, entries); err != nil {
		return err
	}
	monitoring.SyncQueueDepth.Set(float64(len(entries)))
	return nil
}

func (s *SyncQueueService) markHeadFailed(ctx context.Context, localID string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 || entries[0].LocalID != localID {
		return nil
	}
	entries[0].Attempts++
	entries[0].NeedsAttention = true
	entries[0].LastError = cause.Error()
	return s.store.Save(ctx, entries)
}
