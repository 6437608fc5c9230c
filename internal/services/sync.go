package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/panopto-checks/internal/domain"
	"github.com/tbourn/panopto-checks/internal/repo"
)

// CompletionSyncer pushes completed checks to a remote system. It returns an
// error when the batch could not be delivered; the checks are then retried
// on the next flush.
type CompletionSyncer interface {
	SyncCompleted(ctx context.Context, checks []domain.IssuedCheck) error
}

// LogSyncer records completions in the log only. It is the default transport
// while no remote endpoint is configured.
type LogSyncer struct{}

// SyncCompleted implements CompletionSyncer.
func (LogSyncer) SyncCompleted(_ context.Context, checks []domain.IssuedCheck) error {
	for _, c := range checks {
		log.Info().
			Str("check_id", c.ID).
			Str("event_id", c.EventID).
			Time("completed_at", derefTime(c.CompletedAt)).
			Msg("check completion recorded")
	}
	return nil
}

// SyncService drains completed-but-unsynced checks into Syncer.
type SyncService struct {
	Store  Opener
	Syncer CompletionSyncer
	Now    func() time.Time
}

// Flush pushes every pending completion and marks it synced. It returns the
// number of checks marked; failures are logged and leave checks pending.
func (s *SyncService) Flush(ctx context.Context) int {
	if s == nil || s.Syncer == nil {
		return 0
	}
	db, err := s.Store.Open(ctx)
	if err != nil {
		storeFailed("sync", err)
		return 0
	}
	pending, err := repo.ListUnsyncedCompleted(ctx, db)
	if err != nil {
		storeFailed("sync", err)
		return 0
	}
	if len(pending) == 0 {
		return 0
	}
	if err := s.Syncer.SyncCompleted(ctx, pending); err != nil {
		log.Warn().Err(err).Int("pending", len(pending)).Msg("completion sync deferred")
		return 0
	}

	ids := make([]string, len(pending))
	for i, c := range pending {
		ids[i] = c.ID
	}
	if err := repo.MarkSynced(ctx, db, ids, clock(s.Now)()); err != nil {
		storeFailed("sync", err)
		return 0
	}
	checksSynced.Add(float64(len(ids)))
	return len(ids)
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
