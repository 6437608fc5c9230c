package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/panopto-checks/internal/repo"
)

// Reaper deletes uncompleted checks older than Expiry. Completed checks are
// kept until an explicit clear.
type Reaper struct {
	Store  Opener
	Expiry time.Duration
}

// Reap removes every uncompleted check whose age at now exceeds Expiry and
// returns the number removed.
func (r *Reaper) Reap(ctx context.Context, now time.Time) (int64, error) {
	db, err := r.Store.Open(ctx)
	if err != nil {
		storeFailed("reap", err)
		return 0, err
	}
	n, err := repo.DeleteStaleChecks(ctx, db, now.Add(-r.Expiry))
	if err != nil {
		storeFailed("reap", err)
		return 0, err
	}
	if n > 0 {
		checksReaped.Add(float64(n))
		log.Info().Int64("count", n).Msg("reaped expired checks")
	}
	return n, nil
}
