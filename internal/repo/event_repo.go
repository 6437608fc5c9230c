// Package repo implements the local durable store of the check daemon. This
// file holds the registered-event collection and the clear-all operation.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/panopto-checks/internal/domain"
)

// ReplaceEvents swaps the whole registered-event collection for events in a
// single transaction. Rows from a previous registration never survive.
func ReplaceEvents(ctx context.Context, db *gorm.DB, events []domain.RegisteredEvent) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&domain.RegisteredEvent{}).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		return tx.CreateInBatches(dedupeEvents(events), 100).Error
	})
}

// ListEvents returns every registered event ordered by date and start time.
func ListEvents(ctx context.Context, db *gorm.DB) ([]domain.RegisteredEvent, error) {
	var out []domain.RegisteredEvent
	err := db.WithContext(ctx).
		Order("date ASC, start_time ASC, event_id ASC").
		Find(&out).Error
	return out, err
}

// ClearAll empties both collections in one transaction.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&domain.RegisteredEvent{}).Error; err != nil {
			return err
		}
		return all.Delete(&domain.IssuedCheck{}).Error
	})
}

// dedupeEvents keeps the last occurrence of each event id so a batch with a
// repeated id does not abort the whole replacement.
func dedupeEvents(events []domain.RegisteredEvent) []domain.RegisteredEvent {
	pos := make(map[string]int, len(events))
	out := make([]domain.RegisteredEvent, 0, len(events))
	for _, ev := range events {
		if i, ok := pos[ev.EventID]; ok {
			out[i] = ev
			continue
		}
		pos[ev.EventID] = len(out)
		out = append(out, ev)
	}
	return out
}
