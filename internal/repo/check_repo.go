// Package repo implements the local durable store of the check daemon. This
// file provides repository functions for the IssuedCheck collection.
//
// Every mutating function runs inside its own transaction and returns only
// after the commit, so callers never act on an unconfirmed write.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/panopto-checks/internal/domain"
)

// GetCheck loads a check by id or returns ErrNotFound.
func GetCheck(ctx context.Context, db *gorm.DB, id string) (*domain.IssuedCheck, error) {
	var c domain.IssuedCheck
	err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCheckIfAbsent inserts check unless a row with the same id exists.
// The existence test and the insert are one statement, so two overlapping
// callers cannot both create the slot. created reports whether this call
// wrote the row.
func CreateCheckIfAbsent(ctx context.Context, db *gorm.DB, check *domain.IssuedCheck) (created bool, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(check)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected == 1
		return nil
	})
	return created, err
}

// CompleteCheck marks the check completed at the given instant. An already
// completed check keeps its original CompletedAt. A missing id yields
// ErrNotFound.
func CompleteCheck(ctx context.Context, db *gorm.DB, id string, at time.Time) (*domain.IssuedCheck, error) {
	var out domain.IssuedCheck
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if out.Completed {
			return nil
		}
		ts := at.UTC()
		if err := tx.Model(&domain.IssuedCheck{}).
			Where("id = ? AND completed = ?", id, false).
			Updates(map[string]any{"completed": true, "completed_at": ts}).Error; err != nil {
			return err
		}
		out.Completed = true
		out.CompletedAt = &ts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListChecks returns every issued check, oldest first.
func ListChecks(ctx context.Context, db *gorm.DB) ([]domain.IssuedCheck, error) {
	var out []domain.IssuedCheck
	err := db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// DeleteStaleChecks removes uncompleted checks created before cutoff and
// returns how many rows were deleted. Completed checks are never touched.
func DeleteStaleChecks(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("completed = ? AND created_at < ?", false, cutoff.UTC()).
			Delete(&domain.IssuedCheck{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

// ListUnsyncedCompleted returns completed checks that have not been pushed
// to the outward sync transport yet.
func ListUnsyncedCompleted(ctx context.Context, db *gorm.DB) ([]domain.IssuedCheck, error) {
	var out []domain.IssuedCheck
	err := db.WithContext(ctx).
		Where("completed = ? AND synced_at IS NULL", true).
		Order("completed_at ASC").
		Find(&out).Error
	return out, err
}

// MarkSynced stamps synced_at on the given checks.
func MarkSynced(ctx context.Context, db *gorm.DB, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&domain.IssuedCheck{}).
			Where("id IN ?", ids).
			Update("synced_at", at.UTC()).Error
	})
}
