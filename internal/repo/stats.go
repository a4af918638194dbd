// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Flint2004/infinite-crafting/internal/domain"
)

// DiscoveredStats returns the size of a user's discovered set and the time
// the newest element was added to it.
//
// Return values:
//   - count:     elements in the discovered set
//   - latestAt:  pointer to the greatest CreatedAt, or nil if no rows
//   - err:       database error, if any
func DiscoveredStats(ctx context.Context, db *gorm.DB, userID string) (count int64, latestAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.UserElement{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// avoid MAX() -> TEXT in SQLite
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
