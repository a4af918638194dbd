// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the craft cache and first-discovery
// ledger.
//
// The craft cache has a unique index on (first_element_id, second_element_id);
// CreateCraftEntry therefore fails with a unique violation when another
// writer cached the pair first. Callers re-read with FindCraftEntry.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Flint2004/infinite-crafting/internal/domain"
)

// FindCraftEntry looks up the cache row for p. With bothOrders the reversed
// pair also matches (used when craft order does not matter).
func FindCraftEntry(ctx context.Context, db *gorm.DB, p domain.Pair, bothOrders bool) (*domain.CraftCacheEntry, error) {
	q := db.WithContext(ctx).Model(&domain.CraftCacheEntry{})
	if bothOrders {
		q = q.Where("(first_element_id = ? AND second_element_id = ?) OR (first_element_id = ? AND second_element_id = ?)",
			p.First, p.Second, p.Second, p.First)
	} else {
		q = q.Where("first_element_id = ? AND second_element_id = ?", p.First, p.Second)
	}
	var c domain.CraftCacheEntry
	if err := q.Order("id asc").First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteDanglingCraftEntries removes cache rows for p whose result element no
// longer exists, so the pair can be cached again. Live rows are kept.
func DeleteDanglingCraftEntries(ctx context.Context, db *gorm.DB, p domain.Pair, bothOrders bool) (int64, error) {
	live := db.Session(&gorm.Session{NewDB: true}).Model(&domain.Element{}).Select("id")
	q := db.WithContext(ctx).Where("result_element_id NOT IN (?)", live)
	if bothOrders {
		q = q.Where("((first_element_id = ? AND second_element_id = ?) OR (first_element_id = ? AND second_element_id = ?))",
			p.First, p.Second, p.Second, p.First)
	} else {
		q = q.Where("first_element_id = ? AND second_element_id = ?", p.First, p.Second)
	}
	res := q.Delete(&domain.CraftCacheEntry{})
	return res.RowsAffected, res.Error
}

// CreateCraftEntry caches p -> resultID.
func CreateCraftEntry(ctx context.Context, db *gorm.DB, p domain.Pair, resultID string) (*domain.CraftCacheEntry, error) {
	c := &domain.CraftCacheEntry{
		FirstElementID:  p.First,
		SecondElementID: p.Second,
		ResultElementID: resultID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// CountCraftEntries returns the number of cached recipes.
func CountCraftEntries(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.CraftCacheEntry{}).Count(&n).Error
	return n, err
}

// CreateFirstDiscovery inserts the discovery credit for an element. A second
// insert for the same element fails with a unique violation.
func CreateFirstDiscovery(ctx context.Context, db *gorm.DB, fd *domain.FirstDiscovery) error {
	if fd.DiscoveredAt.IsZero() {
		fd.DiscoveredAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(fd).Error
}

// GetFirstDiscovery returns the discovery credit for elementID.
func GetFirstDiscovery(ctx context.Context, db *gorm.DB, elementID string) (*domain.FirstDiscovery, error) {
	var fd domain.FirstDiscovery
	if err := db.WithContext(ctx).Where("element_id = ?", elementID).First(&fd).Error; err != nil {
		return nil, err
	}
	return &fd, nil
}

// ResetCraftState removes all cached recipes, discovery credits, non-base
// elements and the discovered-set rows pointing at them. Run it inside a
// transaction.
func ResetCraftState(ctx context.Context, tx *gorm.DB) error {
	if err := tx.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.CraftCacheEntry{}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.FirstDiscovery{}).Error; err != nil {
		return err
	}
	if err := DeleteUserElementsOfNonBase(ctx, tx); err != nil {
		return err
	}
	_, err := DeleteNonBaseElements(ctx, tx)
	return err
}
