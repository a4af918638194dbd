// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for elements and
// the per-user discovered set.
//
// Name lookups follow the language mode: in "both" mode an element matches
// only if both variants match; in a single-language mode only the active
// variant is compared. English names compare case-insensitively.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Flint2004/infinite-crafting/internal/domain"
)

// GetElement fetches an element by id.
func GetElement(ctx context.Context, db *gorm.DB, id string) (*domain.Element, error) {
	var e domain.Element
	if err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// GetElementsByID loads the given elements keyed by id. Missing ids are
// simply absent from the map.
func GetElementsByID(ctx context.Context, db *gorm.DB, ids ...string) (map[string]domain.Element, error) {
	out := make(map[string]domain.Element, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Element
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, e := range rows {
		out[e.ID] = e
	}
	return out, nil
}

// ListBaseElements returns the seeded base set ordered by id.
func ListBaseElements(ctx context.Context, db *gorm.DB) ([]domain.Element, error) {
	var out []domain.Element
	err := db.WithContext(ctx).
		Where("is_base = ? OR id LIKE ?", true, domain.BaseIDPrefix+"%").
		Order("id asc").
		Find(&out).Error
	return out, err
}

// FindElementByName looks up an element by its active name variant(s).
func FindElementByName(ctx context.Context, db *gorm.DB, mode domain.LanguageMode, nameCN, nameEN string) (*domain.Element, error) {
	q := db.WithContext(ctx).Model(&domain.Element{})
	if mode.UsesCN() {
		q = q.Where("name_cn = ?", nameCN)
	}
	if mode.UsesEN() {
		q = q.Where("LOWER(name_en) = ?", strings.ToLower(nameEN))
	}
	var e domain.Element
	if err := q.Order("discovered_at asc").First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// FindElementByRef resolves a preset reference that is either an element id
// or an active-mode name.
func FindElementByRef(ctx context.Context, db *gorm.DB, mode domain.LanguageMode, ref string) (*domain.Element, error) {
	if e, err := GetElement(ctx, db, ref); err == nil {
		return e, nil
	} else if !IsNotFound(err) {
		return nil, err
	}
	q := db.WithContext(ctx).Model(&domain.Element{})
	switch mode {
	case domain.LanguageCN:
		q = q.Where("name_cn = ?", ref)
	case domain.LanguageEN:
		q = q.Where("LOWER(name_en) = ?", strings.ToLower(ref))
	default:
		q = q.Where("name_cn = ? OR LOWER(name_en) = ?", ref, strings.ToLower(ref))
	}
	var e domain.Element
	if err := q.Order("discovered_at asc").First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateElement inserts a new element row.
func CreateElement(ctx context.Context, db *gorm.DB, e *domain.Element) error {
	if e.DiscoveredAt.IsZero() {
		e.DiscoveredAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(e).Error
}

// UpsertBaseElement inserts a base element or refreshes its names and emoji.
func UpsertBaseElement(ctx context.Context, db *gorm.DB, e *domain.Element) error {
	e.IsBase = true
	if e.DiscovererName == "" {
		e.DiscovererName = domain.SystemDiscoverer
	}
	if e.DiscoveredAt.IsZero() {
		e.DiscoveredAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name_cn", "name_en", "emoji", "is_base"}),
	}).Create(e).Error
}

// DeleteNonBaseElements removes every element outside the seeded base set.
func DeleteNonBaseElements(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).
		Where("is_base = ? AND id NOT LIKE ?", false, domain.BaseIDPrefix+"%").
		Delete(&domain.Element{})
	return res.RowsAffected, res.Error
}

// AddUserElement records that userID obtained elementID. Repeats are ignored.
func AddUserElement(ctx context.Context, db *gorm.DB, userID, elementID string) error {
	ue := &domain.UserElement{UserID: userID, ElementID: elementID, CreatedAt: time.Now().UTC()}
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ue).Error
}

// ListUserElements returns the elements userID has obtained, newest first.
func ListUserElements(ctx context.Context, db *gorm.DB, userID string) ([]domain.Element, error) {
	var out []domain.Element
	err := db.WithContext(ctx).
		Model(&domain.Element{}).
		Select("elements.*").
		Joins("JOIN user_elements ue ON ue.element_id = elements.id").
		Where("ue.user_id = ?", userID).
		Order("ue.created_at desc, ue.id desc").
		Find(&out).Error
	return out, err
}

// DeleteUserElementsOfNonBase removes discovered-set rows that point at
// non-base elements.
func DeleteUserElementsOfNonBase(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Where("element_id IN (?)", db.Model(&domain.Element{}).
			Select("id").
			Where("is_base = ? AND id NOT LIKE ?", false, domain.BaseIDPrefix+"%")).
		Delete(&domain.UserElement{}).Error
}
