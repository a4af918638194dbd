// Package domain defines the persistence models of the crafting game and the
// guess game. These types are mapped with GORM and form the core data layer
// of the backend.
package domain

import (
	"strings"
	"time"
)

// BaseIDPrefix marks elements seeded by the system (base elements). Reload
// keeps every element whose id carries this prefix.
const BaseIDPrefix = "base_"

// SystemDiscoverer is the discoverer name recorded for seeded elements.
const SystemDiscoverer = "系统"

// DefaultEmoji is used when generation yields no usable emoji.
const DefaultEmoji = "⭐"

// User is a registered player. The token is the sole credential and never
// changes after registration.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Username: unique display name (>= 2 runes after trimming).
//   - Token: unique 6-character opaque bearer credential.
type User struct {
	ID        string    `json:"id"       gorm:"type:char(36);primaryKey"`
	Username  string    `json:"username" gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	Token     string    `json:"token"    gorm:"type:varchar(16);not null;uniqueIndex:ux_users_token"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Element is a discoverable entity of the crafting game.
//
// Name variants that are inactive under the configured language mode are
// stored as empty strings. DiscovererID is nil for system-seeded elements.
type Element struct {
	ID             string    `json:"id"              gorm:"type:varchar(64);primaryKey"`
	NameCN         string    `json:"name_cn"         gorm:"type:varchar(128);not null;default:'';index:idx_elements_names,priority:1"`
	NameEN         string    `json:"name_en"         gorm:"type:varchar(128);not null;default:'';index:idx_elements_names,priority:2"`
	Emoji          string    `json:"emoji"           gorm:"type:varchar(32);not null"`
	IsBase         bool      `json:"is_base"         gorm:"not null;default:false;index"`
	DiscovererID   *string   `json:"discoverer_id"   gorm:"type:char(36);index"`
	DiscovererName string    `json:"discoverer_name" gorm:"type:varchar(64);not null;default:''"`
	DiscoveredAt   time.Time `json:"discovered_at"`
}

// TableName returns the database table name for Element.
func (Element) TableName() string { return "elements" }

// IsSeeded reports whether the element belongs to the base set kept by reload.
func (e Element) IsSeeded() bool {
	return e.IsBase || strings.HasPrefix(e.ID, BaseIDPrefix)
}

// DisplayName renders the element name for the given mode, e.g. "蒸汽 (Steam)".
func (e Element) DisplayName(mode LanguageMode) string {
	switch mode {
	case LanguageCN:
		return e.NameCN
	case LanguageEN:
		return e.NameEN
	}
	switch {
	case e.NameCN == "":
		return e.NameEN
	case e.NameEN == "":
		return e.NameCN
	}
	return e.NameCN + " (" + e.NameEN + ")"
}

// CraftCacheEntry memoizes the result of crafting a canonical pair. The
// unique index on (first_element_id, second_element_id) guarantees one entry
// per pair; concurrent writers resolve the conflict by re-reading.
type CraftCacheEntry struct {
	ID              uint      `json:"id"                gorm:"primaryKey;autoIncrement"`
	FirstElementID  string    `json:"first_element_id"  gorm:"type:varchar(64);not null;uniqueIndex:ux_craft_pair,priority:1"`
	SecondElementID string    `json:"second_element_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_craft_pair,priority:2"`
	ResultElementID string    `json:"result_element_id" gorm:"type:varchar(64);not null;index"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for CraftCacheEntry.
func (CraftCacheEntry) TableName() string { return "craft_cache" }

// FirstDiscovery credits the user whose craft minted an element. At most one
// row exists per element (unique index on element_id).
type FirstDiscovery struct {
	ID              uint      `json:"id"                gorm:"primaryKey;autoIncrement"`
	ElementID       string    `json:"element_id"        gorm:"type:varchar(64);not null;uniqueIndex:ux_first_discovery_element"`
	FirstElementID  string    `json:"first_element_id"  gorm:"type:varchar(64);not null"`
	SecondElementID string    `json:"second_element_id" gorm:"type:varchar(64);not null"`
	UserID          string    `json:"user_id"           gorm:"type:char(36);not null;index"`
	Username        string    `json:"username"          gorm:"type:varchar(64);not null"`
	DiscoveredAt    time.Time `json:"discovered_at"`
}

// TableName returns the database table name for FirstDiscovery.
func (FirstDiscovery) TableName() string { return "first_discoveries" }

// UserElement records that a user obtained an element through crafting.
type UserElement struct {
	ID        uint      `json:"-"          gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;uniqueIndex:ux_user_element,priority:1"`
	ElementID string    `json:"element_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_user_element,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for UserElement.
func (UserElement) TableName() string { return "user_elements" }
