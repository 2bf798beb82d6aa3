// Package domain defines the persistence models for listings, categories,
// listing images, profiles, and role assignments. These types are mapped
// with GORM and form the core data layer of the marketplace application.
package domain

import (
	"time"
)

// ListingStatus is the moderation state of a listing. The only transitions
// performed by the application are pending→approved and pending→rejected;
// expired exists for an out-of-band expiry process and has no transition API.
type ListingStatus string

// Listing statuses.
const (
	StatusPending  ListingStatus = "pending"
	StatusApproved ListingStatus = "approved"
	StatusRejected ListingStatus = "rejected"
	StatusExpired  ListingStatus = "expired"
)

// Condition describes the physical state of the advertised item.
type Condition string

// Item conditions.
const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
)

// Listing represents a single classified ad with its moderation lifecycle.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the listing owner; indexed for owner queries.
//   - Slug: unique URL-safe identifier, assigned at creation and immutable.
//   - Status: moderation state; only the moderation layer mutates it.
//   - ViewsCount: monotonically non-decreasing read counter, incremented
//     atomically at the storage layer.
//   - ApprovedAt: set on the transition into approved, NULL otherwise.
//   - MetaTitle / MetaDescription: bounded-length SEO fields derived from
//     title and description when not supplied.
type Listing struct {
	ID           string        `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string        `json:"user_id"       gorm:"type:varchar(64);not null;index:idx_user_listings"`
	CategoryID   string        `json:"category_id"   gorm:"type:char(36);not null;index"`
	Title        string        `json:"title"         gorm:"type:varchar(100);not null"`
	Description  string        `json:"description"   gorm:"type:text;not null"`
	Price        int64         `json:"price"         gorm:"not null;check:price >= 0"`
	City         string        `json:"city"          gorm:"type:varchar(64);not null;index"`
	Address      string        `json:"address"       gorm:"type:varchar(255)"`
	Phone        string        `json:"phone"         gorm:"type:varchar(16);not null"`
	Condition    Condition     `json:"condition"     gorm:"type:varchar(16);not null;default:'good';check:condition IN ('new','like_new','good','fair')"`
	IsNegotiable bool          `json:"is_negotiable" gorm:"not null;default:true"`
	Status       ListingStatus `json:"status"        gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','approved','rejected','expired')"`
	ViewsCount   int64         `json:"views_count"   gorm:"not null;default:0"`
	Slug         string        `json:"slug"          gorm:"type:varchar(64);not null;uniqueIndex"`
	MetaTitle    string        `json:"meta_title"    gorm:"type:varchar(60)"`
	MetaDesc     string        `json:"meta_description" gorm:"column:meta_description;type:varchar(160)"`
	ApprovedAt   *time.Time    `json:"approved_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"    gorm:"index"`
	UpdatedAt    time.Time     `json:"updated_at"`

	// Category is the referenced category; loaded for list/detail views.
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;references:ID"`

	// Images are owned by the listing and cascade-deleted with it.
	Images []ListingImage `json:"images,omitempty" gorm:"foreignKey:ListingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Listing.
func (Listing) TableName() string { return "listings" }

// Category is a node in the category forest. ParentID is nil for roots;
// at most one level of nesting is used by the application.
type Category struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(100);not null"`
	Slug      string    `json:"slug"       gorm:"type:varchar(100);not null;uniqueIndex"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	ParentID  *string   `json:"parent_id,omitempty" gorm:"type:char(36);index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// ListingImage is a stored image attached to a listing. Rows are created
// only after a successful blob upload and are never mutated afterwards.
// SortOrder preserves the position of the file in the original upload batch,
// so a partially failed batch keeps gaps (e.g. 0 and 2) rather than
// re-indexing.
type ListingImage struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	ListingID string    `json:"listing_id" gorm:"type:char(36);not null;index:idx_listing_images"`
	ImageURL  string    `json:"image_url"  gorm:"type:varchar(512);not null"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ListingImage.
func (ListingImage) TableName() string { return "listing_images" }

// Profile is the public contact card of a user. Its primary key equals the
// identity provider's user id; rows are created out-of-band and updated only
// by their owner.
type Profile struct {
	ID        string    `json:"id"         gorm:"type:varchar(64);primaryKey"`
	FullName  string    `json:"full_name"  gorm:"type:varchar(100)"`
	Phone     string    `json:"phone"      gorm:"type:varchar(16)"`
	City      string    `json:"city"       gorm:"type:varchar(64)"`
	AvatarURL string    `json:"avatar_url" gorm:"type:varchar(512)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// RoleAdmin is the role whose presence in user_roles authorizes moderation
// and the admin dashboard.
const RoleAdmin = "admin"

// UserRole assigns a role to a user. The (user_id, role) pair is unique;
// existence of an admin row is the sole authorization check for moderation.
type UserRole struct {
	ID        string    `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_user_role,priority:1"`
	Role      string    `json:"role"    gorm:"type:varchar(32);not null;uniqueIndex:idx_user_role,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for UserRole.
func (UserRole) TableName() string { return "user_roles" }
