package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Linkage maps a local item to a remote item on a connection. A local item
// has at most one pushed linkage per connection; a remote item has at most
// one pulled linkage per connection.
type Linkage struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	LocalID      int64     `gorm:"not null;uniqueIndex:idx_linkages_local" json:"localId"`
	ConnectionID int64     `gorm:"not null;uniqueIndex:idx_linkages_local;uniqueIndex:idx_linkages_remote" json:"connectionId"`
	RemotePostID int64     `gorm:"not null;uniqueIndex:idx_linkages_remote" json:"remotePostId"`
	Direction    string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_linkages_local;uniqueIndex:idx_linkages_remote" json:"direction"`
	RemoteURL    string    `gorm:"type:text" json:"remoteUrl"`
	Unlinked     bool      `gorm:"not null;default:false" json:"unlinked"`
	SyncedAt     time.Time `gorm:"not null" json:"syncedAt"`

	// Timestamps
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name.
func (Linkage) TableName() string {
	return "linkages"
}

// Linkage direction constants
const (
	LinkageDirectionPushed = "pushed"
	LinkageDirectionPulled = "pulled"
)

// BeforeCreate hook to ensure required fields.
func (l *Linkage) BeforeCreate(tx *gorm.DB) error {
	if l.LocalID == 0 {
		return fmt.Errorf("local_id is required")
	}
	if l.RemotePostID == 0 {
		return fmt.Errorf("remote_post_id is required")
	}
	if l.Direction != LinkageDirectionPushed && l.Direction != LinkageDirectionPulled {
		return fmt.Errorf("invalid direction: %q", l.Direction)
	}
	if l.SyncedAt.IsZero() {
		l.SyncedAt = time.Now()
	}
	return nil
}

// FindPushedLinkage returns the pushed linkage of a local item.
func FindPushedLinkage(db *gorm.DB, localID, connectionID int64) (*Linkage, error) {
	var l Linkage
	err := db.
		Where("local_id = ? AND connection_id = ? AND direction = ?", localID, connectionID, LinkageDirectionPushed).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindPulledLinkage returns the pulled linkage of a remote item.
func FindPulledLinkage(db *gorm.DB, connectionID, remotePostID int64) (*Linkage, error) {
	var l Linkage
	err := db.
		Where("connection_id = ? AND remote_post_id = ? AND direction = ?", connectionID, remotePostID, LinkageDirectionPulled).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Upsert stores the linkage. A pushed linkage replaces the one of the same
// local item and connection; a pulled linkage replaces the one of the same
// remote item and connection.
func (l *Linkage) Upsert(db *gorm.DB) error {
	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "local_id"}, {Name: "connection_id"}, {Name: "direction"}},
		DoUpdates: clause.AssignmentColumns([]string{"remote_post_id", "remote_url", "unlinked", "synced_at", "updated_at"}),
	}
	if l.Direction == LinkageDirectionPulled {
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "connection_id"}, {Name: "remote_post_id"}, {Name: "direction"}},
			DoUpdates: clause.AssignmentColumns([]string{"local_id", "remote_url", "unlinked", "synced_at", "updated_at"}),
		}
	}
	return db.Clauses(conflict).Create(l).Error
}
