package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Subscription keeps a copy of an item in sync across repositories.
//
// Outbound subscriptions live on the origin: LocalID is the origin item and
// RemotePostID its copy on ConnectionID. Inbound subscriptions live on the
// target: LocalID is the copy, RemotePostID the origin item and TargetURL the
// origin's API. Both sides share the Signature.
type Subscription struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	LocalID      int64     `gorm:"not null;uniqueIndex:idx_subscriptions_pair" json:"localId"`
	ConnectionID int64     `gorm:"not null;uniqueIndex:idx_subscriptions_pair" json:"connectionId"`
	Direction    string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_subscriptions_pair" json:"direction"`
	RemotePostID int64     `gorm:"not null" json:"remotePostId"`
	Signature    string    `gorm:"type:varchar(64);not null;index:idx_subscriptions_signature" json:"-"`
	TargetURL    string    `gorm:"type:text" json:"targetUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName specifies the table name.
func (Subscription) TableName() string {
	return "subscriptions"
}

// Subscription direction constants
const (
	SubscriptionOutbound = "outbound"
	SubscriptionInbound  = "inbound"
)

// BeforeCreate hook to ensure required fields.
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.LocalID == 0 {
		return fmt.Errorf("local_id is required")
	}
	if s.Signature == "" {
		return fmt.Errorf("signature is required")
	}
	if s.Direction == "" {
		s.Direction = SubscriptionOutbound
	}
	return nil
}

// CreateIfAbsent inserts the subscription unless one exists for the same
// (local_id, connection_id, direction) and reports whether it inserted.
func (s *Subscription) CreateIfAbsent(db *gorm.DB) (bool, error) {
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(s)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindSubscription returns the subscription of a pair.
func FindSubscription(db *gorm.DB, localID, connectionID int64, direction string) (*Subscription, error) {
	var s Subscription
	err := db.
		Where("local_id = ? AND connection_id = ? AND direction = ?", localID, connectionID, direction).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSubscriptionsByLocalID returns every subscription of a local item in
// the given direction.
func FindSubscriptionsByLocalID(db *gorm.DB, localID int64, direction string) ([]Subscription, error) {
	var subs []Subscription
	err := db.
		Where("local_id = ? AND direction = ?", localID, direction).
		Order("connection_id ASC").
		Find(&subs).Error
	return subs, err
}

// FindInboundSubscription returns the inbound subscription of a local copy
// matching signature.
func FindInboundSubscription(db *gorm.DB, localID int64, signature string) (*Subscription, error) {
	var s Subscription
	err := db.
		Where("local_id = ? AND signature = ? AND direction = ?", localID, signature, SubscriptionInbound).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
