package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatID struct {
	ChatID uuid.UUID
}

func (s ByChatID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_id = ?", s.ChatID)
}

type OwnedBy struct {
	OwnerID uuid.UUID
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner_id = ?", s.OwnerID)
}

type ByName struct {
	Name string
}

func (s ByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

// Live filters out logically deleted chats.
type Live struct{}

func (s Live) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("deleted = ?", false)
}

// VisibleToOwner hides messages the owner removed for themselves.
type VisibleToOwner struct{}

func (s VisibleToOwner) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_for_owner = ?", false)
}

// PinnedFirst orders chats with pinned ones on top, newest activity next.
type PinnedFirst struct{}

func (s PinnedFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("is_pinned DESC").Order("updated_at DESC")
}

// InCreationOrder is the stable timeline ordering for messages.
type InCreationOrder struct{}

func (s InCreationOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
