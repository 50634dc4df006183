package model

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(255);not null"`
	OwnerId   uuid.UUID `gorm:"type:uuid;not null;index"` // Owning user, issued by the auth subsystem
	IsPinned  bool      `gorm:"not null;default:false"`
	Deleted   bool      `gorm:"not null;default:false"` // Logical delete, (owner_id, name) unique among live rows
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Chat) TableName() string {
	return "chats"
}
