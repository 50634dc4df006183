package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatId          uuid.UUID  `gorm:"type:uuid;not null;index"`
	SenderId        *uuid.UUID `gorm:"type:uuid"` // NULL sender means the reply was AI-authored
	Content         string     `gorm:"type:text;not null"`
	MessageType     string     `gorm:"type:varchar(20);not null;default:'text'"` // "text" | "system"
	IsEdited        bool       `gorm:"not null;default:false"`
	DeletedForOwner bool       `gorm:"not null;default:false"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (Message) TableName() string {
	return "messages"
}
