package entity

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	Id        uuid.UUID
	Name      string
	OwnerId   uuid.UUID
	IsPinned  bool
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
