package mapper

import (
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Chat Mappers

func (m *ChatMapper) ChatToEntity(c *model.Chat) *entity.Chat {
	if c == nil {
		return nil
	}
	return &entity.Chat{
		Id:        c.Id,
		Name:      c.Name,
		OwnerId:   c.OwnerId,
		IsPinned:  c.IsPinned,
		Deleted:   c.Deleted,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (m *ChatMapper) ChatToModel(c *entity.Chat) *model.Chat {
	if c == nil {
		return nil
	}
	return &model.Chat{
		Id:        c.Id,
		Name:      c.Name,
		OwnerId:   c.OwnerId,
		IsPinned:  c.IsPinned,
		Deleted:   c.Deleted,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:              msg.Id,
		ChatId:          msg.ChatId,
		SenderId:        msg.SenderId,
		Content:         msg.Content,
		MessageType:     msg.MessageType,
		IsEdited:        msg.IsEdited,
		DeletedForOwner: msg.DeletedForOwner,
		CreatedAt:       msg.CreatedAt,
		UpdatedAt:       msg.UpdatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:              msg.Id,
		ChatId:          msg.ChatId,
		SenderId:        msg.SenderId,
		Content:         msg.Content,
		MessageType:     msg.MessageType,
		IsEdited:        msg.IsEdited,
		DeletedForOwner: msg.DeletedForOwner,
		CreatedAt:       msg.CreatedAt,
		UpdatedAt:       msg.UpdatedAt,
	}
}
