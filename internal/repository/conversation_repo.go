package repository

import (
	"context"
	"time"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationRepository interface {
	Create(ctx context.Context, participants []model.User) (*model.Conversation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	// FindBetween returns an existing conversation both users participate in.
	FindBetween(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error)
	FindForUser(ctx context.Context, userID uuid.UUID, page dto.PageQuery) ([]model.Conversation, int64, error)
	CreateMessage(ctx context.Context, message *model.Message) error
	FindMessages(ctx context.Context, conversationID uuid.UUID, page dto.PageQuery) ([]model.Message, int64, error)
	// MarkMessagesRead marks messages from other senders as read.
	MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) error
	UnreadConversationCount(ctx context.Context, userID uuid.UUID) (int64, error)
	CountMessages(ctx context.Context) (int64, error)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, participants []model.User) (*model.Conversation, error) {
	conversation := &model.Conversation{Participants: participants}
	if err := r.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return nil, err
	}
	return conversation, nil
}

func (r *conversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id = ?", id).
		First(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) FindBetween(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error) {
	var conversation model.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id IN (?)",
			r.db.Table("conversation_participants").
				Select("conversation_id").
				Where("user_id IN ?", []uuid.UUID{a, b}).
				Group("conversation_id").
				Having("COUNT(DISTINCT user_id) = 2"),
		).
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) FindForUser(ctx context.Context, userID uuid.UUID, page dto.PageQuery) ([]model.Conversation, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var conversations []model.Conversation
	if err := base.
		Preload("Participants").
		Order("conversations.updated_at DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&conversations).Error; err != nil {
		return nil, 0, err
	}

	return conversations, total, nil
}

func (r *conversationRepository) CreateMessage(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		// Bump the conversation so it sorts to the top of the inbox.
		return tx.Model(&model.Conversation{}).
			Where("id = ?", message.ConversationID).
			Update("updated_at", time.Now()).Error
	})
}

func (r *conversationRepository) FindMessages(ctx context.Context, conversationID uuid.UUID, page dto.PageQuery) ([]model.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Message order is creation order.
	var messages []model.Message
	if err := query.
		Preload("Sender").
		Order("created_at ASC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (r *conversationRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true).Error
}

func (r *conversationRepository) UnreadConversationCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Joins("JOIN messages m ON m.conversation_id = conversations.id").
		Where("cp.user_id = ? AND m.sender_id <> ? AND m.is_read = ?", userID, userID, false).
		Distinct("conversations.id").
		Count(&count).Error
	return count, err
}

func (r *conversationRepository) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).Count(&count).Error
	return count, err
}
