package service

import (
	"context"
	"errors"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/internal/repository"
	"anoa.com/skillexchange/pkg/apperror"
	"anoa.com/skillexchange/pkg/logger"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

type MessagingService interface {
	// StartConversation opens a two-person conversation, reusing an existing
	// one between the same pair.
	StartConversation(ctx context.Context, userID uuid.UUID, input dto.StartConversationRequest) (*model.Conversation, bool, error)
	GetConversations(ctx context.Context, userID uuid.UUID, page dto.PageQuery) ([]model.Conversation, dto.PaginationMeta, error)
	GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*model.Conversation, error)
	SendMessage(ctx context.Context, userID, conversationID uuid.UUID, input dto.SendMessageRequest, meta RequestMeta) (*model.Message, error)
	// GetMessages returns a conversation page and marks the counterparty's
	// messages as read.
	GetMessages(ctx context.Context, userID, conversationID uuid.UUID, page dto.PageQuery) ([]model.Message, dto.PaginationMeta, error)
	UnreadConversationCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type messagingService struct {
	repo          repository.ConversationRepository
	userRepo      repository.UserRepository
	activityRepo  repository.ActivityRepository
	notifications NotificationService
	sanitizer     *bluemonday.Policy
}

func NewMessagingService(
	repo repository.ConversationRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	notifications NotificationService,
) MessagingService {
	return &messagingService{
		repo:          repo,
		userRepo:      userRepo,
		activityRepo:  activityRepo,
		notifications: notifications,
		sanitizer:     bluemonday.StrictPolicy(),
	}
}

func (s *messagingService) StartConversation(ctx context.Context, userID uuid.UUID, input dto.StartConversationRequest) (*model.Conversation, bool, error) {
	otherID, err := uuid.Parse(input.UserID)
	if err != nil {
		return nil, false, apperror.Invalid("invalid user id")
	}
	if otherID == userID {
		return nil, false, apperror.Invalid("you cannot start a conversation with yourself")
	}

	other, err := s.userRepo.FindByID(ctx, otherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperror.NotFound("user not found")
		}
		return nil, false, err
	}
	if !other.IsActive {
		return nil, false, apperror.NotFound("user not found")
	}

	existing, err := s.repo.FindBetween(ctx, userID, otherID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	me, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	conversation, err := s.repo.Create(ctx, []model.User{*me, *other})
	if err != nil {
		return nil, false, err
	}
	return conversation, true, nil
}

func (s *messagingService) GetConversations(ctx context.Context, userID uuid.UUID, page dto.PageQuery) ([]model.Conversation, dto.PaginationMeta, error) {
	page.Normalize(20, 100)
	conversations, total, err := s.repo.FindForUser(ctx, userID, page)
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}
	return conversations, dto.NewPaginationMeta(total, page.Page, page.Limit), nil
}

func (s *messagingService) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*model.Conversation, error) {
	return s.findParticipating(ctx, userID, conversationID)
}

func (s *messagingService) SendMessage(ctx context.Context, userID, conversationID uuid.UUID, input dto.SendMessageRequest, meta RequestMeta) (*model.Message, error) {
	conversation, err := s.findParticipating(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	content := s.sanitizer.Sanitize(input.Content)
	if content == "" {
		return nil, apperror.Invalid("message content is empty")
	}

	message := &model.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        content,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if other := conversation.OtherParticipant(userID); other != nil {
		sender, _ := s.userRepo.FindByID(ctx, userID)
		title := "New message"
		if sender != nil {
			title = "New message from " + sender.FullName()
		}
		s.notifications.Notify(ctx, &model.Notification{
			UserID:            other.ID,
			Type:              model.NotificationMessage,
			Title:             title,
			Message:           truncate(content, 120),
			RelatedObjectID:   &conversationID,
			RelatedObjectType: "conversation",
		})
	}

	if err := s.activityRepo.Create(ctx, &model.UserActivity{
		UserID:            userID,
		Type:              model.ActivityMessageSent,
		Description:       "message sent",
		IPAddress:         meta.IPAddress,
		UserAgent:         meta.UserAgent,
		RelatedObjectID:   &conversationID,
		RelatedObjectType: "conversation",
	}); err != nil {
		logger.Component("messaging").Warn().Err(err).Msg("failed to record activity")
	}

	return message, nil
}

func (s *messagingService) GetMessages(ctx context.Context, userID, conversationID uuid.UUID, page dto.PageQuery) ([]model.Message, dto.PaginationMeta, error) {
	if _, err := s.findParticipating(ctx, userID, conversationID); err != nil {
		return nil, dto.PaginationMeta{}, err
	}

	page.Normalize(50, 200)
	messages, total, err := s.repo.FindMessages(ctx, conversationID, page)
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}

	if err := s.repo.MarkMessagesRead(ctx, conversationID, userID); err != nil {
		return nil, dto.PaginationMeta{}, err
	}

	return messages, dto.NewPaginationMeta(total, page.Page, page.Limit), nil
}

func (s *messagingService) UnreadConversationCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.UnreadConversationCount(ctx, userID)
}

// findParticipating hides conversations from non-participants.
func (s *messagingService) findParticipating(ctx context.Context, userID, conversationID uuid.UUID) (*model.Conversation, error) {
	conversation, err := s.repo.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("conversation not found")
		}
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, apperror.NotFound("conversation not found")
	}
	return conversation, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
