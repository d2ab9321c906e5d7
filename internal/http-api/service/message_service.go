package service

import (
	"errors"

	"markethub/internal/http-api/dto"
	"markethub/internal/http-api/models"
	"markethub/internal/http-api/repository"

	"gorm.io/gorm"
)

var (
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrCannotMessageSelf = errors.New("cannot message yourself")
	ErrMessageNotFound   = errors.New("message not found")
)

type MessageService interface {
	Send(senderID string, req dto.SendMessageDTO) (*dto.MessageResponse, error)
	Conversation(userID, otherID string, page, pageSize int) (*dto.PaginatedMessageResponse, error)
	Inbox(userID string, page, pageSize int) (*dto.PaginatedMessageResponse, error)
	MarkRead(messageID int64, recipientID string) error
}

type messageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
}

func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

func (s *messageService) Send(senderID string, req dto.SendMessageDTO) (*dto.MessageResponse, error) {
	if senderID == req.RecipientID {
		return nil, ErrCannotMessageSelf
	}

	if _, err := s.userRepo.FindByID(req.RecipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	message := &models.Message{
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Body:        req.Body,
	}

	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}

	return dto.FromModelToMessageResponse(message), nil
}

func (s *messageService) Conversation(userID, otherID string, page, pageSize int) (*dto.PaginatedMessageResponse, error) {
	if _, err := s.userRepo.FindByID(otherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	messages, total, err := s.messageRepo.Conversation(userID, otherID, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, *dto.FromModelToMessageResponse(&messages[i]))
	}

	return dto.NewPaginatedMessageResponse(responses, int(total), page, pageSize), nil
}

func (s *messageService) Inbox(userID string, page, pageSize int) (*dto.PaginatedMessageResponse, error) {
	messages, total, err := s.messageRepo.Inbox(userID, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, *dto.FromModelToMessageResponse(&messages[i]))
	}

	return dto.NewPaginatedMessageResponse(responses, int(total), page, pageSize), nil
}

func (s *messageService) MarkRead(messageID int64, recipientID string) error {
	if err := s.messageRepo.MarkRead(messageID, recipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	return nil
}
