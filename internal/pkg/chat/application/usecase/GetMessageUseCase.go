package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "resto-chat/internal/pkg/chat/application/domain"
	repository "resto-chat/internal/pkg/chat/persistence/repository/port"
	directory "resto-chat/internal/repository/port"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// GetMessageUseCase pages through a conversation's history. Staff can read
// any conversation; a customer can only read their own.
type GetMessageUseCase struct {
	Directory directory.IdentityDirectory
	Repo      repository.ChatRepository
}

func NewGetMessageUseCase(dir directory.IdentityDirectory, repo repository.ChatRepository) *GetMessageUseCase {
	return &GetMessageUseCase{Directory: dir, Repo: repo}
}

func (uc *GetMessageUseCase) Execute(ctx context.Context, callerID, conversationID string, limit, offset int) ([]chat.Message, error) {
	caller, err := uc.Directory.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, directory.ErrIdentityNotFound) {
			return nil, chat.ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	conv, err := uc.Repo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if caller.Role != chat.RoleStaff {
		if conv.CustomerID == nil || *conv.CustomerID != caller.ID {
			return nil, ErrForbidden
		}
	}

	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := uc.Repo.ListMessages(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return messages, nil
}
