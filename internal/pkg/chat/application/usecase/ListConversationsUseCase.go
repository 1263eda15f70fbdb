package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "resto-chat/internal/pkg/chat/application/domain"
	repository "resto-chat/internal/pkg/chat/persistence/repository/port"
	directory "resto-chat/internal/repository/port"
)

// ListConversationsUseCase serves conversation list views. Staff see every
// active conversation; a customer sees exactly their own single thread,
// created on demand so the client always has a conversation id to post to.
type ListConversationsUseCase struct {
	Directory directory.IdentityDirectory
	Repo      repository.ChatRepository
}

func NewListConversationsUseCase(dir directory.IdentityDirectory, repo repository.ChatRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{Directory: dir, Repo: repo}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, callerID string) ([]chat.ConversationSummary, error) {
	caller, err := uc.Directory.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, directory.ErrIdentityNotFound) {
			return nil, chat.ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if caller.Role == chat.RoleStaff {
		summaries, err := uc.Repo.ListConversationSummaries(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return summaries, nil
	}

	conv, err := uc.Repo.GetOrCreateConversation(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return []chat.ConversationSummary{conv.Summarize(*caller)}, nil
}
