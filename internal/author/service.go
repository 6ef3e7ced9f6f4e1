// Package author は執筆者管理のドメインロジックを提供する。
package author

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// Service は執筆者に関するビジネスロジックを提供する。
// すべての操作は認証済みユーザーのスコープで実行される。
type Service struct {
	authorRepo repository.BlogAuthorRepository
}

// NewService はServiceを生成する。
func NewService(authorRepo repository.BlogAuthorRepository) *Service {
	return &Service{authorRepo: authorRepo}
}

// CreateInput は執筆者作成の入力。
type CreateInput struct {
	Name string
}

// UpdateInput は執筆者更新の入力。nilのフィールドは更新対象外。
type UpdateInput struct {
	Name *string
}

// Create は新しい執筆者を作成する。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.BlogAuthor, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewInvalidBlogInputError("執筆者名は必須です")
	}

	now := time.Now()
	author := &model.BlogAuthor{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      input.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.authorRepo.Create(ctx, author); err != nil {
		return nil, fmt.Errorf("failed to create author: %w", err)
	}
	return author, nil
}

// Get は指定ユーザーが所有する執筆者を取得する。
func (s *Service) Get(ctx context.Context, userID, authorID string) (*model.BlogAuthor, error) {
	author, err := s.authorRepo.FindByIDForUser(ctx, userID, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find author: %w", err)
	}
	if author == nil {
		return nil, model.NewAuthorNotFoundError(authorID)
	}
	return author, nil
}

// List は指定ユーザーの執筆者一覧を返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.BlogAuthor, error) {
	authors, err := s.authorRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	return authors, nil
}

// Update は執筆者の名前を更新する。
func (s *Service) Update(ctx context.Context, userID, authorID string, input UpdateInput) (*model.BlogAuthor, error) {
	author, err := s.Get(ctx, userID, authorID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, model.NewInvalidBlogInputError("執筆者名は必須です")
		}
		author.Name = *input.Name
	}
	author.UpdatedAt = time.Now()

	if err := s.authorRepo.Update(ctx, author); err != nil {
		return nil, fmt.Errorf("failed to update author: %w", err)
	}
	return author, nil
}

// Delete は執筆者を論理削除する。
func (s *Service) Delete(ctx context.Context, userID, authorID string) error {
	if _, err := s.Get(ctx, userID, authorID); err != nil {
		return err
	}
	if err := s.authorRepo.SoftDelete(ctx, authorID); err != nil {
		return fmt.Errorf("failed to delete author: %w", err)
	}
	return nil
}
