// Package editor はエディター（編集部）管理のドメインロジックを提供する。
package editor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// Service はエディターに関するビジネスロジックを提供する。
// すべての操作は認証済みユーザーのスコープで実行される。
type Service struct {
	editorRepo repository.EditorRepository
}

// NewService はServiceを生成する。
func NewService(editorRepo repository.EditorRepository) *Service {
	return &Service{editorRepo: editorRepo}
}

// CreateInput はエディター作成の入力。
type CreateInput struct {
	Name string
	Bio  string
}

// UpdateInput はエディター更新の入力。nilのフィールドは更新対象外。
type UpdateInput struct {
	Name *string
	Bio  *string
}

// Create は新しいエディターを作成する。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Editor, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewInvalidBlogInputError("エディター名は必須です")
	}

	now := time.Now()
	editor := &model.Editor{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      input.Name,
		Bio:       input.Bio,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.editorRepo.Create(ctx, editor); err != nil {
		return nil, fmt.Errorf("failed to create editor: %w", err)
	}
	return editor, nil
}

// Get は指定ユーザーが所有するエディターを取得する。
func (s *Service) Get(ctx context.Context, userID, editorID string) (*model.Editor, error) {
	editor, err := s.editorRepo.FindByIDForUser(ctx, userID, editorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find editor: %w", err)
	}
	if editor == nil {
		return nil, model.NewEditorNotFoundError(editorID)
	}
	return editor, nil
}

// List は指定ユーザーのエディター一覧を返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Editor, error) {
	editors, err := s.editorRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list editors: %w", err)
	}
	return editors, nil
}

// Update はエディターの名前・紹介文を更新する。
func (s *Service) Update(ctx context.Context, userID, editorID string, input UpdateInput) (*model.Editor, error) {
	editor, err := s.Get(ctx, userID, editorID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, model.NewInvalidBlogInputError("エディター名は必須です")
		}
		editor.Name = *input.Name
	}
	if input.Bio != nil {
		editor.Bio = *input.Bio
	}
	editor.UpdatedAt = time.Now()

	if err := s.editorRepo.Update(ctx, editor); err != nil {
		return nil, fmt.Errorf("failed to update editor: %w", err)
	}
	return editor, nil
}

// Delete はエディターを論理削除する。
func (s *Service) Delete(ctx context.Context, userID, editorID string) error {
	if _, err := s.Get(ctx, userID, editorID); err != nil {
		return err
	}
	if err := s.editorRepo.SoftDelete(ctx, editorID); err != nil {
		return fmt.Errorf("failed to delete editor: %w", err)
	}
	return nil
}
