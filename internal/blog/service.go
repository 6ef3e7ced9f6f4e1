// Package blog はブログ記事のドメインロジックを提供する。
package blog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/security"
)

// Service はブログ記事に関するビジネスロジックを提供する。
// すべての操作は認証済みユーザーのスコープで実行され、
// 他ユーザーのブログ・エディター・執筆者には一切アクセスできない。
type Service struct {
	blogRepo   repository.BlogRepository
	editorRepo repository.EditorRepository
	authorRepo repository.BlogAuthorRepository
	sanitizer  security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	blogRepo repository.BlogRepository,
	editorRepo repository.EditorRepository,
	authorRepo repository.BlogAuthorRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		blogRepo:   blogRepo,
		editorRepo: editorRepo,
		authorRepo: authorRepo,
		sanitizer:  sanitizer,
	}
}

// CreateInput はブログ作成の入力。
type CreateInput struct {
	Title    string
	Content  string
	EditorID string
	AuthorID string
}

// UpdateInput はブログ更新の入力。
// nilのフィールドは更新対象外とする。
type UpdateInput struct {
	Title    *string
	Content  *string
	EditorID *string
}

// Create は新しいブログをDRAFT状態で作成する。
// エディターと執筆者が指定ユーザーの所有であることを検証し、
// 本文はサニタイズした上で保存する。抜粋は本文から自動生成される。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Blog, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, model.NewInvalidBlogInputError("タイトルは必須です")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, model.NewInvalidBlogInputError("本文は必須です")
	}

	// エディター・執筆者の所有権検証
	editor, err := s.editorRepo.FindByIDForUser(ctx, userID, input.EditorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find editor: %w", err)
	}
	if editor == nil {
		return nil, model.NewEditorNotFoundError(input.EditorID)
	}

	author, err := s.authorRepo.FindByIDForUser(ctx, userID, input.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find author: %w", err)
	}
	if author == nil {
		return nil, model.NewAuthorNotFoundError(input.AuthorID)
	}

	sanitized := s.sanitizer.Sanitize(input.Content)
	now := time.Now()

	blog := &model.Blog{
		ID:           uuid.New().String(),
		BlogAuthorID: author.ID,
		EditorID:     editor.ID,
		Title:        input.Title,
		Content:      sanitized,
		Excerpt:      ExtractExcerpt(sanitized),
		Status:       model.BlogStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.blogRepo.Create(ctx, blog); err != nil {
		return nil, fmt.Errorf("failed to create blog: %w", err)
	}

	slog.Info("blog created",
		slog.String("blog_id", blog.ID),
		slog.String("editor_id", editor.ID),
	)

	return blog, nil
}

// Get は指定ユーザーが所有するブログを取得する。
func (s *Service) Get(ctx context.Context, userID, blogID string) (*model.Blog, error) {
	blog, err := s.blogRepo.FindByIDForUser(ctx, userID, blogID)
	if err != nil {
		return nil, fmt.Errorf("failed to find blog: %w", err)
	}
	if blog == nil {
		return nil, model.NewBlogNotFoundError(blogID)
	}
	return blog, nil
}

// List は指定ユーザーが所有するブログ一覧を返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Blog, error) {
	blogs, err := s.blogRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	return blogs, nil
}

// Update はブログのタイトル・本文・担当エディターを更新する。
// 本文が更新される場合は再サニタイズし、抜粋も再生成する。
// エディターを変更する場合はCreateと同様に所有権を検証する。
func (s *Service) Update(ctx context.Context, userID, blogID string, input UpdateInput) (*model.Blog, error) {
	blog, err := s.Get(ctx, userID, blogID)
	if err != nil {
		return nil, err
	}

	if input.EditorID != nil {
		editor, err := s.editorRepo.FindByIDForUser(ctx, userID, *input.EditorID)
		if err != nil {
			return nil, fmt.Errorf("failed to find editor: %w", err)
		}
		if editor == nil {
			return nil, model.NewEditorNotFoundError(*input.EditorID)
		}
		blog.EditorID = editor.ID
	}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, model.NewInvalidBlogInputError("タイトルは必須です")
		}
		blog.Title = *input.Title
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, model.NewInvalidBlogInputError("本文は必須です")
		}
		sanitized := s.sanitizer.Sanitize(*input.Content)
		blog.Content = sanitized
		blog.Excerpt = ExtractExcerpt(sanitized)
	}
	blog.UpdatedAt = time.Now()

	if err := s.blogRepo.Update(ctx, blog); err != nil {
		return nil, fmt.Errorf("failed to update blog: %w", err)
	}
	return blog, nil
}

// Delete はブログを論理削除する。
// 削除済みブログは以降の読み取り・予約公開の対象から除外される。
func (s *Service) Delete(ctx context.Context, userID, blogID string) error {
	if _, err := s.Get(ctx, userID, blogID); err != nil {
		return err
	}
	if err := s.blogRepo.SoftDelete(ctx, blogID, time.Now()); err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}
	slog.Info("blog deleted", slog.String("blog_id", blogID))
	return nil
}

// Publish はブログを即時公開する。
// 状態をPUBLICに遷移させ、published_atを現在時刻に、scheduled_atをクリアする。
// すでに公開済みのブログに対しても安全に呼び出せる（published_atが更新される）。
func (s *Service) Publish(ctx context.Context, userID, blogID string) (*model.Blog, error) {
	blog, err := s.Get(ctx, userID, blogID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.blogRepo.MarkPublished(ctx, blogID, now); err != nil {
		return nil, fmt.Errorf("failed to publish blog: %w", err)
	}

	blog.Status = model.BlogStatusPublic
	blog.PublishedAt = &now
	blog.ScheduledAt = nil
	blog.UpdatedAt = now

	slog.Info("blog published", slog.String("blog_id", blogID))
	return blog, nil
}

// Schedule は指定日時での予約公開を設定する。
// 予約日時は未来でなければならない。過去または現在の日時を指定した場合は
// INVALID_SCHEDULEエラーを返す。
func (s *Service) Schedule(ctx context.Context, userID, blogID string, at time.Time) (*model.Blog, error) {
	blog, err := s.Get(ctx, userID, blogID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !at.After(now) {
		return nil, model.NewInvalidScheduleError("過去の日時は指定できません")
	}

	blog.Status = model.BlogStatusScheduled
	blog.ScheduledAt = &at
	blog.PublishedAt = nil
	blog.UpdatedAt = now

	if err := s.blogRepo.Update(ctx, blog); err != nil {
		return nil, fmt.Errorf("failed to schedule blog: %w", err)
	}

	slog.Info("blog scheduled",
		slog.String("blog_id", blogID),
		slog.Time("scheduled_at", at),
	)
	return blog, nil
}
