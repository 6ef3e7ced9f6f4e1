// Package analytics はユーザーごとの利用状況集計を提供する。
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// BlogCounts はブログ数のステータス別内訳。
type BlogCounts struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Draft     int `json:"draft"`
	Scheduled int `json:"scheduled"`
}

// UserMetrics はユーザーごとの利用状況を表す。
type UserMetrics struct {
	LoginCount      int        `json:"loginCount"`
	LastLogin       *time.Time `json:"lastLogin"`
	EditorBlogs     BlogCounts `json:"editorBlogs"`
	AuthorBlogs     BlogCounts `json:"authorBlogs"`
	EditorCount     int        `json:"editorCount"`
	BlogAuthorCount int        `json:"blogAuthorCount"`
}

// Service は利用状況の集計ロジックを提供する。
type Service struct {
	userRepo   repository.UserRepository
	blogRepo   repository.BlogRepository
	editorRepo repository.EditorRepository
	authorRepo repository.BlogAuthorRepository
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	blogRepo repository.BlogRepository,
	editorRepo repository.EditorRepository,
	authorRepo repository.BlogAuthorRepository,
) *Service {
	return &Service{
		userRepo:   userRepo,
		blogRepo:   blogRepo,
		editorRepo: editorRepo,
		authorRepo: authorRepo,
	}
}

// MetricsForUser は指定ユーザーの利用状況を集計する。
// ログイン回数・最終ログイン日時に加え、ユーザーが所有するエディター・執筆者に
// 紐づくブログ数をステータス別に数える。
func (s *Service) MetricsForUser(ctx context.Context, user *model.User) (*UserMetrics, error) {
	loginCount, err := s.userRepo.CountLoginEvents(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count login events: %w", err)
	}

	editorIDs, err := s.editorRepo.ListIDsByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list editor ids: %w", err)
	}

	authorIDs, err := s.authorRepo.ListIDsByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list author ids: %w", err)
	}

	editorBlogs, err := s.countBlogsByEditors(ctx, editorIDs)
	if err != nil {
		return nil, err
	}

	authorBlogs, err := s.countBlogsByAuthors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	metrics := &UserMetrics{
		LoginCount:      loginCount,
		EditorBlogs:     editorBlogs,
		AuthorBlogs:     authorBlogs,
		EditorCount:     len(editorIDs),
		BlogAuthorCount: len(authorIDs),
	}
	if !user.LastLogin.IsZero() {
		lastLogin := user.LastLogin
		metrics.LastLogin = &lastLogin
	}

	return metrics, nil
}

func (s *Service) countBlogsByEditors(ctx context.Context, editorIDs []string) (BlogCounts, error) {
	var counts BlogCounts

	total, err := s.blogRepo.CountByEditorIDs(ctx, editorIDs, nil)
	if err != nil {
		return counts, fmt.Errorf("failed to count editor blogs: %w", err)
	}
	counts.Total = total

	for status, dst := range map[model.BlogStatus]*int{
		model.BlogStatusPublic:    &counts.Published,
		model.BlogStatusDraft:     &counts.Draft,
		model.BlogStatusScheduled: &counts.Scheduled,
	} {
		st := status
		n, err := s.blogRepo.CountByEditorIDs(ctx, editorIDs, &st)
		if err != nil {
			return counts, fmt.Errorf("failed to count editor blogs by status: %w", err)
		}
		*dst = n
	}

	return counts, nil
}

func (s *Service) countBlogsByAuthors(ctx context.Context, authorIDs []string) (BlogCounts, error) {
	var counts BlogCounts

	total, err := s.blogRepo.CountByAuthorIDs(ctx, authorIDs, nil)
	if err != nil {
		return counts, fmt.Errorf("failed to count author blogs: %w", err)
	}
	counts.Total = total

	for status, dst := range map[model.BlogStatus]*int{
		model.BlogStatusPublic:    &counts.Published,
		model.BlogStatusDraft:     &counts.Draft,
		model.BlogStatusScheduled: &counts.Scheduled,
	} {
		st := status
		n, err := s.blogRepo.CountByAuthorIDs(ctx, authorIDs, &st)
		if err != nil {
			return counts, fmt.Errorf("failed to count author blogs by status: %w", err)
		}
		*dst = n
	}

	return counts, nil
}
