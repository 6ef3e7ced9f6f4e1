package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// PostgresBlogAuthorRepo はPostgreSQLを使用した執筆者リポジトリ。
type PostgresBlogAuthorRepo struct {
	db *sql.DB
}

// NewPostgresBlogAuthorRepo はPostgresBlogAuthorRepoを生成する。
func NewPostgresBlogAuthorRepo(db *sql.DB) *PostgresBlogAuthorRepo {
	return &PostgresBlogAuthorRepo{db: db}
}

// FindByIDForUser は指定ユーザーが所有する執筆者を取得する。
// 見つからない場合・論理削除済みの場合はnilを返す。
func (r *PostgresBlogAuthorRepo) FindByIDForUser(ctx context.Context, userID, id string) (*model.BlogAuthor, error) {
	author := &model.BlogAuthor{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, is_deleted, created_at, updated_at
		 FROM blog_authors WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE`,
		id, userID,
	).Scan(
		&author.ID, &author.UserID, &author.Name,
		&author.IsDeleted, &author.CreatedAt, &author.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("執筆者の取得に失敗しました: %w", err)
	}

	return author, nil
}

// ListByUser は指定ユーザーの執筆者一覧を返す。
func (r *PostgresBlogAuthorRepo) ListByUser(ctx context.Context, userID string) ([]*model.BlogAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, is_deleted, created_at, updated_at
		 FROM blog_authors WHERE user_id = $1 AND is_deleted = FALSE
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("執筆者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var authors []*model.BlogAuthor
	for rows.Next() {
		author := &model.BlogAuthor{}
		if err := rows.Scan(
			&author.ID, &author.UserID, &author.Name,
			&author.IsDeleted, &author.CreatedAt, &author.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("執筆者行のスキャンに失敗しました: %w", err)
		}
		authors = append(authors, author)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("執筆者一覧の走査に失敗しました: %w", err)
	}

	return authors, nil
}

// ListIDsByUser は指定ユーザーの執筆者ID一覧を返す。
func (r *PostgresBlogAuthorRepo) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM blog_authors WHERE user_id = $1 AND is_deleted = FALSE`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("執筆者ID一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("執筆者IDのスキャンに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("執筆者ID一覧の走査に失敗しました: %w", err)
	}

	return ids, nil
}

// Create は執筆者を作成する。
func (r *PostgresBlogAuthorRepo) Create(ctx context.Context, author *model.BlogAuthor) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blog_authors (id, user_id, name, is_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		author.ID, author.UserID, author.Name,
		author.IsDeleted, author.CreatedAt, author.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("執筆者の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は執筆者を更新する。
func (r *PostgresBlogAuthorRepo) Update(ctx context.Context, author *model.BlogAuthor) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE blog_authors SET name = $2, updated_at = $3
		 WHERE id = $1 AND is_deleted = FALSE`,
		author.ID, author.Name, author.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("執筆者の更新に失敗しました: %w", err)
	}
	return nil
}

// SoftDelete は執筆者を論理削除する。
func (r *PostgresBlogAuthorRepo) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE blog_authors SET is_deleted = TRUE, updated_at = $2
		 WHERE id = $1 AND is_deleted = FALSE`,
		id, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("執筆者の論理削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewAuthorNotFoundError(id)
	}
	return nil
}

// compile-time interface check
var _ BlogAuthorRepository = (*PostgresBlogAuthorRepo)(nil)
