package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// PostgresEditorRepo はPostgreSQLを使用したエディターリポジトリ。
type PostgresEditorRepo struct {
	db *sql.DB
}

// NewPostgresEditorRepo はPostgresEditorRepoを生成する。
func NewPostgresEditorRepo(db *sql.DB) *PostgresEditorRepo {
	return &PostgresEditorRepo{db: db}
}

// FindByIDForUser は指定ユーザーが所有するエディターを取得する。
// 見つからない場合・論理削除済みの場合はnilを返す。
func (r *PostgresEditorRepo) FindByIDForUser(ctx context.Context, userID, id string) (*model.Editor, error) {
	editor := &model.Editor{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, bio, is_deleted, created_at, updated_at
		 FROM editors WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE`,
		id, userID,
	).Scan(
		&editor.ID, &editor.UserID, &editor.Name, &editor.Bio,
		&editor.IsDeleted, &editor.CreatedAt, &editor.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("エディターの取得に失敗しました: %w", err)
	}

	return editor, nil
}

// ListByUser は指定ユーザーのエディター一覧を返す。
func (r *PostgresEditorRepo) ListByUser(ctx context.Context, userID string) ([]*model.Editor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, bio, is_deleted, created_at, updated_at
		 FROM editors WHERE user_id = $1 AND is_deleted = FALSE
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("エディター一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var editors []*model.Editor
	for rows.Next() {
		editor := &model.Editor{}
		if err := rows.Scan(
			&editor.ID, &editor.UserID, &editor.Name, &editor.Bio,
			&editor.IsDeleted, &editor.CreatedAt, &editor.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("エディター行のスキャンに失敗しました: %w", err)
		}
		editors = append(editors, editor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("エディター一覧の走査に失敗しました: %w", err)
	}

	return editors, nil
}

// ListIDsByUser は指定ユーザーのエディターID一覧を返す。
func (r *PostgresEditorRepo) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM editors WHERE user_id = $1 AND is_deleted = FALSE`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("エディターID一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("エディターIDのスキャンに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("エディターID一覧の走査に失敗しました: %w", err)
	}

	return ids, nil
}

// Create はエディターを作成する。
func (r *PostgresEditorRepo) Create(ctx context.Context, editor *model.Editor) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO editors (id, user_id, name, bio, is_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		editor.ID, editor.UserID, editor.Name, editor.Bio,
		editor.IsDeleted, editor.CreatedAt, editor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("エディターの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はエディターを更新する。
func (r *PostgresEditorRepo) Update(ctx context.Context, editor *model.Editor) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE editors SET name = $2, bio = $3, updated_at = $4
		 WHERE id = $1 AND is_deleted = FALSE`,
		editor.ID, editor.Name, editor.Bio, editor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("エディターの更新に失敗しました: %w", err)
	}
	return nil
}

// SoftDelete はエディターを論理削除する。
func (r *PostgresEditorRepo) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE editors SET is_deleted = TRUE, updated_at = $2
		 WHERE id = $1 AND is_deleted = FALSE`,
		id, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("エディターの論理削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewEditorNotFoundError(id)
	}
	return nil
}

// compile-time interface check
var _ EditorRepository = (*PostgresEditorRepo)(nil)
