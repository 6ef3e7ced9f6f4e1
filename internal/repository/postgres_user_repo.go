package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/blogman/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, email, name, avatar_url, provider, provider_token, last_login, created_at, updated_at`

// scanUser は1行分のユーザーをスキャンする。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.ProviderToken, &user.LastLogin,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail は指定emailのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("emailによるユーザーの検索に失敗しました: %w", err)
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return user, nil
}

// UpsertWithLoginEvent はユーザーのUPSERTとLoginEventの追記を
// 同一トランザクションで実行する。
// ON CONFLICTでemailの一意性を利用し、既存ユーザーの場合は
// last_loginとupdated_atのみ更新する（emailと初回作成情報は不変）。
func (r *PostgresUserRepo) UpsertWithLoginEvent(ctx context.Context, user *model.User, event *model.LoginEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// ユーザーをUPSERT
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, avatar_url, provider, provider_token, last_login, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (email) DO UPDATE SET
		   last_login = EXCLUDED.last_login,
		   provider_token = EXCLUDED.provider_token,
		   updated_at = EXCLUDED.updated_at`,
		user.ID, user.Email, user.Name, user.AvatarURL,
		user.Provider, user.ProviderToken, user.LastLogin,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	// LoginEventを追記。UPSERTで既存行が残った場合はidが変わるため、
	// emailから実際のuser_idを引き直す。
	_, err = tx.ExecContext(ctx,
		`INSERT INTO login_events (id, user_id, login_at, provider)
		 SELECT $1, id, $2, $3 FROM users WHERE email = $4`,
		event.ID, event.LoginAt, event.Provider, user.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to insert login event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CountLoginEvents は指定ユーザーのログイン履歴件数を返す。
func (r *PostgresUserRepo) CountLoginEvents(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM login_events WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ログイン履歴件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
