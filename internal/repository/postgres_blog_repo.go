package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/blogman/internal/model"
)

// PostgresBlogRepo はPostgreSQLを使用したブログリポジトリ。
type PostgresBlogRepo struct {
	db *sql.DB
}

// NewPostgresBlogRepo はPostgresBlogRepoを生成する。
func NewPostgresBlogRepo(db *sql.DB) *PostgresBlogRepo {
	return &PostgresBlogRepo{db: db}
}

const blogColumns = `b.id, b.blog_author_id, b.editor_id, b.title, b.content, b.excerpt,
	        b.status, b.scheduled_at, b.published_at, b.is_deleted, b.deleted_at,
	        b.created_at, b.updated_at`

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBlog は1行分のブログをスキャンする。
func scanBlog(row rowScanner) (*model.Blog, error) {
	blog := &model.Blog{}
	var scheduledAt, publishedAt, deletedAt sql.NullTime

	err := row.Scan(
		&blog.ID, &blog.BlogAuthorID, &blog.EditorID, &blog.Title,
		&blog.Content, &blog.Excerpt, &blog.Status,
		&scheduledAt, &publishedAt, &blog.IsDeleted, &deletedAt,
		&blog.CreatedAt, &blog.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	blog.ScheduledAt = nullTimeValue(scheduledAt)
	blog.PublishedAt = nullTimeValue(publishedAt)
	blog.DeletedAt = nullTimeValue(deletedAt)

	return blog, nil
}

// FindByIDForUser は指定ユーザーが所有するブログを取得する。
// 所有権はblog_authors.user_idで判定する。見つからない場合はnilを返す。
func (r *PostgresBlogRepo) FindByIDForUser(ctx context.Context, userID, id string) (*model.Blog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+`
		 FROM blogs b
		 JOIN blog_authors a ON a.id = b.blog_author_id
		 WHERE b.id = $1 AND b.is_deleted = FALSE AND a.user_id = $2`,
		id, userID,
	)

	blog, err := scanBlog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ブログの取得に失敗しました: %w", err)
	}
	return blog, nil
}

// ListByUser は指定ユーザーが所有するブログ一覧をcreated_at降順で返す。
func (r *PostgresBlogRepo) ListByUser(ctx context.Context, userID string) ([]*model.Blog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogColumns+`
		 FROM blogs b
		 JOIN blog_authors a ON a.id = b.blog_author_id
		 WHERE b.is_deleted = FALSE AND a.user_id = $1
		 ORDER BY b.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ブログ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var blogs []*model.Blog
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("ブログ行のスキャンに失敗しました: %w", err)
		}
		blogs = append(blogs, blog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ブログ一覧の走査に失敗しました: %w", err)
	}

	return blogs, nil
}

// Create はブログを作成する。
func (r *PostgresBlogRepo) Create(ctx context.Context, blog *model.Blog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blogs (id, blog_author_id, editor_id, title, content, excerpt,
		                    status, scheduled_at, published_at, is_deleted, deleted_at,
		                    created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		blog.ID, blog.BlogAuthorID, blog.EditorID, blog.Title,
		blog.Content, blog.Excerpt, blog.Status,
		nullTime(blog.ScheduledAt), nullTime(blog.PublishedAt),
		blog.IsDeleted, nullTime(blog.DeletedAt),
		blog.CreatedAt, blog.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ブログの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はブログを更新する。
func (r *PostgresBlogRepo) Update(ctx context.Context, blog *model.Blog) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET
		    editor_id = $2, title = $3, content = $4, excerpt = $5,
		    status = $6, scheduled_at = $7, published_at = $8,
		    updated_at = $9
		 WHERE id = $1`,
		blog.ID, blog.EditorID, blog.Title, blog.Content, blog.Excerpt,
		blog.Status, nullTime(blog.ScheduledAt), nullTime(blog.PublishedAt),
		blog.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ブログの更新に失敗しました: %w", err)
	}
	return nil
}

// SoftDelete はブログを論理削除する。
func (r *PostgresBlogRepo) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET is_deleted = TRUE, deleted_at = $2, updated_at = $2
		 WHERE id = $1 AND is_deleted = FALSE`,
		id, deletedAt,
	)
	if err != nil {
		return fmt.Errorf("ブログの論理削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewBlogNotFoundError(id)
	}
	return nil
}

// ListDueForPublish は予約公開期限を迎えたブログを取得する。
// 排他制御は行わない。autocommitのSELECTで取得した行ロックは文の終了時に
// 解放されるため、複数プロセスの同時スイープでは同一行が重複して返りうる。
// 重複はMarkPublishedIfScheduledの条件付きUPDATEで解消される。
func (r *PostgresBlogRepo) ListDueForPublish(ctx context.Context, now time.Time) ([]*model.Blog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogColumns+`
		 FROM blogs b
		 WHERE b.status = 'SCHEDULED' AND b.scheduled_at <= $1 AND b.is_deleted = FALSE`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("予約公開対象の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var blogs []*model.Blog
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("ブログ行のスキャンに失敗しました: %w", err)
		}
		blogs = append(blogs, blog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("予約公開対象の走査に失敗しました: %w", err)
	}

	return blogs, nil
}

// MarkPublished はブログを公開状態に遷移させる。
// 行単位の原子的UPDATEであり、既にPUBLICの場合も結果は同じ（冪等）。
func (r *PostgresBlogRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET
		    status = 'PUBLIC', published_at = $2, scheduled_at = NULL, updated_at = $2
		 WHERE id = $1 AND is_deleted = FALSE`,
		id, publishedAt,
	)
	if err != nil {
		return fmt.Errorf("ブログの公開遷移に失敗しました: %w", err)
	}
	return nil
}

// MarkPublishedIfScheduled はSCHEDULED状態のブログのみを公開状態に遷移させる。
// 条件付きUPDATEの行ロックにより、複数プロセスが同一行をスイープしても
// 遷移に成功するのはちょうど1プロセスとなる。遷移しなかった場合はfalseを返す。
func (r *PostgresBlogRepo) MarkPublishedIfScheduled(ctx context.Context, id string, publishedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET
		    status = 'PUBLIC', published_at = $2, scheduled_at = NULL, updated_at = $2
		 WHERE id = $1 AND status = 'SCHEDULED' AND is_deleted = FALSE`,
		id, publishedAt,
	)
	if err != nil {
		return false, fmt.Errorf("ブログの公開遷移に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountByEditorIDs は指定エディター群に紐づくブログ数を返す。
func (r *PostgresBlogRepo) CountByEditorIDs(ctx context.Context, editorIDs []string, status *model.BlogStatus) (int, error) {
	return r.countByColumn(ctx, "editor_id", editorIDs, status)
}

// CountByAuthorIDs は指定執筆者群に紐づくブログ数を返す。
func (r *PostgresBlogRepo) CountByAuthorIDs(ctx context.Context, authorIDs []string, status *model.BlogStatus) (int, error) {
	return r.countByColumn(ctx, "blog_author_id", authorIDs, status)
}

// countByColumn は指定カラムのID集合に紐づくブログ数を数える。
// columnは呼び出し側で固定された識別子のみを渡すこと。
func (r *PostgresBlogRepo) countByColumn(ctx context.Context, column string, ids []string, status *model.BlogStatus) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `SELECT COUNT(*) FROM blogs WHERE ` + column + ` = ANY($1)`
	args := []interface{}{pq.Array(ids)}

	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ブログ数の集計に失敗しました: %w", err)
	}
	return count, nil
}

// nullTime は*time.Timeをsql.NullTimeに変換する。
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullTimeValue はsql.NullTimeを*time.Timeに変換する。
func nullTimeValue(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// compile-time interface check
var _ BlogRepository = (*PostgresBlogRepo)(nil)
