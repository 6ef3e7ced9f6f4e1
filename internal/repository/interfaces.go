// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail は指定emailのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// UpsertWithLoginEvent はユーザーのUPSERTとLoginEventの追記を
	// 同一トランザクションで実行する。
	// ユーザーが存在しない場合は作成し、存在する場合はlast_loginのみ更新する
	// （emailは作成後不変）。どちらの経路でもLoginEventをちょうど1件追記する。
	UpsertWithLoginEvent(ctx context.Context, user *model.User, event *model.LoginEvent) error

	// CountLoginEvents は指定ユーザーのログイン履歴件数を返す。
	CountLoginEvents(ctx context.Context, userID string) (int, error)
}

// BlogRepository はブログデータの永続化インターフェース。
// 読み取り系は論理削除済み（is_deleted=true）の行を常に除外する。
type BlogRepository interface {
	// FindByIDForUser は指定ユーザーが所有するブログを取得する。
	// 所有権はblog_authors.user_idで判定する。見つからない場合はnilを返す。
	FindByIDForUser(ctx context.Context, userID, id string) (*model.Blog, error)

	// ListByUser は指定ユーザーが所有するブログ一覧をcreated_at降順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Blog, error)

	// Create はブログを作成する。
	Create(ctx context.Context, blog *model.Blog) error

	// Update はブログを更新する。
	Update(ctx context.Context, blog *model.Blog) error

	// SoftDelete はブログを論理削除する。
	SoftDelete(ctx context.Context, id string, deletedAt time.Time) error

	// ListDueForPublish は予約公開期限を迎えたブログを取得する。
	// status = 'SCHEDULED' かつ scheduled_at <= now かつ is_deleted = false の行を返す。
	// 排他制御は行わないため、複数プロセスの同時スイープでは同一行が重複して
	// 返りうる。重複の解消はMarkPublishedIfScheduledの条件付きUPDATEが担う。
	ListDueForPublish(ctx context.Context, now time.Time) ([]*model.Blog, error)

	// MarkPublished はブログを公開状態に遷移させる。
	// status='PUBLIC'、published_at=publishedAt、scheduled_at=NULLを設定する。
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error

	// MarkPublishedIfScheduled はstatus='SCHEDULED'のブログのみを公開状態に
	// 遷移させ、実際に遷移したかを返す。別プロセスが先に公開済みの場合は
	// falseを返す（エラーではない）。
	MarkPublishedIfScheduled(ctx context.Context, id string, publishedAt time.Time) (bool, error)

	// CountByEditorIDs は指定エディター群に紐づくブログ数を返す。
	// statusがnilでない場合はそのステータスのみを数える。
	CountByEditorIDs(ctx context.Context, editorIDs []string, status *model.BlogStatus) (int, error)

	// CountByAuthorIDs は指定執筆者群に紐づくブログ数を返す。
	// statusがnilでない場合はそのステータスのみを数える。
	CountByAuthorIDs(ctx context.Context, authorIDs []string, status *model.BlogStatus) (int, error)
}

// EditorRepository はエディターデータの永続化インターフェース。
type EditorRepository interface {
	// FindByIDForUser は指定ユーザーが所有するエディターを取得する。
	// 見つからない場合・論理削除済みの場合はnilを返す。
	FindByIDForUser(ctx context.Context, userID, id string) (*model.Editor, error)

	// ListByUser は指定ユーザーのエディター一覧を返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Editor, error)

	// ListIDsByUser は指定ユーザーのエディターID一覧を返す。
	ListIDsByUser(ctx context.Context, userID string) ([]string, error)

	// Create はエディターを作成する。
	Create(ctx context.Context, editor *model.Editor) error

	// Update はエディターを更新する。
	Update(ctx context.Context, editor *model.Editor) error

	// SoftDelete はエディターを論理削除する。
	SoftDelete(ctx context.Context, id string) error
}

// BlogAuthorRepository は執筆者データの永続化インターフェース。
type BlogAuthorRepository interface {
	// FindByIDForUser は指定ユーザーが所有する執筆者を取得する。
	// 見つからない場合・論理削除済みの場合はnilを返す。
	FindByIDForUser(ctx context.Context, userID, id string) (*model.BlogAuthor, error)

	// ListByUser は指定ユーザーの執筆者一覧を返す。
	ListByUser(ctx context.Context, userID string) ([]*model.BlogAuthor, error)

	// ListIDsByUser は指定ユーザーの執筆者ID一覧を返す。
	ListIDsByUser(ctx context.Context, userID string) ([]string, error)

	// Create は執筆者を作成する。
	Create(ctx context.Context, author *model.BlogAuthor) error

	// Update は執筆者を更新する。
	Update(ctx context.Context, author *model.BlogAuthor) error

	// SoftDelete は執筆者を論理削除する。
	SoftDelete(ctx context.Context, id string) error
}
