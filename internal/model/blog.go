// Package model はドメインモデルを定義する。
package model

import "time"

// BlogStatus はブログの公開状態を表す。
type BlogStatus string

const (
	// BlogStatusDraft は下書き状態。
	BlogStatusDraft BlogStatus = "DRAFT"
	// BlogStatusScheduled は予約公開待ち状態。ScheduledAtが必ず設定される。
	BlogStatusScheduled BlogStatus = "SCHEDULED"
	// BlogStatusPublic は公開済み状態。PublishedAtが必ず設定される。
	BlogStatusPublic BlogStatus = "PUBLIC"
)

// Blog はブログ記事を表す。
// ライフサイクル: DRAFTで作成され、明示的なpublishでPUBLICへ、
// 明示的なscheduleでSCHEDULEDへ、SCHEDULEDはスイープによって
// scheduled_at <= now の時点で自動的にPUBLICへ遷移する。
// 削除は論理削除（IsDeleted=true）のみで、物理削除は行わない。
type Blog struct {
	ID           string
	BlogAuthorID string
	EditorID     string
	Title        string
	Content      string
	Excerpt      string
	Status       BlogStatus
	ScheduledAt  *time.Time
	PublishedAt  *time.Time
	IsDeleted    bool
	DeletedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Editor はユーザーが記事編集に使う編集者アイデンティティを表す。
type Editor struct {
	ID        string
	UserID    string
	Name      string
	Bio       string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BlogAuthor はユーザーの執筆者アイデンティティを表す。
// ブログの所有権はBlogAuthor経由でユーザーに帰属する。
type BlogAuthor struct {
	ID        string
	UserID    string
	Name      string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
