// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// emailはグローバルに一意で、作成後は変更されない。
// 初回の外部ログイン成功時に作成され、以降のログインごとに
// LastLoginの更新とLoginEventの追記が行われる。
type User struct {
	ID            string
	Email         string
	Name          string
	AvatarURL     string
	Provider      string
	ProviderToken string
	LastLogin     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LoginEvent はユーザーのログイン履歴の1エントリを表す。
// Userに排他的に所有され、追記のみで更新・削除は行われない。
type LoginEvent struct {
	ID       string
	UserID   string
	LoginAt  time.Time
	Provider string
}
