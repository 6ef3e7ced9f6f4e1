// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, blog, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeProfileInvalid   = "PROFILE_INVALID"
	ErrCodeTokenInvalid     = "TOKEN_INVALID"
	ErrCodeProviderDenied   = "PROVIDER_DENIED"
	ErrCodeConfigInvalid    = "CONFIG_INVALID"
	ErrCodeBlogNotFound     = "BLOG_NOT_FOUND"
	ErrCodeEditorNotFound   = "EDITOR_NOT_FOUND"
	ErrCodeAuthorNotFound   = "AUTHOR_NOT_FOUND"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeInvalidSchedule  = "INVALID_SCHEDULE"
	ErrCodeInvalidBlogInput = "INVALID_BLOG_INPUT"
)

// NewBlogNotFoundError はブログ未検出エラーを生成する。
func NewBlogNotFoundError(blogID string) *APIError {
	return &APIError{
		Code:     ErrCodeBlogNotFound,
		Message:  fmt.Sprintf("指定されたブログが見つかりません: %s", blogID),
		Category: "blog",
		Action:   "ブログIDを確認してください。",
	}
}

// NewEditorNotFoundError はエディター未検出エラーを生成する。
func NewEditorNotFoundError(editorID string) *APIError {
	return &APIError{
		Code:     ErrCodeEditorNotFound,
		Message:  fmt.Sprintf("指定されたエディターが見つかりません: %s", editorID),
		Category: "blog",
		Action:   "エディターIDを確認してください。",
	}
}

// NewAuthorNotFoundError は執筆者未検出エラーを生成する。
func NewAuthorNotFoundError(authorID string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthorNotFound,
		Message:  fmt.Sprintf("指定された執筆者が見つかりません: %s", authorID),
		Category: "blog",
		Action:   "執筆者IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidScheduleError は予約日時が不正な場合のエラーを生成する。
func NewInvalidScheduleError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSchedule,
		Message:  fmt.Sprintf("無効な予約日時です: %s", reason),
		Category: "validation",
		Action:   "未来の日時を指定してください。",
	}
}

// NewInvalidBlogInputError はブログ入力が不正な場合のエラーを生成する。
func NewInvalidBlogInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBlogInput,
		Message:  fmt.Sprintf("無効なブログ入力です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}
