// Package cleanup は論理削除済みブログの物理削除ジョブを提供する。
// 保持期間（デフォルト30日）を超過した削除済みブログを日次バッチで
// 完全に削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// PurgeJob は保持期間を超過した削除済みブログの物理削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type PurgeJob struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int // 論理削除後の保持日数（デフォルト: 30）
}

// NewPurgeJob は新しいPurgeJobを生成する。
// デフォルトの保持日数は30日。
func NewPurgeJob(db Executor, logger *slog.Logger) *PurgeJob {
	return &PurgeJob{
		db:            db,
		logger:        logger,
		RetentionDays: 30,
	}
}

// Run は保持期間を超過した削除済みブログを物理削除する。
// is_deleted = TRUE かつ deleted_at がRetentionDays日前より古い行をDELETEする。
// 論理削除されていないブログには一切影響しない。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *PurgeJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	query := `DELETE FROM blogs WHERE is_deleted = TRUE AND deleted_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("削除済みブログのパージに失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("削除済みブログのパージに失敗: %w", err)
	}

	purgedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("削除済みブログのパージが完了しました",
		slog.Int64("purged_count", purgedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// StartDaily は24時間間隔でパージジョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *PurgeJob) StartDaily(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	j.logger.Info("ブログパージジョブを開始しました",
		slog.Int("retention_days", j.RetentionDays),
	)

	if err := j.Run(ctx); err != nil {
		j.logger.Error("パージジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("ブログパージジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("パージジョブの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
