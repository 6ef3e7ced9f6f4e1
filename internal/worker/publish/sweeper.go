// Package publish は予約公開のバックグラウンドスイープ処理を提供する。
package publish

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/blogman/internal/metrics"
	"github.com/hitoshi/blogman/internal/repository"
)

// Sweeper は予約公開の定期スイープと並列制御を行う。
// 1分間隔のティッカーで公開期限を迎えたブログを取得し、
// semaphoreパターンで最大並列数を制御しながら公開処理を実行する。
//
// スイープの実行は単一スロットのtry-lockで多重起動を防止する。
// 前回のスイープが実行中の場合、新しいスイープは処理をスキップして
// 即座に戻る（待機はしない）。
type Sweeper struct {
	blogRepo       repository.BlogRepository
	logger         *slog.Logger
	collector      metrics.MetricsCollector
	maxConcurrency int

	// 容量1のチャネルによるtry-lock。取得できなければ実行中。
	running chan struct{}
}

// NewSweeper はSweeperの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値10を使用する。
// collectorはnil許容（メトリクス記録が不要なテストなど）。
func NewSweeper(
	blogRepo repository.BlogRepository,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	maxConcurrency int,
) *Sweeper {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	return &Sweeper{
		blogRepo:       blogRepo,
		logger:         logger,
		collector:      collector,
		maxConcurrency: maxConcurrency,
		running:        make(chan struct{}, 1),
	}
}

// Start は指定間隔のティッカーでスイーパーを起動する。
// 起動直後に1回実行し、以降はコンテキストがキャンセルされるまで継続する。
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("予約公開スイーパーを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	if _, err := s.RunSweep(ctx, time.Now()); err != nil {
		s.logger.Error("スイープの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("予約公開スイーパーを停止しました")
			return
		case <-ticker.C:
			if _, err := s.RunSweep(ctx, time.Now()); err != nil {
				s.logger.Error("スイープの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunSweep は公開期限を迎えたブログを1回スイープし、公開したブログのIDを返す。
//
// status = SCHEDULED かつ scheduled_at <= now かつ未削除のブログを取得し、
// semaphoreパターンの並列制御で公開状態に遷移させる。遷移は条件付きUPDATEで
// 行うため、別プロセスのスイープと同一行が重複しても公開はちょうど1回となる。
// 個別ブログの公開失敗はログとメトリクスに記録するのみで、スイープ全体は継続する。
// 前回のスイープが実行中の場合は何もせずnilを返す。
func (s *Sweeper) RunSweep(ctx context.Context, now time.Time) ([]string, error) {
	select {
	case s.running <- struct{}{}:
		defer func() { <-s.running }()
	default:
		// 前回実行中。待たずにスキップする。
		s.logger.Debug("前回のスイープが実行中のためスキップします")
		if s.collector != nil {
			s.collector.RecordSweepSkipped()
		}
		return nil, nil
	}

	start := time.Now()

	blogs, err := s.blogRepo.ListDueForPublish(ctx, now)
	if err != nil {
		return nil, err
	}

	if len(blogs) == 0 {
		s.logger.Debug("公開期限を迎えたブログはありません")
		if s.collector != nil {
			s.collector.RecordSweepDuration(time.Since(start))
		}
		return nil, nil
	}

	s.logger.Info("予約公開スイープを開始します",
		slog.Int("blog_count", len(blogs)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var published []string

	for _, blog := range blogs {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			transitioned, err := s.blogRepo.MarkPublishedIfScheduled(ctx, id, now)
			if err != nil {
				s.logger.Error("ブログの公開に失敗しました",
					slog.String("blog_id", id),
					slog.String("error", err.Error()),
				)
				if s.collector != nil {
					s.collector.RecordSweepFailure(id)
				}
				return
			}
			if !transitioned {
				// 別プロセスのスイープが先に公開した行。失敗でも公開でもない。
				s.logger.Debug("別プロセスが公開済みのためスキップします",
					slog.String("blog_id", id),
				)
				return
			}

			mu.Lock()
			published = append(published, id)
			mu.Unlock()
		}(blog.ID)
	}

	wg.Wait()

	duration := time.Since(start)
	s.logger.Info("予約公開スイープが完了しました",
		slog.Int("published_count", len(published)),
		slog.Int("blog_count", len(blogs)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	if s.collector != nil {
		s.collector.RecordBlogPublished(len(published))
		s.collector.RecordSweepDuration(duration)
	}

	return published, nil
}
