package publish

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// --- モック定義 ---

// mockBlogRepo はBlogRepositoryのテスト用モック。
type mockBlogRepo struct {
	listDueForPublishFunc        func(ctx context.Context, now time.Time) ([]*model.Blog, error)
	markPublishedIfScheduledFunc func(ctx context.Context, id string, publishedAt time.Time) (bool, error)
}

func (m *mockBlogRepo) FindByIDForUser(ctx context.Context, userID, id string) (*model.Blog, error) {
	return nil, nil
}

func (m *mockBlogRepo) ListByUser(ctx context.Context, userID string) ([]*model.Blog, error) {
	return nil, nil
}

func (m *mockBlogRepo) Create(ctx context.Context, blog *model.Blog) error { return nil }
func (m *mockBlogRepo) Update(ctx context.Context, blog *model.Blog) error { return nil }

func (m *mockBlogRepo) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	return nil
}

func (m *mockBlogRepo) ListDueForPublish(ctx context.Context, now time.Time) ([]*model.Blog, error) {
	if m.listDueForPublishFunc != nil {
		return m.listDueForPublishFunc(ctx, now)
	}
	return nil, nil
}

func (m *mockBlogRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return nil
}

func (m *mockBlogRepo) MarkPublishedIfScheduled(ctx context.Context, id string, publishedAt time.Time) (bool, error) {
	if m.markPublishedIfScheduledFunc != nil {
		return m.markPublishedIfScheduledFunc(ctx, id, publishedAt)
	}
	return true, nil
}

func (m *mockBlogRepo) CountByEditorIDs(ctx context.Context, editorIDs []string, status *model.BlogStatus) (int, error) {
	return 0, nil
}

func (m *mockBlogRepo) CountByAuthorIDs(ctx context.Context, authorIDs []string, status *model.BlogStatus) (int, error) {
	return 0, nil
}

// fakeCollector はMetricsCollectorのテスト用実装。
type fakeCollector struct {
	mu             sync.Mutex
	publishedTotal int
	failures       []string
	skipped        int
	durations      int
}

func (c *fakeCollector) RecordLogin(provider string) {}

func (c *fakeCollector) RecordBlogPublished(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishedTotal += count
}

func (c *fakeCollector) RecordSweepFailure(blogID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, blogID)
}

func (c *fakeCollector) RecordSweepSkipped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped++
}

func (c *fakeCollector) RecordSweepDuration(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durations++
}

func (c *fakeCollector) RecordHTTPStatus(statusCode int) {}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func scheduledBlog(id string) *model.Blog {
	at := time.Now().Add(-time.Minute)
	return &model.Blog{ID: id, Status: model.BlogStatusScheduled, ScheduledAt: &at}
}

// --- スイーパーのテスト ---

func TestNewSweeper_ReturnsNonNil(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	s := NewSweeper(&mockBlogRepo{}, logger, nil, 10)
	if s == nil {
		t.Fatal("NewSweeper は nil を返してはならない")
	}
}

func TestNewSweeper_DefaultConcurrency(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	// 0以下の場合はデフォルトの10を使用する
	s := NewSweeper(&mockBlogRepo{}, logger, nil, 0)
	if s.maxConcurrency != 10 {
		t.Errorf("maxConcurrency = %d, want 10 (default)", s.maxConcurrency)
	}
}

func TestSweeper_RunSweep_PublishesDueBlogs(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	blogs := []*model.Blog{
		scheduledBlog("blog-1"),
		scheduledBlog("blog-2"),
		scheduledBlog("blog-3"),
	}

	var publishedIDs []string
	var mu sync.Mutex

	repo := &mockBlogRepo{
		listDueForPublishFunc: func(ctx context.Context, now time.Time) ([]*model.Blog, error) {
			return blogs, nil
		},
		markPublishedIfScheduledFunc: func(ctx context.Context, id string, publishedAt time.Time) (bool, error) {
			mu.Lock()
			publishedIDs = append(publishedIDs, id)
			mu.Unlock()
			return true, nil
		},
	}

	s := NewSweeper(repo, logger, nil, 10)
	published, err := s.RunSweep(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RunSweep() がエラーを返した: %v", err)
	}

	if len(publishedIDs) != 3 {
		t.Errorf("公開されたブログ数 = %d, want 3", len(publishedIDs))
	}

	sort.Strings(published)
	want := []string{"blog-1", "blog-2", "blog-3"}
	if len(published) != len(want) {
		t.Fatalf("published = %v, want %v", published, want)
	}
	for i := range want {
		if published[i] != want[i] {
			t.Errorf("published[%d] = %q, want %q", i, published[i], want[i])
		}
	}
}

func TestSweeper_RunSweep_NoDueBlogs(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	repo := &mockBlogRepo{
		listDueForPublishFunc: func(ctx context.Context, now time.Time) ([]*model.Blog, error) {
			return nil, nil
		},
	}

	s := NewSweeper(repo, logger, nil, 10)
	published, err := s.RunSweep(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RunSweep() がエラーを返した: %v", err)
	}
	if len(published) != 0 {
		t.Errorf("published = %v, want empty", published)
	}
}

func TestSweeper_RunSweep_RepoError(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	repo := &mockBlogRepo{
		listDueForPublishFunc: func(ctx context.Context, now time.Time) ([]*model.Blog, error) {
			return nil, errors.New("db connection failed")
		},
	}

	s := NewSweeper(repo, logger, nil, 10)
	_, err := s.RunSweep(context.Background(), time.Now())
	if err == nil {
		t.Fatal("RunSweep() はリポジトリエラー時にエラーを返すべき")
	}
}

func TestSweeper_RunSweep_PublishErrorDoesNotStopOthers(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	blogs := []*model.Blog{
		scheduledBlog("blog-1"),
		scheduledBlog("blog-2"),
		scheduledBlog("blog-3"),
	}

	var attempts int32

	repo := &mockBlogRepo{
		listDueForPublishFunc: func(ctx context.Context, now time.Time) ([]*model.Blog, error) {
			return blogs, nil
		},
		markPublishedIfScheduledFunc: func(ctx context.Context, id string, publishedAt time.Time) (bool, error) {
			atomic.AddInt32(&attempts, 1)
			if id == "blog-2" {
				return false, errors.New("update failed")
			}
			return true, nil
		},
	}

	s := NewSweeper(repo, logger, nil, 10)
	// 個別ブログの公開エラーはRunSweepのエラーとはならない
	published, err := s.RunSweep(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RunSweep() は個別エラーでもエラーを返さないべき: %v", err)
	}

	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("全ブログの公開が試行されるべき: got %d, want 3", atomic.LoadInt32(&attempts))
	}
	// 失敗した1件は結果に含まれない
	if len(published) != 2 {
		t.Errorf("published = %v, want 2 ids", published)
	}
	for _, id := range published {
		if id == "blog-2" {
			t.Error("失敗したブログは結果に含まれないべき")
		}
	}
}

func TestSweeper_RunSweep_RowClaimedByAnotherProcess(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	blogs := []*model.Blog{
		scheduledBlog("blog-1"),
		scheduledBlog("blog-2"),
		scheduledBlog("blog-3"),
	}

	// blog-2は取得後・遷移前に別プロセスのスイープが公開した想定
	repo := &mockBlogRepo{
		listDueForPublishFunc: func(ctx context.Context, now time.Time) ([]*model.Blog, error) {
			return blogs, nil
		},
		markPublishedIfScheduledFunc: func(ctx context.Context, id string, publishedAt time.Time) (bool, error) {
			if id == "blog-2" {
				return false, nil
			}
			return true, nil
		},
	}

	collector := &fakeCollector{}
	s := NewSweeper(repo, logger, collector, 10)
	published, err := s.RunSweep(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RunSweep() がエラーを返した: %v", err)
	}

	// 遷移しなかった行は公開結果に含まれない
	if len(published) != 2 {
		t.Errorf("published = %v, want 2 ids", published)
	}
	for _, id := range published {
		if id == "blog-2" {
			t.Error("別プロセスが公開済みの行は結果に含まれないべき")
		}
	}

	// メトリクスも実際に遷移した分のみを数え、失敗としても記録しない
	if collector.publishedTotal != 2 {
		t.Errorf("公開メトリクス = %d, want 2", collector.publishedTotal)
	}
	if len(collector.failures) != 0 {
		t.Errorf("失敗メトリクス = %v, want empty", collector.failures)
	}
}

func TestSweeper_RunSweep_EmptySweepRecordsDuration(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	repo := &mockBlogRepo{
		listDueForPublishFunc: func(ctx context.Context, now time.Time) ([]*model.Blog, error) {
			return nil, nil
		},
	}

	collector := &fakeCollector{}
	s := NewSweeper(repo, logger, collector, 10)
	if _, err := s.RunSweep(context.Background(), time.Now()); err != nil {
		t.Fatalf("RunSweep() がエラーを返した: %v", err)
	}

	// 対象0件のスイープも実行時間を記録する
	if collector.durations != 1 {
		t.Errorf("実行時間の記録回数 = %d, want 1", collector.durations)
	}
	if collector.publishedTotal != 0 {
		t.Errorf("公開メトリクス = %d, want 0", collector.publishedTotal)
	}
}

func TestSweeper_RunSweep_ConcurrencyLimit(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	blogs := make([]*model.Blog, 20)
	for i := range blogs {
		blogs[i] = scheduledBlog("blog-" + string(rune('a'+i)))
	}

	var maxConcurrent int32
	var currentConcurrent int32

	repo := &mockBlogRepo{
		listDueForPublishFunc: func(ctx context.Context, now time.Time) ([]*model.Blog, error) {
			return blogs, nil
		},
		markPublishedIfScheduledFunc: func(ctx context.Context, id string, publishedAt time.Time) (bool, error) {
			current := atomic.AddInt32(&currentConcurrent, 1)
			defer atomic.AddInt32(&currentConcurrent, -1)

			for {
				old := atomic.LoadInt32(&maxConcurrent)
				if current <= old {
					break
				}
				if atomic.CompareAndSwapInt32(&maxConcurrent, old, current) {
					break
				}
			}

			// 少し待つことで並列実行を促す
			time.Sleep(10 * time.Millisecond)
			return true, nil
		},
	}

	s := NewSweeper(repo, logger, nil, 3)
	published, err := s.RunSweep(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RunSweep() がエラーを返した: %v", err)
	}

	if len(published) != 20 {
		t.Errorf("公開数 = %d, want 20", len(published))
	}
	if atomic.LoadInt32(&maxConcurrent) > 3 {
		t.Errorf("最大同時実行数 = %d, 3以下であるべき", atomic.LoadInt32(&maxConcurrent))
	}
}

func TestSweeper_RunSweep_SkipsWhileRunning(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	// 最初のスイープをブロックさせて、実行中の2回目がスキップされることを確認する
	firstStarted := make(chan struct{})
	release := make(chan struct{})

	var listCalls int32

	repo := &mockBlogRepo{
		listDueForPublishFunc: func(ctx context.Context, now time.Time) ([]*model.Blog, error) {
			atomic.AddInt32(&listCalls, 1)
			close(firstStarted)
			<-release
			return nil, nil
		},
	}

	s := NewSweeper(repo, logger, nil, 10)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunSweep(context.Background(), time.Now())
	}()

	<-firstStarted

	// 1回目が実行中の間、2回目は待たずにスキップして戻る
	published, err := s.RunSweep(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("スキップされたRunSweep() はエラーを返さないべき: %v", err)
	}
	if published != nil {
		t.Errorf("published = %v, want nil", published)
	}

	close(release)
	<-done

	if atomic.LoadInt32(&listCalls) != 1 {
		t.Errorf("リポジトリ呼び出し回数 = %d, want 1（スキップされた実行は照会しない）", atomic.LoadInt32(&listCalls))
	}

	// 1回目の完了後は再び実行できる
	released := make(chan struct{})
	repo.listDueForPublishFunc = func(ctx context.Context, now time.Time) ([]*model.Blog, error) {
		close(released)
		return nil, nil
	}
	if _, err := s.RunSweep(context.Background(), time.Now()); err != nil {
		t.Fatalf("RunSweep() がエラーを返した: %v", err)
	}
	select {
	case <-released:
	default:
		t.Error("ロック解放後のRunSweep() はリポジトリを照会すべき")
	}
}

func TestSweeper_Start_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	ran := make(chan struct{}, 1)
	repo := &mockBlogRepo{
		listDueForPublishFunc: func(ctx context.Context, now time.Time) ([]*model.Blog, error) {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil, nil
		},
	}

	s := NewSweeper(repo, logger, nil, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Start(ctx, time.Hour)
	}()

	// 起動直後に1回実行される
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("Start() は起動直後にスイープを実行すべき")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start() はコンテキストキャンセルで停止すべき")
	}
}
