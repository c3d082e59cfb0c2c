package downloader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	errs "dankrank/pkg/errors"
	"dankrank/pkg/logger"
	"dankrank/pkg/models"
	"dankrank/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockClient is a hand-written Fetcher that records concurrency
type MockClient struct {
	delay      time.Duration
	body       []byte
	authErr    error
	unauthErr  error
	blockFirst bool

	authCalls   int32
	unauthCalls int32
	inFlight    int32
	peak        int32

	mu   sync.Mutex
	seen []string
}

func (m *MockClient) enter(rawURL string) {
	n := atomic.AddInt32(&m.inFlight, 1)
	for {
		p := atomic.LoadInt32(&m.peak)
		if n <= p || atomic.CompareAndSwapInt32(&m.peak, p, n) {
			break
		}
	}
	m.mu.Lock()
	m.seen = append(m.seen, rawURL)
	m.mu.Unlock()
}

func (m *MockClient) leave() {
	atomic.AddInt32(&m.inFlight, -1)
}

func (m *MockClient) content() []byte {
	if m.body != nil {
		return m.body
	}
	return []byte("mock photo data")
}

func (m *MockClient) Download(ctx context.Context, rawURL string) ([]byte, error) {
	atomic.AddInt32(&m.authCalls, 1)
	m.enter(rawURL)
	defer m.leave()

	if m.blockFirst {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.authErr != nil {
		return nil, m.authErr
	}
	return m.content(), nil
}

func (m *MockClient) DownloadUnauthenticated(ctx context.Context, rawURL string) ([]byte, error) {
	atomic.AddInt32(&m.unauthCalls, 1)
	m.enter(rawURL)
	defer m.leave()

	if m.unauthErr != nil {
		return nil, m.unauthErr
	}
	return m.content(), nil
}

func (m *MockClient) calls() int {
	return int(atomic.LoadInt32(&m.authCalls) + atomic.LoadInt32(&m.unauthCalls))
}

func testItems(n int) []models.MediaItem {
	items := make([]models.MediaItem, n)
	for i := range items {
		items[i] = models.MediaItem{
			ID:        fmt.Sprintf("item%d", i),
			CreatedAt: 1_600_000_000 + int64(i),
			Kind:      models.KindImage,
			URL:       fmt.Sprintf("https://cdn.example.com/t51/%d_n.jpg", i),
			Owner:     "dankmemes",
		}
	}
	return items
}

func fastOptions(workers int) Options {
	return Options{Workers: workers, Timeout: time.Second, RetryBackoff: time.Millisecond}
}

func TestFetchAllBoundedConcurrency(t *testing.T) {
	client := &MockClient{delay: 5 * time.Millisecond}
	d := NewDispatcher(client, nil, fastOptions(10), logger.NewNopLogger())
	dest := t.TempDir()

	items := testItems(50)
	outcomes, err := d.FetchAll(context.Background(), items, dest)
	require.NoError(t, err)
	require.Len(t, outcomes, 50)

	assert.LessOrEqual(t, atomic.LoadInt32(&client.peak), int32(10))
	assert.Equal(t, 50, client.calls())

	for i, out := range outcomes {
		assert.Equal(t, items[i].ID, out.ItemID, "outcomes must follow item order")
		assert.Equal(t, models.StatusDownloaded, out.Status)
		assert.Equal(t, 1, out.Attempts)
		assert.Equal(t, int64(len("mock photo data")), out.Bytes)
		assert.NotEmpty(t, out.Checksum)

		info, err := os.Stat(filepath.Join(dest, fmt.Sprintf("%d_n.jpg", i)))
		require.NoError(t, err)
		assert.True(t, info.ModTime().Equal(items[i].Created()))
	}
}

func TestFetchAllRerunIsIdempotent(t *testing.T) {
	dest := t.TempDir()
	items := testItems(12)

	first := &MockClient{}
	_, err := NewDispatcher(first, nil, fastOptions(4), nil).FetchAll(context.Background(), items, dest)
	require.NoError(t, err)
	require.Equal(t, 12, first.calls())

	second := &MockClient{}
	outcomes, err := NewDispatcher(second, nil, fastOptions(4), nil).FetchAll(context.Background(), items, dest)
	require.NoError(t, err)

	assert.Zero(t, second.calls())
	for _, out := range outcomes {
		assert.Equal(t, models.StatusAlreadyPresent, out.Status)
		assert.Zero(t, out.Attempts)
	}
}

func TestFetchAllRetriesTransientFailureUnauthenticated(t *testing.T) {
	client := &MockClient{authErr: errs.New(errs.ErrorTypeNetwork, 0, "connection reset")}
	tl := logger.NewTestLogger()
	d := NewDispatcher(client, nil, fastOptions(2), tl)

	outcomes, err := d.FetchAll(context.Background(), testItems(1), t.TempDir())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.Equal(t, models.StatusDownloaded, outcomes[0].Status)
	assert.Equal(t, 2, outcomes[0].Attempts)
	assert.Equal(t, int32(1), client.authCalls)
	assert.Equal(t, int32(1), client.unauthCalls)
	assert.True(t, tl.HasMessage("retrying operation"))
}

func TestFetchAllRetriesServerErrors(t *testing.T) {
	client := &MockClient{authErr: errs.New(errs.ErrorTypeServerError, 503, "server error")}
	d := NewDispatcher(client, nil, fastOptions(1), logger.NewNopLogger())

	outcomes, err := d.FetchAll(context.Background(), testItems(1), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, models.StatusDownloaded, outcomes[0].Status)
	assert.Equal(t, int32(1), client.unauthCalls)
}

func TestFetchAllRetriesOnlyOnce(t *testing.T) {
	client := &MockClient{
		authErr:   errs.New(errs.ErrorTypeNetwork, 0, "connection reset"),
		unauthErr: errs.New(errs.ErrorTypeNetwork, 0, "connection reset again"),
	}
	tl := logger.NewTestLogger()
	d := NewDispatcher(client, nil, fastOptions(1), tl)

	dest := t.TempDir()
	outcomes, err := d.FetchAll(context.Background(), testItems(1), dest)
	require.NoError(t, err)

	out := outcomes[0]
	assert.Equal(t, models.StatusFailed, out.Status)
	assert.Equal(t, 2, out.Attempts)
	assert.ErrorIs(t, out.Err, errs.ErrTransientFetch)
	assert.Contains(t, out.Error, "connection reset again")
	assert.Equal(t, 2, client.calls())

	msg, ok := tl.FindMessage("Download failed")
	require.True(t, ok)
	assert.Equal(t, "item0", msg.Fields["item_id"])

	_, statErr := os.Stat(filepath.Join(dest, "0_n.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchAllDoesNotRetryPermanentFailure(t *testing.T) {
	client := &MockClient{authErr: errs.New(errs.ErrorTypeNotFound, 404, "resource not found")}
	d := NewDispatcher(client, nil, fastOptions(3), logger.NewNopLogger())

	outcomes, err := d.FetchAll(context.Background(), testItems(3), t.TempDir())
	require.NoError(t, err)

	for _, out := range outcomes {
		assert.Equal(t, models.StatusFailed, out.Status)
		assert.Equal(t, 1, out.Attempts)
	}
	assert.Zero(t, client.unauthCalls)
}

func TestFetchAllRequestTimeoutIsTransient(t *testing.T) {
	client := &MockClient{blockFirst: true}
	d := NewDispatcher(client, nil, Options{Workers: 1, Timeout: 20 * time.Millisecond, RetryBackoff: time.Millisecond}, logger.NewNopLogger())

	outcomes, err := d.FetchAll(context.Background(), testItems(1), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, models.StatusDownloaded, outcomes[0].Status)
	assert.Equal(t, 2, outcomes[0].Attempts)
}

func TestFetchAllCancelledContext(t *testing.T) {
	client := &MockClient{}
	d := NewDispatcher(client, nil, fastOptions(4), logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := d.FetchAll(ctx, testItems(8), t.TempDir())
	require.NoError(t, err)
	require.Len(t, outcomes, 8)

	for _, out := range outcomes {
		assert.Equal(t, models.StatusFailed, out.Status)
		assert.ErrorIs(t, out.Err, context.Canceled)
	}
	assert.Zero(t, client.calls())
}

func TestFetchAllHonoursRateLimiter(t *testing.T) {
	client := &MockClient{}
	limiter := ratelimit.NewTokenBucket(2, 100*time.Millisecond)
	d := NewDispatcher(client, limiter, fastOptions(4), logger.NewNopLogger())

	start := time.Now()
	outcomes, err := d.FetchAll(context.Background(), testItems(4), t.TempDir())
	require.NoError(t, err)

	for _, out := range outcomes {
		assert.Equal(t, models.StatusDownloaded, out.Status)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestFetchAllRecordsImageDimensions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 6, 4))))

	client := &MockClient{body: buf.Bytes()}
	d := NewDispatcher(client, nil, fastOptions(1), logger.NewNopLogger())

	outcomes, err := d.FetchAll(context.Background(), testItems(1), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 6, outcomes[0].Width)
	assert.Equal(t, 4, outcomes[0].Height)
}

func TestFetchAllItemWithoutFileName(t *testing.T) {
	client := &MockClient{}
	d := NewDispatcher(client, nil, fastOptions(1), logger.NewNopLogger())

	item := testItems(1)[0]
	item.URL = "https://cdn.example.com/dir/"

	outcomes, err := d.FetchAll(context.Background(), []models.MediaItem{item}, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, outcomes[0].Status)
	assert.Zero(t, client.calls())
}

func TestFetchAllCreatesDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "The Daily Dank")
	d := NewDispatcher(&MockClient{}, nil, fastOptions(2), logger.NewNopLogger())

	outcomes, err := d.FetchAll(context.Background(), nil, dest)
	require.NoError(t, err)
	assert.Empty(t, outcomes)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOptionsDefaults(t *testing.T) {
	d := NewDispatcher(&MockClient{}, nil, Options{}, logger.NewNopLogger())
	assert.Equal(t, DefaultWorkers, d.Workers())
	assert.Equal(t, DefaultTimeout, d.opts.Timeout)
	assert.Equal(t, DefaultRetryBackoff, d.opts.RetryBackoff)
}
