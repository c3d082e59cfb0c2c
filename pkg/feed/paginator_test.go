package feed

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"dankrank/internal/feedtest"
	"dankrank/pkg/config"
	errs "dankrank/pkg/errors"
	"dankrank/pkg/instagram"
	"dankrank/pkg/logger"
	"dankrank/pkg/models"
	"dankrank/pkg/ratelimit"
	"dankrank/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaginator(t *testing.T, srv *feedtest.Server) *Paginator {
	t.Helper()
	client := instagram.NewClient(config.SessionConfig{BaseURL: srv.URL()}, 5*time.Second, logger.NewNopLogger())
	p := NewPaginator(client, nil, logger.NewNopLogger())
	p.SetRetry(&retry.Config{MaxAttempts: 2, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}, RetryIf: isTransportError})
	return p
}

func items(n int, start int64) []feedtest.Item {
	out := make([]feedtest.Item, n)
	for i := range out {
		out[i] = feedtest.Item{
			ID:        fmt.Sprintf("%d", 1000+i),
			CreatedAt: start - int64(i*60),
			Likes:     int64(10 + i),
			Comments:  int64(2 + i),
		}
	}
	return out
}

func TestNextPageFirstPage(t *testing.T) {
	srv := feedtest.NewServer()
	defer srv.Close()
	srv.AddAccount(feedtest.Account{Username: "dankmemes", Followers: 500, Items: items(5, 1_700_000_000), PageSize: 2})

	p := newPaginator(t, srv)
	page, err := p.NextPage(context.Background(), "dankmemes", "")
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "1001", page.NextCursor)

	first := page.Items[0]
	assert.Equal(t, "1000", first.ID)
	assert.Equal(t, int64(1_700_000_000), first.CreatedAt)
	assert.Equal(t, models.KindImage, first.Kind)
	assert.Equal(t, srv.CanonicalMediaURL("1000"), first.URL)
	assert.Equal(t, "dankmemes", first.Owner)
	assert.Equal(t, int64(10), first.Likes)
	assert.Equal(t, int64(2), first.Comments)
	assert.False(t, first.Scored)

	next, err := p.NextPage(context.Background(), "dankmemes", page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, "1002", next.Items[0].ID)
}

func TestNextPageErrors(t *testing.T) {
	srv := feedtest.NewServer()
	defer srv.Close()
	srv.AddAccount(feedtest.Account{Username: "empty", Followers: 10})
	srv.AddAccount(feedtest.Account{Username: "broken", Followers: 10, Items: items(1, 1)})
	srv.SetErrorResponse("/broken/media/", http.StatusInternalServerError)

	p := newPaginator(t, srv)
	ctx := context.Background()

	_, err := p.NextPage(ctx, "ghost", "")
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)

	_, err = p.NextPage(ctx, "empty", "")
	assert.ErrorIs(t, err, errs.ErrPrivateAccount)

	page, err := p.NextPage(ctx, "empty", "1234")
	require.NoError(t, err, "an empty page after the first is the end of the feed")
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)

	// any non-200 listing reads as a missing account
	_, err = p.NextPage(ctx, "broken", "")
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
}

type stubSession struct {
	base  string
	calls int
	resp  func(call int) (*instagram.Response, error)
}

func (s *stubSession) BaseURL() string { return s.base }

func (s *stubSession) Get(ctx context.Context, rawURL string) (*instagram.Response, error) {
	s.calls++
	return s.resp(s.calls)
}

func TestNextPageMalformed(t *testing.T) {
	bodies := []string{
		`<html>login</html>`,
		`{"items":[{"id":"1","created_time":"yesterday","type":"image","images":{"standard_resolution":{"url":"x"}}}]}`,
		`{"items":[{"id":"1","created_time":"1","type":"video"}]}`,
	}

	for _, body := range bodies {
		s := &stubSession{base: "https://feed.example.com", resp: func(int) (*instagram.Response, error) {
			return &instagram.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
		}}
		p := NewPaginator(s, nil, logger.NewNopLogger())
		_, err := p.NextPage(context.Background(), "weird", "")
		assert.ErrorIs(t, err, errs.ErrMalformedResponse, body)
	}
}

func TestNextPageRetriesTransportErrors(t *testing.T) {
	s := &stubSession{base: "https://feed.example.com", resp: func(call int) (*instagram.Response, error) {
		if call == 1 {
			return nil, errs.New(errs.ErrorTypeNetwork, 0, "connection reset")
		}
		return &instagram.Response{StatusCode: http.StatusOK, Body: []byte(
			`{"items":[{"id":"7","created_time":"100","type":"image","images":{"standard_resolution":{"url":"https://cdn/s640x640/7.jpg?x=1"}}}],"more_available":false}`,
		)}, nil
	}}
	p := NewPaginator(s, nil, logger.NewNopLogger())
	p.SetRetry(&retry.Config{MaxAttempts: 3, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}, RetryIf: isTransportError})

	page, err := p.NextPage(context.Background(), "flaky", "")
	require.NoError(t, err)
	assert.Equal(t, 2, s.calls)
	assert.Equal(t, "https://cdn/7.jpg", page.Items[0].URL)
	assert.False(t, page.HasMore)
}

func TestNextPageTransportFailureIsTransient(t *testing.T) {
	s := &stubSession{base: "https://feed.example.com", resp: func(int) (*instagram.Response, error) {
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "connection refused")
	}}
	p := NewPaginator(s, nil, logger.NewNopLogger())
	p.SetRetry(&retry.Config{MaxAttempts: 2, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}, RetryIf: isTransportError})

	_, err := p.NextPage(context.Background(), "down", "")
	assert.ErrorIs(t, err, errs.ErrTransientFetch)
	assert.False(t, errs.IsAccountFatal(err))
	assert.Equal(t, 2, s.calls)
}

func TestNextPageHonoursLimiter(t *testing.T) {
	s := &stubSession{base: "https://feed.example.com", resp: func(int) (*instagram.Response, error) {
		t.Fatal("request made without a token")
		return nil, nil
	}}
	limiter := ratelimit.NewTokenBucket(0, time.Hour)
	p := NewPaginator(s, limiter, logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.NextPage(ctx, "dankmemes", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, s.calls)
}

func TestFetchProfile(t *testing.T) {
	srv := feedtest.NewServer()
	defer srv.Close()
	srv.AddAccount(feedtest.Account{Username: "dankmemes", Followers: 12345, Items: items(1, 1)})

	p := newPaginator(t, srv)
	profile, err := p.FetchProfile(context.Background(), "dankmemes")
	require.NoError(t, err)
	assert.Equal(t, "dankmemes", profile.Username)
	assert.Equal(t, int64(12345), profile.Followers)

	_, err = p.FetchProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
}

func TestParseSharedData(t *testing.T) {
	page := []byte(`<script>window._sharedData = {"entry_data":{"ProfilePage":[{"user":{"username":"a","followed_by":{"count":42}}}]}};</script>`)
	user, err := parseSharedData(page)
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.FollowedBy.Count)

	for _, bad := range []string{
		`<html>no data</html>`,
		`window._sharedData = {"entry_data":{}}`,
		`window._sharedData = {"entry_data":{"ProfilePage":[]}};</script>`,
		`window._sharedData = {nope};</script>`,
	} {
		_, err := parseSharedData([]byte(bad))
		assert.Error(t, err, bad)
	}
}
