package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	errs "dankrank/pkg/errors"
	"dankrank/pkg/instagram"
	"dankrank/pkg/logger"
	"dankrank/pkg/models"
	"dankrank/pkg/ratelimit"
	"dankrank/pkg/retry"
)

// Session is the part of the session client the paginator reads from
type Session interface {
	Get(ctx context.Context, rawURL string) (*instagram.Response, error)
	BaseURL() string
}

// Page is one page of an account's feed
type Page struct {
	Items      []models.MediaItem
	NextCursor string
	HasMore    bool
}

// Paginator fetches pages of an account's media listing
type Paginator struct {
	session Session
	limiter ratelimit.Limiter
	retry   *retry.Config
	logger  logger.Logger
}

// NewPaginator creates a paginator. A nil limiter means no throttling.
func NewPaginator(session Session, limiter ratelimit.Limiter, log logger.Logger) *Paginator {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	log = logger.OrDefault(log).WithField("component", "paginator")

	return &Paginator{
		session: session,
		limiter: limiter,
		retry: &retry.Config{
			MaxAttempts: 3,
			Backoff:     retry.DefaultExponentialBackoff(),
			RetryIf:     isTransportError,
			Logger:      log,
		},
		logger: log,
	}
}

// SetRetry replaces the retry policy used for transport failures
func (p *Paginator) SetRetry(cfg *retry.Config) {
	p.retry = cfg
}

// isTransportError retries requests that never got a response
func isTransportError(err error) bool {
	return errs.TypeOf(err) == errs.ErrorTypeNetwork
}

// get fetches rawURL through the rate limiter, retrying transport failures
func (p *Paginator) get(ctx context.Context, rawURL string) (*instagram.Response, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context, attempt int) (*instagram.Response, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return p.session.Get(ctx, rawURL)
	}, p.retry)
}

// NextPage fetches the page after cursor. An empty cursor fetches the first
// page. An empty later page ends the feed without error.
func (p *Paginator) NextPage(ctx context.Context, account, cursor string) (Page, error) {
	rawURL := instagram.MediaURL(p.session.BaseURL(), account, cursor)

	resp, err := p.get(ctx, rawURL)
	if err != nil {
		return Page{}, fmt.Errorf("fetching media for %s: %w", account, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Page{}, errs.NotFound(account, resp.StatusCode)
	}

	var listing instagram.MediaListing
	if err := json.Unmarshal(resp.Body, &listing); err != nil {
		return Page{}, errs.Malformed(account, resp.StatusCode, err)
	}
	if len(listing.Items) == 0 {
		// only an empty first page marks the account private
		if cursor == "" {
			return Page{}, errs.Private(account)
		}
		return Page{NextCursor: cursor}, nil
	}

	items := make([]models.MediaItem, 0, len(listing.Items))
	for _, node := range listing.Items {
		item, err := toMediaItem(node, account)
		if err != nil {
			return Page{}, errs.Malformed(account, resp.StatusCode, err)
		}
		items = append(items, item)
	}

	return Page{
		Items:      items,
		NextCursor: items[len(items)-1].ID,
		HasMore:    listing.MoreAvailable,
	}, nil
}

func toMediaItem(node instagram.MediaNode, account string) (models.MediaItem, error) {
	if node.ID == "" {
		return models.MediaItem{}, fmt.Errorf("media item without id")
	}
	created, err := strconv.ParseInt(node.CreatedTime, 10, 64)
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("media %s: bad created_time %q: %w", node.ID, node.CreatedTime, err)
	}

	kind := models.ParseMediaKind(node.Type)
	var res *instagram.Resources
	switch kind {
	case models.KindImage:
		res = node.Images
	case models.KindVideo:
		res = node.Videos
	}
	if res == nil && kind != models.KindOther {
		return models.MediaItem{}, fmt.Errorf("media %s: no %s resources", node.ID, kind)
	}

	owner := node.User.Username
	if owner == "" {
		owner = account
	}

	item := models.MediaItem{
		ID:        node.ID,
		CreatedAt: created,
		Kind:      kind,
		Permalink: node.Link,
		Owner:     owner,
		Likes:     node.Likes.Count,
		Comments:  node.Comments.Count,
	}
	if res != nil {
		item.URL = CanonicalURL(res.StandardResolution.URL)
	}
	return item, nil
}

// Iterate returns a lazy iterator over account's feed
func (p *Paginator) Iterate(account string) *Iterator {
	return NewIterator(p, account)
}

