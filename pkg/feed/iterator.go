package feed

import (
	"context"

	"dankrank/pkg/logger"
	"dankrank/pkg/models"
)

// Iterator walks an account's feed one item at a time, fetching the next
// page only when the current one is used up. It can be restarted only by
// creating a new Iterator.
type Iterator struct {
	paginator *Paginator
	account   string

	cursor  string
	hasMore bool
	started bool

	buf   []models.MediaItem
	pos   int
	pages int
	err   error
}

// NewIterator creates an iterator over account's feed. No request is made
// until the first call to Next.
func NewIterator(p *Paginator, account string) *Iterator {
	return &Iterator{paginator: p, account: account}
}

// Next returns the next item. It returns false when the feed is exhausted
// or a page request failed; Err tells the two apart.
func (it *Iterator) Next(ctx context.Context) (models.MediaItem, bool) {
	for it.pos >= len(it.buf) {
		if it.err != nil || (it.started && !it.hasMore) {
			return models.MediaItem{}, false
		}

		page, err := it.paginator.NextPage(ctx, it.account, it.cursor)
		it.started = true
		if err != nil {
			it.err = err
			it.buf = nil
			it.pos = 0
			return models.MediaItem{}, false
		}

		it.pages++
		logger.LogPage(it.paginator.logger, it.account, it.pages, len(page.Items), page.HasMore)

		it.buf = page.Items
		it.pos = 0
		it.cursor = page.NextCursor
		it.hasMore = page.HasMore
	}

	item := it.buf[it.pos]
	it.pos++
	return item, true
}

// Err returns the error that stopped the iteration, if any
func (it *Iterator) Err() error {
	return it.err
}

// Pages returns the number of pages fetched so far
func (it *Iterator) Pages() int {
	return it.pages
}

// Account returns the account being walked
func (it *Iterator) Account() string {
	return it.account
}
