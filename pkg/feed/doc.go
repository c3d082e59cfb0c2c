// Package feed walks an account's media listing.
//
// The listing is cursor paginated: each page carries a more_available flag
// and the identifier of its last item is the cursor for the next page.
// Paginator.NextPage fetches a single page; Iterator turns the pages into a
// lazy stream of models.MediaItem.
//
//	p := feed.NewPaginator(client, limiter, log)
//	it := p.Iterate("dankmemes")
//	for item, ok := it.Next(ctx); ok; item, ok = it.Next(ctx) {
//	    ...
//	}
//	if err := it.Err(); err != nil {
//	    ...
//	}
//
// A non-200 listing means the account does not exist and an empty page
// means it is private. Both end the walk for that account.
package feed
