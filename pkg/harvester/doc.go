// Package harvester ties the feed paginator, the rank engine, the download
// dispatcher and the manifest together.
//
// A run walks each account newest first until items fall outside the rank
// window, scoring images into one ranked set shared by all accounts. The top
// items are then downloaded into the destination directory and the manifest
// is written:
//
//	client := instagram.NewClient(cfg.Session, cfg.Download.Timeout, log)
//	h, err := harvester.New(cfg, client, log)
//	if err != nil {
//	    return err
//	}
//	res, err := h.Run(ctx, harvester.ParseAccounts("dankmemes, memes"))
//
// Accounts that do not exist, are private or return malformed listings are
// recorded in the manifest's errors and do not stop the run.
package harvester
