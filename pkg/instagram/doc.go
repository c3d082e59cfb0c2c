// Package instagram is the session client for the feed API.
//
// A Client carries the headers and cookies of one session. Get returns the
// raw status and body so callers decide how to interpret each endpoint.
// Download fetches binary content with the session and
// DownloadUnauthenticated fetches it again with a fresh request that carries
// no session state.
//
//	client := instagram.NewClient(cfg.Session, 30*time.Second, log)
//	resp, err := client.Get(ctx, instagram.MediaURL(client.BaseURL(), "dankmemes", ""))
package instagram
