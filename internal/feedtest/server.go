// Package feedtest runs a fake feed API for tests.
package feedtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Item is a media entry served by the fake feed
type Item struct {
	ID        string
	CreatedAt int64
	Type      string
	Likes     int64
	Comments  int64
	// Body is served for downloads; a small PNG is used when empty
	Body []byte
}

// Account is a fake feed account
type Account struct {
	Username  string
	Followers int64
	Items     []Item
	// PageSize defaults to 3
	PageSize int
	// Private marks the profile page as private. The listing still
	// serves Items.
	Private bool
	// TrailingEmptyPage makes the last page claim more items, so the
	// next request gets an empty page.
	TrailingEmptyPage bool
}

// Server simulates the profile, listing and media CDN endpoints
type Server struct {
	server *httptest.Server

	mu             sync.RWMutex
	accounts       map[string]*Account
	errorResponses map[string]int
	delays         map[string]time.Duration
	drops          map[string]int

	requestCount  atomic.Int32
	listingCount  atomic.Int32
	downloadCount atomic.Int32
	inFlight      atomic.Int32
	peakInFlight  atomic.Int32
}

// NewServer starts a fake feed server
func NewServer() *Server {
	s := &Server{
		accounts:       make(map[string]*Account),
		errorResponses: make(map[string]int),
		delays:         make(map[string]time.Duration),
		drops:          make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.route))
	return s
}

// URL returns the base URL of the server
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts down the server
func (s *Server) Close() {
	s.server.Close()
}

// AddAccount registers an account
func (s *Server) AddAccount(a Account) {
	if a.PageSize <= 0 {
		a.PageSize = 3
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.Username] = &a
}

// SetErrorResponse makes requests to path answer with code
func (s *Server) SetErrorResponse(path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorResponses[path] = code
}

// SetDelay delays responses to path
func (s *Server) SetDelay(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[path] = d
}

// DropConnections closes the connection of the next n requests to path
// without answering.
func (s *Server) DropConnections(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drops[path] = n
}

// MediaURL returns the sized, query-carrying URL the listing reports for id
func (s *Server) MediaURL(id string) string {
	return fmt.Sprintf("%s/cdn/s640x640/%s.jpg?ig_cache_key=%s", s.server.URL, id, id)
}

// CanonicalMediaURL returns MediaURL without size infix and query
func (s *Server) CanonicalMediaURL(id string) string {
	return fmt.Sprintf("%s/cdn/%s.jpg", s.server.URL, id)
}

// MediaPath returns the request path of id's canonical media URL
func MediaPath(id string) string {
	return "/cdn/" + id + ".jpg"
}

// RequestCount returns the total number of requests
func (s *Server) RequestCount() int { return int(s.requestCount.Load()) }

// ListingCount returns the number of media listing requests
func (s *Server) ListingCount() int { return int(s.listingCount.Load()) }

// DownloadCount returns the number of media downloads attempted
func (s *Server) DownloadCount() int { return int(s.downloadCount.Load()) }

// PeakInFlight returns the highest number of concurrent downloads seen
func (s *Server) PeakInFlight() int { return int(s.peakInFlight.Load()) }

// ResetCounters resets all request counters
func (s *Server) ResetCounters() {
	s.requestCount.Store(0)
	s.listingCount.Store(0)
	s.downloadCount.Store(0)
	s.peakInFlight.Store(0)
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	s.requestCount.Add(1)

	if s.drop(w, r.URL.Path) {
		return
	}
	if d := s.delay(r.URL.Path); d > 0 {
		time.Sleep(d)
	}
	if code := s.errorResponse(r.URL.Path); code > 0 {
		w.WriteHeader(code)
		fmt.Fprintf(w, "Error %d", code)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) >= 2 && parts[0] == "cdn":
		s.handleMedia(w, parts[len(parts)-1])
	case len(parts) == 2 && parts[1] == "media":
		s.handleListing(w, parts[0], r.URL.Query().Get("max_id"))
	case len(parts) == 1 && parts[0] != "":
		s.handleProfile(w, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) account(name string) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[name]
	return a, ok
}

func (s *Server) handleProfile(w http.ResponseWriter, name string) {
	a, ok := s.account(name)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	shared := map[string]interface{}{
		"entry_data": map[string]interface{}{
			"ProfilePage": []interface{}{
				map[string]interface{}{
					"user": map[string]interface{}{
						"username":    a.Username,
						"followed_by": map[string]interface{}{"count": a.Followers},
						"is_private":  a.Private,
					},
				},
			},
		},
	}
	blob, _ := json.Marshal(shared)

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, "<html><head></head><body><script type=\"text/javascript\">window._sharedData = %s;</script></body></html>", blob)
}

func (s *Server) handleListing(w http.ResponseWriter, name, maxID string) {
	s.listingCount.Add(1)

	a, ok := s.account(name)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	start := 0
	if maxID != "" {
		start = len(a.Items)
		for i, it := range a.Items {
			if it.ID == maxID {
				start = i + 1
				break
			}
		}
	}
	end := start + a.PageSize
	if end > len(a.Items) {
		end = len(a.Items)
	}

	items := make([]map[string]interface{}, 0, end-start)
	for _, it := range a.Items[start:end] {
		items = append(items, s.node(a, it))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"items":          items,
		"more_available": end < len(a.Items) || (a.TrailingEmptyPage && start < len(a.Items)),
		"status":         "ok",
	})
}

func (s *Server) node(a *Account, it Item) map[string]interface{} {
	kind := it.Type
	if kind == "" {
		kind = "image"
	}
	res := map[string]interface{}{
		"standard_resolution": map[string]interface{}{"url": s.MediaURL(it.ID), "width": 640, "height": 640},
	}
	n := map[string]interface{}{
		"id":           it.ID,
		"created_time": fmt.Sprintf("%d", it.CreatedAt),
		"type":         kind,
		"link":         fmt.Sprintf("%s/p/%s/", s.server.URL, it.ID),
		"likes":        map[string]interface{}{"count": it.Likes},
		"comments":     map[string]interface{}{"count": it.Comments},
		"user":         map[string]interface{}{"username": a.Username},
	}
	n[kind+"s"] = res
	return n
}

func (s *Server) handleMedia(w http.ResponseWriter, file string) {
	s.downloadCount.Add(1)
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peakInFlight.Load()
		if cur <= peak || s.peakInFlight.CompareAndSwap(peak, cur) {
			break
		}
	}

	id := strings.TrimSuffix(file, ".jpg")
	body := s.body(id)
	if body == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(body))
	_, _ = w.Write(body)
}

func (s *Server) body(id string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		for _, it := range a.Items {
			if it.ID == id {
				if len(it.Body) > 0 {
					return it.Body
				}
				return PNG(4, 3)
			}
		}
	}
	return nil
}

func (s *Server) errorResponse(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorResponses[path]
}

func (s *Server) delay(path string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.delays[path]
}

func (s *Server) drop(w http.ResponseWriter, path string) bool {
	s.mu.Lock()
	n := s.drops[path]
	if n > 0 {
		s.drops[path] = n - 1
	}
	s.mu.Unlock()
	if n == 0 {
		return false
	}

	hj, ok := w.(http.Hijacker)
	if !ok {
		return false
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// PNG encodes a w x h image
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 40), G: uint8(y * 40), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
