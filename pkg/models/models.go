package models

import (
	"fmt"
	"math"
	"time"
)

// MediaKind is the type of content an item points at
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
	KindOther MediaKind = "other"
)

// ParseMediaKind maps a listing type onto a MediaKind
func ParseMediaKind(s string) MediaKind {
	switch MediaKind(s) {
	case KindImage, KindVideo:
		return MediaKind(s)
	default:
		return KindOther
	}
}

// MediaItem is one entry of an account's feed. The paginator creates it,
// the rank engine sets Score once and it is read-only afterwards.
type MediaItem struct {
	ID        string    `json:"id"`
	CreatedAt int64     `json:"created_at"`
	Kind      MediaKind `json:"kind"`
	URL       string    `json:"url"`
	Permalink string    `json:"permalink"`
	Owner     string    `json:"owner"`
	Likes     int64     `json:"likes"`
	Comments  int64     `json:"comments"`
	Followers int64     `json:"followers"`
	Score     float64   `json:"score"`
	Scored    bool      `json:"scored"`
}

// Created returns the creation timestamp as a time.Time
func (m MediaItem) Created() time.Time {
	return time.Unix(m.CreatedAt, 0)
}

// Age returns how old the item is at now, in whole seconds. It saturates
// instead of wrapping for timestamps far outside the int64 range of now.
func (m MediaItem) Age(now time.Time) int64 {
	n := now.Unix()
	age := n - m.CreatedAt
	switch {
	case m.CreatedAt < 0 && age < n:
		return math.MaxInt64
	case m.CreatedAt > 0 && age > n:
		return math.MinInt64
	}
	return age
}

func (m MediaItem) String() string {
	return fmt.Sprintf("%s/%s (%s)", m.Owner, m.ID, m.Kind)
}

// Profile is the account metadata needed for scoring
type Profile struct {
	Username  string `json:"username"`
	Followers int64  `json:"followers"`
	Private   bool   `json:"private"`
}

// DownloadStatus is the result class of a single fetch
type DownloadStatus string

const (
	StatusDownloaded     DownloadStatus = "downloaded"
	StatusAlreadyPresent DownloadStatus = "already_present"
	StatusFailed         DownloadStatus = "failed"
)

// DownloadOutcome is the result of fetching one ranked item
type DownloadOutcome struct {
	ItemID   string         `json:"item_id"`
	URL      string         `json:"url"`
	Path     string         `json:"path"`
	Status   DownloadStatus `json:"status"`
	Bytes    int64          `json:"bytes,omitempty"`
	Err      error          `json:"-"`
	Error    string         `json:"error,omitempty"`
	ModTime  time.Time      `json:"mod_time,omitzero"`
	Attempts int            `json:"attempts"`
	Checksum string         `json:"checksum,omitempty"`
	Width    int            `json:"width,omitempty"`
	Height   int            `json:"height,omitempty"`
}

// Failed builds a failed outcome carrying err
func Failed(item MediaItem, path string, attempts int, err error) DownloadOutcome {
	o := DownloadOutcome{
		ItemID:   item.ID,
		URL:      item.URL,
		Path:     path,
		Status:   StatusFailed,
		Attempts: attempts,
		Err:      err,
	}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}
