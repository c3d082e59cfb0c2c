package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"dankrank/pkg/models"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/samber/lo"
)

// Download is the stored state of a ranked item
type Download struct {
	Status   models.DownloadStatus `json:"status"`
	Path     string                `json:"path,omitempty"`
	Bytes    int64                 `json:"bytes,omitempty"`
	Checksum string                `json:"checksum,omitempty"`
	Width    int                   `json:"width,omitempty"`
	Height   int                   `json:"height,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// Entry describes one ranked item
type Entry struct {
	Position     int       `json:"-"`
	URL          string    `json:"url"`
	PageLink     string    `json:"pageLink"`
	Insta        string    `json:"insta"`
	NumFollowers int64     `json:"numFollowers"`
	NumLikes     int64     `json:"numLikes"`
	NumComments  int64     `json:"numComments"`
	DankRank     float64   `json:"dankRank"`
	Download     *Download `json:"download,omitempty"`
}

// Ranking is the ordered list of entries. It encodes as an object keyed by
// rank position, "1" first.
type Ranking []Entry

func (r Ranking) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:", strconv.Itoa(e.Position))
		b, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Ranking) UnmarshalJSON(data []byte) error {
	var byKey map[string]Entry
	if err := json.Unmarshal(data, &byKey); err != nil {
		return err
	}

	out := make(Ranking, 0, len(byKey))
	for k, e := range byKey {
		pos, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("invalid rank position %q", k)
		}
		e.Position = pos
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	*r = out
	return nil
}

// RunInfo describes the run a manifest belongs to
type RunInfo struct {
	ID          string
	GeneratedAt time.Time
	Accounts    []string
	Errors      map[string]error
}

// NewRunInfo starts a run over accounts with a fresh id
func NewRunInfo(accounts []string, now time.Time) RunInfo {
	return RunInfo{
		ID:          uuid.NewString(),
		GeneratedAt: now,
		Accounts:    accounts,
		Errors:      make(map[string]error),
	}
}

// Manifest is the summary of a harvest run
type Manifest struct {
	RunID       string            `json:"runId"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Accounts    []string          `json:"accounts"`
	Errors      map[string]string `json:"errors,omitempty"`
	Rank        Ranking           `json:"rank"`
}

// Build maps the ranked items onto positions 1..len(top) and attaches the
// download outcome of each item, if any.
func Build(top []models.MediaItem, outcomes []models.DownloadOutcome, info RunInfo) *Manifest {
	byID := lo.KeyBy(outcomes, func(o models.DownloadOutcome) string {
		return o.ItemID
	})

	rank := lo.Map(top, func(item models.MediaItem, i int) Entry {
		e := Entry{
			Position:     i + 1,
			URL:          item.URL,
			PageLink:     item.Permalink,
			Insta:        item.Owner,
			NumFollowers: item.Followers,
			NumLikes:     item.Likes,
			NumComments:  item.Comments,
			DankRank:     item.Score,
		}
		if o, ok := byID[item.ID]; ok {
			e.Download = &Download{
				Status:   o.Status,
				Path:     o.Path,
				Bytes:    o.Bytes,
				Checksum: o.Checksum,
				Width:    o.Width,
				Height:   o.Height,
				Error:    o.Error,
			}
		}
		return e
	})

	m := &Manifest{
		RunID:       info.ID,
		GeneratedAt: info.GeneratedAt,
		Accounts:    info.Accounts,
		Rank:        rank,
	}
	if len(info.Errors) > 0 {
		m.Errors = lo.MapValues(info.Errors, func(err error, _ string) string {
			return err.Error()
		})
	}
	return m
}

// Save writes the manifest as indented JSON, replacing path atomically
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	if err := atomic.WriteFile(path, bytes.NewReader(append(data, '\n'))); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Load reads a manifest written by Save
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
