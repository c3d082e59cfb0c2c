package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	errs "dankrank/pkg/errors"
	"dankrank/pkg/instagram"
	"dankrank/pkg/models"
)

var (
	sharedDataStart = []byte("window._sharedData = ")
	sharedDataEnd   = []byte(";</script>")
)

// FetchProfile reads an account's profile page and returns its follower count
func (p *Paginator) FetchProfile(ctx context.Context, account string) (models.Profile, error) {
	resp, err := p.get(ctx, instagram.ProfileURL(p.session.BaseURL(), account))
	if err != nil {
		return models.Profile{}, fmt.Errorf("fetching profile for %s: %w", account, err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Profile{}, errs.NotFound(account, resp.StatusCode)
	}

	user, err := parseSharedData(resp.Body)
	if err != nil {
		return models.Profile{}, errs.Malformed(account, resp.StatusCode, err)
	}

	username := user.Username
	if username == "" {
		username = account
	}
	return models.Profile{
		Username:  username,
		Followers: user.FollowedBy.Count,
		Private:   user.IsPrivate,
	}, nil
}

// parseSharedData extracts the profile user from the shared data blob
// embedded in a profile page.
func parseSharedData(page []byte) (instagram.ProfileUser, error) {
	start := bytes.Index(page, sharedDataStart)
	if start < 0 {
		return instagram.ProfileUser{}, errors.New("profile page carries no shared data")
	}
	blob := page[start+len(sharedDataStart):]

	end := bytes.Index(blob, sharedDataEnd)
	if end < 0 {
		return instagram.ProfileUser{}, errors.New("unterminated shared data")
	}
	blob = blob[:end]

	var data instagram.SharedData
	if err := json.Unmarshal(blob, &data); err != nil {
		return instagram.ProfileUser{}, fmt.Errorf("decoding shared data: %w", err)
	}
	if len(data.EntryData.ProfilePage) == 0 {
		return instagram.ProfileUser{}, errors.New("shared data has no profile page")
	}
	return data.EntryData.ProfilePage[0].User, nil
}
