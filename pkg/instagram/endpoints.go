package instagram

import (
	"net/url"
	"strings"
)

const (
	// BaseURL is the default feed host
	BaseURL = "https://www.instagram.com"

	loginPath  = "/accounts/login/ajax/"
	logoutPath = "/accounts/logout/"
)

// ProfileURL returns the profile page of account. The page embeds the
// account metadata as shared data.
func ProfileURL(base, account string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(account) + "/"
}

// MediaURL returns the media listing of account. maxID is the cursor
// returned by the previous page and is omitted when empty.
func MediaURL(base, account, maxID string) string {
	u := ProfileURL(base, account) + "media/"
	if maxID != "" {
		u += "?max_id=" + url.QueryEscape(maxID)
	}
	return u
}

// LoginURL returns the session login endpoint
func LoginURL(base string) string {
	return strings.TrimRight(base, "/") + loginPath
}

// LogoutURL returns the session logout endpoint
func LogoutURL(base string) string {
	return strings.TrimRight(base, "/") + logoutPath
}

// PostURL constructs the permalink for a post shortcode
func PostURL(base, shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/p/" + shortcode + "/"
}
