package instagram

// MediaListing is one page of an account's media listing
type MediaListing struct {
	Items         []MediaNode `json:"items"`
	MoreAvailable bool        `json:"more_available"`
	Status        string      `json:"status"`
}

// MediaNode is a single media entry as returned by the listing endpoint
type MediaNode struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	CreatedTime string     `json:"created_time"`
	Type        string     `json:"type"`
	Link        string     `json:"link"`
	Images      *Resources `json:"images,omitempty"`
	Videos      *Resources `json:"videos,omitempty"`
	Likes       Counter    `json:"likes"`
	Comments    Counter    `json:"comments"`
	User        Owner      `json:"user"`
}

// Resources holds the renditions available for a media node
type Resources struct {
	StandardResolution Rendition `json:"standard_resolution"`
	LowResolution      Rendition `json:"low_resolution"`
	Thumbnail          Rendition `json:"thumbnail"`
}

// Rendition is one sized variant of a media resource
type Rendition struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Counter wraps a count field
type Counter struct {
	Count int64 `json:"count"`
}

// Owner identifies the account a media node belongs to
type Owner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// SharedData is the JSON blob embedded in a profile page
type SharedData struct {
	EntryData struct {
		ProfilePage []struct {
			User ProfileUser `json:"user"`
		} `json:"ProfilePage"`
	} `json:"entry_data"`
}

// ProfileUser is the account metadata from a profile page
type ProfileUser struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	FullName   string  `json:"full_name"`
	IsPrivate  bool    `json:"is_private"`
	FollowedBy Counter `json:"followed_by"`
	Follows    Counter `json:"follows"`
}

// loginResponse is the body returned by the login endpoint
type loginResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          bool   `json:"user"`
	Status        string `json:"status"`
}
