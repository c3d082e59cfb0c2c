package auth

import (
	"fmt"
	"io"
)

// WriteCookieGuide explains how to copy the session cookies from a browser
func WriteCookieGuide(w io.Writer) {
	fmt.Fprint(w, `Getting a session for dankrank

 1. Log in to the feed site in your browser.
 2. Open the developer tools (F12) and find the site's cookies:
      Chrome/Edge: Application > Storage > Cookies
      Firefox:     Storage > Cookies
      Safari:      Storage > Cookies
 3. Copy the values of the "sessionid" and "csrftoken" cookies.
 4. Save them:
      dankrank auth login --username <you>
    or export them for a single run:
      export DANKRANK_SESSION_ID=...
      export DANKRANK_CSRF_TOKEN=...

Sessions expire when you log out in the browser. Run "dankrank auth login"
again when harvests start failing with authentication errors.
`)
}
