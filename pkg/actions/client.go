package actions

import (
	"fmt"
	"net/http"
	"time"

	"metrosmoke/pkg/credentials"
)

// DefaultTimeout applies when NewHTTPClient is given no timeout
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns the client shared by every check of a run.
// Redirects to another host are followed without the platform keys.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Allow up to 10 redirects
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			if req.URL.Host != via[0].URL.Host {
				credentials.StripCredentials(req.Header)
			}
			return nil
		},
	}
}
