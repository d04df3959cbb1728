package clients

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

// HTTP talks to the analysis server. Its cookie jar carries the server
// session, which is where a calibration is remembered between requests.
type HTTP struct {
	c   *http.Client
	log *logrus.Entry
}

// NewHTTP returns a client with the given timeout; zero means none.
func NewHTTP(timeout time.Duration) (*HTTP, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &HTTP{
		c:   &http.Client{Timeout: timeout, Jar: jar},
		log: logrus.WithField("component", "clients"),
	}, nil
}
