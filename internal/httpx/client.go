package httpx

import (
	"net/http"
	"time"
)

const DefaultExternalTimeout = 30 * time.Second

// NewExternalClient returns the HTTP client used for outbound provider
// calls. The timeout bounds the whole exchange, including body read.
func NewExternalClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultExternalTimeout
	}
	return &http.Client{Timeout: timeout}
}
