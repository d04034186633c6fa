package restyutil

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

type ClientOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Retries is the number of retries on transport errors, 429 and 5xx responses.
	Retries int
}

// NewClient returns a resty client with timeouts and retry with backoff.
func NewClient(opts ClientOptions) *resty.Client {
	client := resty.New()
	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("User-Agent", userAgent)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.SetTimeout(timeout)

	client.SetRetryCount(opts.Retries)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.SetRetryMaxWaitTime(5 * time.Second)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return res.StatusCode() == http.StatusTooManyRequests || res.StatusCode() >= 500
	})
	return client
}
