package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// MediaFetcher retrieves recording media from the telephony provider.
type MediaFetcher interface {
	Fetch(ctx context.Context, mediaURL string) (body []byte, contentType string, err error)
}

type httpMediaFetcher struct {
	client   *http.Client
	username string
	password string
}

// NewHTTPMediaFetcher builds a fetcher with a hard request timeout and a
// bounded redirect count. Provider media endpoints occasionally redirect
// through slow intermediate hosts, so both limits are load-bearing.
func NewHTTPMediaFetcher(timeout time.Duration, maxRedirects int, username, password string) MediaFetcher {
	return &httpMediaFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		username: username,
		password: password,
	}
}

func (f *httpMediaFetcher) Fetch(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", errors.Join(ErrFetchFailure, err)
	}
	if f.username != "" {
		req.SetBasicAuth(f.username, f.password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", errors.Join(ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", errors.Join(ErrFetchFailure, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if !isAudioContentType(contentType) {
		// Providers have been seen returning HTML error pages with a 200.
		return nil, "", errors.Join(ErrFetchFailure, fmt.Errorf("non-audio content type %q", contentType))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.Join(ErrFetchFailure, err)
	}

	return body, contentType, nil
}

func isAudioContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "audio/")
}
