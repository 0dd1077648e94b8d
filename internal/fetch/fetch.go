// Package fetch retrieves article pages over HTTP the way a desktop browser would.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is a desktop Chrome user agent; many news sites refuse obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 10 << 20

// BrowserHeaders returns the header set sent with every page request (besides User-Agent).
func BrowserHeaders() map[string]string {
	return map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"DNT":                       "1",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	}
}

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// ErrorKind classifies fetch failures.
type ErrorKind int

const (
	// KindInvalidURL means the URL could not be used for a request.
	KindInvalidURL ErrorKind = iota
	// KindRequest means the request failed on the network (DNS, connect, timeout, read).
	KindRequest
	// KindStatus means the server answered with a non-2xx status.
	KindStatus
)

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Kind       ErrorKind
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Description is a short human-readable account of the failure, suitable for
// embedding in a diagnostic string, e.g. "404 Client Error: Not Found for url: https://x".
func (e *Error) Description() string {
	switch e.Kind {
	case KindStatus:
		return e.Message
	case KindInvalidURL:
		return fmt.Sprintf("Invalid URL '%s': %s", e.URL, e.Message)
	default:
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return e.Message
	}
}

// IsTimeout reports whether err is a fetch that ran out of time.
func IsTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// Client overrides the HTTP client. When nil a client with Timeout is created per call.
	Client *http.Client
}

// DefaultOptions returns browser-like defaults for fetching article pages.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Headers:   BrowserHeaders(),
	}
}

// URL retrieves HTML content from a URL. Any status outside 2xx is an error;
// the result is still returned so callers can inspect the status.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if err := validateURL(urlStr); err != nil {
		return nil, err
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Kind: KindInvalidURL, Message: "failed to create request", Cause: err}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Kind: KindRequest, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	contentType := resp.Header.Get("Content-Type")
	body, err := decodeBody(io.LimitReader(resp.Body, MaxBodyBytes), contentType)
	if err != nil {
		return nil, &Error{URL: urlStr, Kind: KindRequest, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        body,
		ContentType: contentType,
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return result, &Error{
			URL:        urlStr,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Message:    statusMessage(resp.StatusCode, urlStr),
		}
	}

	return result, nil
}

// decodeBody converts the body to UTF-8 using the declared charset, a <meta>
// declaration or content sniffing. Invalid sequences in a body labelled UTF-8
// are replaced with U+FFFD.
func decodeBody(body io.Reader, contentType string) (string, error) {
	reader, err := charset.NewReader(body, contentType)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError)), nil
}

func validateURL(urlStr string) error {
	parsed, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil {
		return &Error{URL: urlStr, Kind: KindInvalidURL, Message: "could not parse URL", Cause: err}
	}
	if parsed.Scheme == "" {
		return &Error{URL: urlStr, Kind: KindInvalidURL, Message: "No scheme supplied"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &Error{URL: urlStr, Kind: KindInvalidURL, Message: fmt.Sprintf("unsupported scheme %q", parsed.Scheme)}
	}
	if parsed.Host == "" {
		return &Error{URL: urlStr, Kind: KindInvalidURL, Message: "No host supplied"}
	}
	return nil
}

func statusMessage(code int, urlStr string) string {
	class := "Client Error"
	switch {
	case code >= http.StatusInternalServerError:
		class = "Server Error"
	case code < http.StatusBadRequest:
		class = "Unexpected Status"
	}
	return fmt.Sprintf("%d %s: %s for url: %s", code, class, http.StatusText(code), urlStr)
}
