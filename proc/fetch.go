package proc

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/leeineian/brewbot/sys"
	"golang.org/x/text/encoding/htmlindex"
)

// Fetcher downloads the raw catalog document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches over HTTP through resty with retries on transport errors.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(timeout time.Duration, retries int) *HTTPFetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", sys.GetProjectName()+"/1.0").
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{})
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode()}
	}

	body, err := decodeBody(resp.Body(), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeBody honors the declared media type and charset, returning UTF-8 JSON bytes.
func decodeBody(body []byte, contentType string) ([]byte, error) {
	charset := ""
	if contentType != "" {
		mediaType, params, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("invalid content type %q: %w", contentType, err)
		}
		if !acceptableMediaType(mediaType) {
			return nil, fmt.Errorf("unexpected content type %s", mediaType)
		}
		charset = strings.ToLower(params["charset"])
	}

	switch charset {
	case "", "utf-8", "utf8", "us-ascii":
		return bytes.TrimPrefix(body, utf8BOM), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s body: %w", charset, err)
	}
	return decoded, nil
}

func acceptableMediaType(mediaType string) bool {
	switch mediaType {
	case "application/json", "text/json", "text/plain", "application/octet-stream":
		return true
	}
	return strings.HasSuffix(mediaType, "+json")
}

type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) { sys.LogHomebrewError(format, v...) }
func (restyLogger) Warnf(format string, v ...any)  { sys.LogDebug(format, v...) }
func (restyLogger) Debugf(format string, v ...any) { sys.LogDebug(format, v...) }
