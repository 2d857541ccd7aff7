package proc

import (
	"errors"
	"fmt"
)

// ErrReloadThrottled is returned by RequestReload inside the reload cooldown.
var ErrReloadThrottled = errors.New("reload throttled")

// FetchError is a transport, status or decode failure while downloading the catalog.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("HTTP Error %d while getting %s", e.StatusCode, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("error while getting %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("error while getting %s", e.URL)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedCatalogError means the document was fetched but is not a catalog structure.
type MalformedCatalogError struct {
	Reason string
}

func (e *MalformedCatalogError) Error() string {
	return "malformed catalog: " + e.Reason
}

// RefreshError is the only error Refresh returns. Cause is a *FetchError or *MalformedCatalogError.
type RefreshError struct {
	Cause error
}

func (e *RefreshError) Error() string {
	if e.Cause == nil {
		return "refresh failed"
	}
	return e.Cause.Error()
}

func (e *RefreshError) Unwrap() error { return e.Cause }
