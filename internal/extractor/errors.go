package extractor

import (
	"fmt"

	"github.com/desertthunder/a2s/internal/shared"
)

// ErrorKind classifies an [ExtractionError].
type ErrorKind string

const (
	KindAuth             ErrorKind = "auth"
	KindSelectorNotFound ErrorKind = "selector_not_found"
	KindTimeout          ErrorKind = "timeout"
	KindEmptyPlaylist    ErrorKind = "empty_playlist"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindAuth:
		return shared.ErrAuthFailed
	case KindSelectorNotFound:
		return shared.ErrSelectorNotFound
	case KindTimeout:
		return shared.ErrPageTimeout
	case KindEmptyPlaylist:
		return shared.ErrEmptyPlaylist
	default:
		return nil
	}
}

// ExtractionError is returned when a playlist page cannot be scraped. It matches
// [shared.ErrExtraction] and the sentinel for its kind under [errors.Is].
type ExtractionError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func newError(kind ErrorKind, url string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, URL: url, Err: err}
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extraction failed (%s)", e.Kind)
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() []error {
	errs := []error{shared.ErrExtraction}
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
