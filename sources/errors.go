package sources

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCategory   = errors.New("category must be one of hot, top, new for a subreddit or userhot, usertop, usernew for a user")
	ErrInvalidTimeFilter = errors.New("time filter must be one of hour, day, week, month, year, all")
	ErrInvalidSort       = errors.New("sort must be one of relevance, hot, top, new, comments")
	ErrUnexpectedShape   = errors.New("unexpected response structure")
	ErrMissingChildren   = errors.New("listing has no data.children field")
)

// RequestError means no response was received at all.
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response that was not retried or ran out of retries.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.URL, e.Code)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.URL, e.Code, e.Body)
}

// DecodeError means the response body did not have the expected JSON shape.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
