package domain

import "errors"

var (
	ErrTransport    = errors.New("transport error")
	ErrRemoteStatus = errors.New("remote error")
	ErrDecode       = errors.New("decode error")
	ErrStorage      = errors.New("storage error")
)

// FetchResult holds either a value or a failure, never both.
type FetchResult struct {
	Value string
	Err   error
}

func Success(value string) FetchResult {
	return FetchResult{Value: value}
}

func Failure(err error) FetchResult {
	return FetchResult{Err: err}
}

func (r FetchResult) Failed() bool {
	return r.Err != nil
}

// Text is what gets cached and persisted: the value, or the failure reason.
func (r FetchResult) Text() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Value
}
