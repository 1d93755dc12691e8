package stache

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrConfig is returned for a malformed task declaration.
	ErrConfig = errors.New("configuration error")

	// ErrInvalidInput is returned for a malformed data or template reference.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedDataFile is returned when a local data file suffix is not
	// one of .json, .yaml, .yml or .js.
	ErrUnsupportedDataFile = errors.New("unsupported data file")

	// ErrUnrecognizedFormat is returned when remote data is neither JSON nor
	// YAML judging by its URL and content type, or fails to parse as the
	// format it was taken for.
	ErrUnrecognizedFormat = errors.New("unrecognized format")

	// ErrTransport is returned when a remote reference could not be fetched.
	ErrTransport = errors.New("transport error")
)

// Error is a failure of a given kind, annotated with the URL that caused it
// when the reference was remote.
type Error struct {
	Kind error
	URL  string
	Err  error
}

func newError(kind error, url string, format string, args ...interface{}) error {
	return errors.WithStack(&Error{
		Kind: kind,
		URL:  url,
		Err:  fmt.Errorf(format, args...),
	})
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s for %s", e.Err, e.URL)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// downloadError is a fetch failure whose message ends by naming the download.
// The resolvers append what was being downloaded.
type downloadError struct {
	msg string
}

func (e *downloadError) Error() string {
	return e.msg
}

// downloading names subject ("data" or "template") in a download failure.
// Other errors are returned unchanged.
func downloading(err error, subject string) error {
	var d *downloadError
	var e *Error
	if !errors.As(err, &d) || !errors.As(err, &e) {
		return err
	}
	return errors.WithStack(&Error{
		Kind: e.Kind,
		URL:  e.URL,
		Err:  fmt.Errorf("%w %s", d, subject),
	})
}

// URLOf returns the URL that caused err, or "" if the failure was not tied to
// a remote reference.
func URLOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.URL
	}
	return ""
}
