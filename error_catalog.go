package mfe

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Error codes are stable identifiers into the documented error catalog.
// A code must never be reassigned to a different meaning.
const (
	CodeInvalidApplicationName = 20
	CodeMissingActiveWhen      = 21
	CodeMissingParcelUnmount   = 22
	CodeDuplicateUnit          = 23
	CodeStepNotAllowed         = 24
	CodeInvalidAddErrorHandler = 28
	CodeInvalidRemoveHandler   = 29
	CodeNonErrorRejection      = 30
)

const (
	// DefaultProduct is the product name at the start of every formatted message.
	DefaultProduct = "mfe"

	// DefaultDocsBaseURL is where the error catalog is documented.
	DefaultDocsBaseURL = "https://gocodealone.github.io/mfe/error/"
)

var catalog = map[int]string{
	CodeInvalidApplicationName: "The first argument to NewApplication must be a non-empty application name",
	CodeMissingActiveWhen:      "Application '%s' was created without an activeWhen function",
	CodeMissingParcelUnmount:   "Parcel '%s' was created without an unmount function",
	CodeDuplicateUnit:          "There is already a unit registered with the name '%s'",
	CodeStepNotAllowed:         "The %s lifecycle step is only available to parcels, but '%s' is an application",
	CodeInvalidAddErrorHandler: "An error handler must be a non-nil pointer",
	CodeInvalidRemoveHandler:   "An error handler must be a non-nil pointer",
	CodeNonErrorRejection:      "While %s, '%s' rejected its lifecycle function with a non-error value. This will cause stack traces to not be accurate.",
}

// CatalogMessage returns the catalog text registered for code, with args
// substituted for its placeholders. The second result is false for unknown codes.
func CatalogMessage(code int, args ...any) (string, bool) {
	tmpl, ok := catalog[code]
	if !ok {
		return "", false
	}
	if strings.Count(tmpl, "%") == 0 || len(args) == 0 {
		return tmpl, true
	}
	return fmt.Sprintf(tmpl, args...), true
}

// ErrorCatalog returns the known error codes in ascending order.
func ErrorCatalog() []int {
	codes := make([]int, 0, len(catalog))
	for code := range catalog {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// ErrorFormatter renders coded error messages in the stable, greppable wire
// format:
//
//	<product> minified message #<code>: [<msg> ]See <docs>?code=<code>[&arg=<v>]*
type ErrorFormatter struct {
	// Product and DocsBaseURL must not contain whitespace, or
	// ParseErrorMessage cannot split the message apart again.
	Product     string
	DocsBaseURL string

	// StripMessages drops the human-readable part, leaving only the code and
	// the documentation link. Optimized builds enable it by default.
	StripMessages bool
}

// DefaultErrorFormatter returns the formatter used by FormatErrorMessage.
func DefaultErrorFormatter() *ErrorFormatter {
	return &ErrorFormatter{
		Product:       DefaultProduct,
		DocsBaseURL:   DefaultDocsBaseURL,
		StripMessages: stripMessagesByDefault,
	}
}

// Format produces the formatted message for code. Args are rendered with
// fmt.Sprint and query-escaped so ParseErrorMessage can recover them.
func (f *ErrorFormatter) Format(code int, msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(f.Product)
	b.WriteString(" minified message #")
	b.WriteString(strconv.Itoa(code))
	b.WriteString(": ")
	if msg != "" && !f.StripMessages {
		b.WriteString(msg)
		b.WriteByte(' ')
	}
	b.WriteString("See ")
	b.WriteString(f.DocsBaseURL)
	b.WriteString("?code=")
	b.WriteString(strconv.Itoa(code))
	for _, arg := range args {
		b.WriteString("&arg=")
		b.WriteString(url.QueryEscape(fmt.Sprint(arg)))
	}
	return b.String()
}

// FormatErrorMessage formats a coded message with the default formatter.
func FormatErrorMessage(code int, msg string, args ...any) string {
	return DefaultErrorFormatter().Format(code, msg, args...)
}

// FormattedMessage is the decoded form of a formatted error message.
type FormattedMessage struct {
	Product     string   `json:"product"`
	Code        int      `json:"code"`
	Message     string   `json:"message,omitempty"`
	DocsBaseURL string   `json:"docsBaseUrl"`
	Args        []string `json:"args,omitempty"`
}

var formattedMessagePattern = regexp.MustCompile(`(?s)^(\S+) minified message #(\d+): (.*?)See (\S+)$`)

// ParseErrorMessage decodes a string produced by ErrorFormatter.Format.
// The code and args are taken from the documentation link, so they survive
// builds that strip the human-readable message.
func ParseErrorMessage(s string) (*FormattedMessage, error) {
	m := formattedMessagePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, ErrNotFormattedMessage
	}

	code, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidErrorCode, m[2])
	}

	link, err := url.Parse(m[4])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFormattedMessage, err)
	}
	query := link.Query()
	if query.Get("code") != m[2] {
		return nil, fmt.Errorf("%w: link code %q does not match #%d", ErrInvalidErrorCode, query.Get("code"), code)
	}

	base := *link
	base.RawQuery = ""

	return &FormattedMessage{
		Product:     m[1],
		Code:        code,
		Message:     strings.TrimSuffix(m[3], " "),
		DocsBaseURL: base.String(),
		Args:        query["arg"],
	}, nil
}

// CodedError is a configuration error identified by a catalog code.
// Error returns the formatted message; Unwrap returns the sentinel so callers
// can match it with errors.Is.
type CodedError struct {
	Code int
	Args []any
	Err  error

	formatter *ErrorFormatter
}

func newCodedError(f *ErrorFormatter, code int, sentinel error, args ...any) *CodedError {
	return &CodedError{Code: code, Args: args, Err: sentinel, formatter: f}
}

func (e *CodedError) Error() string {
	f := e.formatter
	if f == nil {
		f = DefaultErrorFormatter()
	}
	msg, _ := CatalogMessage(e.Code, e.Args...)
	return f.Format(e.Code, msg, e.Args...)
}

func (e *CodedError) Unwrap() error {
	return e.Err
}
