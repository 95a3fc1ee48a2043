package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/spares-console/internal/errors"
	"github.com/jrsteele09/spares-console/notify"
)

// Variant selects which status table applies to a failed response.
type Variant int

const (
	VariantJSON Variant = iota
	VariantFile
	VariantBlob
)

func (v Variant) String() string {
	switch v {
	case VariantFile:
		return "file"
	case VariantBlob:
		return "blob"
	default:
		return "json"
	}
}

// Navigation targets used by the status table.
const (
	PathRoot               = "/"
	PathNotFound           = "/not-found"
	PathServerError        = "/server-error"
	PathServiceUnavailable = "/service-unavailable"
)

// Outcome is the side effect a failed response asks for.
type Outcome struct {
	ClearSession bool
	Redirect     string
	Notification *notify.Notification
}

type errorBody struct {
	Message json.RawMessage `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

// MapStatus returns the outcome for a non-2xx response. body is the raw response body,
// which may be empty or not JSON.
func MapStatus(variant Variant, status int, statusText string, body []byte) Outcome {
	eb := decodeErrorBody(body)
	message := eb.message()

	switch status {
	case http.StatusUnauthorized:
		return Outcome{ClearSession: true, Redirect: PathRoot}
	case http.StatusForbidden:
		return Outcome{Redirect: PathNotFound, Notification: toast("Cannot Access", "")}
	case http.StatusNotFound:
		return Outcome{Redirect: PathNotFound, Notification: toast("Not Found", "Resource not found.")}
	}

	if variant == VariantBlob {
		return Outcome{Notification: toast("Error", firstNonEmpty(message, statusText))}
	}

	switch status {
	case http.StatusConflict:
		return Outcome{Notification: toast("Conflict Error", firstNonEmpty(message, "Conflict Error"))}
	case http.StatusUnprocessableEntity:
		desc := firstNonEmpty(firstValidationError(eb.Errors), message, "Validation failed.")
		return Outcome{Notification: toast("Validation Error", desc)}
	case http.StatusInternalServerError:
		return Outcome{
			Redirect:     PathServerError,
			Notification: toast("Server Error", "Something went wrong. Please try again later."),
		}
	}

	if variant == VariantFile {
		switch status {
		case http.StatusRequestEntityTooLarge:
			return Outcome{Notification: toast("File Too Large", "The file you are trying to upload is too large.")}
		case http.StatusUnsupportedMediaType:
			return Outcome{Notification: toast("Invalid File Type", "The file type you are trying to upload is not supported.")}
		}
	}

	return Outcome{
		Redirect:     PathServiceUnavailable,
		Notification: toast("Error", firstNonEmpty(message, statusText)),
	}
}

func toast(title, description string) *notify.Notification {
	n := notify.Error(title, description)
	return &n
}

func decodeErrorBody(body []byte) errorBody {
	var eb errorBody
	if len(bytes.TrimSpace(body)) == 0 {
		return eb
	}
	if err := json.Unmarshal(body, &eb); err != nil {
		return errorBody{}
	}
	return eb
}

// message returns the body's message when it is a non-empty string.
func (eb errorBody) message() string {
	var s string
	if len(eb.Message) == 0 || json.Unmarshal(eb.Message, &s) != nil {
		return ""
	}
	return s
}

// firstValidationError returns the first message of the first field in document order,
// for bodies shaped like {"errors": {"field": ["message", ...]}}.
func firstValidationError(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return ""
	}
	switch tok {
	case json.Delim('{'):
		if !dec.More() {
			return ""
		}
		if _, err := dec.Token(); err != nil { // field name
			return ""
		}
		var first json.RawMessage
		if err := dec.Decode(&first); err != nil {
			return ""
		}
		return firstString(first)
	case json.Delim('['):
		if !dec.More() {
			return ""
		}
		var first json.RawMessage
		if err := dec.Decode(&first); err != nil {
			return ""
		}
		return firstString(first)
	}
	return ""
}

func firstString(raw json.RawMessage) string {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		raw = list[0]
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// HTTPError is returned for every non-2xx response.
type HTTPError struct {
	Method     string
	Path       string
	Status     int
	StatusText string
	// Message is the body's message, or the status text when the body had none.
	Message string
	Body    json.RawMessage
	Outcome Outcome
}

// NewHTTPError builds the error for a failed response, including its outcome.
func NewHTTPError(variant Variant, method, path string, status int, statusText string, body []byte) *HTTPError {
	if statusText == "" {
		statusText = http.StatusText(status)
	}
	he := &HTTPError{
		Method:     method,
		Path:       path,
		Status:     status,
		StatusText: statusText,
		Outcome:    MapStatus(variant, status, statusText, body),
	}
	if json.Valid(body) && len(bytes.TrimSpace(body)) > 0 {
		he.Body = append(json.RawMessage(nil), body...)
		he.Message = decodeErrorBody(body).message()
	} else {
		he.Message = statusText
	}
	return he
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.StatusText)
}

// Is maps authentication failures onto the console's sentinels.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case errors.ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	case errors.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

// RedirectOf returns the navigation target carried by err, or "".
func RedirectOf(err error) string {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Outcome.Redirect
	}
	return ""
}

// Message picks the text to show for a failed call: the server's message, then the
// error itself for failures that never produced a response, then fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var he *HTTPError
	if errors.As(err, &he) {
		if he.Body != nil {
			if m := decodeErrorBody(he.Body).message(); m != "" {
				return m
			}
			return fallback
		}
		return firstNonEmpty(he.Message, fallback)
	}
	return firstNonEmpty(err.Error(), fallback)
}
