package browser

import (
	"errors"
	"time"
)

// ConsoleMessage represents a console message emitted by the page
type ConsoleMessage struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Line formats the message the way it is stored in the console log.
func (m ConsoleMessage) Line() string {
	return "[" + m.Type + "] " + m.Text
}

// Response describes the main document response of a navigation
type Response struct {
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// EvalResult is the outcome of a script evaluation
type EvalResult struct {
	// Value is the JSON-compatible result. Undefined is set when the script
	// produced no value.
	Value     any
	Undefined bool
	// Console holds the console lines written while the script ran.
	Console []string
}

// Error types
type BrowserError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *BrowserError) Error() string {
	return e.Message
}

// Error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNavigation      = "NAVIGATION_ERROR"
	ErrCodeTimeout         = "TIMEOUT_ERROR"
	ErrCodeElementNotFound = "ELEMENT_NOT_FOUND"
	ErrCodeScriptExecution = "SCRIPT_EXECUTION_ERROR"
	ErrCodeSecurity        = "SECURITY_ERROR"
	ErrCodeLaunch          = "LAUNCH_ERROR"
	ErrCodeBrowserCrash    = "BROWSER_CRASH"
	ErrCodeConfiguration   = "CONFIGURATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
)

// ErrElementNotFound is returned when a selector matches nothing and the
// operation does not wait for it.
var ErrElementNotFound = errors.New("element not found")

// IsCode reports whether err is a BrowserError with the given code.
func IsCode(err error, code string) bool {
	var be *BrowserError
	return errors.As(err, &be) && be.Code == code
}
