package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// OAuth2 error codes per RFC 6749 that the gateway inspects or emits.
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeInvalidClient  = "invalid_client"
	ErrorCodeInvalidGrant   = "invalid_grant"
	ErrorCodeServerError    = "server_error"
	ErrorCodeAccessDenied   = "access_denied"
)

// OAuth2Error is an error response from the identity provider.
type OAuth2Error struct {
	// StatusCode is the HTTP status the identity provider answered with
	StatusCode int `json:"-"`

	// Code is the OAuth2 error code (e.g., "invalid_request", "invalid_grant")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *OAuth2Error) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s (HTTP %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Code, e.Description, e.StatusCode)
}

// Permanent reports whether retrying the same request can never succeed. The
// identity provider rejects a dead refresh token with 400 invalid_grant, and
// every other 4xx apart from timeouts and throttling is equally final.
func (e *OAuth2Error) Permanent() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return false
	default:
		return e.StatusCode >= 400 && e.StatusCode < 500
	}
}

// IsPermanent reports whether err is an OAuth2Error that will not go away on
// retry. Network errors, timeouts and 5xx answers are transient.
func IsPermanent(err error) bool {
	var oe *OAuth2Error
	return errors.As(err, &oe) && oe.Permanent()
}

// fromRetrieveError converts x/oauth2 token endpoint failures into
// *OAuth2Error and passes any other error through.
func fromRetrieveError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return err
	}

	status := 0
	if re.Response != nil {
		status = re.Response.StatusCode
	}
	if re.ErrorCode != "" {
		return &OAuth2Error{StatusCode: status, Code: re.ErrorCode, Description: re.ErrorDescription}
	}
	return parseErrorResponse(status, re.Body)
}

// parseErrorResponse builds an OAuth2Error from an error body, falling back to
// the status text when the body is not an OAuth2 error document.
func parseErrorResponse(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &OAuth2Error{
			StatusCode:  status,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &OAuth2Error{
		StatusCode:  status,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
	}
}
