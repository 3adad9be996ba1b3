package toxiproxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// The control plane answers 404 for both a missing proxy and a missing
// toxic; only the message tells them apart.
const msgProxyNotFound = "proxy not found"

// ApiError is returned for every failed request. Status is zero when the
// request never produced a response.
type ApiError struct {
	Message string `json:"error"`
	Status  int    `json:"status"`

	Caller string `json:"-"`
	cause  error
}

func (err *ApiError) Error() string {
	if err.Status == 0 {
		return fmt.Sprintf("%s: %s", err.Caller, err.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", err.Caller, err.Status, err.Message)
}

func (err *ApiError) Unwrap() error {
	return err.cause
}

func transportError(caller string, cause error) *ApiError {
	return &ApiError{
		Message: cause.Error(),
		Caller:  caller,
		cause:   cause,
	}
}

func checkError(resp *http.Response, expectedCode int, caller string) error {
	if resp.StatusCode == expectedCode {
		return nil
	}

	apiError := new(ApiError)
	err := json.NewDecoder(resp.Body).Decode(apiError)
	if err != nil || apiError.Message == "" {
		apiError.Message = fmt.Sprintf("unexpected response code, expected %d", expectedCode)
	}
	apiError.Status = resp.StatusCode
	apiError.Caller = caller
	return apiError
}

func statusOf(err error) int {
	var apiError *ApiError
	if errors.As(err, &apiError) {
		return apiError.Status
	}
	return 0
}

// IsConflict reports whether err is the control plane refusing to create a
// toxic whose name is already taken.
func IsConflict(err error) bool {
	return statusOf(err) == http.StatusConflict
}

// IsNotFound reports whether err is a 404 from the control plane.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}
