// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrWaitTimeout is returned by AwaitTurn, together with the last state it
// saw, when the opponent didn't move in time.
var ErrWaitTimeout = errors.New("timed out waiting for the opponent")

// APIError is returned for every response with a non-2xx status code.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (err *APIError) Error() string {
	reason := strings.TrimSpace(strings.TrimPrefix(err.Status, fmt.Sprint(err.StatusCode)))
	if reason == "" {
		reason = http.StatusText(err.StatusCode)
	}

	msg := fmt.Sprintf("HTTP Error %d: %s", err.StatusCode, reason)
	if body := strings.TrimSpace(err.Body); body != "" {
		msg += "\n" + body
	}

	return msg
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// IsClientError reports whether err is an APIError with a 4xx status code.
func IsClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

// TransportError is returned when the service couldn't be reached, or its
// response couldn't be read.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("URL Error: %s %s: %v", err.Method, err.URL, err.Err)
}

func (err *TransportError) Unwrap() error {
	return err.Err
}
