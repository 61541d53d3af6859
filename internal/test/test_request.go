package test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github/chapool/go-relay/internal/api"
	"github/chapool/go-relay/internal/auth"
)

// PerformRequest runs a request against the test server without binding a
// socket. A non-nil body is sent as JSON.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body interface{}, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set(echoHeaderContentType, "application/json")
	}

	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}

const echoHeaderContentType = "Content-Type"

// ParseResponseBody unmarshals the recorded JSON response into v.
func ParseResponseBody(t *testing.T, res *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(res.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body %q: %v", res.Body.String(), err)
	}
}

// HeadersWithAccount builds request headers carrying the caller identity.
func HeadersWithAccount(account string) http.Header {
	headers := http.Header{}
	headers.Set(auth.HeaderAccountID, account)

	return headers
}
