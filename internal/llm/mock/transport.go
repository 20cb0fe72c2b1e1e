package mock

import (
	"io"
	"net/http"
	"strings"
	"sync"
)

// Response is one scripted reply. A non-nil Err makes the round trip fail
// without an HTTP response.
type Response struct {
	Status int
	Body   string
	Err    error
}

// Transport is an http.RoundTripper test double that replays Responses in
// order. The last response repeats once the script runs out.
type Transport struct {
	Responses []Response

	mu       sync.Mutex
	calls    int
	requests []string
}

// OK returns a 200 response carrying body.
func OK(body string) Response {
	return Response{Status: http.StatusOK, Body: body}
}

// Status returns a response with the given status code and body.
func Status(code int, body string) Response {
	return Response{Status: code, Body: body}
}

// Fail returns a transport-level failure.
func Fail(err error) Response {
	return Response{Err: err}
}

// Client returns an http.Client backed by the transport.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	var body string
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		_ = r.Body.Close()
		body = string(b)
	}

	t.mu.Lock()
	idx := t.calls
	t.calls++
	t.requests = append(t.requests, body)
	t.mu.Unlock()

	if len(t.Responses) == 0 {
		return reply(r, OK(`{"choices":[{"message":{"role":"assistant","content":"mock"}}]}`)), nil
	}
	if idx >= len(t.Responses) {
		idx = len(t.Responses) - 1
	}
	resp := t.Responses[idx]
	if resp.Err != nil {
		return nil, resp.Err
	}
	return reply(r, resp), nil
}

// Calls reports how many round trips were made.
func (t *Transport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Requests returns the request bodies seen so far.
func (t *Transport) Requests() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.requests...)
}

func reply(r *http.Request, resp Response) *http.Response {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(resp.Body)),
		Request:    r,
	}
}
