package config

import "net/http"

// mockRoundTripper counts calls and delegates to a handler, so backoff
// tests can assert how many attempts were made.
type mockRoundTripper struct {
	calls   int
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.calls++
	return m.handler(req)
}

func newMockClient(handler func(req *http.Request) (*http.Response, error)) (*http.Client, *mockRoundTripper) {
	rt := &mockRoundTripper{handler: handler}
	return &http.Client{Transport: rt}, rt
}
