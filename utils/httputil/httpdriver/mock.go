package httpdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

// MockClient is a Client that routes every request through a handler
// function. It is meant for tests.
type MockClient struct {
	// Handle is called for every Do. It must not be nil.
	Handle func(*MockRequest) (*MockResponse, error)
}

var _ Client = (*MockClient)(nil)

func (c MockClient) NewRequest(ctx context.Context, method, urlstr string) (Request, error) {
	u, err := url.Parse(urlstr)
	if err != nil {
		return nil, err
	}

	return &MockRequest{
		Method: method,
		URL:    *u,
		Header: http.Header{},
		ctx:    ctx,
	}, nil
}

func (c MockClient) Do(req Request) (Response, error) {
	return c.Handle(req.(*MockRequest))
}

// MockRequest is a mock request. It implements the Request interface.
type MockRequest struct {
	Method string
	URL    url.URL
	Header http.Header
	Body   []byte

	ctx context.Context
}

var _ Request = (*MockRequest)(nil)

func (r *MockRequest) GetMethod() string {
	return r.Method
}

func (r *MockRequest) GetPath() string {
	return r.URL.Path
}

func (r *MockRequest) GetContext() context.Context {
	return r.ctx
}

func (r *MockRequest) AddHeader(h http.Header) {
	for k, v := range h {
		r.Header[k] = append(r.Header[k], v...)
	}
}

func (r *MockRequest) AddQuery(v url.Values) {
	oldv := r.URL.Query()
	for k, v := range v {
		oldv[k] = append(oldv[k], v...)
	}
	r.URL.RawQuery = oldv.Encode()
}

func (r *MockRequest) WithBody(body io.ReadCloser) {
	r.Body, _ = io.ReadAll(body)
	body.Close()
}

// MockResponse is a mock response. It implements the Response interface.
type MockResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

var _ Response = (*MockResponse)(nil)

// NewMockResponse creates a new mock response. If jsonBody doesn't marshal,
// the function panics.
func NewMockResponse(code int, h http.Header, jsonBody interface{}) *MockResponse {
	var body []byte
	if jsonBody != nil {
		var err error
		body, err = json.Marshal(jsonBody)
		if err != nil {
			panic(err)
		}
	}

	if h == nil {
		h = http.Header{}
	}

	return &MockResponse{
		StatusCode: code,
		Header:     h,
		Body:       body,
	}
}

func (r *MockResponse) GetStatus() int {
	return r.StatusCode
}

func (r *MockResponse) GetHeader() http.Header {
	return r.Header
}

func (r *MockResponse) GetBody() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(r.Body))
}
