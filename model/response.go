package model

import (
	"fmt"
	"net/http"
)

// Response is the outcome of a relayed request. Either the status, headers and
// body are meaningful, or Failure is set.
type Response struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"-"`
	// URL is the effective URL after redirects
	URL     string   `json:"url"`
	Failure *Failure `json:"failure"`
}

func (r *Response) Failed() bool {
	return r.Failure != nil
}

func (r *Response) Is2xx() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

func (r *Response) String() string {
	if r.Failure != nil {
		return fmt.Sprintf("failure %s", r.Failure)
	}
	return fmt.Sprintf("%d %s", r.StatusCode, r.URL)
}
