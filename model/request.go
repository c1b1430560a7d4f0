package model

import (
	"fmt"
	"net/http"
	"net/url"
)

const (
	DefaultConnectTimeoutMs int64 = 10000
	DefaultRequestTimeoutMs int64 = 20000
)

// Request is an HTTP request travelling through the relay chain
type Request struct {
	Method         string      `json:"method"`
	URL            string      `json:"url"`
	Headers        http.Header `json:"headers"`
	Body           []byte      `json:"body"`
	PostFields     url.Values  `json:"post_fields"`
	FollowLocation bool        `json:"follow_location"`
	VerifyPeer     bool        `json:"verify_peer"`
	VerifyHost     bool        `json:"verify_host"`
	// OutgoingIP is the local address the terminal fetch binds to.
	// It is the only field a relay may change before forwarding.
	OutgoingIP       string `json:"outgoing_ip"`
	ConnectTimeoutMs int64  `json:"connect_timeout_ms"`
	RequestTimeoutMs int64  `json:"request_timeout_ms"`
}

func NewRequest(method string, url string) *Request {
	return &Request{
		Method:           method,
		URL:              url,
		Headers:          make(http.Header),
		VerifyPeer:       true,
		VerifyHost:       true,
		ConnectTimeoutMs: DefaultConnectTimeoutMs,
		RequestTimeoutMs: DefaultRequestTimeoutMs,
	}
}

// HasPostFields reports whether the body is made of form fields
func (r *Request) HasPostFields() bool {
	return len(r.PostFields) > 0
}

func (r *Request) String() string {
	return fmt.Sprintf("%s %s", r.Method, r.URL)
}
