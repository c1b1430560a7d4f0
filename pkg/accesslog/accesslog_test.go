package accesslog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, logger Logger) {
	handler := NewMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := FromContext(r.Context())
		require.NotNil(t, entry)
		entry.Relay.TraceID = "0123456789abcdef0123456789abcdef"
		entry.Relay.Status = 504
		entry.Relay.Failure = "internal_link"
		entry.Relay.LastURL = "http://10.0.0.1:9700/"
		_, _ = w.Write([]byte("relayed"))
	}))

	req := httptest.NewRequest("POST", "/relay", strings.NewReader("request=x"))
	req.Header.Set("User-Agent", "Intercom/dev")
	req.RemoteAddr = "10.0.0.9:51000"
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestTextLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := NewLogger("dispatcher", buf, Options{Format: "text"})
	require.NoError(t, err)

	serve(t, logger)

	line := strings.TrimSpace(buf.String())
	regex := regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\.\d{3} \[dispatcher\]\s+10\.0\.0\.9 "POST /relay HTTP/1\.1" 200 7 \d+ms 0123456789abcdef0123456789abcdef 504 internal_link "Intercom/dev"$`)
	assert.Regexp(t, regex, line)
}

func TestJsonLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := NewLogger("endpoint", buf, Options{Format: "json"})
	require.NoError(t, err)

	serve(t, logger)

	var entry struct {
		Name string `json:"name"`
		Ts   string `json:"ts"`
		Entry
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "endpoint", entry.Name)
	assert.Regexp(t, `^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\.\d{3}$`, entry.Ts)
	assert.Equal(t, "10.0.0.9", entry.ClientIP)
	assert.Equal(t, Request{Method: "POST", Path: "/relay", Proto: "HTTP/1.1", UserAgent: "Intercom/dev"}, entry.Request)
	assert.Equal(t, Response{Status: 200, Size: 7}, entry.Response)
	assert.Equal(t, Relay{
		TraceID: "0123456789abcdef0123456789abcdef",
		Status:  504,
		Failure: "internal_link",
		LastURL: "http://10.0.0.1:9700/",
	}, entry.Relay)
}

func TestNew(t *testing.T) {
	_, err := New("endpoint", Options{Format: "text"})
	assert.EqualError(t, err, "accesslog file is required")

	_, err = New("endpoint", Options{File: "/dev/stdout", Format: "xml"})
	assert.EqualError(t, err, "invalid format: xml")

	logger, err := New("endpoint", Options{File: "/dev/stdout", Format: "json"})
	assert.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestFromContextWithoutEntry(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Nil(t, FromContext(req.Context()))
}
