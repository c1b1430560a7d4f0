package accesslog

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/webhookx-io/intercom/utils"
)

type Entry struct {
	Latency  time.Duration `json:"latency"`
	ClientIP string        `json:"client_ip"`
	Request  Request       `json:"request"`
	Response Response      `json:"response"`
	Relay    Relay         `json:"relay"`
}

type Request struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	Proto     string `json:"proto"`
	UserAgent string `json:"user_agent"`
}

type Response struct {
	Status int `json:"status"`
	Size   int `json:"size"`
}

// Relay describes the relayed response carried by the envelope
type Relay struct {
	TraceID string `json:"trace_id"`
	Status  int    `json:"status"`
	Failure string `json:"failure"`
	LastURL string `json:"last_url"`
}

func NewEntry(r *http.Request) *Entry {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	entry := Entry{
		ClientIP: host,
		Request: Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Proto:     r.Proto,
			UserAgent: r.UserAgent(),
		},
	}
	return &entry
}

func (m *Entry) MarshalZerologObject(e *zerolog.Event) {
	e.Str("client_ip", m.ClientIP)
	e.Dict("request", zerolog.Dict().
		Str("method", m.Request.Method).
		Str("path", m.Request.Path).
		Str("proto", m.Request.Proto).
		Str("user_agent", m.Request.UserAgent),
	)
	e.Dict("response", zerolog.Dict().
		Int("status", m.Response.Status).
		Int("size", m.Response.Size),
	)
	e.Dict("relay", zerolog.Dict().
		Str("trace_id", m.Relay.TraceID).
		Int("status", m.Relay.Status).
		Str("failure", m.Relay.Failure).
		Str("last_url", m.Relay.LastURL),
	)
	e.Int64("latency", m.Latency.Milliseconds())
}

func (m *Entry) String() string {
	return fmt.Sprintf(`%s "%s %s %s" %d %d %dms %s %d %s "%s"`,
		m.ClientIP,
		m.Request.Method,
		m.Request.Path,
		m.Request.Proto,
		m.Response.Status,
		m.Response.Size,
		m.Latency.Milliseconds(),
		utils.DefaultIfZero(m.Relay.TraceID, "-"),
		m.Relay.Status,
		utils.DefaultIfZero(m.Relay.Failure, "-"),
		utils.DefaultIfZero(m.Request.UserAgent, "-"),
	)
}

type entryKey struct{}

func WithEntry(ctx context.Context, entry *Entry) context.Context {
	return context.WithValue(ctx, entryKey{}, entry)
}

// FromContext returns the entry of the current request, nil without access log
func FromContext(ctx context.Context) *Entry {
	entry, _ := ctx.Value(entryKey{}).(*Entry)
	return entry
}
