package constants

import (
	"time"

	intercom "github.com/webhookx-io/intercom"
)

// Intercom wire
const (
	// RequestField is the form field carrying the encoded request
	RequestField = "request"
	// TraceField is the form field carrying the trace id assigned by the client
	TraceField = "trace_id"
	// HeaderEnvelope is the response header carrying the encoded response metadata
	HeaderEnvelope = "X-Intercom-Envelope"
	// EnvelopeVersion is the version of the envelope wire format
	EnvelopeVersion = 1
)

const (
	DefaultHopOverheadMs   int64 = 1000
	DefaultMaxRedirects          = 10
	DefaultDownloadTimeout       = time.Second * 60
)

type Header struct {
	Name  string
	Value string
}

var (
	DefaultResponseHeaders = []Header{
		{Name: "Server", Value: "Intercom/" + intercom.VERSION},
	}
	DefaultDownloaderRequestHeaders = []Header{
		{Name: "User-Agent", Value: "Intercom/" + intercom.VERSION},
	}
)
