package relay

import (
	"context"
	"errors"
	"net/url"

	"github.com/webhookx-io/intercom/constants"
	"github.com/webhookx-io/intercom/envelope"
	"github.com/webhookx-io/intercom/model"
)

// Hop is the state of one invocation of a Node
type Hop struct {
	node *Node

	// Request is read-only except OutgoingIP
	Request *model.Request
	TraceID string

	// nextHop is the last intercom URL attempted
	nextHop string
}

// NextHop returns the last next hop URL attempted by Forward
func (h *Hop) NextHop() string {
	return h.nextHop
}

// Forward sends the request to nextHop and returns the response it relayed.
// extra fields are sent along with the encoded request. An HTTP-level failure
// carried by the relayed response is returned as the error.
func (h *Hop) Forward(ctx context.Context, nextHop string, extra url.Values) (*model.Response, error) {
	h.nextHop = nextHop

	payload, err := envelope.EncodeRequest(h.Request)
	if err != nil {
		return nil, err
	}
	fields, err := encodeFields(payload, h.TraceID, extra)
	if err != nil {
		return nil, err
	}

	req := h.node.communicationRequest(h.Request, nextHop, fields)
	h.node.log.Debugw("forwarding",
		"trace_id", h.TraceID,
		"next_hop", nextHop,
		"timeout_ms", req.RequestTimeoutMs,
	)

	res, err := h.node.downloader.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("downloader returned no response")
	}

	relayed, err := envelope.DecodeResponse(res.Headers.Get(constants.HeaderEnvelope), res.Body)
	if err != nil {
		f := err.(*model.Failure)
		f.LastURL = nextHop
		return nil, f
	}
	if relayed.Failure != nil && relayed.Failure.IsHTTP() {
		return nil, relayed.Failure
	}
	return relayed, nil
}

// Fetch performs the real fetch of the request
func (h *Hop) Fetch(ctx context.Context) (*model.Response, error) {
	return h.node.downloader.Fetch(ctx, h.Request)
}

// repack classifies err. An HTTP-level failure observed at the next hop this
// hop attempted becomes an internal link failure, any other failure is kept,
// and any other error is wrapped into a relay failure.
func (h *Hop) repack(err error) *model.Failure {
	f, ok := err.(*model.Failure)
	if !ok {
		return model.WrapFailure(model.FailureRelay, err)
	}
	if f.Kind == model.FailureHTTP && f.LastURL != "" && f.LastURL == h.nextHop {
		return f.AsInternalLink()
	}
	return f
}
