// Package envelope encodes requests and responses for the intercom wire.
//
// A response travels in two parts: its metadata (status, headers, failure) as a
// base64 msgpack document carried in a header, and its body as the literal HTTP
// payload. Requests travel whole in a form field using the same scheme. Every
// document carries a version and is validated field by field on decode.
package envelope

import (
	"bytes"
	"encoding/base64"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/webhookx-io/intercom/constants"
	"github.com/webhookx-io/intercom/model"
	"github.com/webhookx-io/intercom/utils"
)

// MaxCauseDepth bounds the failure cause chain accepted on decode
const MaxCauseDepth = 16

type failureDocument struct {
	Kind    model.FailureKind `msgpack:"kind" validate:"required,oneof=missing_input envelope_decode no_route http internal_link relay"`
	Message string            `msgpack:"message"`
	Cause   *failureDocument  `msgpack:"cause,omitempty"`
	LastURL string            `msgpack:"last_url,omitempty"`
	LastIP  string            `msgpack:"last_ip,omitempty"`
}

type responseDocument struct {
	Version    int                 `msgpack:"v" validate:"eq=1"`
	StatusCode int                 `msgpack:"status" validate:"gte=0,lte=999"`
	URL        string              `msgpack:"url,omitempty"`
	Headers    map[string][]string `msgpack:"headers"`
	Failure    *failureDocument    `msgpack:"failure,omitempty"`
}

type requestDocument struct {
	Version          int                 `msgpack:"v" validate:"eq=1"`
	Method           string              `msgpack:"method" validate:"required,max=16"`
	URL              string              `msgpack:"url" validate:"required,http_url"`
	Headers          map[string][]string `msgpack:"headers"`
	Body             []byte              `msgpack:"body,omitempty"`
	PostFields       map[string][]string `msgpack:"post_fields,omitempty"`
	FollowLocation   bool                `msgpack:"follow_location"`
	VerifyPeer       bool                `msgpack:"verify_peer"`
	VerifyHost       bool                `msgpack:"verify_host"`
	OutgoingIP       string              `msgpack:"outgoing_ip,omitempty" validate:"omitempty,ip"`
	ConnectTimeoutMs int64               `msgpack:"connect_timeout_ms" validate:"gte=0"`
	RequestTimeoutMs int64               `msgpack:"request_timeout_ms" validate:"gte=0"`
}

func marshal(v interface{}) (string, error) {
	var buf bytes.Buffer

	encoder := msgpack.GetEncoder()
	defer msgpack.PutEncoder(encoder)

	encoder.Reset(&buf)
	encoder.SetSortMapKeys(true)
	if err := encoder.Encode(v); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func unmarshal(data string, v interface{}) *model.Failure {
	if data == "" {
		return model.NewFailure(model.FailureEnvelopeDecode, "envelope not found")
	}
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return model.NewFailure(model.FailureEnvelopeDecode, "envelope is not valid base64: %s", err)
	}

	decoder := msgpack.GetDecoder()
	defer msgpack.PutDecoder(decoder)

	r := bytes.NewReader(b)
	decoder.Reset(r)
	decoder.DisallowUnknownFields(true)
	if err := decoder.Decode(v); err != nil {
		return model.NewFailure(model.FailureEnvelopeDecode, "malformed envelope: %s", err)
	}
	if r.Len() > 0 {
		return model.NewFailure(model.FailureEnvelopeDecode, "malformed envelope: trailing data")
	}
	if err := utils.Validate(v); err != nil {
		return model.NewFailure(model.FailureEnvelopeDecode, "invalid envelope: %s", err)
	}
	return nil
}

// EncodeResponse returns the metadata and the body of res
func EncodeResponse(res *model.Response) (metadata string, body []byte, err error) {
	doc := responseDocument{
		Version:    constants.EnvelopeVersion,
		StatusCode: res.StatusCode,
		URL:        res.URL,
		Headers:    res.Headers,
		Failure:    encodeFailure(res.Failure),
	}
	metadata, err = marshal(&doc)
	if err != nil {
		return "", nil, err
	}
	return metadata, res.Body, nil
}

// DecodeResponse rebuilds a response from its metadata and body. The returned
// error is always a *model.Failure of kind envelope_decode.
func DecodeResponse(metadata string, body []byte) (*model.Response, error) {
	var doc responseDocument
	if f := unmarshal(metadata, &doc); f != nil {
		return nil, f
	}
	failure, err := decodeFailure(doc.Failure, 0)
	if err != nil {
		return nil, err
	}
	return &model.Response{
		StatusCode: doc.StatusCode,
		Headers:    doc.Headers,
		Body:       body,
		URL:        doc.URL,
		Failure:    failure,
	}, nil
}

func EncodeRequest(req *model.Request) (string, error) {
	doc := requestDocument{
		Version:          constants.EnvelopeVersion,
		Method:           req.Method,
		URL:              req.URL,
		Headers:          req.Headers,
		Body:             req.Body,
		PostFields:       req.PostFields,
		FollowLocation:   req.FollowLocation,
		VerifyPeer:       req.VerifyPeer,
		VerifyHost:       req.VerifyHost,
		OutgoingIP:       req.OutgoingIP,
		ConnectTimeoutMs: req.ConnectTimeoutMs,
		RequestTimeoutMs: req.RequestTimeoutMs,
	}
	return marshal(&doc)
}

// DecodeRequest is the inverse of EncodeRequest. The returned error is always
// a *model.Failure of kind envelope_decode.
func DecodeRequest(data string) (*model.Request, error) {
	var doc requestDocument
	if f := unmarshal(data, &doc); f != nil {
		return nil, f
	}
	return &model.Request{
		Method:           doc.Method,
		URL:              doc.URL,
		Headers:          doc.Headers,
		Body:             doc.Body,
		PostFields:       doc.PostFields,
		FollowLocation:   doc.FollowLocation,
		VerifyPeer:       doc.VerifyPeer,
		VerifyHost:       doc.VerifyHost,
		OutgoingIP:       doc.OutgoingIP,
		ConnectTimeoutMs: doc.ConnectTimeoutMs,
		RequestTimeoutMs: doc.RequestTimeoutMs,
	}, nil
}

func encodeFailure(f *model.Failure) *failureDocument {
	if f == nil {
		return nil
	}
	return &failureDocument{
		Kind:    f.Kind,
		Message: f.Message,
		Cause:   encodeFailure(f.Cause),
		LastURL: f.LastURL,
		LastIP:  f.LastIP,
	}
}

func decodeFailure(doc *failureDocument, depth int) (*model.Failure, error) {
	if doc == nil {
		return nil, nil
	}
	if depth >= MaxCauseDepth {
		return nil, model.NewFailure(model.FailureEnvelopeDecode, "invalid envelope: failure cause chain exceeds %d", MaxCauseDepth)
	}
	cause, err := decodeFailure(doc.Cause, depth+1)
	if err != nil {
		return nil, err
	}
	return &model.Failure{
		Kind:    doc.Kind,
		Message: doc.Message,
		Cause:   cause,
		LastURL: doc.LastURL,
		LastIP:  doc.LastIP,
	}, nil
}
