package relay

import (
	"net/url"

	"github.com/go-playground/form"
	"github.com/webhookx-io/intercom/envelope"
	"github.com/webhookx-io/intercom/model"
)

var (
	formEncoder = form.NewEncoder()
	formDecoder = form.NewDecoder()
)

// Input is the local source of the request of an invocation
type Input interface {
	Request() (*model.Request, error)
}

type tracer interface {
	TraceID() string
}

// hopFields are the intercom form fields
type hopFields struct {
	Request string `form:"request"`
	TraceID string `form:"trace_id,omitempty"`
}

type requestInput struct {
	req *model.Request
}

// RequestInput supplies req directly
func RequestInput(req *model.Request) Input {
	return requestInput{req: req}
}

func (in requestInput) Request() (*model.Request, error) {
	if in.req == nil {
		return nil, model.NewFailure(model.FailureMissingInput, "request not supplied")
	}
	return in.req, nil
}

// FormInput decodes the request from intercom form fields
type FormInput struct {
	values  url.Values
	traceID string
}

func NewFormInput(values url.Values) *FormInput {
	return &FormInput{values: values}
}

func (in *FormInput) Request() (*model.Request, error) {
	var fields hopFields
	if err := formDecoder.Decode(&fields, in.values); err != nil {
		return nil, model.WrapFailure(model.FailureMissingInput, err)
	}
	in.traceID = fields.TraceID
	if fields.Request == "" {
		return nil, model.NewFailure(model.FailureMissingInput, "request not found in form")
	}
	req, err := envelope.DecodeRequest(fields.Request)
	if err != nil {
		f := model.WrapFailure(model.FailureMissingInput, err)
		f.Message = "request decode failed: " + f.Message
		return nil, f
	}
	return req, nil
}

// TraceID returns the trace id received with the request, once Request was called
func (in *FormInput) TraceID() string {
	return in.traceID
}

// encodeFields returns extra merged with the encoded request. The
// request field always wins over an extra field of the same name.
func encodeFields(payload string, traceID string, extra url.Values) (url.Values, error) {
	values, err := formEncoder.Encode(&hopFields{Request: payload, TraceID: traceID})
	if err != nil {
		return nil, err
	}
	for name, v := range extra {
		if _, ok := values[name]; !ok {
			values[name] = append([]string(nil), v...)
		}
	}
	return values, nil
}
