// Package relay implements the intercom relay protocol: a request travels from
// a Client through zero or more Dispatchers to an Endpoint, which performs the
// only real fetch. Every hop wraps its outcome into an envelope and returns it
// up the chain, classifying failures on the way.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"github.com/webhookx-io/intercom/envelope"
	"github.com/webhookx-io/intercom/model"
	"github.com/webhookx-io/intercom/pkg/loglimiter"
	"github.com/webhookx-io/intercom/utils"
	"go.uber.org/zap"
)

// failureLogWindow limits "hop failed" warnings to one per kind and
// address within the window
const failureLogWindow = 10 * time.Second

var (
	ErrNoAction     = errors.New("hop action is required")
	ErrNoDownloader = errors.New("downloader is required")
)

// HopAction is the node specific step of an invocation.
type HopAction interface {
	Run(ctx context.Context, hop *Hop) (*model.Response, error)
}

// HopActionFunc adapts a function to HopAction
type HopActionFunc func(ctx context.Context, hop *Hop) (*model.Response, error)

func (fn HopActionFunc) Run(ctx context.Context, hop *Hop) (*model.Response, error) {
	return fn(ctx, hop)
}

type Options struct {
	Name string
	// InternalHops is the number of relays after this node
	InternalHops int
	// OverheadMs is the per hop processing overhead, 0 selects the default
	OverheadMs int64
	Downloader Downloader
	Logger     *zap.SugaredLogger
}

// Node runs the shared protocol logic around a HopAction. A Node holds no
// per invocation state and may serve concurrent invocations.
type Node struct {
	name       string
	budget     Budget
	downloader Downloader
	action     HopAction
	log        *zap.SugaredLogger
	limiter    *loglimiter.Limiter
}

func NewNode(opts Options, action HopAction) (*Node, error) {
	if action == nil {
		return nil, ErrNoAction
	}
	if opts.Downloader == nil {
		return nil, ErrNoDownloader
	}
	budget, err := NewBudget(opts.InternalHops, opts.OverheadMs)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.S()
	}
	name := utils.DefaultIfZero(opts.Name, "relay")
	return &Node{
		name:       name,
		budget:     budget,
		downloader: opts.Downloader,
		action:     action,
		log:        log.Named(name),
		limiter:    loglimiter.NewLimiter(failureLogWindow),
	}, nil
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) Budget() Budget {
	return n.budget
}

// Process runs one invocation: it obtains the request from input, runs the
// hop action and emits the response to out. Failures are classified and
// stored in the returned response, Process never fails. out may be nil.
func (n *Node) Process(ctx context.Context, input Input, out Emitter) *model.Response {
	hop := &Hop{node: n}
	res := n.execute(ctx, hop, input)
	if out != nil {
		n.emit(hop, out, res)
	}
	return res
}

func (n *Node) execute(ctx context.Context, hop *Hop, input Input) *model.Response {
	req, err := input.Request()
	if t, ok := input.(tracer); ok {
		hop.TraceID = t.TraceID()
	}
	if hop.TraceID == "" {
		hop.TraceID = utils.TraceID()
	}
	if err != nil {
		return n.fail(hop, err)
	}
	hop.Request = req

	res, err := n.run(ctx, hop)
	if err != nil {
		return n.fail(hop, err)
	}
	return res
}

// run runs the hop action, turning a panic into an error
func (n *Node) run(ctx context.Context, hop *Hop) (res *model.Response, err error) {
	defer func() {
		if e := recover(); e != nil {
			buf := make([]byte, 2048)
			buf = buf[:runtime.Stack(buf, false)]
			n.log.Errorf("panic recovered: %v\n %s", e, buf)
			res, err = nil, fmt.Errorf("panic: %v", e)
		}
	}()

	res, err = n.action.Run(ctx, hop)
	if err == nil && res == nil {
		err = errors.New("hop action returned no response")
	}
	return
}

func (n *Node) fail(hop *Hop, err error) *model.Response {
	f := hop.repack(err)
	fields := []interface{}{
		"trace_id", hop.TraceID,
		"kind", f.Kind,
		"message", f.Message,
		"last_url", f.LastURL,
		"last_ip", f.LastIP,
	}
	if ok, suppressed := n.limiter.Allow(string(f.Kind) + " " + f.LastURL); ok {
		if suppressed > 0 {
			fields = append(fields, "suppressed", suppressed)
		}
		n.log.Warnw("hop failed", fields...)
	} else {
		n.log.Debugw("hop failed", fields...)
	}
	return &model.Response{Failure: f}
}

func (n *Node) emit(hop *Hop, out Emitter, res *model.Response) {
	metadata, body, err := envelope.EncodeResponse(res)
	if err != nil {
		n.log.Errorf("failed to encode response: %v", err)
		res = &model.Response{Failure: model.WrapFailure(model.FailureRelay, err)}
		metadata, body, err = envelope.EncodeResponse(res)
		if err != nil {
			n.log.Errorf("failed to encode failure: %v", err)
			return
		}
	}
	if err := out.Emit(metadata, body); err != nil {
		n.log.Errorw("failed to emit response", "trace_id", hop.TraceID, "error", err)
	}
}

// communicationRequest builds the intercom request carrying fields to nextHop
func (n *Node) communicationRequest(origin *model.Request, nextHop string, fields url.Values) *model.Request {
	return &model.Request{
		Method:           http.MethodPost,
		URL:              nextHop,
		PostFields:       fields,
		FollowLocation:   true,
		VerifyPeer:       origin.VerifyPeer,
		VerifyHost:       origin.VerifyHost,
		ConnectTimeoutMs: origin.ConnectTimeoutMs,
		RequestTimeoutMs: n.budget.RequestTimeout(origin.ConnectTimeoutMs, origin.RequestTimeoutMs),
	}
}
