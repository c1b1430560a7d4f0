package relay

import (
	"context"
	"errors"

	"github.com/webhookx-io/intercom/model"
	"github.com/webhookx-io/intercom/utils"
)

var ErrNoNextHop = errors.New("next hop is required")

// Client is the entry point of a chain. It implements Downloader, so a Client
// can itself be the downloader of another node.
type Client struct {
	*Node
	nextHop string
}

var _ Downloader = &Client{}

func NewClient(opts Options, nextHop string) (*Client, error) {
	if nextHop == "" {
		return nil, ErrNoNextHop
	}
	opts.Name = utils.DefaultIfZero(opts.Name, "client")
	c := &Client{nextHop: nextHop}
	node, err := NewNode(opts, HopActionFunc(c.run))
	if err != nil {
		return nil, err
	}
	c.Node = node
	return c, nil
}

func (c *Client) NextHop() string {
	return c.nextHop
}

func (c *Client) run(ctx context.Context, hop *Hop) (*model.Response, error) {
	return hop.Forward(ctx, c.nextHop, nil)
}

// Fetch relays req through the chain. Unlike Process, a classified failure is
// returned as the error (a *model.Failure). The response is never nil: on
// failure it carries the same failure.
func (c *Client) Fetch(ctx context.Context, req *model.Request) (*model.Response, error) {
	if req == nil {
		return nil, model.NewFailure(model.FailureMissingInput, "request not supplied")
	}

	hop := &Hop{node: c.Node, Request: req, TraceID: utils.TraceID()}
	res, err := c.Node.run(ctx, hop)
	if err != nil {
		res := c.Node.fail(hop, err)
		return res, res.Failure
	}
	if res.Failure != nil {
		return res, res.Failure
	}
	return res, nil
}
