package relay

import (
	"context"

	"github.com/webhookx-io/intercom/model"
	"github.com/webhookx-io/intercom/utils"
)

// Endpoint is the terminal node of a chain, it performs the real fetch.
type Endpoint struct {
	*Node
}

func NewEndpoint(opts Options) (*Endpoint, error) {
	opts.Name = utils.DefaultIfZero(opts.Name, "endpoint")
	e := &Endpoint{}
	node, err := NewNode(opts, HopActionFunc(e.run))
	if err != nil {
		return nil, err
	}
	e.Node = node
	return e, nil
}

func (e *Endpoint) run(ctx context.Context, hop *Hop) (*model.Response, error) {
	return hop.Fetch(ctx)
}
