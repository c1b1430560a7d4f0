package relay

import (
	"context"
	"math/rand/v2"

	"github.com/webhookx-io/intercom/model"
	"github.com/webhookx-io/intercom/utils"
)

// Destination is a next hop of a Dispatcher
type Destination struct {
	URL string
	// IPs are the outgoing addresses the terminal fetch may bind to
	IPs []string
}

// Dispatcher is an intermediate node forwarding to a random destination.
//
// The selection policy is an example, any strategy can be substituted by
// providing another HopAction to NewNode.
type Dispatcher struct {
	*Node
	destinations []Destination
	intn         func(n int) int
}

// NewDispatcher returns a dispatcher forwarding to destinations.
// intn picks a random index in [0, n), nil selects math/rand/v2.
func NewDispatcher(opts Options, destinations []Destination, intn func(n int) int) (*Dispatcher, error) {
	opts.Name = utils.DefaultIfZero(opts.Name, "dispatcher")
	if intn == nil {
		intn = rand.IntN
	}
	d := &Dispatcher{
		destinations: append([]Destination(nil), destinations...),
		intn:         intn,
	}
	node, err := NewNode(opts, HopActionFunc(d.run))
	if err != nil {
		return nil, err
	}
	d.Node = node
	return d, nil
}

// AddDestination adds a destination. It must not be called while serving.
func (d *Dispatcher) AddDestination(url string, ips ...string) {
	d.destinations = append(d.destinations, Destination{URL: url, IPs: ips})
}

func (d *Dispatcher) Destinations() []Destination {
	return d.destinations
}

func (d *Dispatcher) run(ctx context.Context, hop *Hop) (*model.Response, error) {
	if len(d.destinations) == 0 {
		return nil, model.NewFailure(model.FailureNoRoute, "no destinations defined")
	}

	dest := d.destinations[d.intn(len(d.destinations))]
	if len(dest.IPs) > 0 {
		hop.Request.OutgoingIP = dest.IPs[d.intn(len(dest.IPs))]
	}

	return hop.Forward(ctx, dest.URL, nil)
}
