package relay

import (
	"context"

	"github.com/webhookx-io/intercom/model"
)

//go:generate mockgen -destination=mocks/downloader.go -package=mocks github.com/webhookx-io/intercom/relay Downloader

// Downloader performs an outbound HTTP fetch. A failed connection attempt is
// reported as a *model.Failure of kind http carrying LastURL and LastIP.
type Downloader interface {
	Fetch(ctx context.Context, req *model.Request) (*model.Response, error)
}

// DownloaderFunc adapts a function to Downloader
type DownloaderFunc func(ctx context.Context, req *model.Request) (*model.Response, error)

func (fn DownloaderFunc) Fetch(ctx context.Context, req *model.Request) (*model.Response, error) {
	return fn(ctx, req)
}
