package app

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	intercom "github.com/webhookx-io/intercom"
	"github.com/webhookx-io/intercom/config"
	"github.com/webhookx-io/intercom/config/modules"
	"github.com/webhookx-io/intercom/downloader"
	"github.com/webhookx-io/intercom/pkg/accesslog"
	"github.com/webhookx-io/intercom/pkg/log"
	"github.com/webhookx-io/intercom/relay"
	"github.com/webhookx-io/intercom/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrApplicationStarted = errors.New("already started")
	ErrApplicationStopped = errors.New("already stopped")
	ErrNotServable        = errors.New("role 'client' cannot be served, use 'intercom fetch'")
)

const shutdownTimeout = 30 * time.Second

// Application serves the relay node of the configured role
type Application struct {
	cfg *config.Config

	mux     sync.Mutex
	started bool

	log    *zap.SugaredLogger
	node   server.Processor
	server *server.Server
	addr   net.Addr
	group  *errgroup.Group
}

func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
	}

	err := app.initialize()
	if err != nil {
		return nil, err
	}

	return app, nil
}

func (app *Application) initialize() error {
	cfg := app.cfg

	log, err := log.NewZapLogger(&cfg.Log)
	if err != nil {
		return err
	}
	app.log = log

	d, err := NewDownloader(cfg.Downloader, log)
	if err != nil {
		return err
	}

	opts := relay.Options{
		Name:         cfg.Node.NodeName(),
		InternalHops: cfg.Node.InternalHops,
		OverheadMs:   cfg.Node.Overhead,
		Downloader:   d,
		Logger:       log,
	}
	switch cfg.Node.Role {
	case modules.RoleEndpoint:
		app.node, err = relay.NewEndpoint(opts)
	case modules.RoleDispatcher:
		app.node, err = relay.NewDispatcher(opts, destinations(cfg.Node.Destinations), nil)
	default:
		return ErrNotServable
	}
	if err != nil {
		return err
	}

	srvOpts := server.Options{Logger: log}
	if cfg.AccessLog.Enabled {
		accessLogger, err := accesslog.New(opts.Name, accesslog.Options{
			File:    cfg.AccessLog.File,
			Format:  string(cfg.AccessLog.Format),
			Colored: cfg.AccessLog.Colored,
		})
		if err != nil {
			return err
		}
		srvOpts.Middlewares = append(srvOpts.Middlewares, accesslog.NewMiddleware(accessLogger))
	}
	app.server = server.NewServer(cfg.Server, app.node, srvOpts)

	return nil
}

func destinations(list []modules.Destination) []relay.Destination {
	dests := make([]relay.Destination, 0, len(list))
	for _, d := range list {
		dests = append(dests, relay.Destination{URL: d.URL, IPs: d.IPs})
	}
	return dests
}

// NewDownloader builds the HTTP downloader of a node
func NewDownloader(cfg modules.DownloaderConfig, log *zap.SugaredLogger) (*downloader.HTTPDownloader, error) {
	opts := downloader.Options{
		Logger:         log,
		RequestTimeout: time.Duration(cfg.Timeout) * time.Millisecond,
		ACL:            downloader.AclOptions{Deny: cfg.ACL.Deny},
	}
	if cfg.CACert != "" {
		pem, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read ca_cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificate found in '%s'", cfg.CACert)
		}
		opts.RootCAs = pool
	}

	d := downloader.NewHTTPDownloader(opts)
	if cfg.Proxy != "" {
		if err := d.SetupProxy(downloader.ProxyOptions{URL: cfg.Proxy}); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// NewClient builds the client of a chain starting at node.next_hop
func NewClient(cfg *config.Config, log *zap.SugaredLogger) (*relay.Client, error) {
	d, err := NewDownloader(cfg.Downloader, log)
	if err != nil {
		return nil, err
	}
	return relay.NewClient(relay.Options{
		Name:         cfg.Node.NodeName(),
		InternalHops: cfg.Node.InternalHops,
		OverheadMs:   cfg.Node.Overhead,
		Downloader:   d,
		Logger:       log,
	}, cfg.Node.NextHop)
}

func (app *Application) Config() *config.Config {
	return app.cfg
}

func (app *Application) Node() server.Processor {
	return app.node
}

// Addr returns the listening address once started
func (app *Application) Addr() net.Addr {
	app.mux.Lock()
	defer app.mux.Unlock()
	return app.addr
}

// Start starts application
func (app *Application) Start() error {
	app.mux.Lock()
	defer app.mux.Unlock()

	if app.started {
		return ErrApplicationStarted
	}

	l, err := app.server.Listen()
	if err != nil {
		return err
	}
	app.addr = l.Addr()

	app.log.Infof("starting Intercom %s (%s) as %s '%s' on %s",
		intercom.VERSION, intercom.COMMIT, app.cfg.Node.Role, app.cfg.Node.NodeName(), app.addr)

	app.group = new(errgroup.Group)
	app.group.Go(func() error {
		return app.server.Serve(l)
	})

	app.started = true

	return nil
}

// Wait blocks until the server stops, returning its serve error
func (app *Application) Wait() error {
	app.mux.Lock()
	group := app.group
	app.mux.Unlock()
	if group == nil {
		return ErrApplicationStopped
	}
	return group.Wait()
}

// Stop stops application, pending invocations get up to 30s to complete
func (app *Application) Stop() error {
	app.mux.Lock()
	defer app.mux.Unlock()

	if !app.started {
		return ErrApplicationStopped
	}

	app.log.Info("exiting")

	defer func() {
		app.log.Info("exit")
		_ = app.log.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := app.server.Stop(ctx)

	app.started = false

	return err
}
