package helper

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/webhookx-io/intercom/app"
	"github.com/webhookx-io/intercom/config"
	"github.com/webhookx-io/intercom/config/modules"
)

// LogFile receives the logs of the nodes started by tests
var LogFile = "intercom.log"

// NewConfig returns the configuration of a node listening on a random port
func NewConfig(role modules.Role, internalHops int) *config.Config {
	cfg := config.New()
	cfg.Log.Level = modules.LogLevelDebug
	cfg.Log.File = LogFile
	cfg.Node.Role = role
	cfg.Node.InternalHops = internalHops
	cfg.Server.Listen = "127.0.0.1:0"
	return cfg
}

// Start starts a node
func Start(cfg *config.Config) (*app.Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := app.Start(); err != nil {
		return nil, err
	}
	go func() {
		_ = app.Wait()
	}()
	return app, nil
}

// URL returns the relay URL of a started node
func URL(app *app.Application) string {
	return fmt.Sprintf("http://%s%s", app.Addr(), app.Config().Server.Path)
}

// ClosedURL returns a URL nothing listens on
func ClosedURL() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return "http://" + addr + "/"
}

// NewTarget starts the HTTP server the chain fetches from
func NewTarget() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Target", "ok")
		_, _ = w.Write([]byte("hello"))
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Key", r.Header.Get("X-Key"))
		w.WriteHeader(201)
		_, _ = w.Write([]byte(r.PostForm.Encode()))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})
	return httptest.NewServer(mux)
}

// Stop stops a node, ignoring nodes already stopped
func Stop(apps ...*app.Application) {
	for _, app := range apps {
		if app != nil {
			_ = app.Stop()
		}
	}
}

