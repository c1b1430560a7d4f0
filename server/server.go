package server

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/webhookx-io/intercom/config/modules"
	"github.com/webhookx-io/intercom/constants"
	"github.com/webhookx-io/intercom/model"
	"github.com/webhookx-io/intercom/pkg/accesslog"
	"github.com/webhookx-io/intercom/relay"
	"github.com/webhookx-io/intercom/utils"
	"go.uber.org/zap"
)

// Processor runs one relay invocation
type Processor interface {
	Process(ctx context.Context, input relay.Input, out relay.Emitter) *model.Response
}

var _ Processor = &relay.Node{}

type Options struct {
	Logger      *zap.SugaredLogger
	Middlewares []mux.MiddlewareFunc
}

// Server exposes a relay node over HTTP
type Server struct {
	cfg  modules.ServerConfig
	log  *zap.SugaredLogger
	node Processor
	s    *http.Server
}

func NewServer(cfg modules.ServerConfig, node Processor, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.S()
	}
	srv := &Server{
		cfg:  cfg,
		log:  log.Named("server"),
		node: node,
	}

	r := mux.NewRouter()
	r.Use(srv.panicRecovery)
	for _, m := range opts.Middlewares {
		r.Use(m)
	}
	r.HandleFunc("/health", srv.health).Methods(http.MethodGet)
	r.HandleFunc(utils.DefaultIfZero(cfg.Path, "/"), srv.handle).Methods(http.MethodPost)

	srv.s = &http.Server{
		Handler:      r,
		Addr:         cfg.Listen,
		ReadTimeout:  time.Duration(cfg.TimeoutRead) * time.Second,
		WriteTimeout: time.Duration(cfg.TimeoutWrite) * time.Second,
	}

	return srv
}

func (s *Server) Handler() http.Handler {
	return s.s.Handler
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxRequestBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBodySize)
	}

	var input relay.Input
	if err := parseForm(r, s.cfg.MaxRequestBodySize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			input = failedInput(model.NewFailure(model.FailureMissingInput, "request body too large (limit %d bytes)", maxErr.Limit))
		} else {
			input = failedInput(model.NewFailure(model.FailureMissingInput, "invalid form: %v", err))
		}
	} else {
		input = relay.NewFormInput(r.PostForm)
	}

	res := s.node.Process(r.Context(), input, &responseEmitter{w: w})

	if entry := accesslog.FromContext(r.Context()); entry != nil {
		entry.Relay.Status = res.StatusCode
		if in, ok := input.(*relay.FormInput); ok {
			entry.Relay.TraceID = in.TraceID()
		}
		if res.Failure != nil {
			entry.Relay.Failure = string(res.Failure.Kind)
			entry.Relay.LastURL = res.Failure.LastURL
		}
	}
}

func parseForm(r *http.Request, maxMemory int64) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if maxMemory <= 0 {
			maxMemory = 32 << 20
		}
		return r.ParseMultipartForm(maxMemory)
	}
	return r.ParseForm()
}

func (s *Server) Listen() (net.Listener, error) {
	l, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	return l, nil
}

// Serve serves on l until Stop is called
func (s *Server) Serve(l net.Listener) error {
	var err error
	tls := s.cfg.TLS
	if tls.Enabled() {
		err = s.s.ServeTLS(l, tls.Cert, tls.Key)
	} else {
		err = s.s.Serve(l)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the HTTP server, waiting for pending invocations until ctx is done
func (s *Server) Stop(ctx context.Context) error {
	return s.s.Shutdown(ctx)
}

// responseEmitter replies with the encoded response, the relayed status
// travels inside the envelope.
type responseEmitter struct {
	w http.ResponseWriter
}

func (e *responseEmitter) Emit(metadata string, body []byte) error {
	header := e.w.Header()
	for _, h := range constants.DefaultResponseHeaders {
		header.Set(h.Name, h.Value)
	}
	header.Set(constants.HeaderEnvelope, metadata)
	header.Set("Content-Type", "application/octet-stream")
	e.w.WriteHeader(http.StatusOK)
	_, err := e.w.Write(body)
	return err
}

type inputError struct {
	err error
}

func (in inputError) Request() (*model.Request, error) {
	return nil, in.err
}

func failedInput(err error) relay.Input {
	return inputError{err: err}
}
