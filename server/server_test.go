package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webhookx-io/intercom/config/modules"
	"github.com/webhookx-io/intercom/constants"
	"github.com/webhookx-io/intercom/envelope"
	"github.com/webhookx-io/intercom/model"
	"github.com/webhookx-io/intercom/pkg/accesslog"
	"github.com/webhookx-io/intercom/relay"
	"github.com/webhookx-io/intercom/relay/mocks"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const targetURL = "https://example.com/target"

func serverConfig() modules.ServerConfig {
	return modules.ServerConfig{
		Listen:             "127.0.0.1:0",
		Path:               "/relay",
		MaxRequestBodySize: 1024 * 1024,
	}
}

func newEndpoint(t *testing.T, d relay.Downloader) *relay.Endpoint {
	endpoint, err := relay.NewEndpoint(relay.Options{
		Downloader: d,
		Logger:     zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return endpoint
}

func encodedRequest(t *testing.T) string {
	payload, err := envelope.EncodeRequest(model.NewRequest("GET", targetURL))
	require.NoError(t, err)
	return payload
}

// decode returns the relayed response carried by an intercom reply
func decode(t *testing.T, resp *resty.Response) *model.Response {
	t.Helper()
	require.Equal(t, 200, resp.StatusCode())
	res, err := envelope.DecodeResponse(resp.Header().Get(constants.HeaderEnvelope), resp.Body())
	require.NoError(t, err)
	return res
}

type processorFunc func(ctx context.Context, input relay.Input, out relay.Emitter) *model.Response

func (fn processorFunc) Process(ctx context.Context, input relay.Input, out relay.Emitter) *model.Response {
	return fn(ctx, input, out)
}

func TestServer(t *testing.T) {
	ctrl := gomock.NewController(t)
	downloader := mocks.NewMockDownloader(ctrl)

	srv := NewServer(serverConfig(), newEndpoint(t, downloader), Options{Logger: zap.NewNop().Sugar()})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	client := resty.New().SetBaseURL(ts.URL)

	t.Run("relays the fetch", func(t *testing.T) {
		downloader.EXPECT().Fetch(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req *model.Request) (*model.Response, error) {
				assert.Equal(t, targetURL, req.URL)
				return &model.Response{
					StatusCode: 201,
					Headers:    http.Header{"X-Target": {"yes"}},
					Body:       []byte("created"),
					URL:        targetURL,
				}, nil
			})

		resp, err := client.R().
			SetFormData(map[string]string{"request": encodedRequest(t), "trace_id": "abc"}).
			Post("/relay")
		require.NoError(t, err)
		assert.Contains(t, resp.Header().Get("Server"), "Intercom/")
		res := decode(t, resp)
		assert.Equal(t, 201, res.StatusCode)
		assert.Equal(t, "created", string(res.Body))
		assert.Equal(t, "yes", res.Headers.Get("X-Target"))
		assert.Nil(t, res.Failure)
	})

	t.Run("relays the fetch failure", func(t *testing.T) {
		downloader.EXPECT().Fetch(gomock.Any(), gomock.Any()).
			Return(nil, model.NewHTTPFailure(context.DeadlineExceeded, targetURL, "93.184.216.34"))

		resp, err := client.R().SetFormData(map[string]string{"request": encodedRequest(t)}).Post("/relay")
		require.NoError(t, err)
		res := decode(t, resp)
		require.NotNil(t, res.Failure)
		assert.Equal(t, model.FailureHTTP, res.Failure.Kind)
		assert.Equal(t, targetURL, res.Failure.LastURL)
		assert.Equal(t, "93.184.216.34", res.Failure.LastIP)
	})

	t.Run("multipart form", func(t *testing.T) {
		downloader.EXPECT().Fetch(gomock.Any(), gomock.Any()).
			Return(&model.Response{StatusCode: 204, URL: targetURL}, nil)

		resp, err := client.R().
			SetMultipartFormData(map[string]string{"request": encodedRequest(t)}).
			Post("/relay")
		require.NoError(t, err)
		assert.Equal(t, 204, decode(t, resp).StatusCode)
	})

	t.Run("missing request", func(t *testing.T) {
		resp, err := client.R().SetFormData(map[string]string{"foo": "bar"}).Post("/relay")
		require.NoError(t, err)
		res := decode(t, resp)
		require.NotNil(t, res.Failure)
		assert.Equal(t, model.FailureMissingInput, res.Failure.Kind)
		assert.Equal(t, "request not found in form", res.Failure.Message)
	})

	t.Run("corrupted request", func(t *testing.T) {
		resp, err := client.R().SetFormData(map[string]string{"request": "!!!"}).Post("/relay")
		require.NoError(t, err)
		res := decode(t, resp)
		require.NotNil(t, res.Failure)
		assert.Equal(t, model.FailureMissingInput, res.Failure.Kind)
		assert.True(t, strings.HasPrefix(res.Failure.Message, "request decode failed: "))
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := client.R().Get("/relay")
		require.NoError(t, err)
		assert.Equal(t, 405, resp.StatusCode())
	})

	t.Run("health", func(t *testing.T) {
		resp, err := client.R().Get("/health")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode())
		assert.JSONEq(t, `{"status":"ok"}`, string(resp.Body()))
	})
}

func TestRequestBodyTooLarge(t *testing.T) {
	cfg := serverConfig()
	cfg.MaxRequestBodySize = 64
	srv := NewServer(cfg, newEndpoint(t, mocks.NewMockDownloader(gomock.NewController(t))), Options{Logger: zap.NewNop().Sugar()})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := resty.New().R().
		SetFormData(map[string]string{"request": strings.Repeat("x", 128)}).
		Post(ts.URL + "/relay")
	require.NoError(t, err)
	res := decode(t, resp)
	require.NotNil(t, res.Failure)
	assert.Equal(t, model.FailureMissingInput, res.Failure.Kind)
	assert.Equal(t, "request body too large (limit 64 bytes)", res.Failure.Message)
}

func TestPanicRecovery(t *testing.T) {
	node := processorFunc(func(ctx context.Context, input relay.Input, out relay.Emitter) *model.Response {
		panic("boom")
	})
	srv := NewServer(serverConfig(), node, Options{Logger: zap.NewNop().Sugar()})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := resty.New().R().SetFormData(map[string]string{"request": "x"}).Post(ts.URL + "/relay")
	require.NoError(t, err)
	res := decode(t, resp)
	require.NotNil(t, res.Failure)
	assert.Equal(t, model.FailureRelay, res.Failure.Kind)
	assert.Equal(t, "panic: boom", res.Failure.Message)
}

func TestAccessLog(t *testing.T) {
	ctrl := gomock.NewController(t)
	downloader := mocks.NewMockDownloader(ctrl)
	downloader.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		Return(nil, model.NewHTTPFailure(context.DeadlineExceeded, targetURL, ""))

	buf := new(bytes.Buffer)
	accessLogger, err := accesslog.NewLogger("endpoint", buf, accesslog.Options{Format: "json"})
	require.NoError(t, err)
	srv := NewServer(serverConfig(), newEndpoint(t, downloader), Options{
		Logger:      zap.NewNop().Sugar(),
		Middlewares: []mux.MiddlewareFunc{accesslog.NewMiddleware(accessLogger)},
	})
	form := url.Values{"request": {encodedRequest(t)}, "trace_id": {"abc"}}
	req := httptest.NewRequest("POST", "/relay", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	var entry accesslog.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "/relay", entry.Request.Path)
	assert.Equal(t, 200, entry.Response.Status)
	assert.Equal(t, accesslog.Relay{TraceID: "abc", Failure: "http", LastURL: targetURL}, entry.Relay)
}

func TestServe(t *testing.T) {
	srv := NewServer(serverConfig(), newEndpoint(t, mocks.NewMockDownloader(gomock.NewController(t))), Options{Logger: zap.NewNop().Sugar()})
	l, err := srv.Listen()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(l)
	}()

	resp, err := resty.New().R().Get("http://" + l.Addr().String() + "/health")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode())

	require.NoError(t, srv.Stop(context.Background()))
	assert.NoError(t, <-done)
}

func TestListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg := serverConfig()
	cfg.Listen = l.Addr().String()
	srv := NewServer(cfg, processorFunc(nil), Options{Logger: zap.NewNop().Sugar()})
	_, err = srv.Listen()
	assert.ErrorContains(t, err, "failed to listen on "+cfg.Listen)
}
