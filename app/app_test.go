package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webhookx-io/intercom/config"
	"github.com/webhookx-io/intercom/config/modules"
	"github.com/webhookx-io/intercom/relay"
)

func newConfig(t *testing.T) *config.Config {
	cfg := config.New()
	cfg.Log.File = filepath.Join(t.TempDir(), "intercom.log")
	cfg.Server.Listen = "127.0.0.1:0"
	return cfg
}

func TestApplication(t *testing.T) {
	cfg := newConfig(t)
	cfg.AccessLog.Enabled = true
	cfg.AccessLog.File = filepath.Join(t.TempDir(), "access.log")

	app, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg, app.Config())
	assert.IsType(t, &relay.Endpoint{}, app.Node())
	assert.Equal(t, ErrApplicationStopped, app.Stop())
	assert.Equal(t, ErrApplicationStopped, app.Wait())

	require.NoError(t, app.Start())
	assert.Equal(t, ErrApplicationStarted, app.Start())

	resp, err := resty.New().R().Get("http://" + app.Addr().String() + "/health")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode())

	require.NoError(t, app.Stop())
	assert.NoError(t, app.Wait())

	b, err := os.ReadFile(cfg.AccessLog.File)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"GET /health HTTP/1.1" 200`)
}

func TestDispatcherApplication(t *testing.T) {
	cfg := newConfig(t)
	cfg.Node.Role = modules.RoleDispatcher
	cfg.Node.InternalHops = 1
	cfg.Node.Destinations = []modules.Destination{
		{URL: "http://10.0.0.1:9700/", IPs: []string{"10.0.1.1"}},
	}

	app, err := New(cfg)
	require.NoError(t, err)
	d, ok := app.Node().(*relay.Dispatcher)
	require.True(t, ok)
	assert.Equal(t, []relay.Destination{{URL: "http://10.0.0.1:9700/", IPs: []string{"10.0.1.1"}}}, d.Destinations())
	assert.Equal(t, relay.Budget{Hops: 2, OverheadMs: 1000}, d.Budget())
	assert.Equal(t, "dispatcher", d.Name())
}

func TestClientRole(t *testing.T) {
	cfg := newConfig(t)
	cfg.Node.Role = modules.RoleClient
	cfg.Node.NextHop = "http://10.0.0.1:9700/"
	cfg.Node.InternalHops = 2

	_, err := New(cfg)
	assert.Equal(t, ErrNotServable, err)

	client, err := NewClient(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:9700/", client.NextHop())
	assert.Equal(t, relay.Budget{Hops: 3, OverheadMs: 1000}, client.Budget())
}

func TestNewDownloader(t *testing.T) {
	cfg := modules.DownloaderConfig{Timeout: 1000, Proxy: "socks5://127.0.0.1:1080"}
	_, err := NewDownloader(cfg, nil)
	assert.EqualError(t, err, "proxy schema must be http or https")

	cfg = modules.DownloaderConfig{CACert: filepath.Join(t.TempDir(), "missing.pem")}
	_, err = NewDownloader(cfg, nil)
	assert.ErrorContains(t, err, "failed to read ca_cert")

	invalid := filepath.Join(t.TempDir(), "invalid.pem")
	require.NoError(t, os.WriteFile(invalid, []byte("not a certificate"), 0600))
	cfg = modules.DownloaderConfig{CACert: invalid}
	_, err = NewDownloader(cfg, nil)
	assert.EqualError(t, err, "no certificate found in '"+invalid+"'")

	d, err := NewDownloader(modules.DownloaderConfig{Proxy: "http://127.0.0.1:3128"}, nil)
	assert.NoError(t, err)
	assert.NotNil(t, d)
}

func TestInvalidLogConfig(t *testing.T) {
	cfg := newConfig(t)
	cfg.Log.Level = "verbose"
	_, err := New(cfg)
	assert.Error(t, err)
}
