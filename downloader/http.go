package downloader

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/netip"
	"net/url"
	"sync"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/webhookx-io/intercom/constants"
	"github.com/webhookx-io/intercom/model"
	"github.com/webhookx-io/intercom/relay"
	"go.uber.org/zap"
)

var _ relay.Downloader = &HTTPDownloader{}

type Options struct {
	Logger *zap.SugaredLogger
	// RequestTimeout applies to requests without a request timeout
	RequestTimeout time.Duration
	MaxRedirects   int
	ACL            AclOptions
	// RootCAs verifies peers, nil selects the system pool
	RootCAs *x509.CertPool
}

type ProxyOptions struct {
	URL string
}

// HTTPDownloader fetches requests over HTTP. Each fetch uses its own
// connection, bound to the outgoing IP and TLS settings of the request.
type HTTPDownloader struct {
	log            *zap.SugaredLogger
	defaultTimeout time.Duration
	maxRedirects   int
	acl            *ACL
	rootCAs        *x509.CertPool
	proxy          *url.URL
}

func NewHTTPDownloader(opts Options) *HTTPDownloader {
	log := opts.Logger
	if log == nil {
		log = zap.S()
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = constants.DefaultMaxRedirects
	}
	return &HTTPDownloader{
		log:            log.Named("downloader"),
		defaultTimeout: opts.RequestTimeout,
		maxRedirects:   maxRedirects,
		acl:            NewACL(opts.ACL),
		rootCAs:        opts.RootCAs,
	}
}

// SetupProxy routes every fetch through an HTTP(S) proxy
func (d *HTTPDownloader) SetupProxy(opts ProxyOptions) error {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return fmt.Errorf("invalid proxy url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("proxy schema must be http or https")
	}
	d.proxy = u
	return nil
}

// attempt tracks where the last connection attempt of a fetch went
type attempt struct {
	mu  sync.Mutex
	url string
	ip  string
}

func (a *attempt) setURL(u string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.url = u
}

func (a *attempt) setAddr(addr string) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ip = host
}

func (a *attempt) get() (string, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.url, a.ip
}

func (a *attempt) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		ConnectStart: func(network, addr string) {
			a.setAddr(addr)
		},
		GotConn: func(info httptrace.GotConnInfo) {
			a.setAddr(info.Conn.RemoteAddr().String())
		},
	}
}

func (d *HTTPDownloader) Fetch(ctx context.Context, req *model.Request) (*model.Response, error) {
	a := &attempt{url: req.URL}

	transport, err := d.transport(req)
	if err != nil {
		return nil, model.NewHTTPFailure(err, req.URL, "")
	}
	defer transport.CloseIdleConnections()

	client := resty.NewWithClient(&http.Client{Transport: transport}).
		SetLogger(d.log).
		SetTimeout(d.timeout(req)).
		SetRedirectPolicy(d.redirectPolicy(req, a))

	r := client.R().SetContext(httptrace.WithClientTrace(ctx, a.trace()))
	for _, header := range constants.DefaultDownloaderRequestHeaders {
		r.SetHeader(header.Name, header.Value)
	}
	for name, values := range req.Headers {
		r.Header.Del(name)
		for _, value := range values {
			r.Header.Add(name, value)
		}
	}
	if req.HasPostFields() {
		r.SetFormDataFromValues(req.PostFields)
	} else if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	d.log.Debugf("fetching %s %s", req.Method, req.URL)
	resp, err := r.Execute(req.Method, req.URL)
	lastURL, lastIP := a.get()
	if err != nil {
		return nil, model.NewHTTPFailure(unwrapURLError(err), lastURL, lastIP)
	}

	return &model.Response{
		StatusCode: resp.StatusCode(),
		Headers:    resp.Header(),
		Body:       resp.Body(),
		URL:        lastURL,
	}, nil
}

func (d *HTTPDownloader) timeout(req *model.Request) time.Duration {
	if req.RequestTimeoutMs > 0 {
		return time.Duration(req.RequestTimeoutMs) * time.Millisecond
	}
	return d.defaultTimeout
}

func (d *HTTPDownloader) redirectPolicy(req *model.Request, a *attempt) resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(r *http.Request, via []*http.Request) error {
		if !req.FollowLocation {
			return http.ErrUseLastResponse
		}
		if len(via) >= d.maxRedirects {
			return fmt.Errorf("stopped after %d redirects", d.maxRedirects)
		}
		a.setURL(r.URL.String())
		return nil
	})
}

func (d *HTTPDownloader) transport(req *model.Request) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout: time.Duration(req.ConnectTimeoutMs) * time.Millisecond,
	}
	if req.OutgoingIP != "" {
		ip := net.ParseIP(req.OutgoingIP)
		if ip == nil {
			return nil, fmt.Errorf("invalid outgoing ip: '%s'", req.OutgoingIP)
		}
		dialer.LocalAddr = &net.TCPAddr{IP: ip}
	}
	if !d.acl.Empty() {
		dialer.Control = func(network, address string, c syscall.RawConn) error {
			addrPort, err := netip.ParseAddrPort(address)
			if err != nil {
				return err
			}
			if !d.acl.AllowAddr(addrPort.Addr()) {
				return fmt.Errorf("%w: %s", ErrDenied, addrPort.Addr())
			}
			return nil
		}
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			if !d.acl.AllowHost(host) {
				return nil, fmt.Errorf("%w: %s", ErrDenied, host)
			}
			return dialer.DialContext(ctx, network, addr)
		},
		TLSClientConfig:     d.tlsConfig(req),
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
		DisableKeepAlives:   true,
	}
	if d.proxy != nil {
		transport.Proxy = http.ProxyURL(d.proxy)
	}
	return transport, nil
}

func (d *HTTPDownloader) tlsConfig(req *model.Request) *tls.Config {
	cfg := &tls.Config{RootCAs: d.rootCAs}
	if !req.VerifyPeer {
		cfg.InsecureSkipVerify = true
		return cfg
	}
	if !req.VerifyHost {
		// verify the chain but not the host name
		cfg.InsecureSkipVerify = true
		cfg.VerifyConnection = func(cs tls.ConnectionState) error {
			if len(cs.PeerCertificates) == 0 {
				return errors.New("tls: no peer certificate")
			}
			opts := x509.VerifyOptions{
				Roots:         d.rootCAs,
				Intermediates: x509.NewCertPool(),
			}
			for _, cert := range cs.PeerCertificates[1:] {
				opts.Intermediates.AddCert(cert)
			}
			_, err := cs.PeerCertificates[0].Verify(opts)
			return err
		}
	}
	return cfg
}

// unwrapURLError strips the method and URL net/http prefixes errors with,
// the failure already carries the URL.
func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
