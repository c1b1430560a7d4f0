package cmd

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/webhookx-io/intercom/app"
	"github.com/webhookx-io/intercom/config/modules"
	"github.com/webhookx-io/intercom/model"
	"github.com/webhookx-io/intercom/pkg/log"
	"github.com/webhookx-io/intercom/utils"
	"go.uber.org/zap"
)

type fetchOptions struct {
	method           string
	headers          []string
	data             string
	connectTimeoutMs int64
	requestTimeoutMs int64
	insecure         bool
	location         bool
	include          bool
	nextHop          string
	internalHops     int
}

func newFetchCmd() *cobra.Command {
	opts := fetchOptions{}

	fetch := &cobra.Command{
		Use:   "fetch URL",
		Short: "Fetch a URL through the relay chain",
		Long: `Fetch a URL through the relay chain starting at node.next_hop.

The relayed response status, headers and body are printed to stdout.
A failed relay prints its failure kind, message and last URL and exits 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configurationFile)
			if err != nil {
				return err
			}
			cfg.Node.Role = modules.RoleClient
			if opts.nextHop != "" {
				cfg.Node.NextHop = opts.nextHop
			}
			if cmd.Flags().Changed("internal-hops") {
				cfg.Node.InternalHops = opts.internalHops
			}
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "invalid configuration")
			}

			logger := zap.NewNop().Sugar()
			if verbose {
				cfg.Log.Level = modules.LogLevelDebug
				cfg.Log.File = "stderr"
				logger, err = log.NewZapLogger(&cfg.Log)
				if err != nil {
					return err
				}
			}

			client, err := app.NewClient(cfg, logger)
			if err != nil {
				return err
			}

			req, err := opts.request(args[0])
			if err != nil {
				return err
			}

			res, err := client.Fetch(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), res, opts.include)
		},
	}

	flags := fetch.Flags()
	flags.StringVarP(&opts.method, "request", "X", "", "The request method, GET or POST (with --data) by default")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "A request header 'Name: value', repeatable")
	flags.StringVarP(&opts.data, "data", "d", "", "The request body")
	flags.Int64VarP(&opts.connectTimeoutMs, "connect-timeout", "", 10000, "The connect timeout in milliseconds")
	flags.Int64VarP(&opts.requestTimeoutMs, "timeout", "", 20000, "The request timeout in milliseconds, 0 selects the downloader default")
	flags.BoolVarP(&opts.insecure, "insecure", "k", false, "Skip TLS verification of the target")
	flags.BoolVarP(&opts.location, "location", "L", false, "Follow redirects of the target")
	flags.BoolVarP(&opts.include, "include", "i", false, "Print the response status and headers")
	flags.StringVarP(&opts.nextHop, "next-hop", "", "", "The first relay of the chain, overrides node.next_hop")
	flags.IntVarP(&opts.internalHops, "internal-hops", "", 0, "The number of relays of the chain, overrides node.internal_hops")

	return fetch
}

func (opts *fetchOptions) request(target string) (*model.Request, error) {
	method := opts.method
	if method == "" {
		method = http.MethodGet
		if opts.data != "" {
			method = http.MethodPost
		}
	}

	req := model.NewRequest(strings.ToUpper(method), target)
	for _, line := range opts.headers {
		name, value, err := utils.ParseHeader(line)
		if err != nil {
			return nil, err
		}
		req.Headers.Add(name, value)
	}
	if opts.data != "" {
		req.Body = []byte(opts.data)
		if req.Headers.Get("Content-Type") == "" {
			req.Headers.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	req.ConnectTimeoutMs = opts.connectTimeoutMs
	req.RequestTimeoutMs = opts.requestTimeoutMs
	req.FollowLocation = opts.location
	if opts.insecure {
		req.VerifyPeer = false
		req.VerifyHost = false
	}
	return req, nil
}

func printResponse(w io.Writer, res *model.Response, include bool) error {
	if include {
		if _, err := fmt.Fprintf(w, "HTTP %d %s\n", res.StatusCode, http.StatusText(res.StatusCode)); err != nil {
			return err
		}
		names := make([]string, 0, len(res.Headers))
		for name := range res.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, value := range res.Headers[name] {
				if _, err := fmt.Fprintf(w, "%s: %s\n", name, value); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := w.Write(res.Body)
	return err
}
