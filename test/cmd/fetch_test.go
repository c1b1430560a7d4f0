package cmd

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/webhookx-io/intercom/app"
	"github.com/webhookx-io/intercom/cmd"
	"github.com/webhookx-io/intercom/config/modules"
	"github.com/webhookx-io/intercom/test/helper"
)

var _ = Describe("fetch", Ordered, func() {
	var target *httptest.Server
	var endpoint *app.Application
	var configFile string

	BeforeAll(func() {
		var err error
		target = helper.NewTarget()
		endpoint, err = helper.Start(helper.NewConfig(modules.RoleEndpoint, 0))
		Expect(err).To(BeNil())

		configFile = filepath.Join(GinkgoT().TempDir(), "client.yml")
		content := fmt.Sprintf("node:\n  next_hop: %s\n  internal_hops: 1\n", helper.URL(endpoint))
		Expect(os.WriteFile(configFile, []byte(content), 0600)).To(Succeed())
	})

	AfterAll(func() {
		helper.Stop(endpoint)
		target.Close()
	})

	It("prints the relayed body", func() {
		output, err := executeCommand(cmd.NewRootCmd(), "fetch", "--config", configFile, target.URL+"/ok")
		Expect(err).To(BeNil())
		Expect(output).To(Equal("hello"))
	})

	It("prints the relayed status and headers", func() {
		output, err := executeCommand(cmd.NewRootCmd(), "fetch", "--config", configFile, "-i", target.URL+"/ok")
		Expect(err).To(BeNil())
		Expect(output).To(HavePrefix("HTTP 200 OK\n"))
		Expect(output).To(ContainSubstring("X-Target: ok\n"))
		Expect(output).To(HaveSuffix("\n\nhello"))
	})

	It("posts data", func() {
		output, err := executeCommand(cmd.NewRootCmd(), "fetch",
			"--next-hop", helper.URL(endpoint), "--internal-hops", "1",
			"-H", "X-Key: secret", "-d", "foo=bar", "-i", target.URL+"/echo")
		Expect(err).To(BeNil())
		Expect(output).To(HavePrefix("HTTP 201 Created\n"))
		Expect(output).To(ContainSubstring("X-Key: secret\n"))
		Expect(output).To(ContainSubstring("X-Method: POST\n"))
		Expect(output).To(HaveSuffix("foo=bar"))
	})

	It("fails with the relay failure", func() {
		unreachable := helper.ClosedURL()
		output, err := executeCommand(cmd.NewRootCmd(), "fetch", "--config", configFile, unreachable)
		Expect(err).NotTo(BeNil())
		Expect(err.Error()).To(HavePrefix("http: "))
		Expect(err.Error()).To(HaveSuffix("(" + unreachable + ")"))
		Expect(output).To(ContainSubstring("Error: http: "))
	})

	It("fails with internal_link when the endpoint is unreachable", func() {
		unreachable := helper.ClosedURL()
		_, err := executeCommand(cmd.NewRootCmd(), "fetch", "--next-hop", unreachable, target.URL+"/ok")
		Expect(err).NotTo(BeNil())
		Expect(err.Error()).To(HavePrefix("internal_link: "))
	})

	It("requires a next hop", func() {
		_, err := executeCommand(cmd.NewRootCmd(), "fetch", target.URL+"/ok")
		Expect(err).To(MatchError("invalid configuration: next_hop is required for role 'client'"))
	})
})
