package cmd

import (
	. "github.com/onsi/ginkgo/v2"
	"github.com/stretchr/testify/assert"
	"github.com/webhookx-io/intercom/cmd"
)

var _ = Describe("version", Ordered, func() {
	It("outputs version", func() {
		output, err := executeCommand(cmd.NewRootCmd(), "version")
		assert.Nil(GinkgoT(), err)
		assert.Equal(GinkgoT(), "Intercom dev (unknown)\n", output)
	})
})
