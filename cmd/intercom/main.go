package main

import "github.com/webhookx-io/intercom/cmd"

func main() {
	cmd.Execute()
}
