package main

import (
	"os"

	"github.com/aussiebroadwan/portalgate/cmd/gatectl/cmd"
	"github.com/pkg/browser"
)

func main() {
	// Keep stdout for command output.
	browser.Stdout = os.Stderr

	cmd.Execute()
}
