package main

import (
	"fmt"
	"os"

	"github.com/arin/chatbot-llm/cmd"
	"github.com/arin/chatbot-llm/internal/exitcode"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		code := exitcode.Code(err)
		if code != exitcode.Cancelled {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(code)
	}
}
