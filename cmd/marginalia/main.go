// Command marginalia renders, inspects, and interactively views
// annotated document bundles: coded text, highlights, and memos over a
// plain or transcript document.
//
// Usage:
//
//	marginalia render <bundle> [--to html|text] [--out FILE]
//	marginalia view <bundle> [--watch]
//	marginalia search <bundle> <query> [--word] [--context N]
//	marginalia inspect <bundle>
//	marginalia validate <bundle>
//	marginalia test <scenarios-dir> [--filter GLOB] [--update]
//	marginalia replay <bundle> <events.yaml> [--check]
//
// Exit codes follow one discipline across commands: 0 for success, 1
// for data failures (invalid bundles, failed scenarios, diverging
// replays), 2 for command errors (missing files, bad flags).
package main

import (
	"fmt"
	"os"

	"github.com/roach88/marginalia/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
