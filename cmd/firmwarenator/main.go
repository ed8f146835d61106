// Package main provides the firmwarenator CLI entrypoint.
//
// firmwarenator builds a firmware image containing only the firmware the
// running kernel actually loaded, discovered from the kernel ring buffer.
//
// Usage:
//
//	firmwarenator [options] IMGNAME
//
// Exit codes:
//   - 0: success, or help/version display
//   - 1: any usage, configuration, preflight, staging, or packaging error
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/firmwarenator/firmwarenator/cli/cmd"
	"github.com/firmwarenator/firmwarenator/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	cli.VersionFlag = cmd.VersionFlag

	app := &cli.App{
		Name:           "firmwarenator",
		Usage:          "Build a firmware archive or image from kernel-loaded firmware",
		ArgsUsage:      "IMGNAME",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		Flags:          cmd.Flags(),
		Action:         cmd.BuildAction,
		ExitErrHandler: exitErrHandler,
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from
// cli.Exit() so the 0/1 exit contract holds.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	// Unexpected error - print and exit with code 1
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
