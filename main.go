package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/massung/chip8vm/cli"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func init() {
	// SDL must be driven from the main thread
	runtime.LockOSThread()
}

func main() {
	ctx := app.Context()

	opts := &cli.Options{
		Version: buildinfo.Version(version, commit, date),
	}

	root := cli.NewRootCommand(opts)
	root.AddCommand(newRunCommand(opts))

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}

		if opts.Logger != nil {
			opts.Logger.Error(err.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRunCommand(opts *cli.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run ROM",
		Short: "Run a ROM image or source file in a window",
		Long: `Run a ROM image or source file in a window.

Files ending in .asm, .s or .c8s are assembled first. Keys are mapped to
the hex pad by the configuration. Backspace resets, F3 opens another
program and Escape quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), opts, args[0])
		},
	}
}
