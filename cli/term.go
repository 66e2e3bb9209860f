package cli

import (
	"context"
	"errors"

	"github.com/gdamore/tcell"
	"github.com/massung/chip8vm/chip8"
	"github.com/massung/chip8vm/host"
	"github.com/massung/chip8vm/terminal"
	"github.com/spf13/cobra"
)

/// newScreen opens the terminal the term command draws to.
///
var newScreen = tcell.NewScreen

func newTermCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "term ROM",
		Short: "Run a ROM image or source file in the terminal",
		Long: `Run a ROM image or source file in the terminal.

Files ending in .asm, .s or .c8s are assembled first. Keys are mapped to
the hex pad by the configuration. Escape quits and Backspace resets.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			display := chip8.NewScreen()
			keypad := chip8.NewKeypad()

			vm, err := opts.Machine(args[0], display, keypad)
			if err != nil {
				return err
			}

			screen, err := newScreen()
			if err != nil {
				return err
			}

			term, err := terminal.New(screen, vm, keypad, opts.Config)
			if err != nil {
				return err
			}
			defer term.Close()

			term.Log.Logf("Running %s", args[0])

			loop := host.New(vm, term, opts.Logger, opts.Config.CyclesPerSecond)

			err = loop.Run(cmd.Context())
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}

			return err
		},
	}
}
