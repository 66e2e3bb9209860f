package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/massung/chip8vm/chip8"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newAsmCommand(opts *Options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "asm SOURCE",
		Short: "Assemble a source file into a ROM image",
		Example: `chip8 asm pong.asm
  chip8 asm pong.asm -o games/PONG`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]

			if output == "" {
				output = strings.TrimSuffix(src, filepath.Ext(src)) + ".ch8"
			}

			asm, err := chip8.ReadSource(opts.Fs, src)
			if err != nil {
				return err
			}

			if err := afero.WriteFile(opts.Fs, output, asm.ROM, 0o644); err != nil {
				return fmt.Errorf("writing rom: %w", err)
			}

			opts.Logger.Info("Assembled",
				log.String("output", output),
				log.Int("bytes", len(asm.ROM)),
				log.Int("labels", len(asm.Labels)))

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "ROM file to write (default SOURCE with .ch8 extension)")

	return cmd
}

func newDisasmCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "disasm ROM",
		Short: "Print a listing of a ROM image that can be assembled again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := chip8.LoadFile(opts.Fs, args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), chip8.Listing(program))
			return err
		},
	}
}

func newConfigCommand(opts *Options) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the configuration in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if save {
				if err := opts.Config.Save(opts.Fs, opts.ConfigFile); err != nil {
					return err
				}

				opts.Logger.Info("Configuration saved", log.String("file", opts.ConfigFile))
				return nil
			}

			return opts.Config.Write(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write the configuration to the --config file")

	return cmd
}

func newVersionCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "chip8", opts.Version)
			return err
		},
	}
}
