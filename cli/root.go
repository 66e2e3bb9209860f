package cli

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/massung/chip8vm/chip8"
	"github.com/massung/chip8vm/config"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

/// Options are the global flags and the state every command shares once
/// they are parsed.
///
type Options struct {
	ConfigFile string
	Debug      bool
	Quiet      bool

	/// CyclesPerSecond and Seed override the configuration when set.
	///
	CyclesPerSecond int
	Seed            int64

	/// Fs is where programs and configuration are read from.
	///
	Fs afero.Fs

	/// Version is printed by the version command.
	///
	Version string

	Logger *log.Logger
	Config config.Config
}

/// NewRootCommand returns the chip8 command with every host independent
/// subcommand added.
///
func NewRootCommand(opts *Options) *cobra.Command {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	root := &cobra.Command{
		Use:           "chip8",
		Short:         "CHIP-8 assembler and virtual machine",
		Long:          "Assemble, disassemble and run CHIP-8 programs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd.Flags())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", config.DefaultFile, "configuration file")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debug logging")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "only log errors")
	flags.IntVar(&opts.CyclesPerSecond, "cps", 0, "instructions executed per second")
	flags.Int64Var(&opts.Seed, "seed", 0, "random number seed, 0 seeds from the clock")

	root.AddCommand(
		newAsmCommand(opts),
		newDisasmCommand(opts),
		newTermCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(opts),
	)

	return root
}

/// setup creates the logger and loads the configuration, applying any
/// flags that override it.
///
func (opts *Options) setup(flags *pflag.FlagSet) error {
	opts.Logger = config.CreateLogger(opts.Debug, opts.Quiet)

	cfg, err := config.Load(opts.Fs, opts.ConfigFile)
	if err != nil {
		return err
	}

	if flags.Changed("cps") {
		cfg.CyclesPerSecond = opts.CyclesPerSecond
	}
	if flags.Changed("seed") {
		cfg.Seed = opts.Seed
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	opts.Config = cfg

	opts.Logger.Debug("Configuration loaded",
		log.String("file", opts.ConfigFile),
		log.Int("cycles_per_second", cfg.CyclesPerSecond))

	return nil
}

/// Machine loads a ROM image or source file into a new virtual machine.
///
func (opts *Options) Machine(name string, display chip8.Display, input chip8.Input) (*chip8.VM, error) {
	program, err := chip8.LoadFile(opts.Fs, name)
	if err != nil {
		return nil, err
	}

	vm, err := chip8.LoadROM(program, display, input)
	if err != nil {
		return nil, err
	}

	seed := opts.Config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	vm.Rand = rand.New(rand.NewSource(seed))

	opts.Logger.Info("Program loaded",
		log.String("file", name),
		log.Int("bytes", len(program)))

	return vm, nil
}
