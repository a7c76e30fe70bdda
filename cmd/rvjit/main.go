// Package main provides the rvjit command, which compiles IR listings to
// RV64 code and runs them on the built-in emulator.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/sarchlab/rvjit/config"
)

// options holds the flags shared by every subcommand.
type options struct {
	configPath string
	zbb        bool
	ptrMath    bool
	debug      bool
	detect     bool
	disable    []string
	verbosity  int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "rvjit",
		Short: "IR to RV64 code generator",
		Long: `rvjit compiles blocks of 32-bit guest IR to RV64 machine code, runs
the result on a built-in RV64 emulator, and checks it against the IR
interpreter.`,
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to JSON configuration file")
	flags.BoolVar(&opts.zbb, "zbb", false, "Use the Zbb bit-manipulation extension")
	flags.BoolVar(&opts.ptrMath, "ptr-math", false, "Allow constant adds on pointer-mode registers")
	flags.BoolVar(&opts.debug, "debug", false, "Panic on routing errors instead of deferring")
	flags.BoolVar(&opts.detect, "detect", false, "Enable the extensions the host CPU has")
	flags.StringSliceVar(&opts.disable, "disable", nil, "Op families to send to the fallback (or \"all\")")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "Log verbosity (repeat for more)")

	rootCmd.AddCommand(newCompileCmd(opts))
	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newFamiliesCmd())

	return rootCmd
}

// loadConfig layers the config file, the environment, and the flags that
// were set explicitly.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(o.configPath); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	if o.detect {
		caps := config.DetectCaps()
		cfg.Zbb = cfg.Zbb || caps.Zbb
	}

	flags := cmd.Flags()
	if flags.Changed("zbb") {
		cfg.Zbb = o.zbb
	}
	if flags.Changed("ptr-math") {
		cfg.AllowPointerMath = o.ptrMath
	}
	if flags.Changed("debug") {
		cfg.Debug = o.debug
	}
	cfg.Disabled = append(cfg.Disabled, o.disable...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// logger writes structured log lines to w at the selected verbosity.
func (o *options) logger(w io.Writer) logr.Logger {
	if o.verbosity == 0 {
		return logr.Discard()
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: o.verbosity - 1})
}

func describeCaps(cfg *config.Config) string {
	var parts []string
	if cfg.Zbb {
		parts = append(parts, "zbb")
	}
	if cfg.AllowPointerMath {
		parts = append(parts, "ptr-math")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
