package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rvjit/interp"
	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/jit"
	"github.com/sarchlab/rvjit/loader"
	"github.com/sarchlab/rvjit/sandbox"
)

func newCompileCmd(opts *options) *cobra.Command {
	var showIR bool

	cmd := &cobra.Command{
		Use:   "compile <listing>",
		Short: "Print the RV64 code generated for each block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			prog, err := loader.Load(args[0])
			if err != nil {
				return err
			}

			compOpts, err := cfg.CompilerOptions()
			if err != nil {
				return err
			}
			compOpts = append(compOpts, jit.WithLogger(opts.logger(cmd.ErrOrStderr())))
			trans := jit.NewTranslator(cfg.Caps(), cfg.BlockCache, compOpts...)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "caps: %s\n", describeCaps(cfg))
			for _, blk := range prog.Blocks {
				b, err := trans.Translate(blk.Addr, blk.Insts)
				if err != nil {
					return err
				}
				printBlock(out, b, cfg.CodeBase, showIR)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showIR, "ir", false, "Print the IR of each block before its code")

	return cmd
}

func printBlock(w io.Writer, b *jit.CompiledBlock, base uint64, showIR bool) {
	fmt.Fprintf(w, "\nblock %#x: %d IR, %d native, %d deferred, %d bytes\n",
		b.Addr, len(b.Insts), b.Stats.Total()-countDeferred(b.Stats), countDeferred(b.Stats), len(b.Code))
	if showIR {
		for _, inst := range b.Insts {
			fmt.Fprintf(w, "    ; %s\n", inst)
		}
	}
	for _, line := range b.Disassemble(base) {
		fmt.Fprintf(w, "    %s\n", line)
	}
	for i, inst := range b.Thunks {
		fmt.Fprintf(w, "    thunk %d: %s\n", i, inst)
	}
}

func countDeferred(s jit.Stats) int {
	n := 0
	for _, v := range s.Deferred {
		n += v
	}
	return n
}

func newRunCmd(opts *options) *cobra.Command {
	var (
		sets    []string
		compare bool
		verify  bool
	)

	cmd := &cobra.Command{
		Use:   "run <listing>",
		Short: "Run a listing on the emulator and print the final registers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			prog, err := loader.Load(args[0])
			if err != nil {
				return err
			}
			if err := applySets(&prog.Init, sets); err != nil {
				return err
			}

			m, err := sandbox.New(cfg,
				sandbox.WithLogger(opts.logger(cmd.ErrOrStderr())),
				sandbox.WithVerify(verify))
			if err != nil {
				return err
			}

			report, err := m.Run(prog)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printReport(out, report)

			if !compare {
				return nil
			}
			want, err := sandbox.Interpret(prog)
			if err != nil {
				return err
			}
			diffs := sandbox.Diff(want, report.Final)
			if len(diffs) == 0 {
				fmt.Fprintln(out, "interpreter: match")
				return nil
			}
			fmt.Fprintln(out, "interpreter: MISMATCH (want -> got)")
			for _, d := range diffs {
				fmt.Fprintf(out, "    %s\n", d)
			}
			return fmt.Errorf("%d registers differ from the interpreter", len(diffs))
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Initial register value, e.g. r5=0x7fffffff (repeatable)")
	cmd.Flags().BoolVar(&compare, "compare", false, "Check the result against the IR interpreter")
	cmd.Flags().BoolVar(&verify, "verify", true, "Check normalized claims at the end of every block")

	return cmd
}

// applySets parses reg=value assignments into ctx.
func applySets(ctx *interp.Context, sets []string) error {
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("bad --set %q: want reg=value", s)
		}
		if err := loader.Assign(ctx, name, value); err != nil {
			return fmt.Errorf("bad --set %q: %w", s, err)
		}
	}
	return nil
}

func printReport(w io.Writer, report *sandbox.Report) {
	var hostInsts, thunks uint64
	for _, b := range report.Blocks {
		hostInsts += b.Instructions
		thunks += b.ThunksRun
	}
	stats := report.Stats()

	fmt.Fprintf(w, "blocks: %d, IR: %d (%d deferred), host instructions: %d, thunks run: %d\n",
		len(report.Blocks), stats.Total(), countDeferred(stats), hostInsts, thunks)

	for i, v := range report.Final.GPR {
		if v != 0 {
			fmt.Fprintf(w, "%-4s 0x%08x\n", ir.Reg(i), v)
		}
	}
	fmt.Fprintf(w, "%-4s 0x%08x\n", "lo", report.Final.Lo)
	fmt.Fprintf(w, "%-4s 0x%08x\n", "hi", report.Final.Hi)
}

func newFamiliesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "families",
		Short: "List the op families accepted by --disable",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, f := range ir.AllFamilies() {
				names := make([]string, 0, len(f.Ops()))
				for _, op := range f.Ops() {
					names = append(names, op.String())
				}
				fmt.Fprintf(out, "%-10s %s\n", f, strings.Join(names, " "))
			}
		},
	}
}
