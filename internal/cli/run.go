package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"verita/internal/config"
	"verita/internal/gitx"
	"verita/internal/logging"
	"verita/internal/runner"
)

var runOpts runner.Options

var runCmd = &cobra.Command{
	Use:   "run --verus-repo <path> <config.toml>",
	Short: "Execute a verification run from a configuration file",
	Long: `Execute a verification run.

The configuration file lists the verifier's source provenance and the
projects to verify; see the repository documentation for the format. Targets
are processed strictly one at a time, in configuration order, so report
timings reflect a single verifier invocation in isolation.

Exit codes:
	0 = the run executed (individual projects may still have failed; see the
	    summary and the per-target report files)
	1 = setup error: required binaries or configuration missing or invalid

Environment passed to the verifier:
	VERUS_Z3_PATH, VERUS_CVC5_PATH, and (with --singular) VERUS_SINGULAR_PATH`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup failures below are the only non-zero exits; cobra prints the
		// returned error and Execute exits 1.
		cmd.SilenceUsage = true

		log, err := logging.New(debugLevel)
		if err != nil {
			return fmt.Errorf("cannot initialize logging: %w", err)
		}
		defer log.Sync() //nolint:errcheck // stderr sync failure is unreportable

		if !gitx.Installed() {
			return fmt.Errorf("git is required but not found on PATH")
		}

		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}

		runOpts.KeepWork = debugLevel > 0
		rc, err := runner.NewContext(cfg, runOpts, log)
		if err != nil {
			return err
		}

		summary, err := runner.Run(rc)
		if err != nil {
			return err
		}
		summary.Print(os.Stdout)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runOpts.VerusRepo, "verus-repo", "", "Base of the Verus repository holding a release build (required)")
	runCmd.Flags().StringVar(&runOpts.SingularPath, "singular", "", "Path to an external Singular binary for integer-ring solving")
	runCmd.Flags().StringVar(&runOpts.Label, "label", "", "Run label recorded in every report (default: run timestamp)")
	runCmd.Flags().StringVar(&runOpts.OutputDir, "out", "", "Directory for per-target report files (default: verita-output/<label>)")
	runCmd.Flags().BoolVar(&runOpts.RunIgnored, "run-ignored", false, "Also run projects marked ignore = true")
	_ = runCmd.MarkFlagRequired("verus-repo")
}
