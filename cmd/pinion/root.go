package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pinionhq/pinion/libs/config"
	"github.com/pinionhq/pinion/libs/gitref"
	"github.com/pinionhq/pinion/libs/processor"
)

var (
	workflowsDir string
	dryRun       bool
	backup       bool
	jobs         int
	verbose      bool
	format       string
)

var rootCmd = &cobra.Command{
	Use:   "pinion",
	Short: "Pin GitHub Actions references to immutable commit SHAs",
	Long: `pinion rewrites mutable action references (tags, branches) in GitHub
Actions workflow files to immutable commit SHAs, keeping the original
reference as a trailing comment:

    uses: actions/checkout@v4
becomes
    uses: actions/checkout@b4ffde65f46336ab88eb53be808477a3936bae11 # v4

Already pinned and local references are left untouched.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPin,
}

func init() {
	rootCmd.Flags().StringVarP(&workflowsDir, "workflows-dir", "w", ".github/workflows", "Directory containing workflow files")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would be pinned without modifying files")
	rootCmd.Flags().BoolVarP(&backup, "backup", "b", false, "Keep a .bak copy of each modified file")
	rootCmd.Flags().IntVarP(&jobs, "jobs", "j", processor.DefaultConcurrency, "Maximum concurrent ref lookups")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
}

func runPin(cmd *cobra.Command, args []string) error {
	envConfig, err := config.ParseEnv()
	if err != nil {
		return err
	}
	setupLogging(verbose || envConfig.Debug)

	fileConfig, err := config.Load(".")
	if err != nil {
		return err
	}
	applyFileConfig(cmd, fileConfig)

	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q, expected text or json", format)
	}
	if jobs < 1 {
		return fmt.Errorf("jobs must be positive, got %d", jobs)
	}
	info, err := os.Stat(workflowsDir)
	if err != nil {
		return fmt.Errorf("workflows directory %s not found", workflowsDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", workflowsDir)
	}

	lister, err := newRefLister(fileConfig.Resolver, envConfig)
	if err != nil {
		return err
	}

	proc := processor.New(gitref.NewResolver(lister), processor.Options{
		WorkflowsDir:    workflowsDir,
		DryRun:          dryRun,
		Backup:          backup,
		Concurrency:     jobs,
		ExcludePatterns: fileConfig.ExcludePatterns,
	})

	results, err := proc.Process(cmd.Context())
	if err != nil {
		return err
	}

	switch format {
	case "json":
		out, err := processor.RenderJSON(results)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(processor.RenderText(results))
	}

	if results.Errors > 0 {
		slog.Warn("run completed with errors", "errors", results.Errors)
		os.Exit(1)
	}
	return nil
}

// applyFileConfig fills in settings from pinion.yml for every flag the user
// did not pass explicitly. Flags win over the file, the file wins over
// defaults.
func applyFileConfig(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flag("workflows-dir").Changed && cfg.WorkflowsDir != "" {
		workflowsDir = cfg.WorkflowsDir
	}
	if !cmd.Flag("dry-run").Changed && cfg.DryRun != nil {
		dryRun = *cfg.DryRun
	}
	if !cmd.Flag("backup").Changed && cfg.Backup != nil {
		backup = *cfg.Backup
	}
	if !cmd.Flag("jobs").Changed && cfg.Concurrency != nil {
		jobs = *cfg.Concurrency
	}
}

func newRefLister(resolver string, envConfig *config.EnvConfig) (gitref.RefLister, error) {
	switch resolver {
	case config.ResolverAPI:
		return gitref.NewGithubLister(envConfig.ServerURL, envConfig.Token)
	default:
		return gitref.NewGitLister(envConfig.ServerURL, envConfig.Token), nil
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
