// pattern: Imperative Shell
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	"wtforge/internal/allocate"
	"wtforge/internal/config"
	"wtforge/internal/gitx"
	"wtforge/internal/lockfile"
	"wtforge/internal/logging"
	"wtforge/internal/meta"
	syncer "wtforge/internal/sync"
)

// ignoreBlock is appended once to the target's .gitignore so worktree
// artifacts never get committed.
const ignoreBlock = `# wtforge worktree artifacts
.worktrees/
.wtforge/
`

// workflowScripts is the command table merged into the target's
// package.json scripts. Keys the project already customized keep
// their values only if they match; everything else is brought up to
// date without removing project-owned entries.
var workflowScripts = map[string]string{
	"wt:create": "wtforge worktree create",
	"wt:merge":  "wtforge merge",
	"wt:ports":  "wtforge ports",
}

type installFlags struct {
	target     string
	template   string
	force      bool
	dryRun     bool
	withDeploy bool
	skipGroups []string
	varPairs   []string
}

func parseInstallFlags(name string, args []string) (installFlags, error) {
	var f installFlags
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&f.target, "target", ".", "target repository root")
	fs.StringVar(&f.template, "template", "", "template tree root (default: <target>/.wtforge/templates)")
	fs.BoolVar(&f.force, "force", false, "overwrite protected files")
	fs.BoolVar(&f.dryRun, "dry-run", false, "report what would change without writing")
	fs.BoolVar(&f.withDeploy, "with-deploy", false, "install deployment infrastructure")
	fs.StringArrayVar(&f.skipGroups, "skip", nil, "template group to leave out (repeatable)")
	fs.StringArrayVar(&f.varPairs, "var", nil, "extra substitution variable KEY=VALUE (repeatable)")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

func runInstall(args []string) error {
	f, err := parseInstallFlags("install", args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(f.target)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flagVars, err := parseVarFlags(f.varPairs)
	if err != nil {
		return err
	}

	logManager, err := newLogManager(f.target, cfg)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer func() { _ = logManager.Close() }()

	fl, err := lockfile.Acquire(f.target)
	if err != nil {
		return err
	}
	defer lockfile.Release(fl)

	return install(context.Background(), cfg, f, flagVars, logManager.For("install"))
}

// install runs the full installation sequence: pre-flight validation,
// template sync, ignore-file and script-table mutations, and the
// metadata record update when the target is a provisioned worktree.
func install(ctx context.Context, cfg config.Config, f installFlags, flagVars map[string]string, logger *logging.ScopedLogger) error {
	// The metadata record's presence is the sole update-vs-fresh signal;
	// load it once and carry it through the run.
	rec, recErr := meta.Load(f.target)
	isUpdate := recErr == nil

	report := syncer.Validate(f.target, syncer.DefaultChecks(f.withDeploy && !isUpdate))
	for _, w := range report.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w.Message)
	}
	if !report.Valid() {
		return &syncer.ValidationBlockedError{Findings: report.Findings}
	}

	// The branch name seeds every derived identifier; outside a git
	// checkout the allocation variables are simply absent.
	var allocVars map[string]string
	if branch, err := gitx.New().CurrentBranch(ctx, f.target); err == nil && branch != "" {
		allocVars = allocationVariables(allocate.Allocate(branch, cfg.Ranges))
	}

	skip := map[string]bool{}
	for _, g := range f.skipGroups {
		skip[g] = true
	}
	if !f.withDeploy {
		skip["deploy"] = true
	}

	mode := syncer.ModeNormal
	switch {
	case f.dryRun:
		mode = syncer.ModeDryRun
	case f.force:
		mode = syncer.ModeForce
	}

	stats, err := syncer.Sync(templateRoot(f.target, f.template), f.target, syncer.Options{
		Mode:       mode,
		Rules:      cfg.Rules,
		Variables:  mergedVariables(cfg, allocVars, flagVars),
		IsText:     cfg.IsText,
		SkipGroups: skip,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	printStats(stats, f.dryRun)

	if f.dryRun {
		return nil
	}

	if _, err := syncer.AppendOnce(filepath.Join(f.target, ".gitignore"), ignoreBlock); err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}

	pkgPath := filepath.Join(f.target, "package.json")
	if _, statErr := os.Stat(pkgPath); statErr == nil {
		keyStats, err := syncer.MergeKeys(pkgPath, "scripts", workflowScripts)
		if err != nil {
			return fmt.Errorf("merging script table: %w", err)
		}
		logger.Info("script table merged",
			"added", len(keyStats.Added), "updated", len(keyStats.Updated), "unchanged", len(keyStats.Unchanged))
	}

	if isUpdate {
		if err := meta.Touch(f.target, rec); err != nil {
			return fmt.Errorf("updating worktree metadata: %w", err)
		}
	}

	return nil
}

func printStats(stats syncer.Stats, dryRun bool) {
	verb := "installed"
	if dryRun {
		verb = "would install"
	}
	for group, c := range stats {
		fmt.Printf("%-10s %s: %d copied, %d updated, %d skipped\n", group, verb, c.Copied, c.Updated, c.Skipped)
	}
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	target := fs.String("target", ".", "target repository root")
	withDeploy := fs.Bool("with-deploy", false, "treat deploy collisions as blocking")
	if err := fs.Parse(args); err != nil {
		return err
	}

	report := syncer.Validate(*target, syncer.DefaultChecks(*withDeploy))
	for _, finding := range report.Findings {
		fmt.Printf("%-8s %s: %s\n", finding.Severity, finding.Path, finding.Message)
	}
	if !report.Valid() {
		return &syncer.ValidationBlockedError{Findings: report.Findings}
	}
	fmt.Println("target is clean")
	return nil
}

func runWatch(args []string) error {
	f, err := parseInstallFlags("watch", args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(f.target)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logManager, err := newLogManager(f.target, cfg)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer func() { _ = logManager.Close() }()
	logger := logManager.For("watch")

	resync := func() {
		flagVars, err := parseVarFlags(f.varPairs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		if err := install(context.Background(), cfg, f, flagVars, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	w, err := syncer.NewWatcher(templateRoot(f.target, f.template), 500*time.Millisecond, logger)
	if err != nil {
		return err
	}

	fmt.Printf("watching %s, press Ctrl-C to stop\n", templateRoot(f.target, f.template))
	resync()
	return w.Start(context.Background(), resync)
}
