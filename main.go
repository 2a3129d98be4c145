package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

// options holds the command line flags
type options struct {
	vault       string
	profile     string
	config      string
	list        bool
	search      string
	tags        string
	groupBy     string
	subGroupBy  string
	showChecked bool
	showAll     bool
	logLevel    string
}

func parseFlags(args []string) (*options, *pflag.FlagSet, error) {
	opts := &options{}

	flags := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	flags.StringVar(&opts.vault, "vault", "", "Path to Obsidian vault")
	flags.StringVarP(&opts.profile, "profile", "p", "", "Profile name from config (optional)")
	flags.StringVar(&opts.config, "config", "", "Config file (default $XDG_CONFIG_HOME/checklist/config.toml)")
	flags.BoolVarP(&opts.list, "list", "l", false, "List todos without TUI (non-interactive)")
	flags.StringVarP(&opts.search, "search", "s", "", `Search words, "quoted phrases" match literally`)
	flags.StringVarP(&opts.tags, "tags", "t", "", "Comma separated tags to collect todos from")
	flags.StringVarP(&opts.groupBy, "group-by", "g", "", "Group by file, folder, tag, subtag, status, due or none")
	flags.StringVar(&opts.subGroupBy, "sub-group-by", "", "Second level grouping, same values as --group-by")
	flags.BoolVar(&opts.showChecked, "show-checked", false, "Include checked todos")
	flags.BoolVarP(&opts.showAll, "all", "a", false, "Include todos outside of tagged sections")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s --vault <path> [flags]\n\nFlags:\n", appName)
		flags.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nSearch: words must all match; \"a phrase\" or 'a phrase' keeps its spaces.")
		if cfgPath, err := configPath(); err == nil {
			fmt.Fprintf(os.Stderr, "\nConfig:\n  %s\n", cfgPath)
			fmt.Fprintln(os.Stderr, "  Define profiles with vault and set default_profile to skip flags.")
		}
	}

	if err := flags.Parse(args); err != nil {
		return nil, flags, err
	}

	return opts, flags, nil
}

// applyFlags overlays explicitly set flags on the settings
func applyFlags(s Settings, opts *options, flags *pflag.FlagSet) (Settings, error) {
	if flags.Changed("search") {
		s.Search = opts.search
	}
	if flags.Changed("tags") {
		s.TodoTags = splitTagFlag(opts.tags)
	}
	if flags.Changed("group-by") {
		if err := s.GroupBy.UnmarshalText([]byte(opts.groupBy)); err != nil {
			return s, err
		}
	}
	if flags.Changed("sub-group-by") {
		if err := s.SubGroupBy.UnmarshalText([]byte(opts.subGroupBy)); err != nil {
			return s, err
		}
	}
	if flags.Changed("show-checked") {
		s.ShowChecked = opts.showChecked
	}
	if flags.Changed("all") {
		s.ShowAllTodos = opts.showAll
	}
	return s, nil
}

// splitTagFlag turns "a, b" into the newline separated form of todo_tags
func splitTagFlag(value string) string {
	var tags []string
	for _, tag := range strings.Split(value, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return strings.Join(tags, "\n")
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) || errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	var cfg Config
	cfgPath := opts.config
	if cfgPath == "" {
		cfg, cfgPath, err = loadConfig()
	} else {
		cfg, err = loadConfigFile(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("loading config %s: %w", cfgPath, err)
	}

	name, profile, err := selectProfile(opts.profile, cfg)
	if err != nil {
		return err
	}

	var resolved *ResolvedProfile
	if profile != nil && opts.vault == "" {
		if resolved, err = resolveProfilePaths(name, *profile); err != nil {
			return err
		}
	} else if opts.vault != "" {
		vaultPath, err := expandPath(opts.vault)
		if err != nil {
			return fmt.Errorf("expanding vault path: %w", err)
		}
		vaultPath, err = filepath.Abs(vaultPath)
		if err != nil {
			return err
		}
		if err := validateVaultExists("", vaultPath); err != nil {
			return err
		}
		resolved = &ResolvedProfile{Name: filepath.Base(vaultPath), VaultPath: vaultPath}
		if profile != nil {
			resolved.Search, resolved.Tags = profile.Search, profile.Tags
		}
	} else {
		flags.Usage()
		return errors.New("no vault given")
	}

	settings, err := applyFlags(resolved.apply(cfg.Settings), opts, flags)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}

	initRenderer(cfg.Theme)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.list {
		logger, closeLog, err := newLogger(os.Stderr, level, cfg.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()

		pipeline := NewPipeline(NewVault(resolved.VaultPath), FrontmatterTags{}, StaticSettings(settings), &listRenderer{w: os.Stdout}, WithLogger(logger))
		return pipeline.Refresh(ctx, false)
	}

	// The TUI owns the terminal, so logs only go to a file
	logger, closeLog, err := newLogger(io.Discard, level, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	return runTUI(ctx, resolved, settings, logger)
}

func runTUI(ctx context.Context, profile *ResolvedProfile, settings Settings, logger *log.Logger) error {
	vault := NewVault(profile.VaultPath)

	var source DocumentSource = vault
	watcher, err := NewWatcher(vault, defaultDebounce, logger)
	if err != nil {
		logger.Warn("file watching disabled", "err", err)
	} else {
		defer watcher.Close()
		source = watcher
	}

	relay := newProgressRelay()
	pipeline := NewPipeline(source, FrontmatterTags{}, StaticSettings(settings), nil,
		WithLogger(logger),
		WithProgress(relay.report),
	)
	defer pipeline.Close()

	if err := openWithLoader(ctx, pipeline, relay); err != nil {
		return err
	}

	m := newModel(profile.VaultPath, profile.Name, settings.View(pipeline.Search()), pipeline.Send)
	m.groups = pipeline.Groups()
	m.rebuild()

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	pipeline.SetRenderer(&teaRenderer{program: prog})

	go func() {
		if err := pipeline.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("event loop stopped", "err", err)
		}
	}()

	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}
