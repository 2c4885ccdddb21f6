package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/san-kum/atomscene/internal/command"
	"github.com/san-kum/atomscene/internal/config"
	"github.com/san-kum/atomscene/internal/shell"
	"github.com/san-kum/atomscene/internal/storage"
	"github.com/san-kum/atomscene/internal/viz"
)

var (
	configFile string
	preset     string
	geometry   string
	theme      string
	logLevel   string
	execute    []string
	batch      bool
	noRC       bool
	watch      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "atomscene [file...]",
		Short: "atomic configuration viewer",
		Long: `atomscene loads atomic configurations and draws them according to a
set of commands. Commands come from resource files, -e and the prompt.`,
		SilenceUsage: true,
		RunE:         runViewer,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&geometry, "geometry", "", "window geometry WxH")
	rootCmd.Flags().StringVar(&theme, "theme", "", "shell theme")
	rootCmd.Flags().StringArrayVarP(&execute, "execute", "e", nil, "run a command line after loading (repeatable)")
	rootCmd.Flags().BoolVar(&batch, "batch", false, "run commands and exit without the shell")
	rootCmd.Flags().BoolVar(&noRC, "no-rc", false, "skip the resource files")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "reload the files when they change")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Run:   listPresets,
	}

	themesCmd := &cobra.Command{
		Use:   "themes",
		Short: "list shell themes",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range viz.ThemeNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}

	statesCmd := &cobra.Command{
		Use:   "states",
		Short: "list the states in the library",
		RunE:  listStates,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file with the current settings",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}

	rootCmd.AddCommand(presetsCmd, themesCmd, statesCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers the preset or config file, the environment and the
// command-line flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (have %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	case configFile != "":
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	default:
		cfg = config.DefaultConfig()
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("geometry") {
		w, h, err := config.ParseGeometry(geometry)
		if err != nil {
			return nil, err
		}
		cfg.Width, cfg.Height = w, h
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, cfg.Validate()
}

// newLogger writes to stderr in batch mode and to a file under the data
// directory when the shell owns the terminal.
func newLogger(cfg *config.Config, toStderr bool) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if toStderr {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), io.NopCloser(nil), nil
	}

	dir, err := homedir.Expand(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "atomscene.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewTextHandler(f, opts)), f, nil
}

func openLibrary(cfg *config.Config) (storage.Library, error) {
	path, err := cfg.LibraryPath()
	if err != nil {
		return nil, err
	}
	return storage.Open(path)
}

func runViewer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, batch)
	if err != nil {
		return err
	}
	defer closer.Close()

	lib, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	defer lib.Close()

	pv := viz.NewPreview(cfg.Preview.Cols, cfg.Preview.Rows)
	pv.Width, pv.Height = cfg.Width, cfg.Height

	engine := command.NewEngine(pv)
	engine.Library = lib
	engine.Log = log
	if batch {
		engine.Out = cmd.OutOrStdout()
	}

	if _, err := engine.Execute(fmt.Sprintf("step %d", cfg.FrameStep)); err != nil {
		return err
	}

	// Resource files run before anything is loaded so their settings are
	// in place for the first build.
	var lines []string
	if !noRC {
		files, err := cfg.ResourceFiles(".")
		if err != nil {
			return err
		}
		if err := engine.Startup(files); err != nil {
			log.Error("resource file failed", "err", err)
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	}
	if len(args) > 0 {
		lines = append(lines, "load "+command.Quote(args...))
	}
	lines = append(lines, execute...)

	if batch {
		return runBatch(engine, lines, cmd.OutOrStdout())
	}

	m := shell.New(engine, pv, viz.GetTheme(cfg.Theme))
	for _, line := range lines {
		m = m.Exec(line)
		if engine.Exited() {
			return nil
		}
	}
	if watch && len(args) > 0 {
		w, err := shell.Watch(args)
		if err != nil {
			return err
		}
		defer w.Close()
		m = m.WithWatcher(w)
	}
	log.Info("starting shell", "frames", engine.Frames().Len(), "theme", cfg.Theme)
	return shell.Run(m)
}

func runBatch(engine *command.Engine, lines []string, w io.Writer) error {
	for _, line := range lines {
		out, err := engine.Execute(line)
		io.WriteString(w, out)
		if err != nil {
			return err
		}
		if engine.Exited() {
			break
		}
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tWINDOW\tPREVIEW")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%dx%d\t%dx%d\n", name, cfg.Width, cfg.Height, cfg.Preview.Cols, cfg.Preview.Rows)
	}
	w.Flush()
}

func listStates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lib, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	defer lib.Close()

	entries, err := lib.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no saved states")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSAVED\tSIZE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\n", e.Name, e.Saved.Format("2006-01-02 15:04:05"), e.Size)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := "atomscene.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", path)
	return nil
}
