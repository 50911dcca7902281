package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/partsim/internal/automation"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/optim"
	"github.com/san-kum/partsim/internal/sim"
	"github.com/san-kum/partsim/internal/storage"
	"github.com/san-kum/partsim/internal/store"
	"github.com/san-kum/partsim/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	seed       int64
	steps      int
	workers    int
	validate   bool
	frames     int
	exportPath string
	format     string
	metricList []string
	debug      bool
	theme      string
	fromPreset string
	sweepGrid  []string
	sweepMax   bool
	objective  string
	benchSteps int
	trials     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "partsim",
		Short:         "particle physics sandbox",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".partsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation and store its metric series",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&frames, "frames", 0, "record a frame every N steps (0 disables)")
	runCmd.Flags().StringVar(&exportPath, "export", "", "write recorded frames to this file ('-' for stdout)")
	runCmd.Flags().StringVar(&format, "format", store.FormatJSON, "frame export format (json|msgpack|svg)")
	runCmd.Flags().StringSliceVar(&metricList, "metrics", nil, "metrics to record (default all)")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a simulation with live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().BoolVar(&debug, "debug", false, "draw debug markers")
	liveCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "color theme ("+strings.Join(viz.ThemeNames(), "|")+")")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run metric series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run series to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in and stored presets",
		RunE:  listPresets,
	}

	presetCmd := &cobra.Command{
		Use:   "preset",
		Short: "manage stored presets",
	}
	presetSaveCmd := &cobra.Command{
		Use:   "save [name]",
		Short: "store a configuration under a name",
		Args:  cobra.ExactArgs(1),
		RunE:  savePreset,
	}
	presetSaveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	presetSaveCmd.Flags().StringVar(&fromPreset, "from", "default", "preset to copy when no config file is given")
	presetShowCmd := &cobra.Command{
		Use:   "show [name]",
		Short: "print a preset as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  showPreset,
	}
	presetDeleteCmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "delete a stored preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.NewPresetStore(dataDir).Delete(args[0])
		},
	}
	presetCmd.AddCommand(presetSaveCmd, presetShowCmd, presetDeleteCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "benchmark the step loop",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchPreset,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 200, "steps per measurement")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "grid search config params against a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepGrid, "grid", nil, "param=v1,v2,... ("+strings.Join(optim.ListParams(), "|")+")")
	sweepCmd.Flags().StringVar(&objective, "metric", "spread", "metric to optimise")
	sweepCmd.Flags().BoolVar(&sweepMax, "maximize", false, "prefer the largest metric value")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario and store each run",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [preset]",
		Short: "count stable runs across random seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, presetsCmd, presetCmd, benchCmd, sweepCmd, scenarioCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (overrides config)")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 1, "goroutines for the entity phase (overrides config)")
	cmd.Flags().BoolVar(&validate, "validate", false, "crash on NaN or Inf state")
}

// resolveConfig loads --config, or the named preset from the data
// directory or the built-ins, then applies flag overrides.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		name := "default"
		if len(args) > 0 {
			name = args[0]
		}
		cfg, err = storage.NewPresetStore(dataDir).Load(name)
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	} else if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("validate") {
		cfg.ValidateState = validate
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ms, err := experiment.NewRegistry().Metrics(metricList)
	if err != nil {
		return err
	}

	recordEvery := frames
	if exportPath != "" && recordEvery == 0 {
		recordEvery = 1
	}

	logger := slog.Default()
	exp := experiment.New(cfg,
		experiment.WithMetrics(ms...),
		experiment.WithFrames(recordEvery),
		experiment.WithLogger(logger),
	)
	defer exp.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (seed %d, %d steps)...\n", cfg.Name, cfg.Seed, cfg.Steps)
	result, err := exp.Run(ctx)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		logger.Warn("run ended early", "steps", result.StepsTaken, "err", err)
	}

	kinds := make([]string, len(cfg.Mutators))
	for i, m := range cfg.Mutators {
		kinds[i] = m.Kind
	}
	runID, saveErr := st.Save(storage.RunMetadata{
		Preset:   cfg.Name,
		Seed:     cfg.Seed,
		Entities: cfg.Entities.Amount,
		Mutators: kinds,
	}, result)
	if saveErr != nil {
		return saveErr
	}

	if exportPath != "" {
		if err := store.Export(exportPath, format, result); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", result.Duration)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Println("\nmetrics:")
	for _, name := range result.Names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	// the alternate screen owns the terminal; keep logs off it
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := viz.NewModel(cfg,
		viz.WithDebug(debug),
		viz.WithTheme(theme),
		viz.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = p.Run()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSTEPS\tENTITIES\tSEED\tMUTATORS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Entities,
			run.Seed,
			strings.Join(run.Mutators, ","),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	if len(series.Steps) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(series.Steps))

	for _, name := range meta.Series {
		data := series.Values[name]
		if len(data) == 0 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(strings.ReplaceAll(name, "_", " ")),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if _, err := st.Load(args[0]); err != nil {
		return err
	}

	f, err := os.Open(st.SeriesPath(args[0]))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(os.Stdout, f)
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("built-in presets:")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		kinds := make([]string, len(cfg.Mutators))
		for i, m := range cfg.Mutators {
			kinds[i] = m.Kind
		}
		fmt.Printf("  %-10s %d entities  [%s]\n", name, cfg.Entities.Amount, strings.Join(kinds, ", "))
	}

	stored, err := storage.NewPresetStore(dataDir).List()
	if err != nil {
		return err
	}
	if len(stored) > 0 {
		fmt.Println("\nstored presets:")
		for _, name := range stored {
			fmt.Printf("  %s\n", name)
		}
	}

	fmt.Printf("\nmutator kinds: %s\n", strings.Join(sim.NewRegistry().ListKinds(), ", "))
	return nil
}

func savePreset(cmd *cobra.Command, args []string) error {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
	} else {
		cfg = config.GetPreset(fromPreset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", fromPreset, config.ListPresets())
		}
	}

	if err := storage.NewPresetStore(dataDir).Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("saved preset %s\n", args[0])
	return nil
}

func showPreset(cmd *cobra.Command, args []string) error {
	cfg, err := storage.NewPresetStore(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func benchPreset(cmd *cobra.Command, args []string) error {
	name := "galaxy"
	if len(args) > 0 {
		name = args[0]
	}
	base, err := storage.NewPresetStore(dataDir).Load(name)
	if err != nil {
		return err
	}

	amounts := []int{100, 500, 1000}
	workerCounts := []int{1, 4}

	fmt.Printf("benchmarking %s (%d steps)\n\n", name, benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENTITIES\tWORKERS\tTIME\tSTEPS/SEC")

	type row struct {
		amount, workers int
		elapsed         time.Duration
	}
	var rows []row

	for _, amount := range amounts {
		for _, wc := range workerCounts {
			cfg := base.Clone()
			cfg.Seed = 42
			cfg.Entities.Amount = amount
			cfg.Workers = wc

			s, err := sim.New(cfg)
			if err != nil {
				return err
			}

			start := time.Now()
			err = s.Run(context.Background(), benchSteps, nil)
			elapsed := time.Since(start)
			s.Close()
			if err != nil {
				return err
			}
			rows = append(rows, row{amount, wc, elapsed})
		}
	}

	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\n", r.amount, r.workers, r.elapsed, float64(benchSteps)/r.elapsed.Seconds())
	}

	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepGrid) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	var (
		names  []string
		ranges [][]float64
	)
	for _, g := range sweepGrid {
		name, list, ok := strings.Cut(g, "=")
		if !ok {
			return fmt.Errorf("grid %q: expected param=v1,v2,...", g)
		}
		var values []float64
		for _, raw := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return fmt.Errorf("grid %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	if sweepMax {
		search.Maximize()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, trials, err := search.Search(ctx, cfg, objective, experiment.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(objective))
	for _, t := range trials {
		for _, name := range names {
			fmt.Fprintf(w, "%g\t", t.Params[name])
		}
		fmt.Fprintf(w, "%.6f\n", t.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest %s: %.6f at", objective, best.Value)
	for _, name := range names {
		fmt.Printf(" %s=%g", name, best.Params[name])
	}
	fmt.Println()
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	results, runErr := automation.RunScenario(ctx, scenario, storage.NewPresetStore(dataDir).Load, slog.Default())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tCONFIG\tSTEPS\tDURATION")
	for _, result := range results {
		runID, err := st.Save(storage.RunMetadata{Preset: result.Name, Seed: result.Seed}, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\n", runID, result.Name, result.StepsTaken, result.Duration)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunMonteCarlo(ctx, automation.MonteCarloConfig{
		Base:      cfg,
		NumTrials: trials,
		Seed:      uint64(cfg.Seed),
	}, slog.Default())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSEED\tSTEPS\tDROPPED\tCRASHED\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%v\t%v\n", r.TrialID, r.Seed, r.Steps, r.Dropped, r.Crashed, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\nstable: %d  unstable: %d  (%.1f%%)\n", stable, unstable, 100*float64(stable)/float64(len(results)))
	return nil
}
