package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/radtrans/internal/atmos"
	"github.com/san-kum/radtrans/internal/config"
	"github.com/san-kum/radtrans/internal/equilibrium"
	"github.com/san-kum/radtrans/internal/export"
	"github.com/san-kum/radtrans/internal/metrics"
	"github.com/san-kum/radtrans/internal/storage"
	"github.com/san-kum/radtrans/internal/sweep"
	"github.com/san-kum/radtrans/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string

	maxIterations int
	threshold     float64
	omega0        float64
	g0            float64
	noConvection  bool

	outDir    string
	outFile   string
	figFormat string
	theme     string
	repeats   int

	workers      int
	searchMetric string
	searchTarget float64
)

var log = logrus.New()

func main() {
	rootCmd := &cobra.Command{
		Use:   "radtrans",
		Short: "two-stream radiative transfer and radiative-convective equilibrium",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".radtrans", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "iterate a column to radiative-convective equilibrium and store the run",
		Args:  cobra.NoArgs,
		RunE:  runEquilibrium,
	}
	addSetupFlags(runCmd)

	emitCmd := &cobra.Command{
		Use:   "emit",
		Short: "run a single emission pass on the initial column",
		Args:  cobra.NoArgs,
		RunE:  runEmit,
	}
	addSetupFlags(emitCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export metadata, temperature history and spectrum as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	figureCmd := &cobra.Command{
		Use:   "figure [run_id]",
		Short: "render profile, spectrum and convergence figures",
		Args:  cobra.ExactArgs(1),
		RunE:  renderFigures,
	}
	figureCmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	figureCmd.Flags().StringVar(&figFormat, "format", "svg", "figure format (svg, png, pdf, eps)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "iterate with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSetupFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [omega0] ...",
		Short: "compare equilibria across single-scattering albedos",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareScattering,
	}
	addSetupFlags(compareCmd)
	compareCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default GOMAXPROCS)")

	searchCmd := &cobra.Command{
		Use:   "search [param=v1,v2,...] ...",
		Short: "grid search parameters for a metric closest to a target",
		Long: "Solves every combination of the given parameter values and reports the one whose metric lands closest to the target.\n" +
			"Parameters: " + strings.Join(sweep.ParameterNames(), ", "),
		Args: cobra.MinimumNArgs(1),
		RunE: searchGrid,
	}
	addSetupFlags(searchCmd)
	searchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default GOMAXPROCS)")
	searchCmd.Flags().StringVar(&searchMetric, "metric", "outgoing_flux", "metric to match")
	searchCmd.Flags().Float64Var(&searchTarget, "target", 0, "target metric value")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark emission passes across grid sizes",
		Args:  cobra.NoArgs,
		RunE:  benchEmission,
	}
	addSetupFlags(benchCmd)
	benchCmd.Flags().IntVar(&repeats, "repeats", 5, "passes per grid size")

	rootCmd.AddCommand(runCmd, emitCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, figureCmd, liveCmd, presetsCmd, compareCmd, searchCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSetupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration ("+strings.Join(config.ListPresets(), ", ")+")")
	cmd.Flags().IntVar(&maxIterations, "iterations", 0, "maximum iterations")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "convergence threshold [K]")
	cmd.Flags().Float64Var(&omega0, "omega0", 0, "single-scattering albedo")
	cmd.Flags().Float64Var(&g0, "g0", 0, "scattering asymmetry parameter")
	cmd.Flags().BoolVar(&noConvection, "no-convection", false, "disable convective flux")
}

// loadConfig resolves the configuration: preset, then config file, then
// explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("iterations") {
		cfg.Solver.MaxIterations = maxIterations
	}
	if flags.Changed("threshold") {
		cfg.Solver.ConvergenceThreshold = threshold
	}
	if flags.Changed("omega0") {
		cfg.Scattering.Omega0 = omega0
	}
	if flags.Changed("g0") {
		cfg.Scattering.G0 = g0
	}
	if flags.Changed("no-convection") {
		cfg.Solver.Convection = !noConvection
	}
	return cfg, nil
}

func newSolver(setup *config.Setup) (*equilibrium.Solver, error) {
	s, err := setup.NewSolver()
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	return s, nil
}

func runEquilibrium(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setup, err := cfg.Build(log)
	if err != nil {
		return err
	}
	solver, err := newSolver(setup)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.WithFields(logrus.Fields{
		"name":        cfg.Name,
		"layers":      setup.Column.Len(),
		"wavelengths": setup.Grid.Len(),
	}).Info("starting equilibrium run")
	start := time.Now()

	result, err := solver.Run(ctx)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		log.WithError(err).Warn("run stopped early, storing partial result")
	}
	elapsed := time.Since(start)

	runID, saveErr := st.Save(cfg, setup.Column, setup.Grid, result)
	if saveErr != nil {
		return saveErr
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("status: %s after %d iterations\n", result.Status, result.Iterations)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}
	return err
}

func runEmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setup, err := cfg.Build(log)
	if err != nil {
		return err
	}

	start := time.Now()
	field, err := setup.Driver.Emit(setup.Column, setup.Boundary)
	if err != nil {
		return err
	}
	log.WithFields(columnSummary(setup.Column)).WithField("elapsed", time.Since(start)).Debug("emission pass finished")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LAYER\tPRESSURE [Pa]\tT [K]\tF_UP [W/m2]\tF_DOWN [W/m2]\tF_NET [W/m2]")
	for i := setup.Column.Len() - 1; i >= 0; i-- {
		up := setup.Grid.Bolometric(field.Up[i])
		down := setup.Grid.Bolometric(field.Down[i])
		fmt.Fprintf(w, "%d\t%.4g\t%.1f\t%.5g\t%.5g\t%.5g\n",
			i, setup.Column.Pressure[i], setup.Column.Temperature[i], up, down, up-down)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	top := field.Up[field.Layers()-1]
	fmt.Println()
	fmt.Println(asciigraph.Plot(top,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("outgoing spectral flux vs wavelength index"),
	))
	return nil
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tLAYERS\tWAVELENGTHS\tITER\tSTATUS\tOLR [W/m2]")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%.5g\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Layers,
			run.Wavelengths,
			run.Iterations,
			run.Status,
			run.OutgoingFlux,
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
	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("status: %s after %d iterations\n\n", meta.Status, meta.Iterations)

	// Plot temperature from the top of the column down so the chart reads
	// like a profile turned on its side.
	final := history[len(history)-1]
	profile := make([]float64, len(final))
	for i, t := range final {
		profile[len(final)-1-i] = t
	}
	fmt.Println(asciigraph.Plot(profile,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("final temperature [K], top of column to bottom"),
	))
	fmt.Println()

	bottom := make([]float64, len(history))
	for k, row := range history {
		bottom[k] = row[0]
	}
	if len(bottom) > 1 {
		fmt.Println(asciigraph.Plot(bottom,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("bottom layer temperature [K] vs iteration"),
		))
		fmt.Println()
	}

	if len(meta.MaxChange) > 1 {
		logChange := make([]float64, len(meta.MaxChange))
		for i, v := range meta.MaxChange {
			logChange[i] = math.Log10(math.Max(v, 1e-12))
		}
		fmt.Println(asciigraph.Plot(logChange,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("log10 max |dT| vs iteration"),
		))
		fmt.Println()
	}

	_, spectrum, err := st.LoadSpectrum(runID)
	if err != nil {
		return err
	}
	if len(spectrum) > 1 {
		fmt.Println(asciigraph.Plot(spectrum,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("outgoing spectral flux vs wavelength index"),
		))
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

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		return storage.WriteJSON(os.Stdout, data)
	}
	if err := storage.ExportJSON(outFile, data); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func renderFigures(cmd *cobra.Command, args []string) error {
	runID := args[0]
	format := figFormat

	st := storage.New(dataDir)
	data, err := st.Export(runID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	profile, err := export.ProfilePlot(data.Run.Pressures, data.History)
	if err != nil {
		return err
	}
	spectrum, err := export.SpectrumPlot(data.Wavelengths, data.Spectrum)
	if err != nil {
		return err
	}
	convergence, err := export.ConvergencePlot(data.Run.MaxChange)
	if err != nil {
		return err
	}

	figures := []struct {
		name string
		save func(string) error
	}{
		{"profile", func(path string) error { return export.Save(profile, path) }},
		{"spectrum", func(path string) error { return export.Save(spectrum, path) }},
		{"convergence", func(path string) error { return export.Save(convergence, path) }},
	}
	for _, f := range figures {
		path := filepath.Join(outDir, fmt.Sprintf("%s_%s.%s", runID, f.name, format))
		if err := f.save(path); err != nil {
			return fmt.Errorf("%s figure: %w", f.name, err)
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The terminal belongs to the live view.
	quiet := logrus.New()
	quiet.SetLevel(logrus.ErrorLevel)
	quiet.SetOutput(os.Stderr)

	setup, err := cfg.Build(quiet)
	if err != nil {
		return err
	}

	m, err := viz.NewModel(cfg.Name, cfg.Solver.MaxIterations, func() (*equilibrium.Solver, error) {
		return newSolver(setup)
	})
	if err != nil {
		return err
	}
	m.SetTheme(theme)

	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLAYERS\tOPACITY\tT_STAR [K]\tT_INT [K]\tOMEGA0")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		layers := cfg.Atmosphere.Layers
		if n := len(cfg.Atmosphere.Pressures); n > 0 {
			layers = n
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%g\t%g\t%g\n",
			name, layers, cfg.Opacity.Kind,
			cfg.Boundary.StellarTemperature, cfg.Boundary.InternalTemperature, cfg.Scattering.Omega0)
	}
	return w.Flush()
}

func compareScattering(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var configs []*config.Config
	for _, arg := range args {
		w, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("omega0 %q: %w", arg, err)
		}
		cfg, err := sweep.Apply(base, map[string]float64{"omega0": w})
		if err != nil {
			return err
		}
		configs = append(configs, cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcomes, err := sweep.NewEnsemble(configs, workers, log).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("comparing single-scattering albedos for %s (g0=%.2f)\n\n", base.Name, base.Scattering.G0)
	printOutcomes(outcomes, "omega0", func(c *config.Config) float64 { return c.Scattering.Omega0 })
	return nil
}

func searchGrid(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, len(args))
	ranges := make([][]float64, len(args))
	for i, arg := range args {
		names[i], ranges[i], err = sweep.ParseRange(arg)
		if err != nil {
			return err
		}
	}
	g, err := sweep.NewGridSearch(names, ranges, workers, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, outcomes, err := g.Search(ctx, base, searchMetric, searchTarget)
	if outcomes != nil {
		printOutcomes(outcomes, "", nil)
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g (target %.6g)\n", searchMetric, best.Value, searchTarget)
	for _, name := range names {
		fmt.Printf("  %s: %g\n", name, best.Params[name])
	}
	return nil
}

func printOutcomes(outcomes []sweep.Outcome, column string, value func(*config.Config) float64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "NAME\tSTATUS\tITER\tT_BOTTOM [K]\tOLR [W/m2]\tTIME"
	if value != nil {
		header = strings.ToUpper(column) + "\t" + header
	}
	fmt.Fprintln(w, header)
	for _, out := range outcomes {
		if out.Config == nil {
			continue
		}
		prefix := ""
		if value != nil {
			prefix = fmt.Sprintf("%.3f\t", value(out.Config))
		}
		if out.Err != nil && out.Result == nil {
			fmt.Fprintf(w, "%s%s\terror: %v\t\t\t\t\n", prefix, out.Config.Name, out.Err)
			continue
		}
		fmt.Fprintf(w, "%s%s\t%s\t%d\t%.2f\t%.5g\t%v\n",
			prefix, out.Config.Name, out.Result.Status, out.Result.Iterations,
			out.Result.Temperatures[0], out.OutgoingFlux, out.Elapsed.Round(time.Millisecond))
	}
	w.Flush()
}

func benchEmission(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if repeats < 1 {
		return fmt.Errorf("repeats must be positive, got %d", repeats)
	}

	layers := []int{10, 30, 100}
	points := []int{50, 200, 1000}

	fmt.Printf("benchmarking emission for %s (omega0=%.2f)\n\n", base.Name, base.Scattering.Omega0)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LAYERS\tWAVELENGTHS\tPASSES\tTIME/PASS\tCELLS/SEC")

	for _, nl := range layers {
		for _, np := range points {
			cfg := base.Clone()
			cfg.Atmosphere.Layers = nl
			cfg.Atmosphere.Pressures = nil
			cfg.Atmosphere.Temperatures = nil
			if cfg.Atmosphere.BottomPressure == 0 {
				cfg.Atmosphere.BottomPressure = config.DefaultBottomPressure
				cfg.Atmosphere.TopPressure = config.DefaultTopPressure
			}
			if cfg.Atmosphere.Temperature == 0 {
				cfg.Atmosphere.Temperature = config.DefaultTemperature
			}
			cfg.Spectrum.Points = np

			setup, err := cfg.Build(log)
			if err != nil {
				return err
			}

			start := time.Now()
			for r := 0; r < repeats; r++ {
				if _, err := setup.Driver.Emit(setup.Column, setup.Boundary); err != nil {
					return err
				}
			}
			perPass := time.Since(start) / time.Duration(repeats)
			cells := float64(nl*np) / perPass.Seconds()

			fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.3g\n", nl, np, repeats, perPass, cells)
		}
	}
	return w.Flush()
}

// columnSummary is logged at debug level by commands that build a column.
func columnSummary(col atmos.Column) logrus.Fields {
	return logrus.Fields{
		"layers":   col.Len(),
		"p_bottom": col.Pressure[0],
		"p_top":    col.Pressure[col.Len()-1],
	}
}
