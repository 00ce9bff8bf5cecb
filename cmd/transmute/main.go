package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/transmute/internal/config"
	"github.com/san-kum/transmute/internal/decay"
	"github.com/san-kum/transmute/internal/depletion"
	"github.com/san-kum/transmute/internal/isotope"
	"github.com/san-kum/transmute/internal/metrics"
	"github.com/san-kum/transmute/internal/nucdata"
	"github.com/san-kum/transmute/internal/storage"
	"github.com/san-kum/transmute/internal/units"
	"github.com/san-kum/transmute/internal/universe"
	"github.com/san-kum/transmute/internal/viz"
)

var (
	dataDir    string
	storeKind  string
	verbose    bool
	metricsOut string

	preset     string
	integrator string
	runTime    units.Duration
	relTol     float64
	absTol     float64
	top        int
	noSave     bool

	decayData string
	confluent bool
	plotIso   string

	listIDs bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "transmute",
		Short:         "nuclide decay and transmutation solver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".transmute", "data directory")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "fs", "run archive (fs, sqlite)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsOut, "metrics-out", "", "write solver metrics to a Prometheus textfile")

	runCmd := &cobra.Command{
		Use:   "run [config.yaml]",
		Short: "solve a transmutation problem",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProblem,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	runCmd.Flags().Var(&runTime, "time", "irradiation time (e.g. 10y, 30d)")
	runCmd.Flags().Float64Var(&relTol, "rel-tol", 0, "relative tolerance")
	runCmd.Flags().Float64Var(&absTol, "abs-tol", 0, "absolute tolerance")
	runCmd.Flags().IntVar(&top, "top", 10, "isotopes to show")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not archive the run")

	decayCmd := &cobra.Command{
		Use:   "decay [isotope]",
		Short: "closed-form decay of one unit of an isotope",
		Args:  cobra.ExactArgs(1),
		RunE:  decayIsotope,
	}
	decayCmd.Flags().Var(&runTime, "time", "decay time")
	decayCmd.Flags().StringVar(&decayData, "decay-data", "", "decay data file (yaml)")
	decayCmd.Flags().BoolVar(&confluent, "confluent", false, "take the limit for repeated decay constants")
	decayCmd.Flags().StringVar(&plotIso, "plot", "", "plot this member of the chain over time")
	decayCmd.Flags().IntVar(&top, "top", 10, "isotopes to show")

	universeCmd := &cobra.Command{
		Use:   "universe [isotope...]",
		Short: "show the default isotope universe",
		RunE:  showUniverse,
	}
	universeCmd.Flags().BoolVar(&listIDs, "list", false, "list every isotope")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show an archived run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().IntVar(&top, "top", 10, "isotopes to show")
	showCmd.Flags().StringVar(&plotIso, "plot", "", "plot this isotope over the stored snapshots")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-10s %s, %s universe\n", name, p.Time, p.Universe)
			}
			return nil
		},
	}

	integratorsCmd := &cobra.Command{
		Use:   "integrators",
		Short: "list available integrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range depletion.NewRegistry().ListIntegrators() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, decayCmd, universeCmd, listCmd, showCmd, exportCmd, presetsCmd, integratorsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	// config file overrides preset
	if len(args) == 1 {
		var err error
		if cfg, err = config.Load(args[0]); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if preset == "" && len(args) == 0 {
		return nil, fmt.Errorf("need a config file or --preset")
	}

	// flags override both
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("time") {
		cfg.Time = runTime
	}
	if cmd.Flags().Changed("rel-tol") {
		cfg.Solver.RelTol = relTol
	}
	if cmd.Flags().Changed("abs-tol") {
		cfg.Solver.AbsTol = absTol
	}
	return cfg, cfg.Validate()
}

func runProblem(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	logger := newLogger()
	opts := []depletion.Option{depletion.WithLogger(logger)}
	var reg *prometheus.Registry
	if metricsOut != "" {
		reg = prometheus.NewRegistry()
		opts = append(opts, depletion.WithObserver(metrics.NewPrometheus(reg)))
	}

	out, err := depletion.Run(cmd.Context(), cfg, opts...)
	if err != nil {
		return err
	}

	if reg != nil {
		if err := metrics.WriteTextfile(metricsOut, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	accepted, rejected := out.Steps()
	fmt.Println(viz.Title.Render("transmute: " + cfg.Name))
	fmt.Println(viz.MetricLabel.Render("integrator") + viz.MetricValue.Render(cfg.Integrator))
	fmt.Println(viz.MetricLabel.Render("isotopes") + viz.MetricValue.Render(fmt.Sprintf("%d (%d nonzeros)", out.Universe.Len(), out.NonZeros)))
	fmt.Println(viz.MetricLabel.Render("steps") + viz.MetricValue.Render(fmt.Sprintf("%d accepted, %d rejected", accepted, rejected)))
	fmt.Println(viz.MetricLabel.Render("wall time") + viz.MetricValue.Render(out.Elapsed.Round(time.Millisecond).String()))
	fmt.Println()

	for _, snap := range out.Snapshots {
		title := fmt.Sprintf("t = %s", units.Duration(snap.Time))
		if err := viz.Composition(os.Stdout, title, snap.Composition, top); err != nil {
			return err
		}
		fmt.Println()
	}
	if final := out.Snapshots[len(out.Snapshots)-1]; len(final.Result.Metrics) > 0 {
		if err := viz.Metrics(os.Stdout, final.Result.Metrics); err != nil {
			return err
		}
	}

	if noSave {
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	runID, err := st.Save(cmd.Context(), out)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(viz.Subtle.Render("saved: " + runID))
	return nil
}

func decayIsotope(cmd *cobra.Command, args []string) error {
	id, err := isotope.Parse(args[0])
	if err != nil {
		return err
	}
	t := float64(runTime)
	if !cmd.Flags().Changed("time") {
		t = float64(config.DefaultTime)
	}

	var bundle *nucdata.Bundle
	if decayData != "" {
		bundle, err = nucdata.Load(decayData, "")
	} else {
		bundle, err = nucdata.Sample()
	}
	if err != nil {
		return err
	}
	policy := decay.RejectDegenerate
	if confluent {
		policy = decay.ConfluentLimit
	}
	lib, err := bundle.Library(decay.WithDegeneratePolicy(policy))
	if err != nil {
		return err
	}

	fractions, err := lib.UnitDecay(id, t, nil)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s after %s", id, units.Duration(t))
	if err := viz.Composition(os.Stdout, title, fractions, top); err != nil {
		return err
	}

	if plotIso == "" {
		return nil
	}
	member, err := isotope.Parse(plotIso)
	if err != nil {
		return err
	}
	const points = 80
	series := make([]float64, points+1)
	for i := range series {
		f, err := lib.UnitDecay(id, t*float64(i)/points, nil)
		if err != nil {
			return err
		}
		series[i] = f[member]
	}
	fmt.Println()
	fmt.Println(viz.Trajectory(series, fmt.Sprintf("%s from %s, 0 to %s", member, id, units.Duration(t))))
	return nil
}

func showUniverse(cmd *cobra.Command, args []string) error {
	u := universe.Default()
	fmt.Println(viz.MetricLabel.Render("isotopes") + viz.MetricValue.Render(fmt.Sprintf("%d", u.Len())))
	for _, name := range args {
		id, err := isotope.Parse(name)
		if err != nil {
			return err
		}
		if i, ok := u.Location(id); ok {
			fmt.Printf("%-10s %d\n", id, i)
		} else {
			fmt.Printf("%-10s %s\n", id, viz.Warning.Render("not tracked"))
		}
	}
	if listIDs {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tISOTOPE\tKEY")
		for i, id := range u.IDs() {
			fmt.Fprintf(w, "%d\t%s\t%d\n", i, id, int(id))
		}
		return w.Flush()
	}
	return nil
}

func openStore() (storage.Archive, error) {
	return storage.Open(storeKind, dataDir)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tINTEGRATOR\tISOTOPES\tTIME\tSTEPS\tCREATED")
	for _, r := range runs {
		end := 0.0
		if len(r.Times) > 0 {
			end = r.Times[len(r.Times)-1]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			r.ID, r.Name, r.Integrator, r.Isotopes, units.Duration(end), r.Steps,
			r.Timestamp.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	snaps, err := st.LoadComposition(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(meta.Name + " " + meta.ID))
	fmt.Println(viz.MetricLabel.Render("integrator") + viz.MetricValue.Render(meta.Integrator))
	fmt.Println(viz.MetricLabel.Render("tolerance") + viz.MetricValue.Render(fmt.Sprintf("rel %g abs %g", meta.RelTol, meta.AbsTol)))
	fmt.Println(viz.MetricLabel.Render("isotopes") + viz.MetricValue.Render(fmt.Sprintf("%d (%d nonzeros)", meta.Isotopes, meta.NonZeros)))
	fmt.Println(viz.MetricLabel.Render("steps") + viz.MetricValue.Render(fmt.Sprintf("%d accepted, %d rejected", meta.Steps, meta.Rejected)))
	if err := viz.Metrics(os.Stdout, meta.Metrics); err != nil {
		return err
	}
	if len(snaps) == 0 {
		return nil
	}

	fmt.Println()
	last := snaps[len(snaps)-1]
	if err := viz.Composition(os.Stdout, fmt.Sprintf("t = %s", units.Duration(last.Time)), last.Composition, top); err != nil {
		return err
	}

	if plotIso == "" {
		return nil
	}
	id, err := isotope.Parse(plotIso)
	if err != nil {
		return err
	}
	series := make([]float64, len(snaps))
	for i, s := range snaps {
		series[i] = s.Composition[id]
	}
	fmt.Println()
	fmt.Println(viz.Trajectory(series, fmt.Sprintf("%s at %d snapshots", id, len(snaps))))
	return nil
}

type exportSnapshot struct {
	Time        float64            `json:"time"`
	Composition map[string]float64 `json:"composition"`
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	snaps, err := st.LoadComposition(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	export := struct {
		Metadata  *storage.RunMetadata `json:"metadata"`
		Snapshots []exportSnapshot     `json:"snapshots"`
	}{Metadata: meta, Snapshots: make([]exportSnapshot, 0, len(snaps))}
	for _, s := range snaps {
		comp := make(map[string]float64, len(s.Composition))
		for id, q := range s.Composition {
			comp[id.String()] = q
		}
		export.Snapshots = append(export.Snapshots, exportSnapshot{Time: s.Time, Composition: comp})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}
