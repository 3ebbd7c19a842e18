package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/Swind/go-turn-loop/core"
	"github.com/Swind/go-turn-loop/internal/scenario"
	obs "github.com/Swind/go-turn-loop/observability/prometheus"
)

const metricsNamespace = "turnsim"

// RunOptions holds the flags shared by run and demo.
type RunOptions struct {
	MaxTurns int
	Metrics  bool
}

func addRunFlags(cmd *cobra.Command, opts *RunOptions) {
	cmd.Flags().IntVar(&opts.MaxTurns, "max-turns", 0, "turn budget, overrides the scenario's max_turns (0 keeps it)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print the collected Prometheus metrics after the run")
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	runOpts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a scenario file",
		Long: `Run a YAML or JSON scenario on a fresh scheduler and print the items
executed in each turn.

Failed actions are reported but do not change the exit status. The command
exits with status 1 when the turn budget runs out before the queues drain.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			sc, err := scenario.Load(args[0])
			if err != nil {
				return loadFailed(formatter, args[0], err)
			}
			return runScenario(cmd.Context(), formatter, rootOpts, runOpts, sc)
		},
	}
	addRunFlags(cmd, runOpts)

	return cmd
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

func newLogger(w io.Writer, opts *RootOptions) core.Logger {
	if opts.Format == "json" {
		return core.NewJSONLogger(w, opts.LogLevel)
	}
	return core.NewConsoleLogger(w, opts.LogLevel)
}

func loadFailed(f *OutputFormatter, source string, err error) error {
	if f.IsJSON() {
		if outErr := f.Error(ErrCodeLoad, err.Error(), map[string]string{"source": source}); outErr != nil {
			return outErr
		}
	}
	return WrapExitError(ExitCommandError, fmt.Sprintf("load scenario %s", source), err)
}

// RunReport is the output of run and demo.
type RunReport struct {
	Scenario  string                `json:"scenario"`
	Turns     []scenario.TurnResult `json:"turns"`
	Failures  []scenario.Failure    `json:"failures,omitempty"`
	Executed  int64                 `json:"executed"`
	Failed    int64                 `json:"failed"`
	Cancelled int64                 `json:"cancelled"`
	Pending   int                   `json:"pending"`
	Metrics   []MetricFamily        `json:"metrics,omitempty"`

	families []*dto.MetricFamily
}

// MetricFamily is a JSON view of a gathered Prometheus metric family.
type MetricFamily struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Samples []Sample `json:"samples"`
}

// Sample is one labelled value. For histograms Value is the sample sum.
type Sample struct {
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
	Count  *uint64           `json:"count,omitempty"`
}

// String renders the report for text output.
func (r *RunReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s: %d turns, %d executed, %d failed, %d cancelled, %d pending\n",
		r.Scenario, len(r.Turns), r.Executed, r.Failed, r.Cancelled, r.Pending)
	for _, t := range r.Turns {
		fmt.Fprintf(&b, "turn %d: %s\n", t.Turn, strings.Join(t.Items, ", "))
	}
	if len(r.Failures) > 0 {
		b.WriteString("failures:\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "  turn %d %s (%s): %s\n", f.Turn, f.Item, f.Kind, f.Error)
		}
	}
	for _, mf := range r.families {
		_, _ = expfmt.MetricFamilyToText(&b, mf)
	}
	return strings.TrimRight(b.String(), "\n")
}

func runScenario(ctx context.Context, f *OutputFormatter, rootOpts *RootOptions, runOpts *RunOptions, sc *scenario.Scenario) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f.VerboseLog("running scenario %s (%d items, max_turns %d)", sc.Name, countItems(sc.Items), sc.MaxTurns)

	opts := scenario.Options{
		Logger:   newLogger(f.GetErrWriter(), rootOpts),
		MaxTurns: runOpts.MaxTurns,
	}

	var reg *prom.Registry
	if runOpts.Metrics {
		reg = prom.NewRegistry()
		exporter, err := obs.NewMetricsExporter(metricsNamespace, reg, obs.ExporterOptions{})
		if err != nil {
			return WrapExitError(ExitCommandError, "register metrics", err)
		}
		recorder, err := obs.NewSnapshotRecorder(metricsNamespace, reg)
		if err != nil {
			return WrapExitError(ExitCommandError, "register metrics", err)
		}
		opts.Metrics = exporter
		opts.AfterTurn = func(s *core.Scheduler, _ core.TurnReport) {
			recorder.Record(s)
		}
	}

	res, runErr := scenario.Run(ctx, sc, opts)

	report := &RunReport{
		Scenario:  res.Scenario,
		Turns:     res.Turns,
		Failures:  res.Failures,
		Executed:  res.Stats.Executed,
		Failed:    res.Stats.Failed,
		Cancelled: res.Stats.Cancelled,
		Pending:   res.Stats.PendingTotal(),
	}
	if reg != nil {
		families, err := reg.Gather()
		if err != nil {
			return WrapExitError(ExitFailure, "gather metrics", err)
		}
		report.families = families
		report.Metrics = convertFamilies(families)
	}
	f.VerboseLog("scenario %s finished after %d turns", sc.Name, len(res.Turns))

	if runErr == nil {
		return f.Success(report)
	}

	code, exit := ErrCodeAborted, ExitFailure
	if errors.Is(runErr, core.ErrSchedulerExhausted) {
		code = ErrCodeExhausted
	}
	if err := f.Error(code, runErr.Error(), report); err != nil {
		return err
	}
	return WrapExitError(exit, fmt.Sprintf("scenario %s did not complete", sc.Name), runErr)
}

func countItems(items []scenario.Item) int {
	n := len(items)
	for _, it := range items {
		n += countItems(it.Then)
	}
	return n
}

func convertFamilies(families []*dto.MetricFamily) []MetricFamily {
	out := make([]MetricFamily, 0, len(families))
	for _, mf := range families {
		fam := MetricFamily{
			Name: mf.GetName(),
			Type: strings.ToLower(mf.GetType().String()),
		}
		for _, m := range mf.GetMetric() {
			s := Sample{}
			if len(m.GetLabel()) > 0 {
				s.Labels = make(map[string]string, len(m.GetLabel()))
				for _, lp := range m.GetLabel() {
					s.Labels[lp.GetName()] = lp.GetValue()
				}
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				s.Value = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				s.Value = m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				count := m.GetHistogram().GetSampleCount()
				s.Value = m.GetHistogram().GetSampleSum()
				s.Count = &count
			default:
				s.Value = m.GetUntyped().GetValue()
			}
			fam.Samples = append(fam.Samples, s)
		}
		out = append(out, fam)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
