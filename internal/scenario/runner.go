package scenario

import (
	"context"
	"errors"
	"time"

	"github.com/Swind/go-turn-loop/core"
)

// Options configures a scenario run.
type Options struct {
	// Logger receives scheduler logs and the output of item log actions.
	Logger core.Logger
	// Metrics is passed through to the scheduler.
	Metrics core.Metrics
	// MaxTurns overrides the scenario's max_turns when > 0.
	MaxTurns int
	// AfterTurn is called after every turn, e.g. to record snapshots.
	AfterTurn func(s *core.Scheduler, report core.TurnReport)
}

// Result is what a scenario run produced.
type Result struct {
	Scenario string              `json:"scenario"`
	Turns    []TurnResult        `json:"turns"`
	Failures []Failure           `json:"failures,omitempty"`
	Stats    core.SchedulerStats `json:"-"`
	// Err is the error returned by the run, if any.
	Err error `json:"-"`
}

// TurnResult lists the items executed in one turn, in order.
type TurnResult struct {
	Turn  int      `json:"turn"`
	Items []string `json:"items"`
}

// Failure describes an action that returned an error or panicked.
type Failure struct {
	Turn     int    `json:"turn"`
	Item     string `json:"item"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
	Panicked bool   `json:"panicked,omitempty"`
}

// Order flattens the trace into execution order across all turns.
func (r *Result) Order() []string {
	var out []string
	for _, t := range r.Turns {
		out = append(out, t.Items...)
	}
	return out
}

// player schedules scenario items and remembers their ids by name so that
// cancel actions can find them.
type player struct {
	logger core.Logger
	ids    map[string]core.ItemID
}

// Run replays sc on a fresh scheduler until no work remains, the turn budget
// is spent or ctx is cancelled. The returned Result is never nil; its Err
// field mirrors the returned error.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = core.NewNoOpLogger()
	}
	maxTurns := sc.MaxTurns
	if opts.MaxTurns > 0 {
		maxTurns = opts.MaxTurns
	}

	res := &Result{Scenario: sc.Name}
	var s *core.Scheduler
	s = core.NewScheduler(&core.SchedulerConfig{
		Name:     sc.Name,
		MaxTurns: maxTurns,
		Logger:   opts.Logger,
		Metrics:  opts.Metrics,
		FailureHandler: core.FailureHandlerFunc(func(_ context.Context, _ string, f *core.ActionError) {
			res.Failures = append(res.Failures, Failure{
				Turn:     f.Turn,
				Item:     f.Item.Name,
				Kind:     f.Item.Kind.String(),
				Error:    f.Err.Error(),
				Panicked: f.Panicked(),
			})
		}),
		OnTurnComplete: func(report core.TurnReport) {
			res.Turns = append(res.Turns, TurnResult{Turn: report.Turn, Items: report.Names()})
			if opts.AfterTurn != nil {
				opts.AfterTurn(s, report)
			}
		},
	})

	p := &player{logger: opts.Logger, ids: make(map[string]core.ItemID)}
	for _, it := range sc.Items {
		p.schedule(s, it)
	}
	for _, name := range sc.Cancel {
		p.cancel(s, name)
	}

	err := s.Run(ctx)
	res.Stats = s.Stats()
	res.Err = err
	return res, err
}

func (p *player) schedule(s *core.Scheduler, it Item) {
	kind, err := ParseKind(it.Kind)
	if err != nil {
		// Validate rejects unknown kinds; ScheduleNamed logs and falls back.
		kind = core.Kind(-1)
	}
	p.ids[it.Name] = s.ScheduleNamed(kind, it.Name, time.Duration(it.Delay), p.action(it))
}

func (p *player) cancel(s *core.Scheduler, name string) {
	id, ok := p.ids[name]
	if !ok {
		p.logger.Warn("cancel skipped, item not scheduled yet", core.F("scheduler", s.Name()), core.F("target", name))
		return
	}
	if err := s.Cancel(id); err != nil {
		p.logger.Warn("cancel failed", core.F("scheduler", s.Name()), core.F("target", name), core.F("error", err))
	}
}

func (p *player) action(it Item) core.Action {
	return func(ctx context.Context) error {
		s := core.CurrentScheduler(ctx)

		if it.Log != "" {
			core.NewSink(p.logger, it.Level).Log(it.Log)
		}
		for _, name := range it.Cancel {
			p.cancel(s, name)
		}
		for _, child := range it.Then {
			p.schedule(s, child)
		}

		if it.Panic != "" {
			panic(it.Panic)
		}
		if it.Fail != "" {
			return errors.New(it.Fail)
		}
		return nil
	}
}
