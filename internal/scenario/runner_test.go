package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Swind/go-turn-loop/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	sc, err := Parse("test.yaml", []byte(doc))
	require.NoError(t, err)
	return sc
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestRun_BuiltinEventLoop(t *testing.T) {
	sc, err := Builtin("event_loop")
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := core.NewZerologLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	res, err := Run(context.Background(), sc, Options{Logger: logger})
	require.NoError(t, err)
	require.NoError(t, res.Err)

	want := []TurnResult{
		{Turn: 1, Items: []string{
			"add-tasks", "process-task-1", "process-task-2", "process-task-3", "loop-done",
			"promise-1-timer", "next-tick", "promise-1-then",
		}},
		{Turn: 2, Items: []string{"set-immediate"}},
		{Turn: 3, Items: []string{"promise-2-timer", "promise-2-then"}},
		{Turn: 4, Items: []string{"set-timeout"}},
	}
	assert.Equal(t, want, res.Turns)
	assert.Empty(t, res.Failures)
	assert.Equal(t, int64(12), res.Stats.Executed)

	lines := logLines(t, &buf)
	var info, plain []string
	for _, l := range lines {
		msg, _ := l["message"].(string)
		switch l["level"] {
		case "info":
			info = append(info, msg)
		case nil:
			plain = append(plain, msg)
		}
	}
	assert.Equal(t, []string{"processing task 1", "processing task 2", "processing task 3"}, plain)
	assert.Equal(t, "adding tasks to the queue", info[0])
	assert.Contains(t, info, "microtask 2 resolved")
}

func TestRun_CancelAndFailures(t *testing.T) {
	sc := mustParse(t, `
name: failures
items:
  - name: a
    kind: immediate
    cancel: [t2]
    fail: bad input
  - name: t1
    kind: timer
    panic: boom
  - name: t2
    kind: timer
    delay: 10ms
  - name: e
    kind: end_of_turn
    then:
      - name: late
        kind: immediate
        cancel: [a]
`)

	res, err := Run(context.Background(), sc, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "t1", "e", "late"}, res.Order())
	require.Len(t, res.Failures, 2)

	assert.Equal(t, Failure{Turn: 1, Item: "a", Kind: "immediate", Error: "bad input"}, res.Failures[0])
	assert.Equal(t, "t1", res.Failures[1].Item)
	assert.Equal(t, "short_timer", res.Failures[1].Kind)
	assert.True(t, res.Failures[1].Panicked)
	assert.Contains(t, res.Failures[1].Error, "boom")

	assert.Equal(t, int64(2), res.Stats.Failed)
	assert.Equal(t, int64(1), res.Stats.Cancelled)
}

func TestRun_CancelCompletedItemIsLogged(t *testing.T) {
	sc := mustParse(t, `
name: late-cancel
items:
  - name: first
  - name: second
    kind: timer
    cancel: [first]
`)
	var buf bytes.Buffer
	logger := core.NewZerologLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	res, err := Run(context.Background(), sc, Options{Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, res.Order())
	assert.Empty(t, res.Failures)

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "cancel failed", lines[0]["message"])
	assert.Equal(t, "first", lines[0]["target"])
	assert.Contains(t, lines[0]["error"], "already completed")
}

func TestRun_TopLevelCancel(t *testing.T) {
	sc := mustParse(t, `
name: pre-cancel
items:
  - name: keep
  - name: drop
    kind: timer
    delay: 1s
cancel: [drop]
`)
	res, err := Run(context.Background(), sc, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, res.Order())
	assert.Equal(t, int64(1), res.Stats.Cancelled)
}

func TestRun_Exhausted(t *testing.T) {
	sc := mustParse(t, `
name: busy
max_turns: 2
items:
  - {name: t1, kind: timer}
  - {name: t2, kind: timer}
  - {name: t3, kind: timer}
  - {name: t4, kind: timer}
`)
	var turns []int
	res, err := Run(context.Background(), sc, Options{
		AfterTurn: func(s *core.Scheduler, report core.TurnReport) {
			turns = append(turns, report.Turn)
			assert.Equal(t, report.Turn, s.Turn())
		},
	})
	require.ErrorIs(t, err, core.ErrSchedulerExhausted)
	assert.ErrorIs(t, res.Err, core.ErrSchedulerExhausted)
	assert.Equal(t, []int{1, 2}, turns)
	assert.Equal(t, []string{"t1", "t2"}, res.Order())
	assert.Equal(t, 2, res.Stats.PendingTotal())

	// the option overrides the scenario budget
	res, err = Run(context.Background(), sc, Options{MaxTurns: 10})
	require.NoError(t, err)
	assert.Len(t, res.Turns, 4)
}

func TestRun_ContextCancelled(t *testing.T) {
	sc := mustParse(t, "name: c\nitems: [{name: a}]\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, sc, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Turns)
	assert.Equal(t, 1, res.Stats.PendingTotal())
}
