// Package interactive provides the interactive command-line interface
// for the Hakuna bridge.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/chzyer/readline"

	"github.com/hakuna-bridge/hakuna-go/pkg/coordinator"
	"github.com/hakuna-bridge/hakuna-go/pkg/log"
	"github.com/hakuna-bridge/hakuna-go/pkg/snapshot"
	"github.com/hakuna-bridge/hakuna-go/pkg/timer"
)

// DefaultTraceLines is how many events "trace" prints without an argument.
const DefaultTraceLines = 20

// Console handles interactive mode for hakuna-bridge.
type Console struct {
	coord *coordinator.Coordinator
	trace *log.MemoryLogger
	rl    *readline.Instance
	out   io.Writer

	mu       sync.Mutex
	watching *watch

	// For testing
	timeNow func() time.Time
}

type watch struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a console reading from the terminal. trace may be nil, in
// which case the "trace" command is unavailable.
func New(coord *coordinator.Coordinator, trace *log.MemoryLogger) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hakuna> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("status"),
			readline.PcItem("start"),
			readline.PcItem("stop"),
			readline.PcItem("cancel"),
			readline.PcItem("refresh"),
			readline.PcItem("tasks"),
			readline.PcItem("projects"),
			readline.PcItem("team"),
			readline.PcItem("trace"),
			readline.PcItem("watch"),
			readline.PcItem("reconfigure"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c := newConsole(coord, trace, rl.Stdout())
	c.rl = rl
	return c, nil
}

func newConsole(coord *coordinator.Coordinator, trace *log.MemoryLogger, out io.Writer) *Console {
	return &Console{
		coord:   coord,
		trace:   trace,
		out:     out,
		timeNow: time.Now,
	}
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use it for log output so it does not garble the input line.
func (c *Console) Stdout() io.Writer {
	if c.rl != nil {
		return c.rl.Stdout()
	}
	return os.Stdout
}

// Run starts the interactive command loop. It calls cancel when the user
// quits or input ends.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()
	defer c.stopWatch()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if quit := c.Execute(ctx, line); quit {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns true when the user asked to quit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "status", "s":
		c.cmdStatus()
	case "start":
		c.cmdStart(ctx, args)
	case "stop":
		c.cmdStop(ctx)
	case "cancel":
		c.cmdCancel(ctx)
	case "refresh", "r":
		c.cmdRefresh(ctx)
	case "tasks":
		c.cmdTasks(ctx)
	case "projects":
		c.cmdProjects(ctx)
	case "team":
		c.cmdTeam(ctx)
	case "trace", "t":
		c.cmdTrace(args)
	case "watch", "w":
		c.cmdWatch()
	case "reconfigure", "reconf":
		c.cmdReconfigure(ctx, args)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Hakuna Bridge Commands:
  Timer:
    status                          - Show the current snapshot
    start [task] [project=<p>] [note=<text...>]
                                    - Start the timer (task/project by name or id)
    stop                            - Stop the timer and create a time entry
    cancel                          - Discard the running timer

  Data:
    refresh                         - Refresh now
    tasks                           - List tasks
    projects                        - List projects
    team                            - Show team presence

  Diagnostics:
    trace [n]                       - Show the last n capture events
    watch                           - Toggle printing every published snapshot
    reconfigure [token=<t>] [interval=<d>]
                                    - Replace token and/or interval

  Other:
    help                            - Show this help
    quit                            - Exit`)
}

func (c *Console) cmdStatus() {
	c.printSnapshot(c.coord.Snapshot())
	fmt.Fprintf(c.out, "  Health:   %s (interval %s)\n", c.coord.Health(), c.coord.Interval())
}

func (c *Console) printSnapshot(snap snapshot.Snapshot) {
	now := c.timeNow()
	if !snap.Loaded() {
		fmt.Fprintln(c.out, "  No data loaded yet")
		if snap.Err != nil {
			fmt.Fprintf(c.out, "  Error:    %v\n", snap.Err)
		}
		return
	}

	t := snap.Timer
	if t.Running {
		fmt.Fprintf(c.out, "  Timer:    RUNNING for %s (since %s)\n",
			snapshot.FormatElapsed(t.ElapsedAt(now)), t.StartedAt.Format("15:04"))
		if t.Project != "" || t.Task != "" {
			fmt.Fprintf(c.out, "  Task:     %s / %s\n", orDash(t.Project), orDash(t.Task))
		}
		if t.Note != "" {
			fmt.Fprintf(c.out, "  Note:     %s\n", t.Note)
		}
	} else {
		fmt.Fprintln(c.out, "  Timer:    IDLE")
	}

	o := snap.Overview
	fmt.Fprintf(c.out, "  Overtime: %s\n", o.Overtime())
	fmt.Fprintf(c.out, "  Vacation: %s remaining, %s taken\n",
		snapshot.FormatDays(o.VacationDaysRemaining), snapshot.FormatDays(o.VacationDaysTaken))

	state := "fresh"
	switch {
	case snap.AuthFailed:
		state = "stale, token rejected"
	case snap.Stale:
		state = "stale"
	}
	fmt.Fprintf(c.out, "  Updated:  %s ago (#%d, %s)\n", snap.Age(now).Round(time.Second), snap.Seq, state)
	if snap.Err != nil {
		fmt.Fprintf(c.out, "  Error:    %v\n", snap.Err)
	}
}

func (c *Console) cmdStart(ctx context.Context, args []string) {
	opts, err := parseStartArgs(args)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	res, err := c.coord.StartTimer(ctx, opts)
	c.printResult("start", res, err)
}

func (c *Console) cmdStop(ctx context.Context) {
	res, err := c.coord.StopTimer(ctx)
	c.printResult("stop", res, err)
	if err == nil && res.Entry != nil {
		e := res.Entry
		fmt.Fprintf(c.out, "  Entry #%d: %s %s-%s (%s)\n", e.ID, e.Date, e.StartTime, e.EndTime, e.Duration)
	}
}

func (c *Console) cmdCancel(ctx context.Context) {
	res, err := c.coord.CancelTimer(ctx)
	c.printResult("cancel", res, err)
}

func (c *Console) printResult(action string, res timer.Result, err error) {
	if err != nil {
		fmt.Fprintf(c.out, "Error: %s failed: %v\n", action, err)
		if d := coordinator.RetryAfter(err); d > 0 {
			fmt.Fprintf(c.out, "  Retry in %s\n", d.Round(time.Second))
		}
		return
	}
	note := ""
	if res.Reconciled {
		note = " (reconciled with remote)"
	}
	fmt.Fprintf(c.out, "Timer %s -> %s%s\n", res.From, res.To, note)
}

func (c *Console) cmdRefresh(ctx context.Context) {
	snap, err := c.coord.ForceRefresh(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Error: refresh failed: %v\n", err)
		if d := coordinator.RetryAfter(err); d > 0 {
			fmt.Fprintf(c.out, "  Retry in %s\n", d.Round(time.Second))
		}
		return
	}
	c.printSnapshot(snap)
}

func (c *Console) cmdTasks(ctx context.Context) {
	tasks, err := c.coord.Machine().Catalog().Tasks(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	def, hasDefault := timer.DefaultTask(tasks)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME\tFLAGS")
	for _, t := range tasks {
		var flags []string
		if hasDefault && t.ID == def.ID {
			flags = append(flags, "default")
		}
		if t.Archived {
			flags = append(flags, "archived")
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\n", t.ID, t.Name, strings.Join(flags, ","))
	}
	tw.Flush()
}

func (c *Console) cmdProjects(ctx context.Context) {
	projects, err := c.coord.Machine().Catalog().Projects(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME\tFLAGS")
	for _, p := range projects {
		flags := ""
		if p.Archived {
			flags = "archived"
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\n", p.ID, p.Name, flags)
	}
	tw.Flush()
}

func (c *Console) cmdTeam(ctx context.Context) {
	team, err := c.coord.Team(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if len(team) == 0 {
		fmt.Fprintln(c.out, "  Nobody listed")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tSTATUS\tTIMER\tABSENT")
	for _, p := range team {
		timerState := "-"
		if p.TimerRunning {
			timerState = "running"
		}
		absent := "-"
		switch {
		case p.AbsentFirstHalfDay && p.AbsentSecondHalfDay:
			absent = "all day"
		case p.AbsentFirstHalfDay:
			absent = "morning"
		case p.AbsentSecondHalfDay:
			absent = "afternoon"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", p.Name, orDash(p.Status), timerState, absent)
	}
	tw.Flush()
}

func (c *Console) cmdTrace(args []string) {
	if c.trace == nil {
		fmt.Fprintln(c.out, "Capture is not enabled")
		return
	}
	n := DefaultTraceLines
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			fmt.Fprintf(c.out, "Error: invalid count: %s\n", args[0])
			return
		}
		n = v
	}
	events := c.trace.Events()
	if len(events) > n {
		events = events[len(events)-n:]
	}
	for _, ev := range events {
		fmt.Fprintln(c.out, traceLine(ev))
	}
}

// traceLine renders one capture event on a single line.
func traceLine(ev log.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-11s %-8s", ev.Timestamp.Format("15:04:05.000"), ev.Layer, ev.Category)
	if len(ev.CycleID) >= 8 {
		fmt.Fprintf(&b, " [%s]", ev.CycleID[:8])
	}
	switch {
	case ev.Exchange != nil:
		x := ev.Exchange
		fmt.Fprintf(&b, " %s %s -> %d %s (%s)", x.Method, x.Path, x.StatusCode, x.Outcome, x.Latency.Round(time.Millisecond))
	case ev.StateChange != nil:
		sc := ev.StateChange
		fmt.Fprintf(&b, " %s %s -> %s", sc.Entity, orDash(sc.OldState), sc.NewState)
		if sc.Reason != "" {
			fmt.Fprintf(&b, " (%s)", sc.Reason)
		}
	case ev.Snapshot != nil:
		s := ev.Snapshot
		fmt.Fprintf(&b, " #%d running=%t overtime=%s", s.Seq, s.Running, snapshot.FormatOvertime(s.OvertimeMinutes))
		if s.Stale {
			b.WriteString(" stale")
		}
	case ev.Error != nil:
		fmt.Fprintf(&b, " %s: %s", orDash(ev.Error.Context), ev.Error.Message)
	}
	return b.String()
}

// cmdWatch toggles a subscription that prints every publication.
func (c *Console) cmdWatch() {
	c.mu.Lock()
	if c.watching != nil {
		c.mu.Unlock()
		c.stopWatch()
		fmt.Fprintln(c.out, "Watch stopped")
		return
	}

	sub, err := c.coord.Subscribe()
	if err != nil {
		c.mu.Unlock()
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &watch{cancel: cancel, done: make(chan struct{})}
	c.watching = w
	c.mu.Unlock()

	go func() {
		defer close(w.done)
		defer sub.Unsubscribe()
		for {
			select {
			case n, ok := <-sub.C:
				if !ok {
					return
				}
				if n.IsPriming {
					continue
				}
				fmt.Fprintf(c.out, "\n[snapshot #%d]\n", n.Snapshot.Seq)
				c.printSnapshot(n.Snapshot)
			case <-ctx.Done():
				return
			}
		}
	}()
	fmt.Fprintln(c.out, "Watching snapshots (type 'watch' again to stop)")
}

func (c *Console) stopWatch() {
	c.mu.Lock()
	w := c.watching
	c.watching = nil
	c.mu.Unlock()
	if w != nil {
		w.cancel()
		<-w.done
	}
}

func (c *Console) cmdReconfigure(ctx context.Context, args []string) {
	settings := c.coord.Settings()
	if len(args) == 0 {
		fmt.Fprintln(c.out, "Usage: reconfigure [token=<t>] [interval=<d>]")
		return
	}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			fmt.Fprintf(c.out, "Error: expected key=value, got %q\n", arg)
			return
		}
		switch strings.ToLower(key) {
		case "token":
			settings.Token = value
		case "interval":
			d, err := parseInterval(value)
			if err != nil {
				fmt.Fprintf(c.out, "Error: %v\n", err)
				return
			}
			settings.Interval = d
		default:
			fmt.Fprintf(c.out, "Error: unknown setting %q\n", key)
			return
		}
	}

	snap, err := c.coord.Reconfigure(ctx, settings)
	if err != nil {
		fmt.Fprintf(c.out, "Error: reconfigure failed: %v\n", err)
		if snap.Loaded() || snap.Err != nil {
			c.printSnapshot(snap)
		}
		return
	}
	fmt.Fprintf(c.out, "Reconfigured (interval %s)\n", c.coord.Interval())
	c.printSnapshot(snap)
}

// parseStartArgs reads "[task] [project=<p>] [task=<t>] [note=<text...>]".
// The note consumes the rest of the line.
func parseStartArgs(args []string) (timer.StartOptions, error) {
	var opts timer.StartOptions
	for i, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			if opts.Task != "" {
				return opts, fmt.Errorf("unexpected argument %q", arg)
			}
			opts.Task = arg
			continue
		}
		switch strings.ToLower(key) {
		case "task":
			opts.Task = value
		case "project":
			opts.Project = value
		case "note":
			opts.Note = strings.Join(append([]string{value}, args[i+1:]...), " ")
			return opts, nil
		default:
			return opts, fmt.Errorf("unknown argument %q", key)
		}
	}
	return opts, nil
}

// parseInterval accepts a Go duration or a number of seconds.
func parseInterval(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q", s)
	}
	return d, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
