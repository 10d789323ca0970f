// Package snapshot defines the immutable view of the remote timer and
// balances that the coordinator publishes to its subscribers.
package snapshot

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
)

// TimerInfo describes the remote timer. All fields except Running are zero
// unless Running is true.
type TimerInfo struct {
	Running   bool          `json:"running"`
	StartedAt time.Time     `json:"started_at,omitzero"`
	Project   string        `json:"project,omitempty"`
	Task      string        `json:"task,omitempty"`
	Note      string        `json:"note,omitempty"`
	ProjectID int64         `json:"project_id,omitempty"`
	TaskID    int64         `json:"task_id,omitempty"`
	Elapsed   time.Duration `json:"elapsed,omitempty"`
}

// TimerFrom converts an API timer payload, interpreting its local start
// time in loc.
func TimerFrom(t hakuna.Timer, loc *time.Location) TimerInfo {
	if !t.Running() {
		return TimerInfo{}
	}
	info := TimerInfo{
		Running:   true,
		StartedAt: t.StartedAt(loc),
		Note:      t.Note,
		Elapsed:   t.Elapsed(),
	}
	if t.Project != nil {
		info.Project = refName(*t.Project)
		info.ProjectID = t.Project.ID
	}
	if t.Task != nil {
		info.Task = refName(*t.Task)
		info.TaskID = t.Task.ID
	}
	return info
}

func refName(r hakuna.Ref) string {
	if r.Name != "" {
		return r.Name
	}
	if r.ID != 0 {
		return fmt.Sprintf("#%d", r.ID)
	}
	return ""
}

// ElapsedAt returns how long the timer has been running at now. It
// prefers StartedAt and falls back to the remote-reported Elapsed.
func (t TimerInfo) ElapsedAt(now time.Time) time.Duration {
	if !t.Running {
		return 0
	}
	if !t.StartedAt.IsZero() {
		if d := now.Sub(t.StartedAt); d > 0 {
			return d
		}
		return 0
	}
	return t.Elapsed
}

// Overview holds the balances from the overview endpoint.
type Overview struct {
	OvertimeMinutes       int     `json:"overtime_minutes"`
	VacationDaysRemaining float64 `json:"vacation_days_remaining"`
	VacationDaysTaken     float64 `json:"vacation_days_taken"`
}

// OverviewFrom converts an API overview payload.
func OverviewFrom(o hakuna.Overview) Overview {
	return Overview{
		OvertimeMinutes:       o.OvertimeMinutes(),
		VacationDaysRemaining: o.Vacation.RemainingDays,
		VacationDaysTaken:     o.Vacation.RedeemedDays,
	}
}

// Overtime formats the overtime balance, see FormatOvertime.
func (o Overview) Overtime() string {
	return FormatOvertime(o.OvertimeMinutes)
}

// Snapshot is one published state. Values are never mutated after
// publication; the coordinator replaces the whole value.
type Snapshot struct {
	Timer     TimerInfo `json:"timer"`
	Overview  Overview  `json:"overview"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`

	// Stale is set when the last refresh failed and the values are
	// carried over from an earlier one.
	Stale bool `json:"stale"`

	// AuthFailed marks the fatal condition: the token was rejected and no
	// refresh is scheduled until reconfiguration.
	AuthFailed bool `json:"auth_failed"`

	// Err is the error of the last failed refresh, nil after a success.
	Err error `json:"-"`

	// Seq increases with every publication.
	Seq uint64 `json:"seq"`
}

// Loaded reports whether any refresh has ever succeeded.
func (s Snapshot) Loaded() bool {
	return !s.FetchedAt.IsZero()
}

// Age returns the time since the values were fetched, 0 if never loaded.
func (s Snapshot) Age(now time.Time) time.Duration {
	if !s.Loaded() {
		return 0
	}
	return now.Sub(s.FetchedAt)
}

// ErrorText returns Err's message or "".
func (s Snapshot) ErrorText() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// FormatOvertime renders signed minutes as [-]HH:MM, e.g. 125 -> "02:05"
// and -90 -> "-01:30". Hours grow beyond two digits as needed.
func FormatOvertime(minutes int) string {
	sign := ""
	abs := int64(minutes)
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	return fmt.Sprintf("%s%02d:%02d", sign, abs/60, abs%60)
}

// FormatDays renders a day balance with at most two decimals and no
// trailing zeros, e.g. 3, 12.5 or 12.25.
func FormatDays(days float64) string {
	rounded := math.Round(days*100) / 100
	if rounded == 0 {
		rounded = 0 // drop negative zero
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// FormatElapsed renders a duration as H:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
