package snapshot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
)

func TestFormatOvertime(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "00:00"},
		{125, "02:05"},
		{-90, "-01:30"},
		{-5, "-00:05"},
		{28230, "470:30"},
	}
	for _, tt := range tests {
		if got := FormatOvertime(tt.minutes); got != tt.want {
			t.Errorf("FormatOvertime(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestFormatDaysAndElapsed(t *testing.T) {
	assert.Equal(t, "12.5", FormatDays(12.5))
	assert.Equal(t, "3", FormatDays(3.0))
	assert.Equal(t, "12.25", FormatDays(12.25), "quarter days are not rounded away")
	assert.Equal(t, "0.75", FormatDays(0.75))
	assert.Equal(t, "1.33", FormatDays(4.0/3))
	assert.Equal(t, "-2.5", FormatDays(-2.5))
	assert.Equal(t, "0", FormatDays(-0.001))
	assert.Equal(t, "1:02:03", FormatElapsed(time.Hour+2*time.Minute+3*time.Second+400*time.Millisecond))
	assert.Equal(t, "0:00:00", FormatElapsed(-time.Second))
}

func TestTimerFromRunning(t *testing.T) {
	timer := hakuna.Timer{
		Date:              "2026-03-02",
		StartTime:         "08:00",
		DurationInSeconds: 600,
		Note:              "review",
		Project:           &hakuna.Ref{ID: 5, Name: "A"},
		Task:              &hakuna.Ref{ID: 7},
	}

	info := TimerFrom(timer, time.UTC)
	assert.True(t, info.Running)
	assert.Equal(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), info.StartedAt)
	assert.Equal(t, "A", info.Project)
	assert.Equal(t, int64(5), info.ProjectID)
	assert.Equal(t, "#7", info.Task)
	assert.Equal(t, "review", info.Note)
	assert.Equal(t, 10*time.Minute, info.Elapsed)
}

func TestTimerFromIdleIsZero(t *testing.T) {
	// Even stray fields in an idle payload must not leak into TimerInfo.
	info := TimerFrom(hakuna.Timer{Note: "leftover", Task: &hakuna.Ref{ID: 1, Name: "X"}}, time.UTC)
	assert.Equal(t, TimerInfo{}, info)
}

func TestElapsedAt(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	info := TimerInfo{Running: true, StartedAt: start, Elapsed: time.Minute}

	assert.Equal(t, 90*time.Minute, info.ElapsedAt(start.Add(90*time.Minute)))
	assert.Equal(t, time.Duration(0), info.ElapsedAt(start.Add(-time.Hour)))

	info.StartedAt = time.Time{}
	assert.Equal(t, time.Minute, info.ElapsedAt(start))

	assert.Equal(t, time.Duration(0), TimerInfo{}.ElapsedAt(start))
}

func TestOverviewFrom(t *testing.T) {
	o := OverviewFrom(hakuna.Overview{
		OvertimeInSeconds: 125 * 60,
		Vacation:          hakuna.Vacation{RemainingDays: 12.5, RedeemedDays: 3},
	})
	assert.Equal(t, Overview{OvertimeMinutes: 125, VacationDaysRemaining: 12.5, VacationDaysTaken: 3}, o)
	assert.Equal(t, "02:05", o.Overtime())
}

func TestSnapshotLoaded(t *testing.T) {
	var s Snapshot
	assert.False(t, s.Loaded())
	assert.Equal(t, time.Duration(0), s.Age(time.Now()))
	assert.Equal(t, "", s.ErrorText())

	fetched := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s = Snapshot{FetchedAt: fetched, Err: errors.New("boom")}
	assert.True(t, s.Loaded())
	assert.Equal(t, time.Minute, s.Age(fetched.Add(time.Minute)))
	assert.Equal(t, "boom", s.ErrorText())
}
