package hakuna

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Ref is an {id, name} reference embedded in timer and entry payloads.
// Some endpoints return a bare numeric ID instead of an object; both decode.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts an object, a number or null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if len(data) > 0 && data[0] != '{' {
		id, err := strconv.ParseInt(string(bytes.Trim(data, `"`)), 10, 64)
		if err != nil {
			return fmt.Errorf("hakuna: invalid reference %s", data)
		}
		*r = Ref{ID: id}
		return nil
	}
	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Ref(p)
	return nil
}

// Timer is the payload of GET /timer and POST /timer.
// A timer that is not running has an empty Date.
type Timer struct {
	Date              string  `json:"date"`
	StartTime         string  `json:"start_time"`
	Duration          string  `json:"duration"`
	DurationInSeconds float64 `json:"duration_in_seconds"`
	Note              string  `json:"note"`
	User              *Ref    `json:"user"`
	Task              *Ref    `json:"task"`
	Project           *Ref    `json:"project"`
}

// Running reports whether the payload describes a running timer.
func (t Timer) Running() bool {
	return t.Date != ""
}

// StartedAt combines Date and StartTime in loc. It returns the zero time
// when the timer is not running or the fields cannot be parsed.
func (t Timer) StartedAt(loc *time.Location) time.Time {
	if !t.Running() || t.StartTime == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if ts, err := time.ParseInLocation(layout, t.Date+" "+t.StartTime, loc); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// Elapsed returns the remote-reported running duration.
func (t Timer) Elapsed() time.Duration {
	return time.Duration(t.DurationInSeconds * float64(time.Second))
}

// StartTimerRequest is the body of POST /timer. Nil fields are omitted.
type StartTimerRequest struct {
	TaskID    *int64  `json:"task_id,omitempty"`
	ProjectID *int64  `json:"project_id,omitempty"`
	Note      *string `json:"note,omitempty"`
}

// TimeEntry is the confirmation returned by PUT /timer.
type TimeEntry struct {
	ID                int64   `json:"id"`
	Date              string  `json:"date"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time"`
	Duration          string  `json:"duration"`
	DurationInSeconds float64 `json:"duration_in_seconds"`
	Note              string  `json:"note"`
	User              *Ref    `json:"user,omitempty"`
	Task              *Ref    `json:"task,omitempty"`
	Project           *Ref    `json:"project,omitempty"`
}

// Vacation balances in days.
type Vacation struct {
	RedeemedDays  float64 `json:"redeemed_days"`
	RemainingDays float64 `json:"remaining_days"`
}

// Overview is the payload of GET /overview.
type Overview struct {
	Overtime          string   `json:"overtime"`
	OvertimeInSeconds int64    `json:"overtime_in_seconds"`
	Vacation          Vacation `json:"vacation"`
}

// OvertimeMinutes converts the signed overtime balance to whole minutes,
// truncating toward zero.
func (o Overview) OvertimeMinutes() int {
	return int(o.OvertimeInSeconds / 60)
}

// Task is an entry of GET /tasks.
type Task struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
	Default  bool   `json:"default"`
}

// Project is an entry of GET /projects.
type Project struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

// PresenceUser is the user part of a presence entry.
type PresenceUser struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Groups []string `json:"groups,omitempty"`
}

// User is an entry of GET /users, the users the token's owner manages.
type User struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email,omitempty"`
	Status string   `json:"status,omitempty"`
	Groups []string `json:"groups,omitempty"`
}

// Presence is an entry of GET /presence.
type Presence struct {
	User                PresenceUser `json:"user"`
	AbsentFirstHalfDay  bool         `json:"absent_first_half_day"`
	AbsentSecondHalfDay bool         `json:"absent_second_half_day"`
	HasTimerRunning     bool         `json:"has_timer_running"`
}
