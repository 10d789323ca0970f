package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/hakuna-bridge/hakuna-go/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents      int
	EventsByLayer    map[log.Layer]int
	EventsByCategory map[log.Category]int
	Endpoints        map[string]*EndpointStats
	Cycles           map[string]bool
	Snapshots        int
	StaleSnapshots   int
	StateChanges     int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// EndpointStats holds statistics for one "METHOD path" pair.
type EndpointStats struct {
	Requests     int
	ByOutcome    map[string]int
	TotalLatency time.Duration
	MaxLatency   time.Duration
}

// AvgLatency returns the mean latency.
func (e *EndpointStats) AvgLatency() time.Duration {
	if e.Requests == 0 {
		return 0
	}
	return e.TotalLatency / time.Duration(e.Requests)
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:    make(map[log.Layer]int),
		EventsByCategory: make(map[log.Category]int),
		Endpoints:        make(map[string]*EndpointStats),
		Cycles:           make(map[string]bool),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}
	if event.CycleID != "" {
		s.Cycles[event.CycleID] = true
	}

	switch {
	case event.Exchange != nil:
		x := event.Exchange
		key := x.Method + " " + x.Path
		ep, ok := s.Endpoints[key]
		if !ok {
			ep = &EndpointStats{ByOutcome: make(map[string]int)}
			s.Endpoints[key] = ep
		}
		ep.Requests++
		ep.ByOutcome[x.Outcome]++
		ep.TotalLatency += x.Latency
		if x.Latency > ep.MaxLatency {
			ep.MaxLatency = x.Latency
		}
	case event.Snapshot != nil:
		s.Snapshots++
		if event.Snapshot.Stale {
			s.StaleSnapshots++
		}
	case event.StateChange != nil:
		s.StateChanges++
	case event.Error != nil:
		s.Errors++
	}
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Hakuna Bridge Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Cycles:       %d\n", len(stats.Cycles))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerAPI, log.LayerTimer, log.LayerCoordinator} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryExchange, log.CategoryState, log.CategorySnapshot, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}

	if len(stats.Endpoints) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Requests:")
		keys := make([]string, 0, len(stats.Endpoints))
		for k := range stats.Endpoints {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ep := stats.Endpoints[k]
			fmt.Fprintf(w, "  %-16s %d requests, avg %s, max %s\n",
				k, ep.Requests, formatDuration(ep.AvgLatency()), formatDuration(ep.MaxLatency))
			outcomes := make([]string, 0, len(ep.ByOutcome))
			for o := range ep.ByOutcome {
				outcomes = append(outcomes, o)
			}
			sort.Strings(outcomes)
			for _, o := range outcomes {
				fmt.Fprintf(w, "    %-14s %d\n", o+":", ep.ByOutcome[o])
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Snapshots: %d (%d stale)\n", stats.Snapshots, stats.StaleSnapshots)
	fmt.Fprintf(w, "State Changes: %d\n", stats.StateChanges)
	if stats.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
