package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hakuna-bridge/hakuna-go/pkg/log"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	switch format {
	case "jsonl", "csv":
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "csv" {
		return exportCSV(reader, w)
	}
	return exportJSONL(reader, w)
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{"timestamp", "cycle_id", "request_id", "layer", "category", "type", "method", "path", "status", "outcome", "latency_ms", "detail"}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return cw.Error()
}

func csvRow(event log.Event) []string {
	var eventType, method, path, status, outcome, latency, detail string
	switch {
	case event.Exchange != nil:
		x := event.Exchange
		eventType = "exchange"
		method, path, outcome = x.Method, x.Path, x.Outcome
		status = strconv.Itoa(x.StatusCode)
		latency = strconv.FormatFloat(float64(x.Latency.Microseconds())/1000, 'f', 3, 64)
	case event.StateChange != nil:
		sc := event.StateChange
		eventType = "state"
		detail = fmt.Sprintf("%s %s->%s", sc.Entity, sc.OldState, sc.NewState)
	case event.Snapshot != nil:
		eventType = "snapshot"
		detail = fmt.Sprintf("seq=%d running=%t stale=%t", event.Snapshot.Seq, event.Snapshot.Running, event.Snapshot.Stale)
	case event.Error != nil:
		eventType = "error"
		outcome = event.Error.Kind
		detail = event.Error.Message
	default:
		eventType = "unknown"
	}

	return []string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.CycleID,
		event.RequestID,
		event.Layer.String(),
		event.Category.String(),
		eventType,
		method,
		path,
		status,
		outcome,
		latency,
		detail,
	}
}
