package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ptnet/ptnet-go/pkg/log"
)

// csvHeader names the columns written by the csv format.
var csvHeader = []string{
	"timestamp", "engine_id", "connection_id", "role", "direction", "layer",
	"category", "remote_addr", "type", "size", "detail",
}

// RunExport converts the log at path to format ("jsonl" or "csv"), writing
// to output or to stdout when output is empty.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	w := io.Writer(os.Stdout)
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return export(reader, format, w)
}

func export(reader *log.Reader, format string, w io.Writer) error {
	var (
		write func(log.Event) error
		flush = func() error { return nil }
	)
	switch format {
	case "jsonl":
		enc := json.NewEncoder(w)
		write = func(e log.Event) error { return enc.Encode(e) }
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
		write = func(e log.Event) error { return cw.Write(csvRow(e)) }
		flush = func() error {
			cw.Flush()
			return cw.Error()
		}
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	for event, err := range reader.All() {
		if err != nil {
			return err
		}
		if err := write(event); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
	return flush()
}

// csvRow flattens an event. size is set for frames; detail carries the new
// state, the admission outcome or the error class.
func csvRow(e log.Event) []string {
	var size, detail string
	switch {
	case e.Frame != nil:
		size = strconv.Itoa(e.Frame.Size)
	case e.StateChange != nil:
		detail = e.StateChange.NewState
	case e.Admission != nil:
		detail = "accepted"
		if !e.Admission.Accepted {
			detail = "rejected:" + e.Admission.Reason
		}
	case e.Error != nil:
		detail = e.Error.Class
	}

	return []string{
		e.Timestamp.UTC().Format(timeFormat),
		e.EngineID,
		strconv.FormatUint(e.ConnectionID, 10),
		e.LocalRole.String(),
		e.Direction.String(),
		e.Layer.String(),
		e.Category.String(),
		e.RemoteAddr,
		eventType(e),
		size,
		detail,
	}
}
