package adapters

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"remote-apt-dater/internal/core"
	"remote-apt-dater/internal/types"
)

type checkReport struct {
	Status    string          `yaml:"status" json:"status"`
	Locked    bool            `yaml:"locked" json:"locked"`
	CheckedAt string          `yaml:"checked_at,omitempty" json:"checked_at,omitempty"`
	Cycle     string          `yaml:"cycle,omitempty" json:"cycle,omitempty"`
	Error     string          `yaml:"error,omitempty" json:"error,omitempty"`
	Count     int             `yaml:"count" json:"count"`
	Updates   []reportedEntry `yaml:"updates" json:"updates"`
}

type reportedEntry struct {
	Package string `yaml:"package" json:"package"`
	Version string `yaml:"version" json:"version"`
}

// WriteCheckReport renders a poller snapshot for the check command.
func WriteCheckReport(w io.Writer, snapshot types.Snapshot, format types.OutputFormat) error {
	report := newCheckReport(snapshot)
	switch types.OutputFormat(strings.ToLower(string(format))) {
	case types.OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to encode report").
				WithCause(err)
		}
		return encoder.Close()
	case types.OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to encode report").
				WithCause(err)
		}
		return nil
	case types.OutputFormatText, "":
		return writeTextReport(w, report)
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported output format: " + string(format))
	}
}

func newCheckReport(snapshot types.Snapshot) checkReport {
	report := checkReport{
		Status:  string(snapshot.Status),
		Locked:  snapshot.Locked,
		Cycle:   snapshot.CycleID,
		Count:   snapshot.Result.Updates.Len(),
		Updates: []reportedEntry{},
	}
	if !snapshot.Result.CheckedAt.IsZero() {
		report.CheckedAt = snapshot.Result.CheckedAt.UTC().Format(time.RFC3339)
	}
	if snapshot.Result.Error != nil {
		report.Error = snapshot.Result.Error.Error()
	}
	for _, update := range core.SortUpdates(snapshot.Result.Updates) {
		report.Updates = append(report.Updates, reportedEntry{Package: update.Package, Version: update.Version})
	}
	return report
}

func writeTextReport(w io.Writer, report checkReport) error {
	var b strings.Builder
	switch {
	case report.Error != "":
		fmt.Fprintf(&b, "Check failed: %s\n", report.Error)
	case report.Count == 0:
		b.WriteString("Up to date\n")
	default:
		fmt.Fprintf(&b, "%d update(s) pending\n", report.Count)
	}
	for _, update := range report.Updates {
		fmt.Fprintf(&b, "  %s %s\n", update.Package, update.Version)
	}
	if report.CheckedAt != "" {
		fmt.Fprintf(&b, "Last checked %s\n", report.CheckedAt)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
