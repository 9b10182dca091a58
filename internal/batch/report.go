package batch

import (
	"fmt"
	"sort"
	"strings"

	"ogre-mesh-tools/internal/model"
)

const (
	StandingSucceeded = "succeeded"
	StandingPartial   = "partially_succeeded"
	StandingFailed    = "failed"
)

// ItemSummary condenses one ItemResult for display.
type ItemSummary struct {
	InputPath string   `json:"input_path"`
	Standing  string   `json:"standing"`
	Outputs   []string `json:"outputs,omitempty"`
	Failures  []string `json:"failures,omitempty"`
}

// Summary is the finalized view of a batch, stable and deterministic for a
// given report. It does not mutate the underlying results.
type Summary struct {
	TotalItems       int           `json:"total_items"`
	TotalSucceeded   int           `json:"total_succeeded"`
	TotalFailed      int           `json:"total_failed"`
	PartialSucceeded int           `json:"partially_succeeded"`
	Items            []ItemSummary `json:"items"`
}

// Summarize classifies each item as fully succeeded, partially succeeded
// (some selected operations failed) or fully failed, and totals them. Items
// are ordered by input path so the summary is stable regardless of worker
// completion order.
func Summarize(report model.BatchReport) Summary {
	s := Summary{
		TotalItems:     len(report.Items),
		TotalSucceeded: report.TotalSucceeded,
		TotalFailed:    report.TotalFailed,
	}
	for _, item := range report.Items {
		is := ItemSummary{InputPath: item.InputPath, Standing: standingOf(item)}
		if is.Standing == StandingPartial {
			s.PartialSucceeded++
		}
		for _, o := range item.Outcomes {
			if o.Status == model.StatusSuccess {
				if o.OutputPath != "" {
					is.Outputs = append(is.Outputs, o.OutputPath)
				}
				continue
			}
			is.Failures = append(is.Failures, fmt.Sprintf("%s: [%s] %s", o.Operation, o.ErrorKind, o.ErrorDetail))
		}
		s.Items = append(s.Items, is)
	}
	sort.Slice(s.Items, func(i, j int) bool {
		return s.Items[i].InputPath < s.Items[j].InputPath
	})
	return s
}

func standingOf(item model.ItemResult) string {
	failedOps := item.FailedCount()
	switch {
	case failedOps == 0 && len(item.Outcomes) > 0:
		return StandingSucceeded
	case failedOps == len(item.Outcomes):
		return StandingFailed
	default:
		return StandingPartial
	}
}

// Render produces the plain-text form of the summary.
func (s Summary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "processed %d file(s): %d succeeded, %d failed", s.TotalItems, s.TotalSucceeded, s.TotalFailed)
	if s.PartialSucceeded > 0 {
		fmt.Fprintf(&b, " (%d partial)", s.PartialSucceeded)
	}
	b.WriteString("\n")
	for _, item := range s.Items {
		fmt.Fprintf(&b, "  %-20s %s\n", item.Standing, item.InputPath)
		for _, f := range item.Failures {
			fmt.Fprintf(&b, "      %s\n", f)
		}
	}
	return b.String()
}
