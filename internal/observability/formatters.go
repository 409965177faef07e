// Package observability provides formatted progress and summary output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/careerscout/internal/batch"
	"github.com/jonathan/careerscout/internal/db"
	"github.com/jonathan/careerscout/internal/discovery"
	"github.com/jonathan/careerscout/internal/importer"
	"github.com/jonathan/careerscout/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// Progress is a batch.ProgressCallback that prints one line per event.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Progress(ev batch.ProgressEvent) {
	switch ev.Kind {
	case batch.EventCompanyDone:
		res := ev.Company
		if res == nil {
			return
		}
		prefix := fmt.Sprintf("[batch %d %d/%d]", ev.BatchNumber, ev.Position, ev.BatchSize)
		if res.Success {
			fmt.Fprintf(p.out, "%s ✓ %s: %d jobs via %s (%s)  totals: %d ok, %d jobs\n",
				prefix, res.Company, len(res.Jobs), res.DiscoveryMethod, formatMillis(res.TimeElapsed),
				ev.Totals.Successful, ev.Totals.Jobs)
		} else {
			fmt.Fprintf(p.out, "%s ✗ %s: %s (%s)  totals: %d ok, %d jobs\n",
				prefix, res.Company, res.Error, formatMillis(res.TimeElapsed),
				ev.Totals.Successful, ev.Totals.Jobs)
		}
	case batch.EventBatchDone:
		if ev.Batch == nil {
			return
		}
		fmt.Fprintf(p.out, "✅ batch %d checkpointed: %d/%d companies, %d jobs\n",
			ev.Batch.BatchNumber, ev.Batch.SuccessfulCompanies, ev.Batch.TotalCompanies, ev.Batch.TotalJobs)
	case batch.EventBatchSkipped:
		fmt.Fprintf(p.out, "⏭  batch %d already checkpointed, skipping\n", ev.BatchNumber)
	}
}

// PrintRunSummary outputs the final discovery summary.
func (p *Printer) PrintRunSummary(s *batch.Summary, checkpointDir string) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Batches written:   %d\n", s.Batches))
	if s.SkippedBatches > 0 {
		sb.WriteString(fmt.Sprintf("Batches skipped:   %d\n", s.SkippedBatches))
	}
	sb.WriteString(fmt.Sprintf("Companies:         %d\n", s.Totals.Companies))
	sb.WriteString(fmt.Sprintf("Successful:        %d (%.1f%%)\n", s.Totals.Successful, s.SuccessRate()*100))
	sb.WriteString(fmt.Sprintf("Total jobs:        %d\n", s.Totals.Jobs))
	sb.WriteString(fmt.Sprintf("Elapsed:           %s\n", s.Elapsed.Round(time.Second)))
	if checkpointDir != "" {
		sb.WriteString(fmt.Sprintf("Checkpoints:       %s\n", checkpointDir))
	}
	if s.Interrupted {
		sb.WriteString("\nRun interrupted; rerun with --resume to continue.")
	}

	p.printBox("DISCOVERY SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintImportReport outputs the final import counters.
func (p *Printer) PrintImportReport(r *importer.Report) {
	if r == nil {
		return
	}

	c := r.Counters
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Checkpoints:       %d\n", r.Batches))
	sb.WriteString(fmt.Sprintf("Jobs found:        %d\n", c.Found))
	sb.WriteString(fmt.Sprintf("Jobs processed:    %d\n", c.Processed))
	sb.WriteString(fmt.Sprintf("Imported (new):    %d\n", c.Imported))
	sb.WriteString(fmt.Sprintf("Duplicates:        %d\n", c.Duplicates))
	if c.Failed > 0 {
		sb.WriteString(fmt.Sprintf("Failed:            %d\n", c.Failed))
	}
	sb.WriteString(fmt.Sprintf("Elapsed:           %s", r.Elapsed.Round(time.Millisecond)))

	p.printBox("IMPORT SUMMARY", sb.String())
}

// PrintDiscovery outputs a single company's result and its state trace.
func (p *Printer) PrintDiscovery(result types.CompanyResult, trace []discovery.Transition) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s\n", result.Company))
	if result.Success {
		sb.WriteString(fmt.Sprintf("Result:   success, %d jobs via %s\n", len(result.Jobs), result.DiscoveryMethod))
	} else {
		sb.WriteString(fmt.Sprintf("Result:   failed: %s\n", result.Error))
	}
	if result.CareerURL != "" {
		sb.WriteString(fmt.Sprintf("Page:     %s\n", result.CareerURL))
	}
	sb.WriteString(fmt.Sprintf("Elapsed:  %s\n", formatMillis(result.TimeElapsed)))

	if len(trace) > 0 {
		sb.WriteString("\nTrace:\n")
		for _, tr := range trace {
			sb.WriteString(fmt.Sprintf("  %s\n", tr))
		}
	}

	if len(result.Jobs) > 0 {
		sb.WriteString("\nJobs:\n")
		count := min(len(result.Jobs), maxItemsToShow)
		for i := 0; i < count; i++ {
			job := result.Jobs[i]
			line := "  • " + job.Title
			if job.Location != "" {
				line += " (" + job.Location + ")"
			}
			sb.WriteString(line + "\n")
		}
		if len(result.Jobs) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Jobs)-maxItemsToShow))
		}
	}

	p.printBox("DISCOVERY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStats outputs the stored job count and recent import runs.
func (p *Printer) PrintStats(totalJobs int, runs []db.ScrapingStats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Stored jobs:       %d\n", totalJobs))
	if len(runs) == 0 {
		sb.WriteString("No import runs recorded yet.")
		p.printBox("DATASTORE", sb.String())
		return
	}

	sb.WriteString("\nRecent imports (added/found, duplicates):\n")
	for _, run := range runs {
		sb.WriteString(fmt.Sprintf("  %s  %d/%d, %d dup\n",
			run.CreatedAt.UTC().Format("2006-01-02 15:04"), run.JobsAdded, run.JobsFound, run.DuplicatesFound))
	}

	p.printBox("DATASTORE", strings.TrimSuffix(sb.String(), "\n"))
}

func formatMillis(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(100 * time.Millisecond).String()
}
