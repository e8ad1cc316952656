package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/junk-sweeper/internal/cleaner"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat validates a format name from a flag
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(name)); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", name)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
	now    func() time.Time
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
		now:    time.Now,
	}
}

type fileDoc struct {
	Path     string `json:"path" yaml:"path"`
	Size     int64  `json:"size" yaml:"size"`
	Modified string `json:"modified,omitempty" yaml:"modified,omitempty"`
	Selected bool   `json:"selected" yaml:"selected"`
}

type categoryDoc struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Count        int       `json:"count" yaml:"count"`
	Size         int64     `json:"size" yaml:"size"`
	SizeReadable string    `json:"size_formatted" yaml:"size_formatted"`
	Files        []fileDoc `json:"files" yaml:"files"`
}

type scanDoc struct {
	Timestamp          string        `json:"timestamp" yaml:"timestamp"`
	Status             string        `json:"status" yaml:"status"`
	TotalFiles         int           `json:"total_files" yaml:"total_files"`
	TotalSize          int64         `json:"total_size" yaml:"total_size"`
	TotalSizeFormatted string        `json:"total_size_formatted" yaml:"total_size_formatted"`
	Categories         []categoryDoc `json:"categories" yaml:"categories"`
	Error              string        `json:"error,omitempty" yaml:"error,omitempty"`
}

func toFileDoc(e scanner.Entry) fileDoc {
	doc := fileDoc{Path: e.Path, Size: e.Size, Selected: e.Selected}
	if !e.ModTime.IsZero() {
		doc.Modified = e.ModTime.Format(time.RFC3339)
	}
	return doc
}

func (r *Reporter) scanDocument(result *scanner.ScanResult) scanDoc {
	doc := scanDoc{
		Timestamp:          r.now().Format(time.RFC3339),
		Status:             result.Status.String(),
		TotalFiles:         result.TotalCount,
		TotalSize:          result.TotalSize,
		TotalSizeFormatted: utils.FormatBytes(result.TotalSize),
		Categories:         []categoryDoc{},
	}
	if result.Err != nil {
		doc.Error = result.Err.Error()
	}

	for _, cat := range result.Categories {
		cd := categoryDoc{
			ID:           string(cat.ID),
			Name:         cat.Name,
			Count:        len(cat.Entries),
			Size:         cat.TotalSize(),
			SizeReadable: utils.FormatBytes(cat.TotalSize()),
			Files:        make([]fileDoc, 0, len(cat.Entries)),
		}
		for _, e := range cat.Entries {
			cd.Files = append(cd.Files, toFileDoc(e))
		}
		doc.Categories = append(doc.Categories, cd)
	}
	return doc
}

// Report generates a report from scan results
func (r *Reporter) Report(result *scanner.ScanResult) error {
	if result == nil {
		result = scanner.NewResult("")
	}

	switch r.format {
	case FormatTable:
		return r.reportTable(result)
	case FormatJSON:
		return r.encodeJSON(r.scanDocument(result))
	case FormatYAML:
		return r.encodeYAML(r.scanDocument(result))
	case FormatSummary:
		return r.reportSummary(result)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportSummary generates a summary report
func (r *Reporter) reportSummary(result *scanner.ScanResult) error {
	fmt.Fprintf(r.writer, "=== Scan Summary ===\n")
	fmt.Fprintf(r.writer, "Total Files: %d\n", result.TotalCount)
	fmt.Fprintf(r.writer, "Total Size: %s\n", utils.FormatBytes(result.TotalSize))

	if len(result.Categories) > 0 {
		fmt.Fprintf(r.writer, "\nBreakdown by Category:\n")
	}
	for _, cat := range result.Categories {
		fmt.Fprintf(r.writer, "  %s: %d files, %s\n",
			cat.Name, len(cat.Entries), utils.FormatBytes(cat.TotalSize()))
	}

	if result.Err != nil {
		fmt.Fprintf(r.writer, "\nError: %v\n", result.Err)
	}

	return nil
}

// reportTable generates a table report
func (r *Reporter) reportTable(result *scanner.ScanResult) error {
	r.tableHeader()
	for _, cat := range result.Categories {
		for _, e := range cat.Entries {
			r.tableRow(e, cat.Name)
		}
	}
	r.tableFooter(result.TotalCount, result.TotalSize)
	return nil
}

// ReportFiles writes a flat list of entries, e.g. the large-file screen
func (r *Reporter) ReportFiles(entries []scanner.Entry) error {
	var total int64
	for _, e := range entries {
		total += e.Size
	}

	switch r.format {
	case FormatTable, FormatSummary:
		r.tableHeader()
		for _, e := range entries {
			r.tableRow(e, string(e.Category))
		}
		r.tableFooter(len(entries), total)
		return nil
	case FormatJSON, FormatYAML:
		files := make([]fileDoc, 0, len(entries))
		for _, e := range entries {
			files = append(files, toFileDoc(e))
		}
		doc := struct {
			Timestamp  string    `json:"timestamp" yaml:"timestamp"`
			TotalFiles int       `json:"total_files" yaml:"total_files"`
			TotalSize  int64     `json:"total_size" yaml:"total_size"`
			Files      []fileDoc `json:"files" yaml:"files"`
		}{r.now().Format(time.RFC3339), len(entries), total, files}
		if r.format == FormatJSON {
			return r.encodeJSON(doc)
		}
		return r.encodeYAML(doc)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) tableHeader() {
	fmt.Fprintf(r.writer, "%-60s | %-12s | %-20s | %s\n", "Path", "Size", "Category", "Modified")
	fmt.Fprintf(r.writer, "%s\n", strings.Repeat("-", 120))
}

func (r *Reporter) tableRow(e scanner.Entry, category string) {
	path := e.Path
	if len(path) > 60 {
		path = "..." + path[len(path)-57:]
	}

	modified := "-"
	if !e.ModTime.IsZero() {
		modified = e.ModTime.Format("2006-01-02 15:04:05")
	}

	fmt.Fprintf(r.writer, "%-60s | %-12s | %-20s | %s\n",
		path, utils.FormatBytes(e.Size), category, modified)
}

func (r *Reporter) tableFooter(count int, size int64) {
	fmt.Fprintf(r.writer, "%s\n", strings.Repeat("-", 120))
	fmt.Fprintf(r.writer, "Total: %d files, %s\n", count, utils.FormatBytes(size))
}

type failureDoc struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

type deleteDoc struct {
	Timestamp         string       `json:"timestamp" yaml:"timestamp"`
	DryRun            bool         `json:"dry_run" yaml:"dry_run"`
	Deleted           int          `json:"deleted" yaml:"deleted"`
	Failed            int          `json:"failed" yaml:"failed"`
	Reclaimed         int64        `json:"reclaimed" yaml:"reclaimed"`
	ReclaimedReadable string       `json:"reclaimed_formatted" yaml:"reclaimed_formatted"`
	Summary           string       `json:"summary" yaml:"summary"`
	Failures          []failureDoc `json:"failures" yaml:"failures"`
}

// ReportDelete writes the outcome of a delete
func (r *Reporter) ReportDelete(result *cleaner.DeleteResult) error {
	switch r.format {
	case FormatJSON, FormatYAML:
		doc := deleteDoc{
			Timestamp:         r.now().Format(time.RFC3339),
			DryRun:            result.DryRun,
			Deleted:           result.SuccessCount,
			Failed:            result.FailedCount,
			Reclaimed:         result.ReclaimedBytes,
			ReclaimedReadable: utils.FormatBytes(result.ReclaimedBytes),
			Summary:           result.Summary(),
			Failures:          make([]failureDoc, 0, len(result.Failures)),
		}
		for _, f := range result.Failures {
			doc.Failures = append(doc.Failures, failureDoc{Path: f.Path, Reason: f.Reason.String()})
		}
		if r.format == FormatJSON {
			return r.encodeJSON(doc)
		}
		return r.encodeYAML(doc)

	case FormatTable, FormatSummary:
		verb := "Freed"
		if result.DryRun {
			verb = "Would free"
		}
		fmt.Fprintf(r.writer, "✓ %s\n", result.Summary())
		fmt.Fprintf(r.writer, "  %s: %s\n", verb, utils.FormatBytes(result.ReclaimedBytes))
		if len(result.Failures) > 0 {
			fmt.Fprint(r.writer, cleaner.FormatErrorSummary(result.Failures))
		}
		return nil

	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) encodeJSON(v any) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (r *Reporter) encodeYAML(v any) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(v)
}

// SaveToFile saves the report to a file
func SaveToFile(result *scanner.ScanResult, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reporter := New(file, format)
	return reporter.Report(result)
}
