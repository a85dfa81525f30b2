package telemetry

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tinoq/sense-backend/internal/metrics"
)

// ReportType selects the report flavour. It only affects the document title,
// the archive filename and the default end of the period; the statistics are
// computed the same way for every type.
type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
	ReportYearly  ReportType = "yearly"
)

// ParseReportType validates a report type received from a client.
func ParseReportType(s string) (ReportType, error) {
	switch t := ReportType(s); t {
	case ReportDaily, ReportWeekly, ReportMonthly, ReportYearly:
		return t, nil
	default:
		return "", &ValidationError{Reason: fmt.Sprintf("invalid report type %q; use daily, weekly, monthly or yearly", s)}
	}
}

// ReportRequest describes one report to generate. End may be zero only for
// daily reports, where it defaults to the end of Start's calendar day; all
// other types require an explicit end.
type ReportRequest struct {
	Type        ReportType
	Start       time.Time
	End         time.Time
	RequestedBy string
}

// Report is a generated plain-text report document.
type Report struct {
	Filename    string
	Content     string
	GeneratedAt time.Time
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// ValidationError is returned when a report request is rejected before any
// store query is issued.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

const noDataMarker = "No readings found for the selected period."

// GenerateReport validates the request, fetches the matching readings and
// renders the statistical document. The document is also written to the
// archive; an archival failure is logged but does not fail the request.
func (s *Service) GenerateReport(ctx context.Context, req ReportRequest) (*Report, error) {
	if _, err := ParseReportType(string(req.Type)); err != nil {
		return nil, err
	}
	if req.Start.IsZero() {
		return nil, &ValidationError{Reason: "start date is required"}
	}
	if req.End.IsZero() && req.Type != ReportDaily {
		return nil, &ValidationError{Reason: fmt.Sprintf("end date is required for %s reports", req.Type)}
	}
	if !req.End.IsZero() && req.End.Before(req.Start) {
		return nil, &ValidationError{Reason: "end date must not be before start date"}
	}

	end := req.End
	if end.IsZero() {
		// Only daily requests may omit the end; every other type was
		// rejected above without one.
		end = endOfDay(req.Start)
	}

	readings, err := s.store.Range(ctx, req.Start, end)
	if err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}

	generatedAt := s.now()
	requestedBy := req.RequestedBy
	if requestedBy == "" {
		requestedBy = "anonymous"
	}

	report := &Report{
		Filename:    reportFilename(req.Type, req.Start),
		Content:     renderReport(req.Type, req.Start, end, generatedAt, requestedBy, readings),
		GeneratedAt: generatedAt,
		PeriodStart: req.Start,
		PeriodEnd:   end,
	}
	metrics.ReportsGenerated.Inc()

	if s.archive != nil {
		if err := s.archive.Archive(report.Filename, []byte(report.Content)); err != nil {
			log.Printf("report: archiving %s failed: %v", report.Filename, err)
		}
	}

	return report, nil
}

// endOfDay returns the last nanosecond of t's calendar day.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func reportTitle(t ReportType, start, end time.Time) string {
	switch t {
	case ReportDaily:
		return fmt.Sprintf("Daily Report - %s", start.Format("2006-01-02"))
	case ReportWeekly:
		return fmt.Sprintf("Weekly Report - %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	case ReportMonthly:
		return fmt.Sprintf("Monthly Report - %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	default:
		return fmt.Sprintf("Yearly Report - %d", start.Year())
	}
}

func reportFilename(t ReportType, start time.Time) string {
	if t == ReportYearly {
		return fmt.Sprintf("yearly_report_%d.txt", start.Year())
	}
	return fmt.Sprintf("%s_report_%s.txt", t, start.Format("2006-01-02"))
}

func renderReport(t ReportType, start, end, generatedAt time.Time, requestedBy string, readings []Reading) string {
	var b strings.Builder

	fmt.Fprintf(&b, "TiNoq Sense - %s\n", reportTitle(t, start, end))
	fmt.Fprintf(&b, "Generated at: %s\n", generatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Report period: %s to %s\n", start.Format("2006-01-02 15:04:05"), end.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Generated by: %s\n\n", requestedBy)

	if len(readings) == 0 {
		b.WriteString(noDataMarker)
		b.WriteString("\n")
		return b.String()
	}

	tempMin, tempMax, tempAvg := minMaxAvg(readings, func(r Reading) float64 { return r.Temperature })
	humMin, humMax, humAvg := minMaxAvg(readings, func(r Reading) float64 { return r.Humidity })

	b.WriteString("SUMMARY STATISTICS\n")
	b.WriteString("------------------\n")
	fmt.Fprintf(&b, "Temperature (°C):\n  Minimum: %.1f\n  Maximum: %.1f\n  Average: %.1f\n\n", tempMin, tempMax, tempAvg)
	fmt.Fprintf(&b, "Humidity (%%):\n  Minimum: %.1f\n  Maximum: %.1f\n  Average: %.1f\n\n", humMin, humMax, humAvg)

	b.WriteString("DETAILED READINGS\n")
	b.WriteString("------------------\n")
	b.WriteString("Timestamp            | Temperature (°C) | Humidity (%)\n")
	b.WriteString("---------------------|------------------|-------------\n")
	for _, r := range readings {
		fmt.Fprintf(&b, "%-21s| %-17s| %.1f\n",
			r.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.1f", r.Temperature),
			r.Humidity,
		)
	}

	return b.String()
}

func minMaxAvg(readings []Reading, value func(Reading) float64) (min, max, avg float64) {
	min = value(readings[0])
	max = min
	var sum float64
	for _, r := range readings {
		v := value(r)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return min, max, sum / float64(len(readings))
}
