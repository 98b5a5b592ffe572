package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rollcall/internal/application/projections"
	"rollcall/internal/domain/business"
	"rollcall/internal/domain/outbox"
	"rollcall/internal/domain/period"
	"rollcall/internal/domain/reporting"
)

// ReportingStore defines the reporting settings reads the scheduler
// needs.
type ReportingStore interface {
	ListEnabled(ctx context.Context) ([]reporting.Settings, error)
}

// SendAttendanceReportsDeps holds dependencies for the report
// scheduler run.
type SendAttendanceReportsDeps struct {
	ReportingStore ReportingStore
	OutboxStore    OutboxEnqueuer
	Attendance     projections.GroupAttendanceDeps
	GenerateID     func() string
	Now            func() time.Time
}

// SendAttendanceReportsResult summarises one scheduler run.
type SendAttendanceReportsResult struct {
	BusinessesChecked int
	ReportsSent       int
}

// ExecuteSendAttendanceReports walks every business with reporting
// enabled, decides per business whether a report is due on its
// cadence, and queues one summary email covering all of the business's
// groups. A failure for one business never blocks the others.
// PRE: deps are wired
// POST: one outbox entry per due business
func ExecuteSendAttendanceReports(ctx context.Context, deps SendAttendanceReportsDeps) (SendAttendanceReportsResult, error) {
	settingsList, err := deps.ReportingStore.ListEnabled(ctx)
	if err != nil {
		return SendAttendanceReportsResult{}, fmt.Errorf("list reporting settings: %w", err)
	}

	result := SendAttendanceReportsResult{BusinessesChecked: len(settingsList)}
	now := deps.Now()

	for _, settings := range settingsList {
		biz, err := deps.Attendance.BusinessStore.GetByID(ctx, settings.BusinessID)
		if err != nil {
			slog.Error("report_event", "event", "business_lookup_failed", "business_id", settings.BusinessID, "error", err.Error())
			continue
		}
		if !settings.Due(biz.CreatedAt, now) {
			continue
		}

		if err := sendBusinessReport(ctx, biz, settings, now, deps); err != nil {
			slog.Error("report_event", "event", "report_failed", "business_id", biz.ID, "error", err.Error())
			continue
		}
		result.ReportsSent++
	}
	return result, nil
}

// sendBusinessReport builds one summary across all groups of the
// business and queues it to the settings recipient.
func sendBusinessReport(ctx context.Context, biz business.Business, settings reporting.Settings, now time.Time, deps SendAttendanceReportsDeps) error {
	p := period.Weekly
	if settings.Duration == reporting.DurationMonthly {
		p = period.Monthly
	}

	groups, err := deps.Attendance.GroupStore.ListByBusinessID(ctx, biz.ID)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}

	var reports []projections.GroupReport
	for _, g := range groups {
		res, err := projections.QueryGroupAttendance(ctx, projections.GroupAttendanceQuery{
			BusinessID: biz.ID,
			GroupID:    g.ID,
			Period:     p,
			Now:        now,
		}, deps.Attendance)
		if err != nil {
			return fmt.Errorf("attendance for group %s: %w", g.ID, err)
		}
		reports = append(reports, res.Reports...)
	}

	payload, err := json.Marshal(EmailPayload{
		To:      settings.Email,
		Subject: fmt.Sprintf("Attendance report for %s (%s)", biz.Name, settings.Duration),
		HTML:    renderReportHTML(biz, p, reports),
	})
	if err != nil {
		return err
	}

	entry := outbox.Entry{
		ID:          deps.GenerateID(),
		ActionType:  outbox.ActionTypeEmail,
		Payload:     string(payload),
		Status:      outbox.StatusPending,
		MaxAttempts: 5,
		CreatedAt:   now.UTC(),
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := deps.OutboxStore.Save(ctx, entry); err != nil {
		return err
	}

	slog.Info("report_event", "event", "report_enqueued", "business_id", biz.ID, "groups", len(reports), "period", p.String())
	return nil
}

// renderReportHTML produces the per-group summary table for the report
// email.
func renderReportHTML(biz business.Business, p period.Period, reports []projections.GroupReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s: %s attendance</h1>\n", biz.Name, p.String())
	if len(reports) == 0 {
		b.WriteString("<p>No groups to report on.</p>\n")
		return b.String()
	}
	b.WriteString("<table><tr><th>Group</th><th>Athletes</th><th>On time</th><th>Late</th><th>Missing</th><th>Attendance</th></tr>\n")
	for _, r := range reports {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d%%</td></tr>\n",
			r.GroupName, r.TotalAthletes, r.TotalOnTime, r.TotalLate, r.TotalMissing, r.Percentage)
	}
	b.WriteString("</table>\n")
	return b.String()
}
