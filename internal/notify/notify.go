package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"sort"
	"strings"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/aggregator"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("seqstats.internal.notify")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

// Enabled returns true if there is anyone to send mail to.
func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && len(c.Recipients) > 0
}

func (c SmtpConfig) addr() string {
	return fmt.Sprintf("%s:%d", c.Server, c.Port)
}

// Mailer emails aggregation summaries.
type Mailer struct {
	config SmtpConfig
}

func NewMailer(config SmtpConfig) Mailer {
	return Mailer{config: config}
}

// SummaryTable renders the totals of a result as a plain text table.
func SummaryTable(result aggregator.Result) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Seq Type", "Lanes", "Reads", "Bases"})
	for _, line := range result.SummaryLines() {
		tw.AppendRow(table.Row{line.SequencerType, line.LaneCount, line.ReadCount, line.BaseCount})
	}
	tw.SetStyle(table.StyleLight)
	return tw.Render()
}

// BuildMessage creates the summary email of a result.
func (m Mailer) BuildMessage(result aggregator.Result) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Sequencing Stats <%s>", m.config.EmailAddress)
	mail.To = m.config.Recipients
	mail.Subject = fmt.Sprintf("Sequencing stats for %s", result.Window)

	var body strings.Builder
	fmt.Fprintf(&body, "Sequencing totals for %s.\n\n", result.Window)
	body.WriteString(SummaryTable(result))
	fmt.Fprintf(&body, "\n\n%d lanes processed, %d records skipped.\n", len(result.Lanes), result.SkippedCount())
	reasons := make([]string, 0, len(result.Skipped))
	for reason := range result.Skipped {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(&body, "  %s: %d\n", reason, result.Skipped[aggregator.SkipReason(reason)])
	}
	mail.Text = []byte(body.String())

	return mail
}

// SendSummary sends the summary email, servers that don't support AUTH are
// sent to without credentials.
func (m Mailer) SendSummary(ctx context.Context, result aggregator.Result) error {
	_, span := tracer.Start(ctx, "SendSummary")
	defer span.End()

	mail := m.BuildMessage(result)
	err := mail.Send(
		m.config.addr(),
		smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(m.config.addr(), nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
