// Package notify tells clinic staff about new leads and redelivers notifications
// that could not be sent.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

// Channel names used for metrics.
const (
	ChannelDiscord = "discord"
	ChannelSlack   = "slack"
	ChannelEmail   = "email"
)

// Outcome names used for metrics.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// ErrNoChannel is returned when no notification channel is configured.
var ErrNoChannel = errors.New("no notification channel configured")

// Messenger sends text through the messenger gateway.
type Messenger interface {
	SendWithRetry(ctx context.Context, destination, userID, text string, attempts int, delay time.Duration) error
}

// Metrics counts notification attempts.
type Metrics interface {
	NotificationObserved(channel, outcome string)
}

// StaffConfig wires a StaffNotifier.
type StaffConfig struct {
	Logger             *log.Logger
	Messenger          Messenger
	Mail               MailSender
	Failures           FailureStore
	Metrics            Metrics
	DiscordDestination string
	SlackDestination   string
	AdminLeadBaseURL   string
	Location           *time.Location
	DiscordAttempts    int
	RetryDelay         time.Duration
	Now                func() time.Time
}

// StaffNotifier sends new-lead notices to chat (Discord, falling back to Slack)
// and email. When every configured channel fails the notice is stored for
// redelivery.
type StaffNotifier struct {
	logger          *log.Logger
	messenger       Messenger
	mail            MailSender
	failures        FailureStore
	metrics         Metrics
	discordDest     string
	slackDest       string
	adminBaseURL    string
	location        *time.Location
	discordAttempts int
	retryDelay      time.Duration
	now             func() time.Time
}

func NewStaffNotifier(cfg StaffConfig) *StaffNotifier {
	n := &StaffNotifier{
		logger:          cfg.Logger,
		messenger:       cfg.Messenger,
		mail:            cfg.Mail,
		failures:        cfg.Failures,
		metrics:         cfg.Metrics,
		discordDest:     strings.TrimSpace(cfg.DiscordDestination),
		slackDest:       strings.TrimSpace(cfg.SlackDestination),
		adminBaseURL:    strings.TrimRight(strings.TrimSpace(cfg.AdminLeadBaseURL), "/"),
		location:        cfg.Location,
		discordAttempts: cfg.DiscordAttempts,
		retryDelay:      cfg.RetryDelay,
		now:             cfg.Now,
	}
	if n.discordAttempts <= 0 {
		n.discordAttempts = 3
	}
	if n.location == nil {
		n.location = time.UTC
	}
	if n.now == nil {
		n.now = func() time.Time { return time.Now().UTC() }
	}
	return n
}

// Enabled reports whether any channel is configured.
func (n *StaffNotifier) Enabled() bool {
	return n.chatEnabled() || n.mail != nil
}

func (n *StaffNotifier) chatEnabled() bool {
	return n.messenger != nil && (n.discordDest != "" || n.slackDest != "")
}

// NotifyLeadCreated announces a stored lead.
func (n *StaffNotifier) NotifyLeadCreated(ctx context.Context, lead domain.Lead) error {
	if !n.Enabled() {
		return nil
	}
	text := n.buildLeadMessage(lead)
	attempts, err := n.deliver(ctx, lead.ID, text)
	if err == nil {
		return nil
	}
	n.persistFailure(ctx, lead.ID, text, err, attempts)
	return err
}

// Redeliver re-sends a stored notification through every configured channel.
func (n *StaffNotifier) Redeliver(ctx context.Context, identifier, text string) error {
	_, err := n.deliver(ctx, identifier, text)
	return err
}

// deliver reports success when at least one of chat or email accepted the message.
func (n *StaffNotifier) deliver(ctx context.Context, identifier, text string) (int, error) {
	if !n.Enabled() {
		return 0, ErrNoChannel
	}
	if identifier == "" {
		identifier = "lead"
	}

	attempts := 0
	var chatErr, mailErr error
	delivered := false

	if n.chatEnabled() {
		var tried int
		tried, chatErr = n.sendChat(ctx, identifier, text)
		attempts += tried
		delivered = chatErr == nil
	}

	if n.mail != nil {
		attempts++
		subject := "[상담 신청] 새로운 상담 신청이 접수되었습니다"
		if _, mailErr = n.mail.SendMail(ctx, subject, stripMarkdown(text)); mailErr != nil {
			n.observe(ChannelEmail, OutcomeFailed)
			n.logf("メール通知の送信に失敗: %v", mailErr)
		} else {
			n.observe(ChannelEmail, OutcomeSent)
			delivered = true
		}
	}

	if delivered {
		return attempts, nil
	}
	return attempts, combineErrors(chatErr, mailErr)
}

// sendChat tries Discord with retries, then Slack once.
func (n *StaffNotifier) sendChat(ctx context.Context, identifier, text string) (int, error) {
	var discordErr, slackErr error
	attempts := 0

	if n.discordDest != "" {
		discordErr = n.messenger.SendWithRetry(ctx, n.discordDest, identifier, text, n.discordAttempts, n.retryDelay)
		attempts += n.discordAttempts
		if discordErr == nil {
			n.observe(ChannelDiscord, OutcomeSent)
			return attempts, nil
		}
		n.observe(ChannelDiscord, OutcomeFailed)
		n.logf("Discord通知の送信に失敗: %v", discordErr)
	}

	if n.slackDest != "" {
		slackErr = n.messenger.SendWithRetry(ctx, n.slackDest, identifier, stripMarkdown(text), 1, 0)
		attempts++
		if slackErr == nil {
			n.observe(ChannelSlack, OutcomeSent)
			return attempts, nil
		}
		n.observe(ChannelSlack, OutcomeFailed)
		n.logf("Slack通知の送信に失敗: %v", slackErr)
	}

	return attempts, combineErrors(discordErr, slackErr)
}

func (n *StaffNotifier) persistFailure(ctx context.Context, leadID, text string, cause error, attempts int) {
	if n.failures == nil {
		return
	}
	now := n.now()
	record := &FailedNotification{
		Target:      TargetStaffLead,
		LeadID:      leadID,
		Identifier:  leadID,
		Text:        text,
		Error:       cause.Error(),
		Attempts:    attempts,
		Status:      StatusPending,
		CreatedAt:   now,
		LastTriedAt: now,
	}
	if err := n.failures.SaveFailure(ctx, record); err != nil {
		n.logf("failed_notifications への保存に失敗: %v", err)
	}
}

func (n *StaffNotifier) buildLeadMessage(lead domain.Lead) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("**%s** 님의 새로운 상담 신청이 접수되었습니다.\n", lead.Name))
	builder.WriteString(fmt.Sprintf("- 연락처: %s\n", lead.Phone))
	builder.WriteString(fmt.Sprintf("- 유형: %s\n", lead.RevisionTypeTitle))
	if source := domain.StringValue(lead.UTM.Source); source != "" {
		channel := source
		if medium := domain.StringValue(lead.UTM.Medium); medium != "" {
			channel += " / " + medium
		}
		builder.WriteString(fmt.Sprintf("- 유입: %s\n", channel))
	}
	if campaign := domain.StringValue(lead.UTM.Campaign); campaign != "" {
		builder.WriteString(fmt.Sprintf("- 캠페인: %s\n", campaign))
	}
	builder.WriteString(fmt.Sprintf("- 접수: %s\n", lead.CreatedAt.In(n.location).Format("2006-01-02 15:04")))
	if lead.ID != "" && n.adminBaseURL != "" {
		builder.WriteString(fmt.Sprintf("[관리 화면에서 확인](%s/%s)\n", n.adminBaseURL, lead.ID))
	}
	return builder.String()
}

var markdownReplacer = strings.NewReplacer("**", "")

// stripMarkdown turns the Discord message into plain text for Slack and email.
func stripMarkdown(text string) string {
	lines := strings.Split(markdownReplacer.Replace(text), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "[") {
			if idx := strings.Index(line, "]("); idx > 0 && strings.HasSuffix(line, ")") {
				lines[i] = line[1:idx] + ": " + line[idx+2:len(line)-1]
			}
		}
	}
	return strings.Join(lines, "\n")
}

func (n *StaffNotifier) observe(channel, outcome string) {
	if n.metrics != nil {
		n.metrics.NotificationObserved(channel, outcome)
	}
}

func (n *StaffNotifier) logf(format string, args ...any) {
	if n.logger != nil {
		n.logger.Printf(format, args...)
	}
}
