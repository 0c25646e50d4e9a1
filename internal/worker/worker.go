// Package worker runs the invitation email processor.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strconv"

	"go.uber.org/zap"

	"github.com/eventlane/backend/config"
	"github.com/eventlane/backend/internal/emaillog"
	"github.com/eventlane/backend/internal/models"
	"github.com/eventlane/backend/pkg/queue"
)

// InviteProcessor consumes invite email jobs: render the notification,
// deliver over SMTP when configured (log-only otherwise), record an
// email_logs row.
type InviteProcessor struct {
	logRepo *emaillog.Repository
	queue   *queue.Queue
	email   config.EmailConfig
	logger  *zap.Logger
}

// NewInviteProcessor creates an invite email processor.
func NewInviteProcessor(logRepo *emaillog.Repository, q *queue.Queue, email config.EmailConfig, logger *zap.Logger) *InviteProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InviteProcessor{logRepo: logRepo, queue: q, email: email, logger: logger}
}

// Run dequeues and processes jobs until ctx is done.
func (p *InviteProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue", zap.Error(err))
			continue
		}
		if job == nil {
			continue
		}
		if err := p.Process(ctx, job); err != nil {
			p.logger.Warn("process job", zap.Error(err), zap.String("job_id", job.ID))
			if rErr := p.queue.Retry(ctx, job); rErr != nil {
				p.logger.Error("retry job", zap.Error(rErr), zap.String("job_id", job.ID))
			}
		}
	}
}

// Process executes one invite email job.
func (p *InviteProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeInviteEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.InviteEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	subject, body := p.render(payload)
	err := p.deliver(payload.RecipientEmail, subject, body)

	mid := payload.MembershipID
	logRow := &models.EmailLog{
		ScopeType:      models.ScopeType(payload.ScopeType),
		ScopeID:        payload.ScopeID,
		MembershipID:   &mid,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        subject,
	}
	if err != nil {
		// Last attempt records the failure; earlier attempts go back to the queue.
		if job.Attempt >= queue.MaxRetries-1 {
			if lErr := p.logRepo.RecordFailed(ctx, logRow, err.Error()); lErr != nil {
				p.logger.Error("record failed email", zap.Error(lErr))
			}
		}
		return fmt.Errorf("deliver: %w", err)
	}
	if err := p.logRepo.RecordSent(ctx, logRow); err != nil {
		p.logger.Error("record sent email", zap.Error(err))
	}
	return nil
}

func (p *InviteProcessor) render(payload queue.InviteEmailPayload) (subject, body string) {
	scope := payload.ScopeName
	if scope == "" {
		scope = "the team"
	}
	switch payload.EmailType {
	case "resend":
		subject = fmt.Sprintf("Reminder: you have been invited to %s", scope)
	default:
		subject = fmt.Sprintf("You have been invited to %s", scope)
	}
	body = fmt.Sprintf(
		"%s invited you to join %s.\r\n\r\nAccept the invitation:\r\n%s/%s/accept\r\n",
		payload.InvitedByName, scope, p.email.AcceptURL, payload.InviteToken,
	)
	return subject, body
}

// deliver sends over SMTP when a host is configured; otherwise it logs
// the message and succeeds, which keeps local setups working without a
// mail relay.
func (p *InviteProcessor) deliver(recipient, subject, body string) error {
	if p.email.SMTPHost == "" {
		p.logger.Info("email delivery skipped (no SMTP host)",
			zap.String("recipient", recipient),
			zap.String("subject", subject),
		)
		return nil
	}
	addr := p.email.SMTPHost + ":" + strconv.Itoa(p.email.SMTPPort)
	var auth smtp.Auth
	if p.email.SMTPUser != "" {
		auth = smtp.PlainAuth("", p.email.SMTPUser, p.email.SMTPPass, p.email.SMTPHost)
	}
	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		p.email.FromName, p.email.FromAddress, recipient, subject, body,
	))
	return smtp.SendMail(addr, auth, p.email.FromAddress, []string{recipient}, msg)
}
