package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/clinicore/clinicore/internal/config"
)

// EmailNotifier sends appointment emails through SendGrid to both parties.
type EmailNotifier struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

func NewEmailNotifier(cfg config.NotificationConfig) *EmailNotifier {
	return &EmailNotifier{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}
}

func (n *EmailNotifier) Send(ctx context.Context, msg Message) error {
	subject, body := render(msg)

	for _, p := range []Party{msg.Patient, msg.Doctor} {
		if p.Email == "" {
			continue
		}
		if err := n.sendOne(ctx, p, subject, body); err != nil {
			return err
		}
	}
	return nil
}

func (n *EmailNotifier) sendOne(ctx context.Context, to Party, subject, body string) error {
	from := mail.NewEmail(n.fromName, n.fromEmail)
	recipient := mail.NewEmail(to.Name, to.Email)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	// SendWithContext lets the caller's deadline cut off a hung delivery.
	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending email to %s: %w", to.Email, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func render(msg Message) (subject, body string) {
	when := msg.StartsAt.Format("Mon, 2 Jan 2006 15:04")

	switch msg.Kind {
	case KindBooked:
		subject = "Appointment confirmed"
		body = fmt.Sprintf("An appointment with Dr. %s has been booked for %s (%d minutes).",
			msg.Doctor.Name, when, msg.DurationMins)
	case KindCancelled:
		subject = "Appointment cancelled"
		body = fmt.Sprintf("The appointment with Dr. %s on %s was cancelled. %s",
			msg.Doctor.Name, when, msg.Detail)
	case KindReminder:
		subject = "Appointment reminder"
		body = fmt.Sprintf("Reminder: appointment with Dr. %s on %s.", msg.Doctor.Name, when)
	default:
		subject = "Appointment updated"
		body = fmt.Sprintf("The appointment with Dr. %s on %s is now %q.",
			msg.Doctor.Name, when, msg.Detail)
	}
	return subject, body
}
