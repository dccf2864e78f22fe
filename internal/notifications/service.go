package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/gallerydash/activity-bot/internal/config"
	"github.com/gallerydash/activity-bot/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service sends operator notifications via the configured channels. Both
// channels are optional; with neither configured every send is a no-op.
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendRunReport reports a completed ingestion run.
func (s *Service) SendRunReport(report *models.RunReport) error {
	title := fmt.Sprintf("Gallery activity run - %s", report.Gallery)
	body := s.buildRunReportText(report)

	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   title,
		Text:    fmt.Sprintf("Completed %d window(s)", len(report.Windows)),
	}
	for _, w := range report.Windows {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: w.WindowLabel,
			Facts: []TeamsFact{
				{Name: "Posts in range", Value: fmt.Sprintf("%d", w.PostsFound)},
				{Name: "ID range", Value: fmt.Sprintf("[%d, %d]", w.MinID, w.MaxID)},
				{Name: "Identities", Value: fmt.Sprintf("%d", w.Identities)},
				{Name: "Failures", Value: fmt.Sprintf("%d", w.Failures)},
			},
			Markdown: true,
		})
	}

	return s.send(title, body, message)
}

// SendAbortAlert reports an integrity-gate abort.
func (s *Service) SendAbortAlert(alert *models.AbortAlert) error {
	title := fmt.Sprintf("Gallery activity run ABORTED at window %s", alert.WindowLabel)
	body := fmt.Sprintf("%s\n\nWindow: %s\nFailures: %d (threshold %d)\nTime: %s\n",
		alert.Message, alert.WindowLabel, alert.Failures, alert.Threshold,
		alert.CreatedAt.Format("2006-01-02 15:04:05"))

	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   title,
		Text:    alert.Message,
		Sections: []TeamsSection{{
			ActivityTitle: "Details",
			Facts: []TeamsFact{
				{Name: "Window", Value: alert.WindowLabel},
				{Name: "Failures", Value: fmt.Sprintf("%d", alert.Failures)},
				{Name: "Threshold", Value: fmt.Sprintf("%d", alert.Threshold)},
			},
			Markdown: true,
		}},
	}

	return s.send(title, body, message)
}

func (s *Service) send(subject, textBody string, teamsMessage *TeamsMessage) error {
	var errs []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(teamsMessage); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errs = append(errs, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent Teams notification")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(subject, textBody); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errs = append(errs, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent email notification")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) sendEmail(subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) buildRunReportText(report *models.RunReport) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Gallery activity run - %s\n", report.Gallery))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	for _, w := range report.Windows {
		text.WriteString(fmt.Sprintf("%s: %d posts in range [%d, %d], %d identities, %d failures\n",
			w.WindowLabel, w.PostsFound, w.MinID, w.MaxID, w.Identities, w.Failures))
	}

	return text.String()
}
