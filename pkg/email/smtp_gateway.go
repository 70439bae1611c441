package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// SMTPConfig holds configuration for the SMTP gateway
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPGateway implements Gateway over plain SMTP with AUTH
type SMTPGateway struct {
	config SMTPConfig
}

// NewSMTPGateway creates a new SMTP gateway client
func NewSMTPGateway(config SMTPConfig) *SMTPGateway {
	return &SMTPGateway{
		config: config,
	}
}

// Send delivers a single message via SMTP
func (g *SMTPGateway) Send(msg Message) error {
	addr := fmt.Sprintf("%s:%d", g.config.Host, g.config.Port)
	auth := smtp.PlainAuth("", g.config.Username, g.config.Password, g.config.Host)

	contentType := "text/plain; charset=\"UTF-8\""
	if msg.HTML {
		contentType = "text/html; charset=\"UTF-8\""
	}

	headers := []string{
		fmt.Sprintf("From: %s <%s>", g.config.FromName, g.config.From),
		fmt.Sprintf("To: %s", msg.To),
		fmt.Sprintf("Subject: %s", msg.Subject),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: %s", contentType),
	}

	payload := strings.Join(headers, "\r\n") + "\r\n\r\n" + msg.Body

	if err := smtp.SendMail(addr, auth, g.config.From, []string{msg.To}, []byte(payload)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	return nil
}

// GetName returns the name of this email gateway
func (g *SMTPGateway) GetName() string {
	return "SMTP Gateway"
}

// DevGateway logs messages instead of sending them. Used when SMTP_MODE=dev
// so signup and meeting flows work without a mail server.
type DevGateway struct {
	logger *logrus.Logger
}

// NewDevGateway creates a gateway that only logs outbound mail
func NewDevGateway(logger *logrus.Logger) *DevGateway {
	return &DevGateway{
		logger: logger,
	}
}

// Send logs the message at INFO level
func (g *DevGateway) Send(msg Message) error {
	g.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("dev email gateway: message not sent")
	g.logger.Debug(msg.Body)
	return nil
}

// GetName returns the name of this email gateway
func (g *DevGateway) GetName() string {
	return "Dev Gateway (log only)"
}
