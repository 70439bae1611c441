package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/teamsync/scheduler-backend/internal/models"
	"github.com/teamsync/scheduler-backend/pkg/email"
)

// NotificationService renders and dispatches email notifications. Delivery
// is best-effort: failures are logged and swallowed so they never fail or
// roll back the operation that triggered them.
type NotificationService struct {
	gateway    email.Gateway
	logger     *logrus.Logger
	appBaseURL string
}

// NewNotificationService creates a new notification service
func NewNotificationService(gateway email.Gateway, logger *logrus.Logger, appBaseURL string) *NotificationService {
	return &NotificationService{
		gateway:    gateway,
		logger:     logger,
		appBaseURL: appBaseURL,
	}
}

// SendOTP emails a one-time code for signup or login verification
func (s *NotificationService) SendOTP(to, otpCode, purpose string) {
	subject := "Your verification code"
	if purpose == OTPPurposeLogin {
		subject = "Your login code"
	}

	body := fmt.Sprintf(
		"Your verification code is %s.\n\nIt expires in %d minutes. Do not share this code with anyone.",
		otpCode, int(OTPExpiryDuration.Minutes()),
	)

	s.send(to, subject, body)
}

// SendEmployeeVerification emails the account activation link to a newly
// created employee
func (s *NotificationService) SendEmployeeVerification(to, employeeName, managerName, token string) {
	link := fmt.Sprintf("%s/verify-employee?token=%s", s.appBaseURL, token)

	body := fmt.Sprintf(
		"Hi %s,\n\n%s has added you to their team. Set your password to activate your account:\n\n%s\n\nThis link expires in 24 hours.",
		employeeName, managerName, link,
	)

	s.send(to, "Activate your account", body)
}

// SendMeetingCreated notifies an attendee about a newly scheduled meeting
func (s *NotificationService) SendMeetingCreated(to string, meeting *models.Meeting) {
	body := fmt.Sprintf(
		"A new meeting has been scheduled.\n\nTitle: %s\nDate: %s\nDuration: %d minutes",
		meeting.Title, formatMeetingDate(meeting), meeting.DurationMinutes,
	)

	s.send(to, fmt.Sprintf("New meeting: %s", meeting.Title), body)
}

// SendMeetingRequested notifies the manager about an employee's meeting
// request and its proposed dates
func (s *NotificationService) SendMeetingRequested(to, employeeName string, meeting *models.Meeting, proposedDates []time.Time) {
	body := fmt.Sprintf(
		"%s has requested a meeting.\n\nTitle: %s\nDuration: %d minutes\n\nProposed dates:\n",
		employeeName, meeting.Title, meeting.DurationMinutes,
	)
	for _, date := range proposedDates {
		body += fmt.Sprintf("  - %s\n", date.Format("Mon, 02 Jan 2006 15:04"))
	}
	body += "\nLog in to accept one of the proposed dates."

	s.send(to, fmt.Sprintf("Meeting request: %s", meeting.Title), body)
}

// SendMeetingStatusChanged notifies an attendee about a status change. The
// rejection reason is included when present.
func (s *NotificationService) SendMeetingStatusChanged(to string, meeting *models.Meeting) {
	body := fmt.Sprintf(
		"The meeting %q is now %s.",
		meeting.Title, meeting.Status,
	)
	if meeting.Status == models.MeetingStatusRejected && meeting.RejectionReason.Valid {
		body += fmt.Sprintf("\n\nReason: %s", meeting.RejectionReason.String)
	}

	s.send(to, fmt.Sprintf("Meeting %s: %s", meeting.Status, meeting.Title), body)
}

// SendMeetingDateSelected notifies an attendee that the meeting date has
// been finalized
func (s *NotificationService) SendMeetingDateSelected(to string, meeting *models.Meeting) {
	body := fmt.Sprintf(
		"The date for %q has been confirmed.\n\nDate: %s\nDuration: %d minutes",
		meeting.Title, formatMeetingDate(meeting), meeting.DurationMinutes,
	)

	s.send(to, fmt.Sprintf("Meeting confirmed: %s", meeting.Title), body)
}

// SendManagerApproval emails the admin decision on a manager signup
func (s *NotificationService) SendManagerApproval(to, managerName string, approved bool, reason string) {
	if approved {
		body := fmt.Sprintf(
			"Hi %s,\n\nYour account has been approved. You can now log in and start managing your team.",
			managerName,
		)
		s.send(to, "Your account has been approved", body)
		return
	}

	body := fmt.Sprintf("Hi %s,\n\nYour account request was not approved.", managerName)
	if reason != "" {
		body += fmt.Sprintf("\n\nReason: %s", reason)
	}
	s.send(to, "Your account request", body)
}

// send dispatches a message through the gateway, logging failures
func (s *NotificationService) send(to, subject, body string) {
	err := s.gateway.Send(email.Message{
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
			"error":   err.Error(),
		}).Warn("Failed to send notification email")
	}
}

func formatMeetingDate(meeting *models.Meeting) string {
	if !meeting.Date.Valid {
		return "to be decided"
	}
	return meeting.Date.Time.Format("Mon, 02 Jan 2006 15:04")
}
