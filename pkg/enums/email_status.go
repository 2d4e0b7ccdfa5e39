package enums

import "fmt"

// EmailStatus maps to the email_status enum in Postgres and mirrors the
// delivery states reported by the mail provider webhooks.
type EmailStatus string

const (
	EmailStatusSent      EmailStatus = "SENT"
	EmailStatusFailed    EmailStatus = "FAILED"
	EmailStatusDelivered EmailStatus = "DELIVERED"
	EmailStatusOpened    EmailStatus = "OPENED"
	EmailStatusClicked   EmailStatus = "CLICKED"
	EmailStatusBounced   EmailStatus = "BOUNCED"
)

var validEmailStatuses = []EmailStatus{
	EmailStatusSent,
	EmailStatusFailed,
	EmailStatusDelivered,
	EmailStatusOpened,
	EmailStatusClicked,
	EmailStatusBounced,
}

// IsValid reports whether the value is a known EmailStatus.
func (e EmailStatus) IsValid() bool {
	for _, candidate := range validEmailStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEmailStatus converts raw input into an EmailStatus.
func ParseEmailStatus(value string) (EmailStatus, error) {
	for _, candidate := range validEmailStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid email status %q", value)
}
