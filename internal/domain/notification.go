package domain

// NotificationOutcome records the result of one email send attempt. It is
// observational only and never persisted.
type NotificationOutcome struct {
	Success bool
	Error   string
}

// NotificationReport covers both recipients of an order's emails.
type NotificationReport struct {
	Customer NotificationOutcome
	Admin    NotificationOutcome
}
