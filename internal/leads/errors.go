package leads

import "errors"

var (
	// ErrInvalidEmail is returned when the email is missing or malformed
	ErrInvalidEmail = errors.New("invalid email")

	// ErrMissingDetails is returned when the details/message text is missing or too short
	ErrMissingDetails = errors.New("missing details/message")

	// ErrInvalidBody is returned when the request body could not be read
	ErrInvalidBody = errors.New("invalid request body")

	// ErrMissingCredential is returned when no email provider credential is configured
	ErrMissingCredential = errors.New("missing email provider credential")

	// ErrProviderUnavailable is returned when the provider timed out or could not be reached
	ErrProviderUnavailable = errors.New("email provider unavailable")

	// ErrOwnerNotificationFailed is returned when the required owner notification was not sent
	ErrOwnerNotificationFailed = errors.New("owner notification failed")
)
