package notifications

import "context"

type SendOneTimeCodeInput struct {
	Email string
	Name  string
	Code  string
}

// Notifier delivers one-time verification codes to a user's email.
type Notifier interface {
	SendOneTimeCode(ctx context.Context, input SendOneTimeCodeInput) error
}
