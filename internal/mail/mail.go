// Package mail abstracts outbound email. The gateway injects a concrete
// mailer when credentials are configured; otherwise callers fall back to
// documented dev behavior (the password-reset link is returned directly).
package mail

import "context"

type Message struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
