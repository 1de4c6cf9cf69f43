package mail

import "context"

// Message is one rendered email ready for the provider.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}
