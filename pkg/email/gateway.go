package email

// Message represents a single outbound email
type Message struct {
	To      string
	Subject string
	Body    string
	HTML    bool
}

// Gateway abstracts the outbound email transport so services can be tested
// without a live SMTP server
type Gateway interface {
	Send(msg Message) error
	GetName() string
}
