package domain

import "time"

// TicketMessage captures communications in a ticket thread.
type TicketMessage struct {
	ID         string
	TicketID   string
	AuthorID   string
	AuthorName string
	Body       string
	Internal   bool
	CreatedAt  time.Time
}
