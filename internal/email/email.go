package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/travelbook/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fmt.Printf("send email to %s about %s for booking %s (%s, %d seats)\n",
		event.Email, event.Type, event.BookingID, event.TravelID, event.Seats)
	return nil
}
