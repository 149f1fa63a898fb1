package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

//go:generate mockgen -source=sms.go -destination=mock_sender.go -package=notify

var ErrInvalidPhone = errors.New("invalid phone number")

type Delivery struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Sender interface {
	Send(ctx context.Context, phone, message string) (Delivery, error)
}

func ResetTokenMessage(otp string) string {
	return fmt.Sprintf("Your password reset token is: %s", otp)
}

// LogSender writes messages to the process log instead of an SMS provider.
type LogSender struct{}

func (LogSender) Send(_ context.Context, phone, message string) (Delivery, error) {
	if strings.TrimSpace(phone) == "" {
		return Delivery{Message: "Invalid phone number"}, ErrInvalidPhone
	}
	log.Printf("[SMS] [INFO] to=%s body=%q", phone, message)
	return Delivery{Success: true, Message: "SMS sent successfully"}, nil
}
