package alerter

import (
	"context"
	"fmt"
	"log/slog"
)

// Sender канал доставки алертов (Telegram-адаптер алертера)
type Sender interface {
	SendAlert(ctx context.Context, message string) error
}

// Service реализует IAlerterService: подписывает алерт именем приложения.
// Без канала доставки алерт только пишется в лог
type Service struct {
	sender Sender
	app    string
	log    *slog.Logger
}

func New(sender Sender, app string, log *slog.Logger) *Service {
	if sender == nil {
		log.Warn("alerter is not configured, alerts go to the log only")
	}

	return &Service{
		sender: sender,
		app:    app,
		log:    log,
	}
}

func (s *Service) SendAlert(ctx context.Context, message string) error {
	message = fmt.Sprintf("[%s]\n%s", s.app, message)

	if s.sender == nil {
		s.log.Error("alert", "message", message)
		return nil
	}

	return s.sender.SendAlert(ctx, message)
}
