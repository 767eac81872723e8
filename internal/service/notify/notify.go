package notify

import (
	"fmt"
	"log/slog"

	mail "gopkg.in/mail.v2"

	"supplyhub/entity"
	"supplyhub/internal/config"
	"supplyhub/internal/lib/sl"
)

// Service delivers best-effort email notifications. Failures are
// logged, never surfaced to the chat path.
type Service struct {
	enabled bool
	from    string
	dialer  *mail.Dialer
	log     *slog.Logger
}

func NewNotifyService(conf *config.Config, logger *slog.Logger) *Service {
	s := &Service{
		enabled: conf.Smtp.Enabled,
		from:    conf.Smtp.From,
		log:     logger.With(sl.Module("notify-service")),
	}
	if s.enabled {
		s.dialer = mail.NewDialer(conf.Smtp.Host, conf.Smtp.Port, conf.Smtp.User, conf.Smtp.Password)
	}
	return s
}

// NotifyOfflineMessage mails a recipient who was offline when a chat
// message arrived.
func (s *Service) NotifyOfflineMessage(recipient *entity.User, msg entity.Message) {
	if !s.enabled || recipient == nil || recipient.Email == "" {
		return
	}

	sender := "someone"
	if msg.Sender != nil {
		sender = msg.Sender.Username
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient.Email)
	m.SetHeader("Subject", fmt.Sprintf("New message from %s", sender))
	m.SetBody("text/plain", fmt.Sprintf("%s wrote:\n\n%s\n\nLog in to reply.", sender, msg.Text))

	if err := s.dialer.DialAndSend(m); err != nil {
		s.log.With(
			slog.String("recipient", recipient.Username),
			sl.Err(err),
		).Error("send notification email")
		return
	}

	s.log.With(
		slog.String("recipient", recipient.Username),
	).Debug("notification email sent")
}
