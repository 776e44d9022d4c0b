// Command mailer consumes OTP mail requests from RabbitMQ and delivers them
// over SMTP. It is only needed when the API runs with NOTIFIER=queue.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/otp-auth-service/internal/config"
	"github.com/baechuer/otp-auth-service/internal/infrastructure/mail"
	"github.com/baechuer/otp-auth-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/otp-auth-service/internal/logger"
)

func main() {
	logger.Init()

	cfg, err := config.LoadMailer()
	if err != nil {
		zlog.Fatal().Err(err).Msg("config load failed")
	}

	sender := mail.NewSMTPNotifier(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		FromName: cfg.SMTP.FromName,
	}, logger.Logger)

	consumer := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		RabbitURL: cfg.RabbitURL,
		Exchange:  cfg.RabbitExchange,
		Queue:     cfg.RabbitQueue,
		Tag:       "otp-mailer",
	}, sender, logger.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zlog.Info().
		Str("queue", cfg.RabbitQueue).
		Str("exchange", cfg.RabbitExchange).
		Msg("mailer started")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Error().Err(err).Msg("mailer stopped")
		os.Exit(1)
	}
	zlog.Info().Msg("mailer stopped")
}
