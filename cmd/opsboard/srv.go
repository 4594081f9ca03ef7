package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"opsboard/internal/config"
	"opsboard/internal/notify"
	"opsboard/internal/server"
	"opsboard/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the opsboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}
			if cfg.TokenSecret == "" {
				return fmt.Errorf("OPSBOARD_TOKEN_SECRET is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			email := notify.NewSMTPSender(cfg.SMTP)
			push := notify.NewPushClient(cfg.Push)
			if email == nil {
				logger.Info("email channel disabled")
			}
			if push == nil {
				logger.Info("push channel disabled")
			}

			var dispatcher *notify.Dispatcher
			if email != nil || push != nil {
				dispatcher = notify.NewDispatcher(st, emailOrNil(email), pushOrNil(push),
					cfg.DeliveryQueueSize, slog.Default().With("component", "dispatcher"))
				defer dispatcher.Close()
			}

			srv := server.New(addr, st, cfg.TokenSecret, dispatcher, logger)
			return srv.ListenAndServe()
		},
	}
}

// emailOrNil and pushOrNil avoid storing a typed nil pointer inside a
// non-nil interface value.
func emailOrNil(s *notify.SMTPSender) notify.EmailSender {
	if s == nil {
		return nil
	}
	return s
}

func pushOrNil(c *notify.PushClient) notify.PushSender {
	if c == nil {
		return nil
	}
	return c
}
