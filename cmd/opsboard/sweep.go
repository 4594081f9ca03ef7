package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"opsboard/internal/config"
	"opsboard/internal/notify"
	"opsboard/internal/store"
)

// newSweepCmd runs the notification rules once against the database,
// without going through a running server. Useful from cron.
func newSweepCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var deliver bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Generate due notifications and optionally deliver them",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			logger := slog.Default().With("component", "sweep")
			now := time.Now().UTC()

			generator := notify.NewGenerator(st, logger)
			result, err := generator.Sweep(context.Background(), now)
			if err != nil {
				return err
			}

			delivered := 0
			if deliver {
				email := notify.NewSMTPSender(cfg.SMTP)
				push := notify.NewPushClient(cfg.Push)
				if email != nil || push != nil {
					dispatcher := notify.NewDispatcher(st, emailOrNil(email), pushOrNil(push),
						cfg.DeliveryQueueSize, logger)
					delivered, err = dispatcher.DeliverPending(context.Background(), now)
					dispatcher.Close()
					if err != nil {
						return err
					}
				} else {
					logger.Warn("no delivery channels configured, skipping delivery")
				}
			}

			if *jsonOutput {
				return writeJSON(map[string]any{
					"created":   result.Created,
					"skipped":   result.Skipped,
					"errors":    result.Errors,
					"delivered": delivered,
					"messages":  result.Messages,
				})
			}

			fmt.Printf("Created: %d\nSkipped: %d\nErrors: %d\nDelivered: %d\n",
				result.Created, result.Skipped, result.Errors, delivered)
			for _, msg := range result.Messages {
				fmt.Println("  " + msg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&deliver, "deliver", false, "deliver pending notifications after generating")

	return cmd
}
