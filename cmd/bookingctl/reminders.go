package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/booking-api/internal/repository"
	"github.com/noah-isme/booking-api/internal/service"
	"github.com/noah-isme/booking-api/pkg/mail"
)

func newRemindersCmd(e env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Appointment reminder tasks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run-once",
		Short: "Send reminders for tomorrow's pending appointments and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logr, db, err := e.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			loc, err := cfg.Booking.Location()
			if err != nil {
				return err
			}
			var sender mail.Sender = mail.NopSender{}
			if cfg.Mail.Enabled {
				sender = mail.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.From)
			} else {
				logr.Warn("mail disabled, reminders will be marked without sending")
			}

			appointments := repository.NewAppointmentRepository(db)
			notifications := service.NewNotificationService(appointments, sender, loc, logr)
			sent, err := service.NewReminderService(appointments, notifications, nil, loc, nil, logr).RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d reminders\n", sent)
			return nil
		},
	})
	return cmd
}
