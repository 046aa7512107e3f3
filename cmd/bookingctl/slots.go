package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/booking-api/internal/dto"
)

func newSlotsCmd(e env) *cobra.Command {
	var query dto.AvailabilityQuery

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the free start times of an employee for a service on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logr, db, err := e.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			availability, err := newAvailability(cfg, db, logr)
			if err != nil {
				return err
			}
			res, err := availability.PublicSlots(ctx, query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s (%s)\n", res.Date, res.EmployeeID, res.Timezone)
			if len(res.Slots) == 0 {
				fmt.Fprintln(out, "no free slots")
				return nil
			}
			fmt.Fprintln(out, strings.Join(res.Slots, " "))
			return nil
		},
	}

	cmd.Flags().StringVar(&query.Date, "date", "", "local date in YYYY-MM-DD")
	cmd.Flags().StringVar(&query.EmployeeID, "employee", "", "employee id")
	cmd.Flags().StringVar(&query.ServiceID, "service", "", "service id")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("service")
	return cmd
}
