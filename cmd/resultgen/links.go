package main

import (
	"fmt"
	"time"
	"tournament-results/internal/api"
	"tournament-results/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links <file>",
		Short: "Print the tournament IDs found in a file of links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args[0])
			if err != nil {
				return err
			}
			for _, id := range api.ExtractTournamentIDs(text) {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newTournamentsCmd() *cobra.Command {
	var (
		date, slot string
		announce   bool
	)

	cmd := &cobra.Command{
		Use:   "tournaments",
		Short: "List the organiser's tournament links for a day and time slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := zerolog.Ctx(cmd.Context())

			s, err := service.ParseSlot(slot)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(*log)
			if err != nil {
				return err
			}

			day := time.Now().In(cfg.Location)
			if date != "" {
				if day, err = time.ParseInLocation(time.DateOnly, date, cfg.Location); err != nil {
					return fmt.Errorf("invalid date %q: %w", date, err)
				}
			}

			svc := service.NewTournamentService(api.NewBattlexoClient(cfg), cfg.OrganiserSpace, cfg.Location, *log)
			links, err := svc.Find(cmd.Context(), day, s)
			if err != nil {
				return err
			}
			if announce {
				fmt.Fprintln(cmd.OutOrStdout(), svc.Announcement(s, links))
			} else {
				for _, l := range links {
					fmt.Fprintln(cmd.OutOrStdout(), l.Link)
				}
			}
			log.Info().Int("found", len(links)).Str("date", day.Format(time.DateOnly)).Msg("tournaments listed")
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to list, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&slot, "slot", string(service.SlotAll), "time slot: all, first, second or third")
	cmd.Flags().BoolVar(&announce, "announce", false, "print the shareable announcement instead of bare links")
	return cmd
}
