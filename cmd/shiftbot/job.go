package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goodjobs/shiftbot/internal/config"
	"github.com/goodjobs/shiftbot/internal/db"
	"github.com/goodjobs/shiftbot/internal/geo"
	"github.com/goodjobs/shiftbot/internal/job"
	"github.com/goodjobs/shiftbot/internal/ledger"
)

func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Job posting management commands",
	}

	cmd.AddCommand(newJobCreateCmd())
	cmd.AddCommand(newJobListCmd())
	cmd.AddCommand(newJobDeleteCmd())
	return cmd
}

func newJobCreateCmd() *cobra.Command {
	var (
		configPath string
		name       string
		location   string
		date       string
		shifts     []string
		imageURL   string
		noGeocode  bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new job posting",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			gormDB, err := db.Connect(cfg.DB)
			if err != nil {
				return err
			}

			var geocoder job.Geocoder
			if !noGeocode {
				geocoder = geo.NewClient(geo.ClientOpts{})
			}

			posting, err := job.Create(cmd.Context(), gormDB, geocoder, job.CreateOpts{
				Name:             name,
				Location:         location,
				Date:             date,
				Shifts:           shifts,
				LocationImageURL: imageURL,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s: %s @ %s on %s\n",
				posting.ID, posting.Name, posting.Location, posting.Date)
			fmt.Fprintf(out, "Shifts: %s\n", strings.Join(posting.ShiftList(), ", "))
			if posting.Latitude != nil && posting.Longitude != nil {
				fmt.Fprintf(out, "Coordinates: %f, %f\n", *posting.Latitude, *posting.Longitude)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "shiftbot.yaml", "path to config file")
	cmd.Flags().StringVar(&name, "name", "", "job name")
	cmd.Flags().StringVar(&location, "location", "", "work location address")
	cmd.Flags().StringVar(&date, "date", "", "work date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&shifts, "shift", nil, "shift label (repeatable)")
	cmd.Flags().StringVar(&imageURL, "image", "", "location image URL")
	cmd.Flags().BoolVar(&noGeocode, "no-geocode", false, "skip address geocoding")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("location")
	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("shift")
	return cmd
}

func newJobListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List job postings with application counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			gormDB, err := db.Connect(cfg.DB)
			if err != nil {
				return err
			}

			postings, err := job.List(gormDB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(postings) == 0 {
				fmt.Fprintln(out, "No job postings.")
				return nil
			}
			for i := range postings {
				p := &postings[i]
				apps, err := ledger.ListByJob(gormDB, p.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s  %s  %s  %s  (%d applications)\n",
					p.ID, p.Date, p.Name, p.Location, len(apps))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "shiftbot.yaml", "path to config file")
	return cmd
}

func newJobDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job posting and its applications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			gormDB, err := db.Connect(cfg.DB)
			if err != nil {
				return err
			}

			if err := job.Delete(gormDB, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "shiftbot.yaml", "path to config file")
	return cmd
}
