package main

import (
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pbaille/ulasan/internal/balancer"
	"github.com/pbaille/ulasan/internal/collector"
	"github.com/pbaille/ulasan/internal/dataset"
	"github.com/pbaille/ulasan/internal/domain"
	"github.com/pbaille/ulasan/internal/playstore"
)

func collectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect Play Store reviews into a labeled dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := cfg.CollectorOptions()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			fmt.Fprintln(out, rule)
			fmt.Fprintln(out, "COLLECTING REVIEWS - GOOGLE PLAY STORE")
			fmt.Fprintln(out, rule)
			fmt.Fprintf(out, "\nTarget: %d reviews\n", opts.Target)
			fmt.Fprintf(out, "App: %s\n\n", opts.AppID)

			c := collector.New(playstore.New(), opts)
			log.WithField("run", c.RunID()).Debug("collection started")

			if info := c.AppInfo(ctx); info != nil {
				fmt.Fprintln(out, "App info:")
				fmt.Fprintf(out, "  - Name: %s\n", info.Title)
				fmt.Fprintf(out, "  - Rating: %.2f\n", info.Score)
				fmt.Fprintf(out, "  - Total reviews: %d\n", info.Reviews)
				fmt.Fprintf(out, "  - Installs: %s\n\n", info.Installs)
			}

			raw, err := c.Collect(ctx)
			if err != nil {
				if len(raw) == 0 {
					return fmt.Errorf("collect reviews: %w", err)
				}
				log.WithError(err).WithField("total", len(raw)).Warn("collection stopped early, keeping partial results")
			}

			fmt.Fprintf(out, "\n%s\nPROCESSING DATA\n%s\n", rule, rule)
			d := collector.Process(raw)

			paths := dataset.NewPaths(cfg.Dataset.Prefix, time.Now())
			if err := save(out, d, paths, cfg.Dataset.XLSX); err != nil {
				return err
			}

			fmt.Fprintln(out)
			dataset.WriteReport(out, dataset.Summarize(d))

			if len(d) < cfg.Balancer.MinRows {
				fmt.Fprintf(out, "\nOnly %d reviews collected, %d needed for balancing\n", len(d), cfg.Balancer.MinRows)
				fmt.Fprintln(out, "Tip: collect again or add reviews from another app")
				return nil
			}

			fmt.Fprintln(out, "\nEnough data, balancing...")
			_, err = balanceAndSave(out, d, dataset.BalancedPath(paths.CSV), cfg.Balancer.PerClass, cfg.Balancer.Seed)
			return err
		},
	}

	cfg.BindCollectorFlags(cmd.Flags())
	cfg.BindBalancerFlags(cmd.Flags())
	return cmd
}

func save(out io.Writer, d domain.Dataset, paths dataset.Paths, xlsx bool) error {
	if err := dataset.WriteCSV(paths.CSV, d); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved CSV: %s\n", paths.CSV)

	if err := dataset.WriteJSON(paths.JSON, d); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved JSON: %s\n", paths.JSON)

	if xlsx {
		if err := dataset.WriteXLSX(paths.XLSX, d); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved XLSX: %s\n", paths.XLSX)
	}
	return nil
}

func balanceAndSave(out io.Writer, d domain.Dataset, path string, perClass int, seed int64) (domain.Dataset, error) {
	fmt.Fprintf(out, "\n%s\nBALANCING DATASET\n%s\n", rule, rule)

	before := d.CountBySentiment()
	fmt.Fprintln(out, "\nBefore:")
	for _, s := range domain.Sentiments {
		fmt.Fprintf(out, "  - %s: %d\n", s, before[s])
	}

	balanced, err := balancer.Balance(d, perClass, seed)
	if err != nil {
		return nil, fmt.Errorf("balance dataset: %w", err)
	}

	after := balanced.CountBySentiment()
	fmt.Fprintln(out, "\nAfter:")
	for _, s := range domain.Sentiments {
		fmt.Fprintf(out, "  - %s: %d (%.1f%%)\n", s, after[s], float64(after[s])/float64(len(balanced))*100)
	}
	fmt.Fprintf(out, "\nTotal after balancing: %d\n", len(balanced))

	if err := dataset.WriteCSV(path, balanced); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Saved balanced dataset: %s\n", path)
	return balanced, nil
}
