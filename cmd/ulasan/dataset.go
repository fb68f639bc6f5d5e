package main

import (
	"github.com/spf13/cobra"

	"github.com/pbaille/ulasan/internal/dataset"
)

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance [csv]",
		Short: "Resample a collected dataset to the same size per sentiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dataset.ReadCSV(args[0])
			if err != nil {
				return err
			}
			_, err = balanceAndSave(cmd.OutOrStdout(), d, dataset.BalancedPath(args[0]), cfg.Balancer.PerClass, cfg.Balancer.Seed)
			return err
		},
	}

	cfg.BindBalancerFlags(cmd.Flags())
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [csv]",
		Short: "Show the composition of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dataset.ReadCSV(args[0])
			if err != nil {
				return err
			}
			dataset.WriteReport(cmd.OutOrStdout(), dataset.Summarize(d))
			return nil
		},
	}
}
