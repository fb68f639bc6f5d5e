package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pbaille/ulasan/internal/config"
)

var (
	cfg        = config.Default()
	configPath string
)

const rule = "============================================================"

func main() {
	// Add some millisecond precision to log timestamps
	formatter := new(log.TextFormatter)
	formatter.TimestampFormat = "2006-01-02T15:04:05.999Z07:00"
	formatter.FullTimestamp = true
	log.SetFormatter(formatter)

	rootCmd := &cobra.Command{
		Use:          "ulasan",
		Short:        "Collect app reviews and classify their sentiment",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(cfg, configPath, cmd.Flags()); err != nil {
				return err
			}
			level, err := log.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			log.Debug("debug logging enabled")
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultFile+" if present)")
	cfg.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(collectCmd())
	rootCmd.AddCommand(balanceCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(serveCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
