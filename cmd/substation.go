package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridwatt/evrouter/app"
	"github.com/gridwatt/evrouter/config"
	"github.com/gridwatt/evrouter/infra/logger"
)

var substationCmd = &cobra.Command{
	Use:   "substation",
	Short: "Run one substation capacity manager",
	RunE:  runSubstation,
}

func init() {
	rootCmd.AddCommand(substationCmd)
}

func runSubstation(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.NewSubstation(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
