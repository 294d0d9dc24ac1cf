package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/9ao9ai9ar/stack-exchange-backup/internal/writer"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/backup"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/logger"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/metrics"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/storage"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/ui"
)

var (
	accountID   int64
	outDir      string
	workers     int
	notify      bool
	metricsAddr string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the questions and answers of a network account",
	Long: `Back up every question the account asked and every question it answered,
on every site of the Stack Exchange network it has a user on.

The account id is the number in your network profile URL,
https://stackexchange.com/users/<account-id>/. Questions you answered are
saved with all of their answers; questions you asked yourself are only
saved under questions/.`,
	Example: `  # Back up account 1234 into ./q_and_a
  sebackup backup --account-id 1234

  # Use another directory and a stored profile
  sebackup backup --account-id 1234 --out-dir ~/se-backup --profile work

  # Expose Prometheus metrics while the backup runs
  sebackup backup --account-id 1234 --metrics-addr 127.0.0.1:9464`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().Int64Var(&accountID, "account-id", 0, "network account id (required)")
	backupCmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "backup root directory (default q_and_a)")
	backupCmd.Flags().IntVar(&workers, "workers", 0, "number of files rendered and written concurrently")
	backupCmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification on quota waits and completion")
	backupCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	_ = backupCmd.MarkFlagRequired("account-id")
}

func runBackup(cmd *cobra.Command, args []string) error {
	if accountID <= 0 {
		return errors.New("--account-id must be a positive number")
	}

	flags := make(map[string]interface{})
	if cmd.Flags().Changed("out-dir") {
		flags["out-dir"] = outDir
	}
	if cmd.Flags().Changed("workers") {
		flags["workers"] = workers
	}
	if cmd.Flags().Changed("notify") {
		flags["notify"] = notify
	}
	if cmd.Flags().Changed("metrics-addr") {
		flags["metrics-addr"] = metricsAddr
	}

	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := console()
	notifier := ui.NewNotifier(out, cfg.Backup.Notify)
	printer := ui.NewNoticePrinter(out, notifier, verbose)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, reg, log); err != nil {
				log.WithError(err).Error("metrics server failed")
			}
		}()
	}

	client, err := newClient(cfg, m, printer.Notify)
	if err != nil {
		return err
	}
	defer client.Close()

	store, err := storage.NewManager(cfg.Backup.OutputDir)
	if err != nil {
		return err
	}
	pool, err := writer.NewPool(cfg.Backup.Workers, store, m, log)
	if err != nil {
		return err
	}
	defer pool.Release()

	log.InfoWithFields("starting backup", map[string]interface{}{
		"account_id": accountID,
		"out_dir":    store.Root(),
		"workers":    pool.Size(),
	})
	if verbose {
		out.Info("Backup root", store.Root())
	}

	progress := ui.NewSiteProgress(out, verbose)
	totals, err := backup.NewRunner(backup.New(client, store, pool, log), progress).Run(ctx, accountID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			out.Printf("\n")
			out.Warning("Backup interrupted")
			return nil
		}
		notifier.SendError("Backup failed", err.Error())
		return err
	}

	progress.Summary()
	if cfg.Backup.Notify {
		notifier.SendSuccess("Backup complete", fmt.Sprintf("%d sites, %d new files",
			totals.Sites, totals.Questions.Written+totals.Answers.Written))
	}
	return nil
}
