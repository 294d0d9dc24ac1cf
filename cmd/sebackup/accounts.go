package main

import (
	"context"
	"errors"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/backup"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/logger"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/storage"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/ui"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the sites and user ids of a network account",
	Long: `List every site the account has a user on, including the meta sites the
API leaves out of the associated users. These are the sites a backup covers.

When the backup directory exists, the table also counts the files already
saved for each site.`,
	Example: `  sebackup accounts --account-id 1234
  sebackup accounts --account-id 1234 --out-dir ~/se-backup`,
	Args: cobra.NoArgs,
	RunE: runAccounts,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.Flags().Int64Var(&accountID, "account-id", 0, "network account id (required)")
	accountsCmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "backup root directory to count saved files in")
	_ = accountsCmd.MarkFlagRequired("account-id")
}

func runAccounts(cmd *cobra.Command, args []string) error {
	if accountID <= 0 {
		return errors.New("--account-id must be a positive number")
	}

	flags := make(map[string]interface{})
	if cmd.Flags().Changed("out-dir") {
		flags["out-dir"] = outDir
	}
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	client, err := newClient(cfg, nil, ui.NewNoticePrinter(console(), nil, verbose).Notify)
	if err != nil {
		return err
	}
	defer client.Close()

	users, err := backup.New(client, nil, nil, logger.GetLogger()).NetworkUsers(context.Background(), accountID)
	if err != nil {
		return err
	}

	console().Printf("Found %d Stack Exchange sites associated with %s\n", len(users), ui.ProfileURL(accountID))

	var store *storage.Manager
	if info, err := os.Stat(cfg.Backup.OutputDir); err == nil && info.IsDir() {
		if store, err = storage.NewManager(cfg.Backup.OutputDir); err != nil {
			return err
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	if store != nil {
		table.Header("Site", "User ID", "Profile", "Questions saved", "Answers saved")
	} else {
		table.Header("Site", "User ID", "Profile")
	}
	for _, u := range users {
		id := strconv.FormatInt(u.UserID, 10)
		row := []string{u.SiteDomain, id, "https://" + u.SiteDomain + "/users/" + id}
		if store != nil {
			for _, kind := range []string{backup.KindQuestions, backup.KindAnswers} {
				ids, err := store.Scan(u.SiteDomain, kind)
				if err != nil {
					return err
				}
				row = append(row, strconv.Itoa(len(ids)))
			}
		}
		_ = table.Append(row)
	}
	_ = table.Render()

	if store != nil && verbose {
		console().Info("Files in backup", strconv.Itoa(store.KnownCount()))
	}
	return nil
}
