package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored API credentials",
	Long: `Manage credential profiles. A profile holds a request key, an access token,
or both.

Profiles are stored in:
  - the system keychain (when available)
  - an encrypted file with PBKDF2 key derivation
The environment variables SEBACKUP_REQUEST_KEY and SEBACKUP_ACCESS_TOKEN
provide the default profile without storing anything.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store credentials for a profile",
	Example: `  # Store the default profile
  sebackup auth login

  # Store a named profile
  sebackup auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove a stored profile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles with masked credentials",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd)
}

func profileArg(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultProfile
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	out := console()
	name := profileArg(args)
	reader := bufio.NewReader(os.Stdin)

	auth.ShowCredentialGuide(os.Stdout)
	fmt.Println()

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Profile '%s' already exists. Update it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print("Request key (press Enter for the built-in key): ")
	key, err := reader.ReadString('\n')
	if err != nil && key == "" {
		return fmt.Errorf("failed to read request key: %w", err)
	}

	fmt.Print("Access token (hidden, press Enter to skip): ")
	token, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}
	fmt.Println()

	account := &auth.Account{
		Name:        name,
		RequestKey:  strings.TrimSpace(key),
		AccessToken: token,
	}
	if err := manager.Store(account); err != nil {
		return err
	}

	out.Success("Profile saved: " + name)
	if name != auth.DefaultProfile {
		out.Info("Use it with", "sebackup backup --account-id <id> --profile "+name)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	name := profileArg(args)
	if err := manager.Delete(name); err != nil {
		return err
	}
	console().Success("Profile removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		console().Warning("No stored profiles. Run 'sebackup auth login' to add one.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Profile", "Request Key", "Access Token", "Modified")
	for _, a := range accounts {
		masked := auth.SanitizeAccount(a)
		_ = table.Append([]string{
			masked.Name,
			masked.RequestKey,
			masked.AccessToken,
			masked.LastModified.Format("2006-01-02 15:04:05"),
		})
	}
	_ = table.Render()
	return nil
}

// readPassword reads a line without echo when stdin is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		b, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", nil
	}
	return strings.TrimSpace(line), nil
}
