package main

import (
	"context"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	se "github.com/9ao9ai9ar/stack-exchange-backup/pkg/stackexchange"
)

var (
	filterInclude []string
	filterExclude []string
	filterBase    string
	filterUnsafe  bool
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Create and inspect API filters",
	Long: `Filters select the fields the API returns. They are immutable and never
expire, so a filter created once can be reused forever.`,
}

var filterCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a filter",
	Example: `  # Questions with their markdown bodies
  sebackup filter create --base default --include question.body_markdown

  # Start from nothing and include two fields, without HTML escaping
  sebackup filter create --base none --include .items,question.title --unsafe`,
	Args: cobra.NoArgs,
	RunE: runFilterCreate,
}

var filterReadCmd = &cobra.Command{
	Use:     "read <filter>...",
	Short:   "Show the fields included by filters",
	Example: `  sebackup filter read '!-0ttWpKaHtrB(oS' default`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runFilterRead,
}

var filterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in filters and the filters used by backups",
	Args:  cobra.NoArgs,
	Run:   runFilterList,
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.AddCommand(filterCreateCmd, filterReadCmd, filterListCmd)

	filterCreateCmd.Flags().StringSliceVar(&filterInclude, "include", nil, "fields to include")
	filterCreateCmd.Flags().StringSliceVar(&filterExclude, "exclude", nil, "fields to exclude")
	filterCreateCmd.Flags().StringVar(&filterBase, "base", "", "filter to start from (default, withbody, none, total or a filter id)")
	filterCreateCmd.Flags().BoolVar(&filterUnsafe, "unsafe", false, "return text fields without HTML escaping")
}

func runFilterCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, nil, nil)
	if err != nil {
		return err
	}
	defer client.Close()

	p := se.CreateFilterParams{Include: filterInclude, Exclude: filterExclude}
	if filterBase != "" {
		p.BaseFilter = &filterBase
	}
	if cmd.Flags().Changed("unsafe") {
		p.Unsafe = &filterUnsafe
	}
	params, err := se.NewCreateFilterParams(p)
	if err != nil {
		return err
	}

	filter, err := client.CreateFilterItem(context.Background(), params)
	if err != nil {
		return err
	}
	printFilters([]se.Filter{*filter})
	return nil
}

func runFilterRead(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, nil, nil)
	if err != nil {
		return err
	}
	defer client.Close()

	params, err := se.NewReadFilterParams(se.ReadFilterParams{Filters: args})
	if err != nil {
		return err
	}
	filters, err := se.Collect(context.Background(), se.Items(client.ReadFilter(params, true)))
	if err != nil {
		return err
	}
	printFilters(filters)
	return nil
}

func runFilterList(cmd *cobra.Command, args []string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Filter", "Type", "Fields")
	for _, name := range se.BuiltInFilters {
		_ = table.Append([]string{name, "built-in", ""})
	}
	for _, name := range se.BakedInFilterNames() {
		f := se.BakedInFilters[name]
		_ = table.Append([]string{f.Filter, f.FilterType, strings.Join(f.IncludedFields, "\n")})
	}
	_ = table.Render()
}

func printFilters(filters []se.Filter) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Filter", "Type", "Fields")
	for _, f := range filters {
		_ = table.Append([]string{f.Filter, f.FilterType, strings.Join(f.IncludedFields, "\n")})
	}
	_ = table.Render()
}
