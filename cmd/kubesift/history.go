package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past analysis runs",
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryDeleteCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var (
		configPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent analysis runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, configPath, limit)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kubesift.yaml", "path to kubesift config file")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}

func runHistoryList(cmd *cobra.Command, configPath string, limit int) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}

	entries, err := a.store.List(limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history entries.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWORKLOAD\tNAMESPACE\tSTATUS\tPROVIDER\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s/%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.ComponentType, e.ComponentName, e.Namespace,
			statusWord(e.Success), e.Provider,
			e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func newHistoryShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one analysis run in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kubesift.yaml", "path to kubesift config file")
	return cmd
}

func runHistoryShow(cmd *cobra.Command, configPath, id string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}

	entry, err := a.store.Get(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:        %s\n", entry.ID)
	fmt.Fprintf(out, "Workload:  %s/%s\n", entry.ComponentType, entry.ComponentName)
	fmt.Fprintf(out, "Namespace: %s\n", entry.Namespace)
	if entry.TimeRange != "" {
		fmt.Fprintf(out, "Range:     %s\n", entry.TimeRange)
	}
	fmt.Fprintf(out, "Mode:      %s\n", entry.Mode)
	fmt.Fprintf(out, "Backend:   %s/%s\n", entry.Provider, entry.Model)
	fmt.Fprintf(out, "Status:    %s\n", statusWord(entry.Success))
	fmt.Fprintf(out, "Created:   %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))
	if entry.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:     %s\n", entry.ErrorMessage)
	}
	if entry.Preview != "" {
		fmt.Fprintf(out, "\n%s\n", entry.Preview)
	}
	return nil
}

func newHistoryDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one analysis run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryDelete(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kubesift.yaml", "path to kubesift config file")
	return cmd
}

func runHistoryDelete(cmd *cobra.Command, configPath, id string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	if err := a.store.Delete(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
	return nil
}
