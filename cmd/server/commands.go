package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/budgetbot/api"
)

var execCmd = &cobra.Command{
	Use:   "exec <words...>",
	Short: "Run one chat command and print the reply",
	Long: `Run one chat command against the database, exactly as POST /api/chat
would, and print the reply.

Arguments are joined with spaces. Quote values that need double quotes:
  budgetbot exec add aop name '"FY2024"' amount 1000000`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.bot.Handle(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed <scenario>",
	Short: "Reset the database and load a demo scenario",
	Long:  "Reset the database and load a demo scenario.\n\nAvailable scenarios:\n" + scenarioList(),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := api.RunScenario(cmd.Context(), a.store, a.bot, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded scenario %s into %s\n", args[0], a.cfg.Database.Path)
		return nil
	},
}

func scenarioList() string {
	var sb strings.Builder
	for _, s := range api.Scenarios() {
		fmt.Fprintf(&sb, "  %-13s %s\n", s.ID, s.Description)
	}
	return sb.String()
}
