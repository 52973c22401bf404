package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"airprobe/pkg/checks"
	"airprobe/pkg/suite"
)

// listCmd prints the built-in suites and their checks
var listCmd = &cobra.Command{
	Use:   "list [suite]",
	Short: "List built-in suites, or the checks of one suite",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			for _, name := range suite.BuiltinNames() {
				s, err := suite.Builtin(name)
				if err != nil {
					return usageErr("%w", err)
				}
				fmt.Fprintf(out, "%-6s %2d checks  %s\n", name, len(s.Checks), s.Description)
			}
			fmt.Fprintf(out, "\nAssertion types: %v\n", checks.DefaultRegistry.AssertionTypes())
			fmt.Fprintf(out, "Go-coded checks: %v\n", checks.DefaultRegistry.HandlerNames())
			return nil
		}

		s, err := suite.Resolve(args[0])
		if err != nil {
			return usageErr("%w", err)
		}
		fmt.Fprintf(out, "%s: %s\n", s.Name, s.Description)
		for i, c := range s.Checks {
			fmt.Fprintf(out, "%2d. %-22s %s\n", i+1, c.Name, c.Description)
		}
		return nil
	},
}
