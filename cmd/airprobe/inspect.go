package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"airprobe/pkg/reporter"
)

// inspectCmd summarises a JUnit report written by an earlier run
var inspectCmd = &cobra.Command{
	Use:   "inspect <report.xml>",
	Short: "Print the results stored in a JUnit report",
	Long: `Reads a JUnit XML report and prints one line per test case. The exit
code is 1 when the report contains failures.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := reporter.ReadJUnit(args[0])
		if err != nil {
			return usageErr("%w", err)
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, c := range cases {
			status := "PASS"
			if c.Failed {
				status = "FAIL"
				failed++
			}
			fmt.Fprintf(out, "%s %s/%s\n", status, c.Suite, c.Name)
			if c.Failed && c.Message != "" {
				fmt.Fprintf(out, "   Details: %s\n", reporter.Indent(c.Message))
			}
		}
		fmt.Fprintf(out, "\n%d/%d tests passed\n", len(cases)-failed, len(cases))

		if failed > 0 {
			return &exitError{code: exitFail}
		}
		return nil
	},
}
