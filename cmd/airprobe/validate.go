package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"airprobe/pkg/checks"
	"airprobe/pkg/suite"
)

// validateCmd parses suite files and compiles every check without sending requests
var validateCmd = &cobra.Command{
	Use:   "validate <suite-file>...",
	Short: "Validate custom suite files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0

		for _, path := range args {
			s, err := suite.Resolve(path)
			if err == nil {
				err = compileAll(s)
			}
			if err != nil {
				failed++
				fmt.Fprintf(out, "FAIL %s\n   Details: %v\n", path, err)
				continue
			}
			fmt.Fprintf(out, "PASS %s\n   Details: suite '%s' with %d checks\n", path, s.Name, len(s.Checks))
		}

		if failed > 0 {
			return &exitError{code: exitUsage, err: fmt.Errorf("%d of %d suite files are invalid", failed, len(args))}
		}
		return nil
	},
}

func compileAll(s *suite.Suite) error {
	for i := range s.Checks {
		if _, err := checks.Compile(&s.Checks[i]); err != nil {
			return err
		}
	}
	return nil
}
