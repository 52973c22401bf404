package reporter

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	"airprobe/pkg/executor"
)

// WriteJSON writes the report as indented JSON.
func WriteJSON(path string, report *executor.Report) error {
	data, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report '%s': %w", path, err)
	}
	return nil
}

// ReadJSON loads a report written by WriteJSON.
func ReadJSON(path string) (*executor.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON report '%s': %w", path, err)
	}
	var report executor.Report
	if err := sonic.ConfigStd.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse JSON report '%s': %w", path, err)
	}
	return &report, nil
}
