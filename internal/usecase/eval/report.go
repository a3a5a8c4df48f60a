package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteReport dumps the report as indented JSON, creating parent directories.
func WriteReport(path string, report Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
