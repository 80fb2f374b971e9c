package output

import (
	"encoding/json"
	"fmt"

	"github.com/jbweber/snapset/internal/snapset"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct{}

// FormatReport formats an operation report as indented JSON.
func (f *JSONFormatter) FormatReport(rep snapset.Report) (string, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
