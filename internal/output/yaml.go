package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/snapset/internal/snapset"
)

// YAMLFormatter formats reports as YAML.
type YAMLFormatter struct{}

// FormatReport formats an operation report as a YAML document.
func (f *YAMLFormatter) FormatReport(rep snapset.Report) (string, error) {
	data, err := yaml.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to YAML: %w", err)
	}

	return string(data), nil
}
