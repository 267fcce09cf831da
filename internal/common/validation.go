package common

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateOutputFormat rejects report formats outside the configured set.
// An empty set means the deployment accepts every registered formatter.
// Matching is exact; format names are lowercase throughout the config.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}
	if slices.Contains(supportedFormats, format) {
		return nil
	}
	return fmt.Errorf("output format %q is not supported, choose one of: %s",
		format, strings.Join(supportedFormats, ", "))
}

// GetSupportedFormats lists the formats a deployment accepts, used for
// shell completion of the --format flag.
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
