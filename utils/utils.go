package utils

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultJournalName is the file name of the run journal
const DefaultJournalName = "imagededup.db"

// GetDefaultJournalPath returns the default path for the journal database
func GetDefaultJournalPath() string {
	// Get the executable path
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return DefaultJournalName
	}

	return filepath.Join(filepath.Dir(exePath), DefaultJournalName)
}

// ParseThreshold parses and validates a distance threshold. Any finite,
// non-negative number is accepted.
func ParseThreshold(thresholdStr string) (float64, error) {
	parsedThreshold, err := strconv.ParseFloat(strings.TrimSpace(thresholdStr), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold value %q: not a number", thresholdStr)
	}
	if err := ValidateThreshold(parsedThreshold); err != nil {
		return 0, err
	}
	return parsedThreshold, nil
}

// ValidateThreshold rejects negative, NaN and infinite thresholds
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return fmt.Errorf("invalid threshold value %v: must be a non-negative number", threshold)
	}
	return nil
}
