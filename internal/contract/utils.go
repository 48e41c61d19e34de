package contract

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Collaboration label constants.
const (
	HealthyValue    = "Healthy"
	AdequateValue   = "Adequate"
	ConcerningValue = "Concerning"
	CriticalValue   = "Critical"
)

// Color variables for console output.
var (
	HealthyColor    = color.New(color.FgGreen, color.Bold)  // strong collaboration signal
	AdequateColor   = color.New(color.FgCyan)               // acceptable, informational
	ConcerningColor = color.New(color.FgYellow)             // standard caution, not bold
	CriticalColor   = color.New(color.FgRed, color.Bold)    // intervention needed
)

// GetPlainLabel returns a plain text label for a CQI value. This is the core
// logic used for JSON and table printing.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 80:
		return HealthyValue
	case score >= 60:
		return AdequateValue
	case score >= 40:
		return ConcerningValue
	default:
		return CriticalValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the
// appropriate color.
func GetColorLabel(score float64) string {
	text := GetPlainLabel(score)

	switch text {
	case HealthyValue:
		return HealthyColor.Sprint(text)
	case AdequateValue:
		return AdequateColor.Sprint(text)
	case ConcerningValue:
		return ConcerningColor.Sprint(text)
	default: // "Critical"
		return CriticalColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
