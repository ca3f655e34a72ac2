package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/joho/godotenv"
)

// ConfigCheckResult holds the result of configuration validation
type ConfigCheckResult struct {
	Missing  []string          // Required variables that are missing
	Present  map[string]string // Variables that are set (masked values)
	Warnings []string          // Non-fatal warnings
}

// CheckRequiredConfig reports which of the archive's environment overrides
// are set. The database URL may come from either LEGALHOLD_DATABASE_URL or
// DATABASE_URL.
func CheckRequiredConfig() *ConfigCheckResult {
	result := &ConfigCheckResult{
		Missing:  []string{},
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	dbSet := false
	for _, v := range []string{"LEGALHOLD_DATABASE_URL", "DATABASE_URL"} {
		if val := os.Getenv(v); val != "" {
			result.Present[v] = maskSecret(val)
			dbSet = true
		}
	}
	if !dbSet {
		result.Missing = append(result.Missing, "LEGALHOLD_DATABASE_URL")
	}

	optionalVars := []string{
		"LEGALHOLD_DIRECTORY_BASE_URL",
		"LEGALHOLD_DIRECTORY_TOKEN",
		"LEGALHOLD_EXPORT_SCHEDULE",
		"LEGALHOLD_EXPORT_SINK",
	}
	for _, v := range optionalVars {
		if val := os.Getenv(v); val != "" {
			result.Present[v] = maskSecret(val)
		}
	}

	if os.Getenv("LEGALHOLD_DIRECTORY_BASE_URL") != "" && os.Getenv("LEGALHOLD_DIRECTORY_TOKEN") == "" {
		result.Warnings = append(result.Warnings, "directory base URL is set without a token")
	}

	return result
}

// PrintConfigCheck prints the configuration check results
func PrintConfigCheck(result *ConfigCheckResult) {
	fmt.Println("=== Environment Check ===")

	if len(result.Missing) > 0 {
		fmt.Println("Missing required variables:")
		for _, v := range result.Missing {
			fmt.Printf("   - %s\n", v)
		}
		fmt.Println("")
	}

	if len(result.Present) > 0 {
		keys := make([]string, 0, len(result.Present))
		for k := range result.Present {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Println("Configured variables:")
		for _, k := range keys {
			fmt.Printf("   - %s = %s\n", k, result.Present[k])
		}
		fmt.Println("")
	}

	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	fmt.Println("=========================")
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}

// LoadEnvFile loads environment variables from a file, overwriting existing ones.
func LoadEnvFile(filename string) error {
	return godotenv.Overload(filename)
}

// loadDotEnv loads filename if it exists without overriding variables that
// are already set. An explicitly named file must exist.
func loadDotEnv(filename string, explicit bool) error {
	err := godotenv.Load(filename)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", filename, err)
}
