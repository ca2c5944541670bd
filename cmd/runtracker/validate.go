package main

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/runtracker/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	validateDump bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the runtracker configuration file for syntax and semantic errors.`,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateDump, "dump", false, "Dump full configuration with defaults highlighted")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// Load configuration
	v := config.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
			return err
		}
	}
	if _, err := config.Decode(v); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
		return err
	}

	// Check for unknown keys (always, not just with --dump)
	var unknownKeys []string
	if configPath != "" {
		var err error
		unknownKeys, err = findUnknownKeys(configPath)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "⚠️  Warning: Could not check for unknown keys: %v\n", err)
		}
	}

	source := configPath
	if source == "" {
		source = "(defaults and environment)"
	}
	_, _ = fmt.Fprintf(out, "✅ Configuration is valid: %s\n", source)

	// Warn about unknown keys
	if len(unknownKeys) > 0 {
		red := color.New(color.FgRed, color.Bold)
		_, _ = fmt.Fprintln(out)
		_, _ = red.Fprintf(out, "⚠️  WARNING: Found %d unknown configuration key(s):\n", len(unknownKeys))
		for _, key := range unknownKeys {
			_, _ = red.Fprintf(out, "   - %s\n", key)
		}
		_, _ = fmt.Fprintln(out, "\nThese keys will be ignored and may indicate typos or deprecated settings.")
	}

	// If dump requested, show full configuration with defaults highlighted
	if validateDump {
		_, _ = fmt.Fprintln(out, "\n"+strings.Repeat("=", 80))
		_, _ = fmt.Fprintln(out, "FULL CONFIGURATION (values different from defaults are highlighted)")
		_, _ = fmt.Fprintln(out, strings.Repeat("=", 80))

		dumpConfig(out, v, config.Defaults(), unknownKeys)
	}

	return nil
}

// findUnknownKeys loads the config file and checks for unknown keys
func findUnknownKeys(configPath string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	validKeys := getValidKeys()

	unknown := []string{}
	for _, key := range v.AllKeys() {
		if !validKeys[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	return unknown, nil
}

// getValidKeys returns a set of all valid configuration keys. Every key has a
// default, so the defaults are the schema.
func getValidKeys() map[string]bool {
	keys := map[string]bool{}
	for _, key := range config.Defaults().AllKeys() {
		keys[key] = true
	}
	return keys
}

// dumpConfig dumps configuration with color highlighting for non-default values
func dumpConfig(out io.Writer, effective, defaults *viper.Viper, unknownKeys []string) {
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan, color.Bold)

	// Group by section so nested sections follow their parent's own keys
	keys := defaults.AllKeys()
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := sectionOf(keys[i]), sectionOf(keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})

	section := ""
	for _, key := range keys {
		parts := strings.Split(key, ".")
		parent := sectionOf(key)
		if parent != section {
			section = parent
			indent := strings.Repeat("  ", max(len(parts)-2, 0))
			_, _ = cyan.Fprintf(out, "\n%s[%s]\n", indent, section)
		}

		name := strings.Repeat("  ", len(parts)-1) + parts[len(parts)-1]
		value, defaultValue := effective.Get(key), defaults.Get(key)
		if strings.HasSuffix(key, "password") {
			value = redactPassword(fmt.Sprint(value))
			defaultValue = redactPassword(fmt.Sprint(defaultValue))
		}
		dumpField(out, name, value, defaultValue, yellow, green)
	}

	// Display unknown keys if any
	if len(unknownKeys) > 0 {
		red := color.New(color.FgRed, color.Bold)

		_, _ = cyan.Fprintln(out, "\n[UNKNOWN KEYS - These will be ignored!]")
		for _, key := range unknownKeys {
			_, _ = red.Fprintf(out, "  %s = (unknown key - check for typos)\n", key)
		}
	}

	_, _ = fmt.Fprintln(out, "\n"+strings.Repeat("=", 80))
}

func sectionOf(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[:i]
	}
	return ""
}

// dumpField prints a field with color if it differs from default. Values read
// from a file or the environment are often strings, so both sides are
// compared in their printed form.
func dumpField(out io.Writer, name string, value, defaultValue interface{}, modifiedColor, defaultColor *color.Color) {
	valueStr := fmt.Sprintf("%v", value)
	isDefault := reflect.DeepEqual(value, defaultValue) || valueStr == fmt.Sprintf("%v", defaultValue)

	if isDefault {
		_, _ = defaultColor.Fprintf(out, "%s = %s\n", name, valueStr)
	} else {
		_, _ = modifiedColor.Fprintf(out, "%s = %s  (modified from default: %v)\n", name, valueStr, defaultValue)
	}
}

// redactPassword redacts password if not empty
func redactPassword(password string) string {
	if password == "" {
		return ""
	}
	return "***REDACTED***"
}
