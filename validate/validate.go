// Command validate checks tic-tac-toe server configuration files. With no
// arguments it validates every *.yaml and *.yml file in ./configs. It checks:
//   - YAML structure, rejecting unknown keys
//   - Port, delay, token lifetime and database path ranges
//   - Allowed origins are absolute http(s) URLs
//   - JWT secret strength when accounts are enabled
//   - ngrok settings are complete when the tunnel is enabled
package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/tictactoe/game/config"
)

// minSecretLength is the shortest JWT secret accepted without a warning.
const minSecretLength = 32

// ValidationResult captures the outcome of validating a single file.
// Warnings never make a file invalid.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// validateConfig loads a configuration file and applies checks that go
// beyond config.Validate.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	cfg, err := config.LoadFile(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	for _, origin := range cfg.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			result.fail("allowedOrigins: %q is not an absolute http(s) origin", origin)
			continue
		}
		if u.Path != "" && u.Path != "/" {
			result.warn("allowedOrigins: %q has a path, browsers send origins without one", origin)
		}
	}

	switch {
	case !cfg.AuthEnabled():
		result.warn("jwtSecret not set, account routes will be disabled")
	case len(cfg.JWTSecret) < minSecretLength:
		result.warn("jwtSecret is shorter than %d characters", minSecretLength)
	}

	if cfg.Ngrok.Enabled && cfg.Ngrok.AuthToken == "" {
		result.warn("ngrok enabled without authToken, NGROK_AUTHTOKEN must be set at runtime")
	}
	if !cfg.Ngrok.Enabled && cfg.Ngrok.Domain != "" {
		result.warn("ngrok domain set but tunnel disabled")
	}

	if cfg.AIDelay == 0 {
		result.warn("aiDelay is 0, AI replies will arrive with the human move")
	}

	return result
}

// findConfigs expands args into config files. Directories contribute their
// YAML files.
func findConfigs(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"configs"}
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(arg, pattern))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	return files, nil
}

// report prints every result and returns whether all files are valid.
func report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
		}
		for _, err := range result.Errors {
			fmt.Fprintln(w, "  ❌ "+err)
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}

func main() {
	files, err := findConfigs(os.Args[1:])
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("No configuration files found")
		os.Exit(1)
	}

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateConfig(file))
	}
	if !report(os.Stdout, results) {
		os.Exit(1)
	}
}
