// Package prerequisites detects which command-line tools the deployment
// needs are missing and installs exactly those through the system
// package manager.
package prerequisites

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// Tool represents a command-line tool the deployment depends on.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Package is the distribution package providing Name.
	// Empty means the package is named like the binary.
	Package string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string
}

// PackageName returns the package that provides the tool.
func (t Tool) PackageName() string {
	if t.Package != "" {
		return t.Package
	}
	return t.Name
}

// DefaultTools returns the tools every deployment needs before the
// runtime can be installed.
func DefaultTools() []Tool {
	return []Tool{
		{
			Name:        "curl",
			Required:    true,
			Description: "Fetches the runtime repository setup script",
		},
		{
			Name:        "unzip",
			Required:    true,
			Description: "Inspects release archives during manual recovery",
		},
		{
			Name:        "gpg",
			Package:     "gnupg",
			Required:    true,
			Description: "Verifies the runtime repository signing key",
		},
		{
			Name:        "update-ca-certificates",
			Package:     "ca-certificates",
			Required:    true,
			Description: "Provides the CA bundle for HTTPS downloads",
		},
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool  Tool
	Found bool
	Path  string
}

// CheckResults partitions the checked tools into present and missing.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, tool.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// MissingPackages returns the sorted, de-duplicated package names that
// provide the missing tools.
func (r *CheckResults) MissingPackages() []string {
	seen := make(map[string]struct{}, len(r.Missing))
	var pkgs []string
	for _, tool := range r.Missing {
		name := tool.PackageName()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		pkgs = append(pkgs, name)
	}
	sort.Strings(pkgs)
	return pkgs
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// CheckWith verifies that tools resolve through find. A nil find means
// the PATH lookup.
func CheckWith(tools []Tool, find func(string) (string, error)) *CheckResults {
	if find == nil {
		find = lookPath
	}
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := find(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}
