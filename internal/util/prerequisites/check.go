// Package prerequisites checks that the client tools a run shells out to
// are installed.
package prerequisites

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name looked up in PATH, or a path to it.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string

	// VersionArgs prints the tool version on the first output line.
	VersionArgs []string
}

// Requirements describes which tools a run needs.
type Requirements struct {
	OC        string
	Installer string
	Subctl    string
	// Install is set when the ocp stage installs clusters.
	Install bool
	// Submariner is set when the submariner stage is enabled.
	Submariner bool
}

// Tools returns the tools to check for r. oc is always required.
func (r Requirements) Tools() []Tool {
	tools := []Tool{{
		Name:        orDefault(r.OC, "oc"),
		Required:    true,
		Description: "Required for every cluster command",
		InstallURL:  "https://mirror.openshift.com/pub/openshift-v4/clients/ocp/",
		VersionArgs: []string{"version", "--client"},
	}}
	tools = append(tools, Tool{
		Name:        orDefault(r.Installer, "openshift-install"),
		Required:    r.Install,
		Description: "Required to install and destroy clusters",
		InstallURL:  "https://mirror.openshift.com/pub/openshift-v4/clients/ocp/",
		VersionArgs: []string{"version"},
	})
	tools = append(tools, Tool{
		Name:        orDefault(r.Subctl, "subctl"),
		Required:    r.Submariner,
		Description: "Required to connect cluster networks with Submariner",
		InstallURL:  "https://get.submariner.io",
		VersionArgs: []string{"version"},
	})
	return tools
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
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
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// Replaceable in tests.
var (
	lookPath    = exec.LookPath
	toolVersion = getToolVersion
)

// Check verifies that the specified tools are available.
func Check(ctx context.Context, tools []Tool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := lookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
			result.Version = toolVersion(ctx, path, tool.VersionArgs)
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// getToolVersion returns the first output line of the version command, or
// "" when it cannot be determined.
func getToolVersion(ctx context.Context, path string, args []string) string {
	if len(args) == 0 {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// #nosec G204 - path and args come from Tool definitions, not user input
	output, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line)
}
