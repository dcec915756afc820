package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ocp4mco/ocp4mco/internal/util/prerequisites"
)

// DoctorStatus is the diagnostic result of a configuration.
type DoctorStatus struct {
	RunID    string          `json:"runId"`
	Tools    []ToolStatus    `json:"tools"`
	Clusters []ClusterStatus `json:"clusters"`
}

// ToolStatus describes one client tool.
type ToolStatus struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Found    bool   `json:"found"`
	Version  string `json:"version,omitempty"`
}

// ClusterStatus describes one configured cluster.
type ClusterStatus struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Running bool   `json:"running"`
	Console string `json:"console"`
}

// Doctor validates the configuration at configPath, checks the client tools
// and probes which clusters already serve their API.
func Doctor(ctx context.Context, configPath string, jsonOutput bool) error {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}
	set, err := cfg.ClusterSet()
	if err != nil {
		return err
	}

	checks := checkTools(ctx, requirements(cfg).Tools())
	status := DoctorStatus{RunID: cfg.Run.ID}
	for _, r := range checks.Results {
		status.Tools = append(status.Tools, toolStatus(r))
	}

	d := newDeployer(cfg, set)
	for _, c := range set.All() {
		status.Clusters = append(status.Clusters, ClusterStatus{
			Name:    c.Name,
			Role:    c.Role(),
			Running: d.Running(ctx, c),
			Console: c.ConsoleURL(),
		})
	}

	if jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		_, _ = fmt.Fprintln(stdout, string(data))
	} else {
		printDoctor(status)
	}
	return checks.Error()
}

func toolStatus(r prerequisites.CheckResult) ToolStatus {
	return ToolStatus{
		Name:     r.Tool.Name,
		Required: r.Tool.Required,
		Found:    r.Found,
		Version:  r.Version,
	}
}

func printDoctor(s DoctorStatus) {
	tools := table.NewWriter()
	tools.SetOutputMirror(stdout)
	tools.SetStyle(table.StyleRounded)
	tools.AppendHeader(table.Row{"TOOL", "REQUIRED", "FOUND", "VERSION"})
	for _, t := range s.Tools {
		tools.AppendRow(table.Row{t.Name, yesNo(t.Required), yesNo(t.Found), t.Version})
	}
	tools.Render()

	clusters := table.NewWriter()
	clusters.SetOutputMirror(stdout)
	clusters.SetStyle(table.StyleRounded)
	clusters.AppendHeader(table.Row{"CLUSTER", "ROLE", "RUNNING", "CONSOLE"})
	for _, c := range s.Clusters {
		clusters.AppendRow(table.Row{c.Name, c.Role, yesNo(c.Running), c.Console})
	}
	clusters.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
