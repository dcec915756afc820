package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/ocp4mco/ocp4mco/internal/orchestrator"
)

// Supported chat messengers.
const (
	MessengerSlack = "slack"
	MessengerGChat = "gchat"
)

// Validate checks the configuration for errors and reports all of them.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.validateClusters()...)
	errs = append(errs, c.validateDeployment()...)
	errs = append(errs, c.validateReporting()...)
	return errors.Join(errs...)
}

func (c *Config) validateClusters() []error {
	if len(c.Clusters) == 0 {
		return []error{fmt.Errorf("at least one cluster is required")}
	}

	var errs []error
	names := make(map[string]bool, len(c.Clusters))
	hubs, primaries := 0, 0
	for i, cc := range c.Clusters {
		switch {
		case cc.Name == "":
			errs = append(errs, fmt.Errorf("clusters[%d]: name is required", i))
		case names[cc.Name]:
			errs = append(errs, fmt.Errorf("clusters[%d]: duplicate cluster name %q", i, cc.Name))
		}
		names[cc.Name] = true

		if cc.Path == "" {
			errs = append(errs, fmt.Errorf("clusters[%d]: path is required", i))
		}
		if cc.Hub {
			hubs++
		}
		if cc.Primary {
			primaries++
		}
		for _, stage := range cc.Skip {
			if !slices.Contains(StageNames, stage) {
				errs = append(errs, fmt.Errorf("clusters[%d]: unknown stage %q in skip", i, stage))
			}
		}
	}
	if hubs > 1 {
		errs = append(errs, fmt.Errorf("at most one hub cluster is allowed, got %d", hubs))
	}
	if primaries > 1 {
		errs = append(errs, fmt.Errorf("at most one primary cluster is allowed, got %d", primaries))
	}
	if hubs == 0 && len(c.Clusters) > 1 {
		if stages := c.enabledHubStages(); len(stages) > 0 {
			errs = append(errs, fmt.Errorf("a hub cluster is required for stages %v", stages))
		}
	}
	return errs
}

// hubStages run on the hub of a multi-cluster deployment.
var hubStages = []string{StageACM, StageMCO, StageSubmariner, StageImport, StageGitOps, StageSSL, StageDR}

func (c *Config) enabledHubStages() []string {
	var enabled []string
	for _, stage := range hubStages {
		if c.StageEnabled(stage) {
			enabled = append(enabled, stage)
		}
	}
	return enabled
}

func (c *Config) validateDeployment() []error {
	var errs []error
	d := c.Deployment

	if _, err := semver.NewVersion(d.ODFVersion); err != nil {
		errs = append(errs, fmt.Errorf("deployment.odfVersion %q is not a version: %w", d.ODFVersion, err))
	}
	if _, err := time.ParseDuration(d.SchedulingInterval); err != nil {
		errs = append(errs, fmt.Errorf("deployment.schedulingInterval %q is not a duration", d.SchedulingInterval))
	}
	for stage := range d.Stages {
		if !slices.Contains(StageNames, stage) {
			errs = append(errs, fmt.Errorf("deployment.stages: unknown stage %q", stage))
		}
	}
	for stage, mode := range d.Isolation {
		if !slices.Contains(StageNames, stage) {
			errs = append(errs, fmt.Errorf("deployment.isolation: unknown stage %q", stage))
			continue
		}
		if _, err := orchestrator.ParseIsolation(mode); err != nil {
			errs = append(errs, fmt.Errorf("deployment.isolation.%s: %w", stage, err))
		}
	}
	if d.Install.WorkerReplicas < 0 || d.Install.MasterReplicas < 0 {
		errs = append(errs, fmt.Errorf("deployment.install: replicas must not be negative"))
	}
	return errs
}

func (c *Config) validateReporting() []error {
	var errs []error
	r := c.Reporting

	if r.Email.Enabled {
		if len(r.Email.Recipients) == 0 {
			errs = append(errs, fmt.Errorf("reporting.email: recipients are required"))
		}
		if r.Email.Sender == "" {
			errs = append(errs, fmt.Errorf("reporting.email: sender is required"))
		}
	}
	if r.Messenger.Enabled {
		if r.Messenger.Type != MessengerSlack && r.Messenger.Type != MessengerGChat {
			errs = append(errs, fmt.Errorf("reporting.messenger.type must be %q or %q, got %q",
				MessengerSlack, MessengerGChat, r.Messenger.Type))
		}
		if u, err := url.Parse(r.Messenger.WebhookURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("reporting.messenger.webhookURL must be an absolute URL"))
		}
	}
	if r.Archive.Enabled && r.Archive.Bucket == "" {
		errs = append(errs, fmt.Errorf("reporting.archive: bucket is required"))
	}
	return errs
}
