package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Sample()
	cfg.applyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{
			name:   "sample is valid",
			mutate: func(*Config) {},
		},
		{
			name: "missing name and path",
			mutate: func(c *Config) {
				c.Clusters[1].Name = ""
				c.Clusters[1].Path = ""
			},
			wantErr: []string{"clusters[1]: name is required", "clusters[1]: path is required"},
		},
		{
			name:    "duplicate name",
			mutate:  func(c *Config) { c.Clusters[2].Name = "east" },
			wantErr: []string{`clusters[2]: duplicate cluster name "east"`},
		},
		{
			name:    "two primaries",
			mutate:  func(c *Config) { c.Clusters[2].Primary = true },
			wantErr: []string{"at most one primary cluster is allowed, got 2"},
		},
		{
			name:    "unknown skipped stage",
			mutate:  func(c *Config) { c.Clusters[0].Skip = []string{"ocs"} },
			wantErr: []string{`clusters[0]: unknown stage "ocs" in skip`},
		},
		{
			name:    "several clusters without hub",
			mutate:  func(c *Config) { c.Clusters[0].Hub = false },
			wantErr: []string{"a hub cluster is required for stages [acm mco import gitops ssl dr]"},
		},
		{
			name: "several clusters without hub and hub stages off",
			mutate: func(c *Config) {
				c.Clusters[0].Hub = false
				for _, stage := range hubStages {
					c.Deployment.Stages[stage] = false
				}
			},
		},
		{
			name:    "bad odf version",
			mutate:  func(c *Config) { c.Deployment.ODFVersion = "latest" },
			wantErr: []string{`deployment.odfVersion "latest" is not a version`},
		},
		{
			name:    "bad scheduling interval",
			mutate:  func(c *Config) { c.Deployment.SchedulingInterval = "often" },
			wantErr: []string{`deployment.schedulingInterval "often" is not a duration`},
		},
		{
			name: "unknown isolation",
			mutate: func(c *Config) {
				c.Deployment.Isolation = map[string]string{"odf": "ignore", "nope": "abort-run"}
			},
			wantErr: []string{`deployment.isolation.odf: unknown isolation mode "ignore"`, `deployment.isolation: unknown stage "nope"`},
		},
		{
			name:    "unknown stage toggle",
			mutate:  func(c *Config) { c.Deployment.Stages["ramen"] = false },
			wantErr: []string{`deployment.stages: unknown stage "ramen"`},
		},
		{
			name: "email without recipients",
			mutate: func(c *Config) {
				c.Reporting.Email.Enabled = true
				c.Reporting.Email.Recipients = nil
			},
			wantErr: []string{"reporting.email: recipients are required"},
		},
		{
			name: "messenger type and url",
			mutate: func(c *Config) {
				c.Reporting.Messenger = Messenger{Enabled: true, Type: "teams", WebhookURL: "not a url"}
			},
			wantErr: []string{`reporting.messenger.type must be "slack" or "gchat", got "teams"`, "webhookURL must be an absolute URL"},
		},
		{
			name:    "archive without bucket",
			mutate:  func(c *Config) { c.Reporting.Archive.Enabled = true },
			wantErr: []string{"reporting.archive: bucket is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestValidate_NoClusters(t *testing.T) {
	cfg := validConfig()
	cfg.Clusters = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "at least one cluster is required", err.Error())
}
