package config

import (
	"slices"
	"time"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
)

// Config is the complete run configuration.
type Config struct {
	Run        Run             `mapstructure:"run" yaml:"run"`
	Deployment Deployment      `mapstructure:"deployment" yaml:"deployment"`
	Clusters   []ClusterConfig `mapstructure:"clusters" yaml:"clusters"`
	Reporting  Reporting       `mapstructure:"reporting" yaml:"reporting"`
}

// Run holds settings that identify and shape one invocation.
type Run struct {
	// ID disambiguates artifacts of concurrent runs. Generated when empty.
	ID       string `mapstructure:"id" yaml:"id,omitempty"`
	Username string `mapstructure:"username" yaml:"username"`
	// ArtifactDir holds run-scoped temporary files.
	ArtifactDir string `mapstructure:"artifactDir" yaml:"artifactDir"`
	// FailOnError makes the CLI exit non-zero when any stage failed.
	FailOnError bool `mapstructure:"failOnError" yaml:"failOnError"`
	// MetricsFile receives the stage metrics in textfile format.
	MetricsFile string `mapstructure:"metricsFile" yaml:"metricsFile,omitempty"`
}

// Deployment configures the stages.
type Deployment struct {
	ParallelOCP bool `mapstructure:"parallelOCP" yaml:"parallelOCP"`
	// ODFVersion selects version-gated manifests, e.g. "4.19".
	ODFVersion      string `mapstructure:"odfVersion" yaml:"odfVersion"`
	ODFCatalogImage string `mapstructure:"odfCatalogImage" yaml:"odfCatalogImage,omitempty"`
	// ODFChannel overrides the package default channel of ODF and MCO.
	ODFChannel string `mapstructure:"odfChannel" yaml:"odfChannel,omitempty"`
	ACMChannel string `mapstructure:"acmChannel" yaml:"acmChannel,omitempty"`
	// SkipStorageCluster installs the ODF operator without a StorageCluster.
	SkipStorageCluster bool `mapstructure:"skipStorageCluster" yaml:"skipStorageCluster"`
	EnableODFPlugin    bool `mapstructure:"enableODFPlugin" yaml:"enableODFPlugin"`
	EnableMCOPlugin    bool `mapstructure:"enableMCOPlugin" yaml:"enableMCOPlugin"`
	InfraNodes         bool `mapstructure:"infraNodes" yaml:"infraNodes"`
	// SchedulingInterval is the mirroring interval of the DR policy.
	SchedulingInterval string   `mapstructure:"schedulingInterval" yaml:"schedulingInterval"`
	DRPolicyName       string   `mapstructure:"drPolicyName" yaml:"drPolicyName"`
	ClusterSet         string   `mapstructure:"clusterSet" yaml:"clusterSet"`
	Install            Install  `mapstructure:"install" yaml:"install"`
	Binaries           Binaries `mapstructure:"binaries" yaml:"binaries"`
	// Stages disables whole stages for every cluster.
	Stages map[string]bool `mapstructure:"stages" yaml:"stages,omitempty"`
	// Isolation overrides the failure isolation of a stage.
	Isolation map[string]string `mapstructure:"isolation" yaml:"isolation,omitempty"`
}

// Install configures openshift-install.
type Install struct {
	PullSecretPath string `mapstructure:"pullSecretPath" yaml:"pullSecretPath"`
	// SSHKeyPath points at an existing public key. A key pair is generated
	// into the artifact directory when empty.
	SSHKeyPath     string `mapstructure:"sshKeyPath" yaml:"sshKeyPath,omitempty"`
	WorkerType     string `mapstructure:"workerType" yaml:"workerType,omitempty"`
	MasterType     string `mapstructure:"masterType" yaml:"masterType,omitempty"`
	WorkerReplicas int    `mapstructure:"workerReplicas" yaml:"workerReplicas"`
	MasterReplicas int    `mapstructure:"masterReplicas" yaml:"masterReplicas"`
}

// Binaries names the client tools.
type Binaries struct {
	OC        string `mapstructure:"oc" yaml:"oc"`
	Installer string `mapstructure:"installer" yaml:"installer"`
	Subctl    string `mapstructure:"subctl" yaml:"subctl"`
}

// ClusterConfig describes one cluster of the set.
type ClusterConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	// Path is the installer directory of the cluster.
	Path       string `mapstructure:"path" yaml:"path"`
	Kubeconfig string `mapstructure:"kubeconfig" yaml:"kubeconfig,omitempty"`
	Hub        bool   `mapstructure:"hub" yaml:"hub"`
	Primary    bool   `mapstructure:"primary" yaml:"primary"`
	BaseDomain string `mapstructure:"baseDomain" yaml:"baseDomain"`
	Region     string `mapstructure:"region" yaml:"region"`
	// Skip lists stages that are skipped for this cluster.
	Skip []string `mapstructure:"skip" yaml:"skip,omitempty"`
	// Channels overrides subscription channels by package name.
	Channels map[string]string `mapstructure:"channels" yaml:"channels,omitempty"`
}

// Reporting configures notifications and the report archive.
type Reporting struct {
	Email     Email     `mapstructure:"email" yaml:"email"`
	Messenger Messenger `mapstructure:"messenger" yaml:"messenger"`
	Archive   Archive   `mapstructure:"archive" yaml:"archive"`
}

// Email configures the SMTP notification.
type Email struct {
	Enabled    bool     `mapstructure:"enabled" yaml:"enabled"`
	Recipients []string `mapstructure:"recipients" yaml:"recipients"`
	SMTPServer string   `mapstructure:"smtpServer" yaml:"smtpServer"`
	Sender     string   `mapstructure:"sender" yaml:"sender"`
}

// Messenger configures the chat notification.
type Messenger struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Type       string `mapstructure:"type" yaml:"type"`
	WebhookURL string `mapstructure:"webhookURL" yaml:"webhookURL"`
}

// Archive configures the S3 upload of the run report.
type Archive struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Region    string `mapstructure:"region" yaml:"region"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	AccessKey string `mapstructure:"accessKey" yaml:"accessKey,omitempty"`
	SecretKey string `mapstructure:"secretKey" yaml:"secretKey,omitempty"`
	// Expiry bounds the presigned report link.
	Expiry time.Duration `mapstructure:"expiry" yaml:"expiry,omitempty"`
}

// ClusterSet converts the configured clusters into a cluster.Set. Indices
// follow declaration order.
func (c *Config) ClusterSet() (*cluster.Set, error) {
	configs := make([]cluster.Config, len(c.Clusters))
	for i, cc := range c.Clusters {
		skip := make(map[string]bool, len(cc.Skip)+len(c.Deployment.Stages))
		for stage, enabled := range c.Deployment.Stages {
			if !enabled {
				skip[stage] = true
			}
		}
		for _, stage := range cc.Skip {
			skip[stage] = true
		}
		configs[i] = cluster.Config{
			Name:       cc.Name,
			Path:       cc.Path,
			Kubeconfig: cc.Kubeconfig,
			Index:      i,
			Hub:        cc.Hub,
			Primary:    cc.Primary,
			BaseDomain: cc.BaseDomain,
			Region:     cc.Region,
			Skip:       skip,
			Channels:   cc.Channels,
		}
	}
	return cluster.NewSet(configs)
}

// StageEnabled reports whether stage is enabled for at least one cluster.
func (c *Config) StageEnabled(stage string) bool {
	if enabled, ok := c.Deployment.Stages[stage]; ok && !enabled {
		return false
	}
	for _, cc := range c.Clusters {
		if !slices.Contains(cc.Skip, stage) {
			return true
		}
	}
	return false
}
