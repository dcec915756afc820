package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/ocp4mco/ocp4mco/internal/util/naming"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OCP4MCO"

// Defaults applied when the configuration leaves a value empty.
const (
	DefaultUsername           = "kubeadmin"
	DefaultODFVersion         = "4.18"
	DefaultSchedulingInterval = "5m"
	DefaultDRPolicyName       = "odr-policy-5m"
	DefaultClusterSet         = "default"
	DefaultOCBinary           = "oc"
	DefaultInstallerBinary    = "openshift-install"
	DefaultSubctlBinary       = "subctl"
	DefaultWorkerReplicas     = 3
	DefaultMasterReplicas     = 3
)

// LoadFile reads, defaults and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Load(data)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Load parses YAML configuration data. Environment variables named
// OCP4MCO_<SECTION>_<KEY> override scalar values.
func Load(data []byte) (*Config, error) {
	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys must be known to viper for AutomaticEnv to reach Unmarshal.
	v.SetDefault("run.id", "")
	v.SetDefault("run.username", DefaultUsername)
	v.SetDefault("run.artifactDir", "")
	v.SetDefault("run.failOnError", false)
	v.SetDefault("run.metricsFile", "")
	v.SetDefault("deployment.parallelOCP", false)
	v.SetDefault("deployment.odfVersion", DefaultODFVersion)
	v.SetDefault("deployment.odfCatalogImage", "")
	v.SetDefault("deployment.odfChannel", "")
	v.SetDefault("deployment.acmChannel", "")
	v.SetDefault("deployment.skipStorageCluster", false)
	v.SetDefault("deployment.enableODFPlugin", true)
	v.SetDefault("deployment.enableMCOPlugin", true)
	v.SetDefault("deployment.infraNodes", false)
	v.SetDefault("deployment.schedulingInterval", DefaultSchedulingInterval)
	v.SetDefault("deployment.drPolicyName", DefaultDRPolicyName)
	v.SetDefault("deployment.clusterSet", DefaultClusterSet)
	v.SetDefault("deployment.install.pullSecretPath", "")
	v.SetDefault("deployment.install.sshKeyPath", "")
	v.SetDefault("deployment.binaries.oc", DefaultOCBinary)
	v.SetDefault("deployment.binaries.installer", DefaultInstallerBinary)
	v.SetDefault("deployment.binaries.subctl", DefaultSubctlBinary)
	v.SetDefault("reporting.email.smtpServer", "localhost")
	v.SetDefault("reporting.messenger.webhookURL", "")
	v.SetDefault("reporting.archive.accessKey", "")
	v.SetDefault("reporting.archive.secretKey", "")
	return v
}

func (c *Config) applyDefaults() {
	if c.Run.ID == "" {
		c.Run.ID = uuid.NewString()[:8]
	}
	if c.Run.Username == "" {
		c.Run.Username = DefaultUsername
	}
	if c.Run.ArtifactDir == "" {
		c.Run.ArtifactDir = naming.RunDir(os.TempDir(), c.Run.ID)
	}
	if c.Deployment.Install.WorkerReplicas == 0 {
		c.Deployment.Install.WorkerReplicas = DefaultWorkerReplicas
	}
	if c.Deployment.Install.MasterReplicas == 0 {
		c.Deployment.Install.MasterReplicas = DefaultMasterReplicas
	}
	if c.Reporting.Messenger.Enabled && c.Reporting.Messenger.Type == "" {
		c.Reporting.Messenger.Type = MessengerGChat
	}
}

// resolvePaths makes relative cluster paths relative to the directory of
// the configuration file.
func (c *Config) resolvePaths(base string) {
	for i := range c.Clusters {
		if p := c.Clusters[i].Path; p != "" && !filepath.IsAbs(p) {
			c.Clusters[i].Path = filepath.Join(base, p)
		}
	}
	for _, p := range []*string{&c.Deployment.Install.PullSecretPath, &c.Deployment.Install.SSHKeyPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}
