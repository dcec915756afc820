package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const sampleHeader = `# ocp4mco run configuration.
#
# Every scalar can be overridden through the environment, e.g.
# OCP4MCO_DEPLOYMENT_ODFVERSION=4.19 or OCP4MCO_RUN_FAILONERROR=true.
`

// Sample returns a three cluster Regional-DR configuration with a dedicated
// hub.
func Sample() *Config {
	return &Config{
		Run: Run{
			Username:    DefaultUsername,
			ArtifactDir: "artifacts",
		},
		Deployment: Deployment{
			ODFVersion:         DefaultODFVersion,
			EnableODFPlugin:    true,
			EnableMCOPlugin:    true,
			SchedulingInterval: DefaultSchedulingInterval,
			DRPolicyName:       DefaultDRPolicyName,
			ClusterSet:         DefaultClusterSet,
			Install: Install{
				PullSecretPath: "pull-secret.json",
				WorkerReplicas: DefaultWorkerReplicas,
				MasterReplicas: DefaultMasterReplicas,
			},
			Binaries: Binaries{
				OC:        DefaultOCBinary,
				Installer: DefaultInstallerBinary,
				Subctl:    DefaultSubctlBinary,
			},
			Stages: map[string]bool{StageSubmariner: false},
		},
		Clusters: []ClusterConfig{
			{Name: "hub", Path: "clusters/hub", Hub: true, BaseDomain: "example.com", Region: "us-east-1"},
			{Name: "east", Path: "clusters/east", Primary: true, BaseDomain: "example.com", Region: "us-east-2"},
			{Name: "west", Path: "clusters/west", BaseDomain: "example.com", Region: "us-west-2"},
		},
		Reporting: Reporting{
			Email: Email{
				Recipients: []string{"team@example.com"},
				SMTPServer: "localhost",
				Sender:     "ocp4mco@example.com",
			},
			Messenger: Messenger{Type: MessengerGChat},
		},
	}
}

// MarshalSample returns cfg as commented YAML.
func MarshalSample(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(sampleHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSample writes cfg to path.
func WriteSample(cfg *Config, path string) error {
	data, err := MarshalSample(cfg)
	if err != nil {
		return err
	}
	// #nosec G306
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
