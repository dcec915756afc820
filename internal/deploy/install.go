package deploy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/util/keygen"
	"github.com/ocp4mco/ocp4mco/internal/util/naming"
)

const (
	installConfigFile = "install-config.yaml"
	// metadataFile is written by the installer and required to destroy.
	metadataFile = "metadata.json"
)

type installConfigData struct {
	Name           string
	BaseDomain     string
	Region         string
	WorkerType     string
	WorkerReplicas int
	MasterType     string
	MasterReplicas int
	ClusterNetwork string
	MachineNetwork string
	ServiceNetwork string
	PullSecret     string
	SSHKey         string
}

// Running reports whether c already serves its API.
func (d *Deployer) Running(ctx context.Context, c cluster.Config) bool {
	if _, err := os.Stat(c.KubeconfigPath()); err != nil {
		return false
	}
	a, err := d.connector.Accessor(c)
	if err != nil {
		return false
	}
	_, err = ocp.ClusterVersion(ctx, a)
	return err == nil
}

// PrepareInstall writes the install-config of c into its directory. A copy
// is kept next to it because the installer consumes the original.
func (d *Deployer) PrepareInstall(ctx context.Context, c cluster.Config) error {
	logger := log.FromContext(ctx)
	if d.Running(ctx, c) {
		return nil
	}

	install := d.cfg.Deployment.Install
	// #nosec G304 - the pull secret path comes from the run configuration
	pullSecret, err := os.ReadFile(install.PullSecretPath)
	if err != nil {
		return fmt.Errorf("failed to read pull secret: %w", err)
	}
	sshKey, err := d.sshPublicKey(c)
	if err != nil {
		return err
	}

	out, err := d.renderer.Render("ocp/install-config.yaml", installConfigData{
		Name:           c.Name,
		BaseDomain:     c.BaseDomain,
		Region:         c.Region,
		WorkerType:     install.WorkerType,
		WorkerReplicas: install.WorkerReplicas,
		MasterType:     install.MasterType,
		MasterReplicas: install.MasterReplicas,
		PullSecret:     strings.TrimSpace(string(pullSecret)),
		SSHKey:         string(sshKey),
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.Path, 0o750); err != nil {
		return fmt.Errorf("failed to create cluster directory: %w", err)
	}
	for _, name := range []string{installConfigFile, installConfigFile + ".backup"} {
		if err := os.WriteFile(filepath.Join(c.Path, name), out, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	logger.Info("install-config written", "path", filepath.Join(c.Path, installConfigFile))
	return nil
}

func (d *Deployer) sshPublicKey(c cluster.Config) ([]byte, error) {
	if p := d.cfg.Deployment.Install.SSHKeyPath; p != "" {
		return keygen.PublicKey(p)
	}
	pair, err := keygen.LoadOrGenerate(naming.SSHKeyDir(c.Path), keygen.DefaultBits)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare SSH key: %w", err)
	}
	return pair.PublicKey, nil
}

// InstallCluster runs the installer for c unless the cluster is running.
func (d *Deployer) InstallCluster(ctx context.Context, c cluster.Config) error {
	logger := log.FromContext(ctx)
	if d.Running(ctx, c) {
		logger.Info("OCP cluster is already running, skipping installation")
		return nil
	}

	logger.Info("deploying OCP cluster", "dir", c.Path)
	installer := d.connector.Command(d.cfg.Deployment.Binaries.Installer, c)
	if _, err := installer.Run(ctx, "create", "cluster", "--dir", c.Path, "--log-level", "info"); err != nil {
		return fmt.Errorf("failed to install cluster %s: %w", c.Name, err)
	}
	logger.Info("OCP cluster deployed", "console", c.ConsoleURL())
	return nil
}

// DestroyCluster tears c down. Clusters without installer metadata were
// never installed by us and are left alone.
func (d *Deployer) DestroyCluster(ctx context.Context, c cluster.Config) error {
	logger := log.FromContext(ctx)
	if _, err := os.Stat(filepath.Join(c.Path, metadataFile)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("no installer metadata, nothing to destroy", "dir", c.Path)
			return nil
		}
		return fmt.Errorf("failed to read installer metadata: %w", err)
	}

	logger.Info("destroying OCP cluster", "dir", c.Path)
	installer := d.connector.Command(d.cfg.Deployment.Binaries.Installer, c)
	if _, err := installer.Run(ctx, "destroy", "cluster", "--dir", c.Path, "--log-level", "info"); err != nil {
		return fmt.Errorf("failed to destroy cluster %s: %w", c.Name, err)
	}
	logger.Info("OCP cluster destroyed")
	return nil
}
