package deploy

import (
	"context"
	"os"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/notify"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
)

// Notify sends the access details of c to the configured recipients.
// Delivery problems are logged and never fail the run.
func (d *Deployer) Notify(ctx context.Context, c cluster.Config) error {
	logger := log.FromContext(ctx)
	if m, ok := d.sender.(notify.Multi); ok && len(m) == 0 {
		logger.Info("no notification channel enabled")
		return nil
	}

	if err := d.sender.Send(ctx, d.Report(ctx, c)); err != nil {
		logger.Error(err, "failed to send cluster report")
		return nil
	}
	logger.Info("cluster report sent")
	return nil
}

// Report collects what a user needs to log into c. Missing pieces are left
// empty rather than failing.
func (d *Deployer) Report(ctx context.Context, c cluster.Config) notify.Report {
	logger := log.FromContext(ctx)
	r := notify.Report{
		RunID:      d.cfg.Run.ID,
		Cluster:    c.Name,
		Username:   d.cfg.Run.Username,
		Role:       c.Role(),
		ConsoleURL: c.ConsoleURL(),
		Server:     c.APIServer(),
	}

	// #nosec G304 - files written by the installer into the cluster directory
	if password, err := os.ReadFile(c.PasswordPath()); err == nil {
		r.Password = strings.TrimSpace(string(password))
	} else {
		logger.V(1).Info("no kubeadmin password", "path", c.PasswordPath())
	}
	// #nosec G304
	if kubeconfig, err := os.ReadFile(c.KubeconfigPath()); err == nil {
		r.Kubeconfig = kubeconfig
	}

	if a, err := d.connector.Accessor(c); err == nil {
		if version, err := ocp.ClusterVersion(ctx, a); err == nil {
			r.Available = true
			r.Version = version
		}
	}
	return r
}
