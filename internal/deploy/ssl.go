package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/config"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
)

// Certificate exchange.
const (
	IngressCertNamespace = "openshift-config-managed"
	IngressCertConfigMap = "default-ingress-cert"
	UserCABundle         = "user-ca-bundle"
	CABundleKey          = "ca-bundle.crt"
	CABundleFile         = "ca-bundle.crt"
)

// ExchangeCertificates gathers the ingress CA of every cluster into one
// bundle and trusts it cluster wide everywhere, so that the clusters can
// reach each other's S3 endpoints and routes.
func (d *Deployer) ExchangeCertificates(ctx context.Context, _ cluster.Config) error {
	logger := log.FromContext(ctx)
	clusters := d.participants(ctx, config.StageSSL, d.set.All())

	var bundle []string
	for _, c := range clusters {
		a, err := d.accessor(c)
		if err != nil {
			return err
		}
		cert, err := IngressCA(ctx, a)
		if err != nil {
			return fmt.Errorf("cluster %s: %w", c.Name, err)
		}
		if !slices.Contains(bundle, cert) {
			bundle = append(bundle, cert)
		}
	}
	joined := strings.Join(bundle, "\n") + "\n"

	if err := os.MkdirAll(d.cfg.Run.ArtifactDir, 0o750); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	path := filepath.Join(d.cfg.Run.ArtifactDir, CABundleFile)
	if err := os.WriteFile(path, []byte(joined), 0o600); err != nil {
		return fmt.Errorf("failed to write CA bundle: %w", err)
	}
	logger.Info("CA bundle written", "path", path, "certificates", len(bundle))

	for _, c := range clusters {
		logger.Info("trusting CA bundle", "cluster", c.Name)
		a, err := d.accessor(c)
		if err != nil {
			return err
		}
		if err := d.apply(ctx, a, "ssl/user-ca-bundle.yaml", struct{ Bundle string }{joined}); err != nil {
			return fmt.Errorf("cluster %s: %w", c.Name, err)
		}
		patch := fmt.Appendf(nil, `{"spec":{"trustedCA":{"name":%q}}}`, UserCABundle)
		if err := a.Patch(ctx, ocp.Ref{GVK: ocp.KindProxy, Name: "cluster"}, types.MergePatchType, patch); err != nil {
			return fmt.Errorf("cluster %s: failed to patch proxy: %w", c.Name, err)
		}
	}
	return nil
}

// IngressCA returns the CA that signed the default ingress certificate.
func IngressCA(ctx context.Context, a ocp.Accessor) (string, error) {
	cm, err := a.Kube().CoreV1().ConfigMaps(IngressCertNamespace).Get(ctx, IngressCertConfigMap, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to read ingress certificate: %w", err)
	}
	cert := strings.TrimSpace(cm.Data[CABundleKey])
	if cert == "" {
		return "", &ocp.UnavailableResourceError{
			Resource: IngressCertNamespace + "/" + IngressCertConfigMap,
			Reason:   "no " + CABundleKey + " key",
		}
	}
	return cert, nil
}
