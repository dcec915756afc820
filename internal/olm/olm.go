package olm

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/manifest"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/util/naming"
	"github.com/ocp4mco/ocp4mco/internal/util/poll"
	"github.com/ocp4mco/ocp4mco/internal/watch"
)

// Catalog defaults.
const (
	DefaultSource          = "redhat-operators"
	MarketplaceNamespace   = "openshift-marketplace"
	OpenShiftOperatorsNS   = "openshift-operators"
	PhaseSucceeded         = "Succeeded"
	CatalogSourceReady     = "READY"
	defaultFieldManager    = "ocp4mco"
	consoleOperatorCluster = "cluster"
)

// Operator describes one operator to install.
type Operator struct {
	// Package is the PackageManifest and Subscription name.
	Package   string
	Namespace string
	// Channel overrides the package's default channel.
	Channel         string
	Source          string
	SourceNamespace string
	// CreateNamespace applies the namespace before subscribing.
	CreateNamespace bool
	// Monitoring labels the namespace for cluster monitoring.
	Monitoring bool
	// OperatorGroup applies an OperatorGroup targeting TargetNamespaces.
	OperatorGroup    bool
	TargetNamespaces []string
}

// Timeouts bounds every wait of an install.
type Timeouts struct {
	PackageManifest time.Duration
	Subscription    time.Duration
	CSV             time.Duration
	CatalogSource   time.Duration
	Interval        time.Duration
}

// DefaultTimeouts returns the waits used by the original deployment scripts.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		PackageManifest: 300 * time.Second,
		Subscription:    300 * time.Second,
		CSV:             720 * time.Second,
		CatalogSource:   300 * time.Second,
		Interval:        10 * time.Second,
	}
}

// Installer installs operators on one cluster.
type Installer struct {
	Accessor     ocp.Accessor
	Renderer     manifest.Renderer
	Timeouts     Timeouts
	FieldManager string
	// PollOptions are passed to every wait, mainly to inject a clock.
	PollOptions []poll.Option
}

// NewInstaller returns an Installer with default timeouts.
func NewInstaller(a ocp.Accessor, r manifest.Renderer) *Installer {
	return &Installer{Accessor: a, Renderer: r, Timeouts: DefaultTimeouts(), FieldManager: defaultFieldManager}
}

func (i *Installer) apply(ctx context.Context, name string, data any) error {
	out, err := i.Renderer.Render(name, data)
	if err != nil {
		return err
	}
	return i.Accessor.ApplyManifests(ctx, out, i.FieldManager)
}

func (i *Installer) pollOptions(ctx context.Context) []poll.Option {
	return append([]poll.Option{poll.WithLogger(log.FromContext(ctx))}, i.PollOptions...)
}

// Install subscribes op and returns the name of its Succeeded CSV.
func (i *Installer) Install(ctx context.Context, op Operator) (string, error) {
	logger := log.FromContext(ctx).WithValues("operator", op.Package)
	if op.Source == "" {
		op.Source = DefaultSource
	}
	if op.SourceNamespace == "" {
		op.SourceNamespace = MarketplaceNamespace
	}

	if op.CreateNamespace {
		logger.Info("creating namespace", "namespace", op.Namespace)
		if err := i.apply(ctx, "olm/namespace.yaml", op); err != nil {
			return "", fmt.Errorf("failed to create namespace %s: %w", op.Namespace, err)
		}
	}
	if op.OperatorGroup {
		logger.Info("creating operator group", "namespace", op.Namespace)
		og := struct {
			Name, Namespace  string
			TargetNamespaces []string
		}{naming.OperatorGroup(op.Namespace), op.Namespace, op.TargetNamespaces}
		if err := i.apply(ctx, "olm/operatorgroup.yaml", og); err != nil {
			return "", fmt.Errorf("failed to create operator group: %w", err)
		}
	}

	pm, err := ocp.WaitForPresent(ctx, i.Accessor,
		ocp.Ref{GVK: ocp.KindPackageManifest, Namespace: op.SourceNamespace, Name: op.Package},
		i.Timeouts.PackageManifest, i.Timeouts.Interval, i.pollOptions(ctx)...)
	if err != nil {
		return "", fmt.Errorf("package manifest %s not available: %w", op.Package, err)
	}
	channel, startingCSV, err := ResolveChannel(pm, op.Channel)
	if err != nil {
		return "", err
	}

	logger.Info("creating subscription", "channel", channel, "startingCSV", startingCSV)
	sub := subscriptionData{
		Name:            op.Package,
		Namespace:       op.Namespace,
		Package:         op.Package,
		Channel:         channel,
		Source:          op.Source,
		SourceNamespace: op.SourceNamespace,
		StartingCSV:     startingCSV,
	}
	if err := i.apply(ctx, "olm/subscription.yaml", sub); err != nil {
		return "", fmt.Errorf("failed to create subscription %s: %w", op.Package, err)
	}

	subWatch, err := watch.New(i.Accessor, watch.Watch{
		Ref:                  ocp.Ref{GVK: ocp.KindSubscription, Namespace: op.Namespace},
		NameContains:         op.Package,
		FieldPath:            "{.status.currentCSV}",
		Condition:            func(v string) bool { return v != "" },
		ConditionDescription: "a current CSV",
		Timeout:              i.Timeouts.Subscription,
		Interval:             i.Timeouts.Interval,
	}, i.pollOptions(ctx)...)
	if err != nil {
		return "", err
	}
	if err := subWatch.Wait(ctx); err != nil {
		return "", fmt.Errorf("subscription %s never resolved a CSV: %w", op.Package, err)
	}
	csvName := subWatch.Last()
	logger.Info("subscription found", "subscription", subWatch.Name(), "csv", csvName)

	err = watch.ForPhase(ctx, i.Accessor,
		ocp.Ref{GVK: ocp.KindCSV, Namespace: op.Namespace, Name: csvName},
		PhaseSucceeded, i.Timeouts.CSV, i.Timeouts.Interval, i.pollOptions(ctx)...)
	if err != nil {
		return "", fmt.Errorf("operator %s did not install: %w", op.Package, err)
	}
	logger.Info("operator deployment succeeded", "csv", csvName)
	return csvName, nil
}

type subscriptionData struct {
	Name, Namespace, Package, Channel, Source, SourceNamespace, StartingCSV, InstallPlanApproval string
}

// ResolveChannel returns the channel to subscribe to (override, or the
// package default) and that channel's current CSV.
func ResolveChannel(pm *unstructured.Unstructured, override string) (string, string, error) {
	channel := override
	if channel == "" {
		def, found, _ := unstructured.NestedString(pm.Object, "status", "defaultChannel")
		if !found || def == "" {
			return "", "", fmt.Errorf("package manifest %s has no default channel", pm.GetName())
		}
		channel = def
	}

	channels, _, _ := unstructured.NestedSlice(pm.Object, "status", "channels")
	for _, c := range channels {
		entry, ok := c.(map[string]any)
		if !ok || entry["name"] != channel {
			continue
		}
		csv, _ := entry["currentCSV"].(string)
		return channel, csv, nil
	}
	return "", "", fmt.Errorf("package manifest %s has no channel %q", pm.GetName(), channel)
}

// EnableConsolePlugin adds plugin to the cluster console operator unless it
// is already enabled.
func (i *Installer) EnableConsolePlugin(ctx context.Context, plugin string) error {
	ref := ocp.Ref{GVK: ocp.KindConsole, Name: consoleOperatorCluster}
	console, err := i.Accessor.Get(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to read console operator: %w", err)
	}
	plugins, _, _ := unstructured.NestedStringSlice(console.Object, "spec", "plugins")
	if slices.Contains(plugins, plugin) {
		log.FromContext(ctx).V(1).Info("console plugin already enabled", "plugin", plugin)
		return nil
	}

	patch, err := json.Marshal(map[string]any{
		"spec": map[string]any{"plugins": append(plugins, plugin)},
	})
	if err != nil {
		return err
	}
	log.FromContext(ctx).Info("enabling console plugin", "plugin", plugin)
	return i.Accessor.Patch(ctx, ref, types.MergePatchType, patch)
}

// CatalogSource is a custom operator catalog.
type CatalogSource struct {
	Name        string
	Namespace   string
	Image       string
	DisplayName string
}

// EnsureCatalogSource replaces the default catalog named cs.Name with one
// serving cs.Image and waits until it is READY. A catalog already serving
// the image is left alone.
func (i *Installer) EnsureCatalogSource(ctx context.Context, cs CatalogSource) error {
	logger := log.FromContext(ctx)
	if cs.Namespace == "" {
		cs.Namespace = MarketplaceNamespace
	}
	ref := ocp.Ref{GVK: ocp.KindCatalogSource, Namespace: cs.Namespace, Name: cs.Name}

	if existing, err := i.Accessor.Get(ctx, ref); err == nil {
		image, _, _ := unstructured.NestedString(existing.Object, "spec", "image")
		if image == cs.Image {
			logger.Info("catalog source already serves image", "catalogSource", cs.Name, "image", cs.Image)
			return nil
		}
	}

	if err := i.disableDefaultSource(ctx, cs.Name); err != nil {
		return err
	}

	logger.Info("adding catalog source", "catalogSource", cs.Name, "image", cs.Image)
	if err := i.apply(ctx, "olm/catalogsource.yaml", cs); err != nil {
		return fmt.Errorf("failed to create catalog source %s: %w", cs.Name, err)
	}

	err := watch.Until(ctx, i.Accessor, watch.Watch{
		Ref:       ref,
		FieldPath: "{.status.connectionState.lastObservedState}",
		Target:    CatalogSourceReady,
		Timeout:   i.Timeouts.CatalogSource,
		Interval:  i.Timeouts.Interval,
	}, i.pollOptions(ctx)...)
	if err != nil {
		return fmt.Errorf("catalog source %s not ready: %w", cs.Name, err)
	}
	return nil
}

func (i *Installer) disableDefaultSource(ctx context.Context, name string) error {
	patch, err := json.Marshal(map[string]any{
		"spec": map[string]any{
			"sources": []map[string]any{{"name": name, "disabled": true}},
		},
	})
	if err != nil {
		return err
	}
	if err := i.Accessor.Patch(ctx, ocp.Ref{GVK: ocp.KindOperatorHub, Name: "cluster"}, types.MergePatchType, patch); err != nil {
		return fmt.Errorf("failed to disable default catalog source %s: %w", name, err)
	}
	return nil
}
