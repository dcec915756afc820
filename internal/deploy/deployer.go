package deploy

import (
	"context"
	"fmt"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/config"
	"github.com/ocp4mco/ocp4mco/internal/manifest"
	"github.com/ocp4mco/ocp4mco/internal/notify"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/olm"
	"github.com/ocp4mco/ocp4mco/internal/orchestrator"
	"github.com/ocp4mco/ocp4mco/internal/util/poll"
	"github.com/ocp4mco/ocp4mco/internal/util/retry"
)

// FieldManager owns every field applied by a deployment.
const FieldManager = "ocp4mco"

// Deployer holds what the stages share: configuration, the cluster set and
// the collaborators used to reach clusters.
type Deployer struct {
	cfg       *config.Config
	set       *cluster.Set
	timeouts  *config.Timeouts
	renderer  manifest.Renderer
	connector Connector
	sender    notify.Sender
	pollOpts  []poll.Option
	retryOpts []retry.DoOption
	sleep     retry.Sleeper
}

// Option configures a Deployer.
type Option func(*Deployer)

// WithConnector replaces the kubeconfig based connector.
func WithConnector(c Connector) Option {
	return func(d *Deployer) {
		d.connector = c
	}
}

// WithRenderer replaces the embedded manifest renderer.
func WithRenderer(r manifest.Renderer) Option {
	return func(d *Deployer) {
		d.renderer = r
	}
}

// WithTimeouts replaces the timeouts loaded from the environment.
func WithTimeouts(t *config.Timeouts) Option {
	return func(d *Deployer) {
		d.timeouts = t
	}
}

// WithSender replaces the senders built from the reporting configuration.
func WithSender(s notify.Sender) Option {
	return func(d *Deployer) {
		d.sender = s
	}
}

// WithPollOptions adds options to every wait, e.g. a fake clock.
func WithPollOptions(opts ...poll.Option) Option {
	return func(d *Deployer) {
		d.pollOpts = append(d.pollOpts, opts...)
	}
}

// WithSleeper replaces the sleep used between retries and after imports.
func WithSleeper(s retry.Sleeper) Option {
	return func(d *Deployer) {
		d.sleep = s
		d.retryOpts = append(d.retryOpts, retry.WithSleeper(s))
	}
}

// New returns a Deployer for cfg and the cluster set built from it.
func New(cfg *config.Config, set *cluster.Set, opts ...Option) *Deployer {
	d := &Deployer{
		cfg:      cfg,
		set:      set,
		timeouts: config.LoadTimeouts(),
		renderer: manifest.New(),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.connector == nil {
		d.connector = NewKubeconfigConnector()
	}
	if d.sender == nil {
		d.sender = Senders(cfg.Reporting)
	}
	return d
}

// Senders builds the notification senders enabled in r.
func Senders(r config.Reporting) notify.Multi {
	var senders notify.Multi
	if r.Email.Enabled {
		senders = append(senders, notify.NewEmailSender(r.Email.SMTPServer, r.Email.Sender, r.Email.Recipients))
	}
	if r.Messenger.Enabled {
		senders = append(senders, notify.NewWebhookSender(r.Messenger.WebhookURL, r.Messenger.Type))
	}
	return senders
}

// Stages returns the deployment stages in execution order, with isolation
// overrides from the configuration applied.
func (d *Deployer) Stages() ([]orchestrator.Stage, error) {
	stages := []orchestrator.Stage{
		{
			Name:     config.StageOCP,
			Scope:    cluster.ScopeAll,
			Parallel: d.cfg.Deployment.ParallelOCP,
			Prepare:  d.PrepareInstall,
			Run:      d.InstallCluster,
		},
		{
			Name:  config.StageACM,
			Scope: cluster.ScopeHub,
			Run:   d.DeployACM,
		},
		{
			Name:     config.StageODF,
			Scope:    cluster.ScopeDataPlane,
			Parallel: true,
			Prepare:  d.PrepareODF,
			Run:      d.DeployStorageCluster,
		},
		{
			Name:     config.StageMCO,
			Scope:    cluster.ScopeHub,
			Requires: []string{config.StageODF},
			Run:      d.DeployMCO,
		},
		{
			Name:      config.StageSubmariner,
			Scope:     cluster.ScopeHub,
			Isolation: orchestrator.AbortStage,
			Requires:  []string{config.StageACM},
			Run:       d.ConfigureSubmariner,
		},
		{
			Name:      config.StageImport,
			Scope:     cluster.ScopeHub,
			Isolation: orchestrator.AbortStage,
			Requires:  []string{config.StageACM},
			Run:       d.ImportClusters,
		},
		{
			Name:     config.StageGitOps,
			Scope:    cluster.ScopeHub,
			Requires: []string{config.StageACM},
			Run:      d.DeployGitOps,
		},
		{
			Name:      config.StageSSL,
			Scope:     cluster.ScopeHub,
			Isolation: orchestrator.AbortStage,
			Requires:  []string{config.StageACM},
			Run:       d.ExchangeCertificates,
		},
		{
			Name:     config.StageDR,
			Scope:    cluster.ScopeHub,
			Requires: []string{config.StageACM},
			Run:      d.ConfigureDR,
		},
		{
			Name:  config.StageNotify,
			Scope: cluster.ScopeAll,
			Run:   d.Notify,
		},
	}
	if err := d.applyIsolation(stages); err != nil {
		return nil, err
	}
	return stages, nil
}

// CleanupStages returns the stages of a teardown run.
func (d *Deployer) CleanupStages() ([]orchestrator.Stage, error) {
	stages := []orchestrator.Stage{{
		Name:     config.StageDestroy,
		Scope:    cluster.ScopeAll,
		Parallel: true,
		Run:      d.DestroyCluster,
	}}
	return stages, nil
}

func (d *Deployer) applyIsolation(stages []orchestrator.Stage) error {
	for i := range stages {
		override, ok := d.cfg.Deployment.Isolation[stages[i].Name]
		if !ok {
			continue
		}
		mode, err := orchestrator.ParseIsolation(override)
		if err != nil {
			return cluster.Errorf("stage %s: %v", stages[i].Name, err)
		}
		stages[i].Isolation = mode
	}
	return nil
}

// installer returns an OLM installer for c using the configured timeouts.
func (d *Deployer) installer(c cluster.Config) (*olm.Installer, error) {
	a, err := d.connector.Accessor(c)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster %s: %w", c.Name, err)
	}
	inst := olm.NewInstaller(a, d.renderer)
	inst.FieldManager = FieldManager
	inst.PollOptions = d.pollOpts
	inst.Timeouts = olm.Timeouts{
		PackageManifest: d.timeouts.PackageManifest,
		Subscription:    d.timeouts.Subscription,
		CSV:             d.timeouts.CSV,
		CatalogSource:   d.timeouts.CatalogSource,
		Interval:        d.timeouts.Poll,
	}
	return inst, nil
}

func (d *Deployer) accessor(c cluster.Config) (ocp.Accessor, error) {
	a, err := d.connector.Accessor(c)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster %s: %w", c.Name, err)
	}
	return a, nil
}

// participants drops the clusters that toggled stage off. Hub scoped stages
// reach the other clusters themselves, so they honor the toggles here.
func (d *Deployer) participants(ctx context.Context, stage string, clusters []cluster.Config) []cluster.Config {
	logger := log.FromContext(ctx)
	out := make([]cluster.Config, 0, len(clusters))
	for _, c := range clusters {
		if c.Skips(stage) {
			logger.Info("stage disabled for cluster, leaving it out", "cluster", c.Name)
			continue
		}
		out = append(out, c)
	}
	return out
}

// apply renders the manifest name with data and applies it to a.
func (d *Deployer) apply(ctx context.Context, a ocp.Accessor, name string, data any) error {
	out, err := d.renderer.Render(name, data)
	if err != nil {
		return err
	}
	if err := a.ApplyManifests(ctx, out, FieldManager); err != nil {
		return fmt.Errorf("failed to apply %s: %w", name, err)
	}
	return nil
}

func (d *Deployer) pollOptions(ctx context.Context) []poll.Option {
	return append([]poll.Option{poll.WithLogger(log.FromContext(ctx))}, d.pollOpts...)
}

// channel resolves the subscription channel of pkg on c: a per-cluster
// override wins over the deployment wide fallback.
func channel(c cluster.Config, pkg, fallback string) string {
	if ch := c.Channel(pkg); ch != "" {
		return ch
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
