package orchestrator_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/orchestrator"
)

type calls struct {
	mu  sync.Mutex
	log map[string][]int
}

func (c *calls) record(stage string, fail map[int]error) orchestrator.Func {
	return func(_ context.Context, cfg cluster.Config) error {
		c.mu.Lock()
		c.log[stage] = append(c.log[stage], cfg.Index)
		c.mu.Unlock()
		return fail[cfg.Index]
	}
}

func (c *calls) of(stage string) []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int{}, c.log[stage]...)
}

func newClusterContext(names []string, hub int) *cluster.Context {
	configs := make([]cluster.Config, len(names))
	for i, name := range names {
		configs[i] = cluster.Config{Name: name, Path: "/clusters/" + name, Index: i, Hub: i == hub}
	}
	set, err := cluster.NewSet(configs)
	Expect(err).NotTo(HaveOccurred())
	return cluster.NewContext(set)
}

var _ = Describe("Orchestrator", func() {
	var rec *calls

	BeforeEach(func() {
		rec = &calls{log: map[string][]int{}}
	})

	Context("with four clusters and the hub at index 2", func() {
		var cc *cluster.Context

		BeforeEach(func() {
			cc = newClusterContext([]string{"c0", "c1", "hub", "c3"}, 2)
		})

		It("runs a hub-only stage exactly once, on the hub", func() {
			o, err := orchestrator.New(cc, []orchestrator.Stage{
				{Name: "acm", Scope: cluster.ScopeHub, Run: rec.record("acm", nil)},
				{Name: "ssl", Scope: cluster.ScopeHub, Requires: []string{"acm"}, Run: rec.record("ssl", nil)},
			})
			Expect(err).NotTo(HaveOccurred())

			report := o.Run(context.Background())

			Expect(rec.of("ssl")).To(Equal([]int{2}))
			Expect(report.Stage("ssl")).To(HaveLen(1))
			Expect(report.Stage("ssl")[0].Cluster).To(Equal("hub"))
			Expect(cc.IsDefault()).To(BeTrue())
		})

		It("runs the product stage on every non-hub cluster in parallel", func() {
			o, err := orchestrator.New(cc, []orchestrator.Stage{
				{Name: "odf", Scope: cluster.ScopeManaged, Parallel: true, Run: rec.record("odf", nil)},
			})
			Expect(err).NotTo(HaveOccurred())

			report := o.Run(context.Background())

			Expect(rec.of("odf")).To(ConsistOf(0, 1, 3))
			Expect(report.Err()).NotTo(HaveOccurred())
		})
	})

	Context("with two clusters", func() {
		var cc *cluster.Context

		BeforeEach(func() {
			cc = newClusterContext([]string{"east", "west"}, -1)
		})

		It("keeps going after a command failure on the first cluster", func() {
			failure := &ocp.CommandFailedError{Command: []string{"oc", "apply", "-f", "-"}, ExitCode: 1, Stderr: "conflict"}
			o, err := orchestrator.New(cc, []orchestrator.Stage{
				{Name: "odf", Run: rec.record("odf", map[int]error{0: failure})},
				{Name: "dr", Run: rec.record("dr", nil)},
			})
			Expect(err).NotTo(HaveOccurred())

			report := o.Run(context.Background())

			Expect(rec.of("odf")).To(Equal([]int{0, 1}))
			Expect(rec.of("dr")).To(Equal([]int{0, 1}))
			Expect(report.Failed()).To(HaveLen(1))

			var cmdErr *ocp.CommandFailedError
			Expect(errors.As(report.Err(), &cmdErr)).To(BeTrue())
			Expect(cmdErr.Stderr).To(Equal("conflict"))
			Expect(cc.IsDefault()).To(BeTrue())
		})

		DescribeTable("isolation modes",
			func(mode orchestrator.IsolationMode, wantSecond, wantNext []int, aborted string) {
				o, err := orchestrator.New(cc, []orchestrator.Stage{
					{Name: "import", Isolation: mode, Run: rec.record("import", map[int]error{0: errors.New("join timed out")})},
					{Name: "gitops", Run: rec.record("gitops", nil)},
				})
				Expect(err).NotTo(HaveOccurred())

				report := o.Run(context.Background())

				Expect(rec.of("import")).To(Equal(wantSecond))
				Expect(rec.of("gitops")).To(Equal(wantNext))
				Expect(report.AbortedAt).To(Equal(aborted))
				Expect(cc.IsDefault()).To(BeTrue())
			},
			Entry("continue on error", orchestrator.ContinueOnError, []int{0, 1}, []int{0, 1}, ""),
			Entry("abort stage", orchestrator.AbortStage, []int{0}, []int{0, 1}, ""),
			Entry("abort run", orchestrator.AbortRun, []int{0}, []int{}, "import"),
		)
	})

	It("rejects a stage declared before the stage it requires", func() {
		cc := newClusterContext([]string{"east", "west"}, 1)
		_, err := orchestrator.New(cc, []orchestrator.Stage{
			{Name: "dr", Run: rec.record("dr", nil), Requires: []string{"acm"}},
			{Name: "acm", Run: rec.record("acm", nil)},
		})

		var cfgErr *cluster.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
	})
})
