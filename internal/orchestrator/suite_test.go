package orchestrator_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestOrchestratorScenarios(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Orchestrator Scenario Suite")
}
