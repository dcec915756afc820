package config

// Stage names, in execution order.
const (
	StageOCP        = "ocp"
	StageACM        = "acm"
	StageODF        = "odf"
	StageMCO        = "mco"
	StageSubmariner = "submariner"
	StageImport     = "import"
	StageGitOps     = "gitops"
	StageSSL        = "ssl"
	StageDR         = "dr"
	StageNotify     = "notify"
)

// StageNames lists every stage a deployment knows about.
var StageNames = []string{
	StageOCP,
	StageACM,
	StageODF,
	StageMCO,
	StageSubmariner,
	StageImport,
	StageGitOps,
	StageSSL,
	StageDR,
	StageNotify,
}

// StageDestroy tears clusters down during cleanup. It is not part of a
// deployment.
const StageDestroy = "destroy"
