package report

import (
	"encoding/json"
	"time"

	"github.com/ocp4mco/ocp4mco/internal/orchestrator"
)

// Summary is the serializable form of an orchestrator report.
type Summary struct {
	RunID     string                      `json:"runId"`
	Started   time.Time                   `json:"started"`
	Duration  string                      `json:"duration"`
	Succeeded bool                        `json:"succeeded"`
	AbortedAt string                      `json:"abortedAt,omitempty"`
	Counts    map[orchestrator.Status]int `json:"counts"`
	Results   []Result                    `json:"results"`
}

// Result is one stage outcome on one cluster.
type Result struct {
	Stage    string              `json:"stage"`
	Cluster  string              `json:"cluster"`
	Status   orchestrator.Status `json:"status"`
	Duration string              `json:"duration"`
	Error    string              `json:"error,omitempty"`
}

// NewSummary converts r.
func NewSummary(r *orchestrator.Report) Summary {
	s := Summary{
		RunID:     r.RunID,
		Started:   r.Started.UTC(),
		Duration:  r.Duration.Round(time.Second).String(),
		Succeeded: len(r.Failed()) == 0,
		AbortedAt: r.AbortedAt,
		Counts:    r.Counts(),
		Results:   make([]Result, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		out := Result{
			Stage:    res.Stage,
			Cluster:  res.Cluster,
			Status:   res.Status,
			Duration: res.Duration.Round(time.Second).String(),
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		s.Results = append(s.Results, out)
	}
	return s
}

// JSON returns the indented JSON encoding of s.
func (s Summary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
