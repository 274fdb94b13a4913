package health

import (
	"context"
	"time"
)

// InferenceProber sends a probe to the inference transport.
type InferenceProber interface {
	HealthCheck(ctx context.Context) error
}

// KnowledgeSource reports whether the knowledge document can be loaded.
type KnowledgeSource interface {
	Areas() ([]string, error)
}

// Service encapsulates health-related checks.
type Service struct {
	knowledge KnowledgeSource
	inference InferenceProber
	timeout   time.Duration
}

// Report is the health payload. Deep fields are omitted on shallow checks.
type Report struct {
	OK        bool   `json:"ok"`
	Knowledge string `json:"knowledge,omitempty"`
	Areas     int    `json:"areas,omitempty"`
	Inference string `json:"inference,omitempty"`
}

// NewService constructs a new health service. Either dependency may be nil.
func NewService(knowledge KnowledgeSource, inference InferenceProber) *Service {
	return &Service{knowledge: knowledge, inference: inference, timeout: 5 * time.Second}
}

// Status returns a liveness report, or with deep set, probes the knowledge
// document and the inference transport.
func (s *Service) Status(ctx context.Context, deep bool) Report {
	if !deep {
		return Report{OK: true}
	}
	r := Report{OK: true, Knowledge: "ok", Inference: "ok"}
	if s.knowledge != nil {
		areas, err := s.knowledge.Areas()
		if err != nil {
			r.OK = false
			r.Knowledge = err.Error()
		} else {
			r.Areas = len(areas)
		}
	}
	if s.inference != nil {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if err := s.inference.HealthCheck(ctx); err != nil {
			r.OK = false
			r.Inference = err.Error()
		}
	}
	return r
}
