package trading

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tradewarden/internal/domain"
	"tradewarden/internal/modules/audit"
	"tradewarden/internal/modules/policy"
)

// PolicyProvider loads policy documents by name.
type PolicyProvider interface {
	Load(name string) (*policy.Document, error)
}

// DecisionOutcome is the terminal result of one pipeline run.
type DecisionOutcome struct {
	Request   domain.TradeRequest     `json:"trade_request"`
	Decision  policy.Decision         `json:"decision"`
	Execution *domain.ExecutionResult `json:"execution,omitempty"`
}

// Service chains the pipeline: build a request, validate it against the
// active policy, execute it when approved, and make sure every run terminates
// with an audit record. Each run is sequential and self-contained; concurrent
// runs coordinate only through the audit log's single-writer append.
type Service struct {
	builder    *Builder
	engine     *policy.Engine
	policies   PolicyProvider
	policyName string
	executor   *Executor
	auditLog   AuditWriter
	log        zerolog.Logger
}

// NewService creates a decision pipeline service. policyName selects the
// active policy document (e.g. "safe", "aggressive").
func NewService(
	builder *Builder,
	engine *policy.Engine,
	policies PolicyProvider,
	policyName string,
	executor *Executor,
	auditLog AuditWriter,
	log zerolog.Logger,
) *Service {
	return &Service{
		builder:    builder,
		engine:     engine,
		policies:   policies,
		policyName: policyName,
		executor:   executor,
		auditLog:   auditLog,
		log:        log.With().Str("service", "trading").Logger(),
	}
}

// PolicyName returns the name of the active policy document.
func (s *Service) PolicyName() string {
	return s.policyName
}

// Decide runs the full pipeline for one proposed trade: build, validate,
// then either execute (approved) or record the rejection.
func (s *Service) Decide(ctx context.Context, p BuildParams) (*DecisionOutcome, error) {
	req, pol, err := s.prepare(ctx, p)
	if err != nil {
		return nil, err
	}

	decision := s.engine.Validate(*req, pol)
	outcome := &DecisionOutcome{Request: *req, Decision: decision}

	switch decision.Status {
	case policy.StatusApproved:
		result, err := s.executor.Execute(ctx, *req)
		outcome.Execution = result
		if err != nil {
			return outcome, err
		}

	case policy.StatusRejected:
		rec := audit.Record{
			Type:      audit.RecordPolicyRejected,
			Request:   req,
			Rejection: &decision,
		}
		if err := s.auditLog.Append(rec); err != nil {
			return outcome, fmt.Errorf("failed to record policy rejection: %w", err)
		}

	case policy.StatusConditional:
		// No current rule emits this; the caller may resubmit with the
		// suggested adjustments. Nothing is executed.
		s.log.Warn().Str("id", req.ID).Msg("Conditional decision returned, not executing")
	}

	return outcome, nil
}

// Validate runs build + policy validation only. Nothing is executed and no
// audit record is written, so callers can probe a trade idea cheaply.
func (s *Service) Validate(ctx context.Context, p BuildParams) (*DecisionOutcome, error) {
	req, pol, err := s.prepare(ctx, p)
	if err != nil {
		return nil, err
	}

	decision := s.engine.Validate(*req, pol)
	return &DecisionOutcome{Request: *req, Decision: decision}, nil
}

func (s *Service) prepare(ctx context.Context, p BuildParams) (*domain.TradeRequest, *policy.Document, error) {
	req, err := s.builder.Build(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	pol, err := s.policies.Load(s.policyName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load policy %q: %w", s.policyName, err)
	}

	return req, pol, nil
}
