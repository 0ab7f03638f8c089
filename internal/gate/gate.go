// Package gate sequences the chain reader, event matcher, idempotency guard
// and mutation applier into one gated write.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/comicverse/txgate/internal/debug"
	"github.com/comicverse/txgate/internal/guard"
	"github.com/comicverse/txgate/internal/ledger"
	"github.com/comicverse/txgate/internal/metrics"
	"github.com/comicverse/txgate/internal/models"
)

// Resolver looks transactions up on the ledger
type Resolver interface {
	Resolve(ctx context.Context, reference string, maxAttempts int, pollInterval time.Duration) (*models.TransactionResolution, error)
	Sender(ctx context.Context, reference string) (string, error)
}

// Authorizer decides whether a resolution authorizes a request
type Authorizer interface {
	Authorize(ctx context.Context, res *models.TransactionResolution, req *models.PendingMutationRequest) (models.AuthorizationVerdict, error)
}

// Reserver checks the processed-transaction log
type Reserver interface {
	CheckAndReserve(ctx context.Context, txHash string, kind models.MutationKind) (guard.Reservation, error)
}

// Mutator persists an authorized mutation
type Mutator interface {
	Apply(ctx context.Context, req *models.PendingMutationRequest, extracted models.ExtractedFields) (*models.Entity, error)
}

// Budget is the receipt polling budget of one mutation kind
type Budget struct {
	Attempts int
	Interval time.Duration
}

// DefaultBudget waits roughly 30s for a receipt
var DefaultBudget = Budget{Attempts: ledger.DefaultMaxAttempts, Interval: ledger.DefaultPollInterval}

// Gate runs the gated-mutation state machine. It holds no per-request state
// and is safe for concurrent use.
type Gate struct {
	resolver   Resolver
	authorizer Authorizer
	reserver   Reserver
	mutator    Mutator

	defaultBudget Budget
	budgets       map[models.MutationKind]Budget
}

// New creates a Gate. Kinds missing from budgets use defaultBudget.
func New(resolver Resolver, authorizer Authorizer, reserver Reserver, mutator Mutator, defaultBudget Budget, budgets map[models.MutationKind]Budget) *Gate {
	if defaultBudget.Attempts <= 0 {
		defaultBudget = DefaultBudget
	}
	return &Gate{
		resolver:      resolver,
		authorizer:    authorizer,
		reserver:      reserver,
		mutator:       mutator,
		defaultBudget: defaultBudget,
		budgets:       budgets,
	}
}

// BudgetFor returns the polling budget used for kind
func (g *Gate) BudgetFor(kind models.MutationKind) Budget {
	if b, ok := g.budgets[kind]; ok && b.Attempts > 0 {
		return b
	}
	return g.defaultBudget
}

// run tracks one request through the state machine
type run struct {
	req    *models.PendingMutationRequest
	result Result
}

func (r *run) enter(s State) {
	r.result.State = s
	r.result.Path = append(r.result.Path, s)
	slog.Debug("Gate: state transition",
		"tx_hash", r.req.TransactionReference,
		"kind", r.req.Kind,
		"state", s,
	)
}

func (r *run) finish(outcome Outcome) Result {
	r.result.Outcome = outcome
	return r.result
}

// Process runs req to a terminal outcome. Business outcomes (not found,
// reverted, rejected, duplicate) are reported through Result with a nil
// error. The error is non-nil only for invalid requests and infrastructure
// faults, and Result.Outcome is set in those cases too.
func (g *Gate) Process(ctx context.Context, req *models.PendingMutationRequest) (Result, error) {
	r := &run{req: req}
	result, err := g.process(ctx, r)
	g.observe(req, result, err)
	return result, err
}

func (g *Gate) process(ctx context.Context, r *run) (Result, error) {
	req := r.req
	r.enter(StateReceived)

	if err := req.Validate(); err != nil {
		r.result.Detail = err.Error()
		return r.finish(OutcomeInvalidRequest), fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// Resolving
	r.enter(StateResolving)
	budget := g.BudgetFor(req.Kind)
	start := time.Now()
	res, err := g.resolver.Resolve(ctx, req.TransactionReference, budget.Attempts, budget.Interval)
	metrics.ResolveDuration.WithLabelValues(string(req.Kind)).Observe(time.Since(start).Seconds())
	if res != nil {
		metrics.ReceiptPollAttempts.WithLabelValues(string(req.Kind)).Observe(float64(res.Attempts))
	}
	r.result.Resolution = res
	if err != nil {
		return g.fault(r, "ledger", err)
	}

	r.enter(StateResolved)
	debug.PrintResolution(res)
	if !res.Found {
		return r.finish(OutcomeNotFound), nil
	}
	if !res.Succeeded {
		return r.finish(OutcomeTransactionFailed), nil
	}

	// Verifying
	r.enter(StateVerifying)
	if req.Kind.IsIdentity() && res.Sender == "" {
		sender, err := g.resolver.Sender(ctx, req.TransactionReference)
		if err != nil {
			return g.fault(r, "ledger", err)
		}
		res.Sender = sender
	}

	verdict, err := g.authorizer.Authorize(ctx, res, req)
	if err != nil {
		return g.fault(r, "matcher", err)
	}
	r.result.Verdict = &verdict

	r.enter(StateVerified)
	debug.PrintVerdict(&verdict)
	if !verdict.Authorized {
		r.result.Reason = verdict.Reason
		r.result.Detail = verdict.Detail
		return r.finish(OutcomeRejected), nil
	}

	// Reserving
	r.enter(StateReserving)
	reservation, err := g.reserver.CheckAndReserve(ctx, req.NormalizedReference(), req.Kind)
	if err != nil {
		return g.fault(r, "guard", err)
	}

	r.enter(StateReserved)
	if reservation.AlreadyUsed {
		r.result.Existing = reservation.Existing
		return r.finish(OutcomeDuplicate), nil
	}

	// Applying
	r.enter(StateApplying)
	entity, err := g.mutator.Apply(ctx, req, verdict.Extracted)
	if guard.IsDuplicate(err) {
		// lost the race to a concurrent request with the same reference
		return r.finish(OutcomeDuplicate), nil
	}
	if err != nil {
		return g.fault(r, "applier", err)
	}

	r.result.Entity = entity
	r.enter(StateApplied)
	return r.finish(OutcomeApplied), nil
}

func (g *Gate) fault(r *run, component string, err error) (Result, error) {
	metrics.ErrorsTotal.WithLabelValues(component).Inc()
	r.enter(StateFailed)
	return r.finish(OutcomeInfrastructureFault), fmt.Errorf("%s: %w", component, err)
}

func (g *Gate) observe(req *models.PendingMutationRequest, result Result, err error) {
	metrics.GateOutcomes.WithLabelValues(string(req.Kind), string(result.Outcome), string(result.Reason)).Inc()

	attrs := []any{
		"tx_hash", req.TransactionReference,
		"kind", req.Kind,
		"state", result.State,
		"outcome", result.Outcome,
	}
	if result.Reason != models.ReasonNone {
		attrs = append(attrs, "reason", result.Reason)
	}

	switch {
	case result.Outcome == OutcomeInfrastructureFault:
		slog.Error("Gate: infrastructure fault", append(attrs, "error", err)...)
	case errors.Is(err, ErrInvalidRequest):
		slog.Warn("Gate: invalid request", append(attrs, "error", err)...)
	case result.Outcome == OutcomeApplied:
		slog.Info("Gate: mutation applied", append(attrs, "entity_id", result.Entity.ID)...)
	default:
		slog.Info("Gate: mutation refused", attrs...)
	}
}
