// Package search implements the best-paths exploration over the order
// graph: a Dijkstra-style priority walk with same-signature dominance
// pruning, guard-rail termination and a bounded top-K result heap.
package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/p2pbook/pathfinder/internal/graph"
	"github.com/p2pbook/pathfinder/pkg/types"
)

// Default guard caps.
const (
	DefaultMaxExpansions    = 250000
	DefaultMaxVisitedStates = 250000
)

// Config is the construction-time engine configuration. Zero cap fields
// fall back to the defaults; a zero TimeBudget means unbounded.
type Config struct {
	MaxHops          int
	TopK             int
	Tolerance        string
	MaxExpansions    int
	MaxVisitedStates int
	TimeBudget       time.Duration
	Ordering         OrderStrategy
}

// SpendConstraints is the caller's spend window in the source currency.
// Desired, when present, must lie within [Min, Max].
type SpendConstraints struct {
	Min     types.Money
	Max     types.Money
	Desired *types.Money
}

// GuardLimitStatus records which resource guards terminated or constrained
// the search.
type GuardLimitStatus struct {
	ExpansionsReached    bool
	VisitedStatesReached bool
	TimeBudgetReached    bool
}

// SearchOutcome is the ordered result sequence plus the guard flags. An
// infeasible search is an empty outcome, never an error.
type SearchOutcome struct {
	Paths       []*Candidate
	GuardLimits GuardLimitStatus
}

// AcceptFunc vets a candidate before it is recorded. Returning false drops
// the candidate and the search continues; the materializer uses this to
// reject paths whose fees or bounds turn out infeasible.
type AcceptFunc func(*Candidate) bool

// Engine runs best-paths searches. It is immutable after construction; one
// engine may serve concurrent searches as long as each call gets its own
// read-only graph.
type Engine struct {
	cfg      Config
	tol      Tolerance
	ordering OrderStrategy
	log      *logrus.Entry
}

// NewEngine validates the configuration fail-closed and builds an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.MaxHops < 1 {
		return nil, fmt.Errorf("%w: max hops %d, need >= 1", types.ErrInvalidInput, cfg.MaxHops)
	}
	if cfg.TopK < 1 {
		return nil, fmt.Errorf("%w: top k %d, need >= 1", types.ErrInvalidInput, cfg.TopK)
	}
	if cfg.MaxExpansions == 0 {
		cfg.MaxExpansions = DefaultMaxExpansions
	}
	if cfg.MaxExpansions < 1 {
		return nil, fmt.Errorf("%w: max expansions %d, need >= 1", types.ErrInvalidInput, cfg.MaxExpansions)
	}
	if cfg.MaxVisitedStates == 0 {
		cfg.MaxVisitedStates = DefaultMaxVisitedStates
	}
	if cfg.MaxVisitedStates < 1 {
		return nil, fmt.Errorf("%w: max visited states %d, need >= 1", types.ErrInvalidInput, cfg.MaxVisitedStates)
	}
	if cfg.TimeBudget < 0 {
		return nil, fmt.Errorf("%w: negative time budget %s", types.ErrInvalidInput, cfg.TimeBudget)
	}
	if cfg.Tolerance == "" {
		cfg.Tolerance = "0"
	}
	tol, err := ParseTolerance(cfg.Tolerance)
	if err != nil {
		return nil, err
	}
	ordering := cfg.Ordering
	if ordering == nil {
		ordering = DefaultOrderStrategy{}
	}
	return &Engine{
		cfg:      cfg,
		tol:      tol,
		ordering: ordering,
		log:      logrus.WithField("component", "search-engine"),
	}, nil
}

// Tolerance exposes the parsed tolerance, e.g. for the materializer window.
func (e *Engine) Tolerance() Tolerance { return e.tol }

func (e *Engine) validateSpend(source string, spend *SpendConstraints) error {
	if spend == nil {
		return nil
	}
	if spend.Min.Currency() == "" || spend.Max.Currency() == "" {
		return fmt.Errorf("%w: spend constraints need both min and max", types.ErrInvalidInput)
	}
	if spend.Min.Currency() != source || spend.Max.Currency() != source {
		return fmt.Errorf("%w: spend constraints must be in source currency %s", types.ErrInvalidInput, source)
	}
	if spend.Min.Amount().Cmp(spend.Max.Amount()) > 0 {
		return fmt.Errorf("%w: spend min %s exceeds max %s", types.ErrInvalidInput, spend.Min, spend.Max)
	}
	if d := spend.Desired; d != nil {
		if d.Currency() != source {
			return fmt.Errorf("%w: desired spend must be in source currency %s", types.ErrInvalidInput, source)
		}
		if d.Amount().Cmp(spend.Min.Amount()) < 0 || d.Amount().Cmp(spend.Max.Amount()) > 0 {
			return fmt.Errorf("%w: desired spend %s outside [%s, %s]", types.ErrInvalidInput, d, spend.Min, spend.Max)
		}
	}
	return nil
}

// FindBestPaths enumerates up to TopK paths from source to target. A
// missing source or target node yields an empty outcome with clean guard
// flags. All search-time structures live and die within the call.
func (e *Engine) FindBestPaths(g *graph.Graph, source, target string, spend *SpendConstraints, accept AcceptFunc) (*SearchOutcome, error) {
	source = strings.ToUpper(source)
	target = strings.ToUpper(target)

	if !g.Has(source) || !g.Has(target) {
		return &SearchOutcome{}, nil
	}
	if err := e.validateSpend(source, spend); err != nil {
		return nil, err
	}

	initial := &searchState{
		node:    source,
		cost:    one,
		product: one,
		hops:    0,
		visited: map[string]struct{}{source: {}},
	}
	if spend != nil {
		initial.amountRange = &graph.Interval{Min: spend.Min, Max: spend.Max}
		initial.desired = spend.Desired
	}

	queue := newStateQueue()
	queue.push(initial)
	registry := make(stateRegistry)
	results := newResultHeap(e.cfg.TopK)

	var (
		guards       GuardLimitStatus
		expansions   int
		visitedCount int
		insertionSeq int64
		candidateSeq int64
		bestCost     *decimal.Decimal
	)
	start := time.Now()

	for {
		if e.cfg.TimeBudget > 0 && time.Since(start) >= e.cfg.TimeBudget {
			guards.TimeBudgetReached = true
			break
		}
		if expansions >= e.cfg.MaxExpansions {
			guards.ExpansionsReached = true
			break
		}
		if queue.Len() == 0 {
			break
		}

		state := queue.pop()
		expansions++

		if state.node == target && state.hops > 0 {
			cand := &Candidate{
				Cost:        state.cost,
				Product:     state.product,
				Hops:        state.hops,
				Edges:       state.path,
				AmountRange: state.amountRange,
				Desired:     state.desired,
			}
			if bestCost != nil && cand.Cost.Cmp(e.tol.MaxAllowedCost(*bestCost)) > 0 {
				continue
			}
			if accept != nil && !accept(cand) {
				continue
			}
			results.add(cand, candidateSeq)
			candidateSeq++
			if bestCost == nil || cand.Cost.Cmp(*bestCost) < 0 {
				bestCost = &cand.Cost
			}
			continue
		}

		if state.hops >= e.cfg.MaxHops {
			continue
		}

		node, _ := g.Node(state.node)
		for _, edge := range node.Edges {
			if !g.Has(edge.To) {
				continue
			}
			if _, seen := state.visited[edge.To]; seen {
				continue
			}
			rate := edge.ConversionRate()
			if rate.Sign() <= 0 {
				continue
			}

			var (
				nextRange   *graph.Interval
				nextDesired *types.Money
			)
			if state.amountRange != nil {
				feasible, ok := edgeFeasibleRange(edge, *state.amountRange)
				if !ok {
					continue
				}
				if state.desired != nil {
					clamped, err := state.desired.Clamp(feasible.Min, feasible.Max)
					if err != nil {
						return nil, err
					}
					converted, err := convertEdgeAmount(edge, clamped)
					if err != nil {
						return nil, err
					}
					nextDesired = &converted
				}
				converted, err := convertRange(edge, feasible)
				if err != nil {
					return nil, err
				}
				nextRange = &converted
			} else if state.desired != nil {
				converted, err := convertEdgeAmount(edge, *state.desired)
				if err != nil {
					return nil, err
				}
				nextDesired = &converted
			}

			nextCost := state.cost.DivRound(rate, types.ScaleCost)
			nextProduct := state.product.Mul(rate).Round(types.ScaleCost)
			nextHops := state.hops + 1
			signature := stateSignature(nextRange, nextDesired)

			if registry.isDominated(edge.To, nextCost, nextHops, signature) {
				continue
			}
			if visitedCount >= e.cfg.MaxVisitedStates && !registry.hasSignature(edge.To, signature) {
				guards.VisitedStatesReached = true
				continue
			}
			if bestCost != nil && nextCost.Cmp(e.tol.MaxAllowedCost(*bestCost)) > 0 {
				continue
			}

			visitedCount += registry.register(edge.To, nextCost, nextHops, signature)

			path := make([]PathEdge, len(state.path)+1)
			copy(path, state.path)
			path[len(state.path)] = PathEdge{
				From:           edge.From,
				To:             edge.To,
				Order:          edge.Order,
				Rate:           edge.Rate,
				Side:           edge.Side,
				ConversionRate: rate,
			}

			insertionSeq++
			queue.push(&searchState{
				node:        edge.To,
				cost:        nextCost,
				product:     nextProduct,
				hops:        nextHops,
				path:        path,
				amountRange: nextRange,
				desired:     nextDesired,
				visited:     state.visitedCopyWith(edge.To),
				insertion:   insertionSeq,
			})
		}
	}

	if guards.ExpansionsReached || guards.TimeBudgetReached {
		e.log.WithFields(logrus.Fields{
			"source":     source,
			"target":     target,
			"expansions": expansions,
			"elapsed":    time.Since(start),
		}).Debug("search stopped by guard limit")
	}

	return &SearchOutcome{
		Paths:       finalize(results.drain(), e.ordering, e.tol),
		GuardLimits: guards,
	}, nil
}
