// Package finder wires the pipeline together: order book → graph → search
// → materialization, returning ranked, fully-priced paths.
package finder

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/p2pbook/pathfinder/internal/graph"
	"github.com/p2pbook/pathfinder/internal/materialize"
	"github.com/p2pbook/pathfinder/internal/orderbook"
	"github.com/p2pbook/pathfinder/internal/search"
	"github.com/p2pbook/pathfinder/pkg/cache"
	"github.com/p2pbook/pathfinder/pkg/types"
)

// Config bundles the engine limits with the materializer window and the
// graph-cache TTL.
type Config struct {
	MaxHops          int
	TopK             int
	MaxExpansions    int
	MaxVisitedStates int
	MinTolerance     string
	MaxTolerance     string
	TimeBudget       time.Duration
	GraphTTL         time.Duration
	Ordering         search.OrderStrategy
}

// Request is one search invocation. Spend is mandatory here: the finder
// always materializes, and materialization needs a requested amount.
type Request struct {
	Source string
	Target string
	Spend  *search.SpendConstraints
}

// ResultSet is the materialized outcome.
type ResultSet struct {
	Results     []*materialize.PathResult
	GuardLimits search.GuardLimitStatus
}

// Finder runs searches over books, caching built graphs by book
// fingerprint.
type Finder struct {
	engine       *search.Engine
	materializer *materialize.Materializer
	builder      *graph.Builder
	graphs       *cache.MemoryCache
	graphTTL     time.Duration
	log          *logrus.Entry
}

// New validates the configuration and builds a finder.
func New(cfg Config) (*Finder, error) {
	if cfg.MinTolerance == "" {
		cfg.MinTolerance = "0"
	}
	if cfg.MaxTolerance == "" {
		cfg.MaxTolerance = "0"
	}
	engine, err := search.NewEngine(search.Config{
		MaxHops:          cfg.MaxHops,
		TopK:             cfg.TopK,
		Tolerance:        cfg.MaxTolerance,
		MaxExpansions:    cfg.MaxExpansions,
		MaxVisitedStates: cfg.MaxVisitedStates,
		TimeBudget:       cfg.TimeBudget,
		Ordering:         cfg.Ordering,
	})
	if err != nil {
		return nil, err
	}
	window, err := materialize.NewWindow(cfg.MinTolerance, cfg.MaxTolerance)
	if err != nil {
		return nil, err
	}
	ttl := cfg.GraphTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Finder{
		engine:       engine,
		materializer: materialize.New(window),
		builder:      graph.NewBuilder(orderbook.NewFillEvaluator()),
		graphs:       cache.NewMemoryCache(),
		graphTTL:     ttl,
		log:          logrus.WithField("component", "finder"),
	}, nil
}

// Close releases the graph-cache janitor.
func (f *Finder) Close() {
	f.graphs.Stop()
}

func (f *Finder) graphFor(book *orderbook.Book) (*graph.Graph, error) {
	key := book.Fingerprint()
	if v, ok := f.graphs.Get(key); ok {
		return v.(*graph.Graph), nil
	}
	g, err := f.builder.Build(book.Orders())
	if err != nil {
		return nil, err
	}
	f.graphs.Set(key, g, f.graphTTL)
	return g, nil
}

// FindBestPaths searches the book and materializes every surviving
// candidate. Candidates the materializer rejects are dropped and the search
// continues past them.
func (f *Finder) FindBestPaths(book *orderbook.Book, req Request) (*ResultSet, error) {
	if req.Spend == nil {
		return nil, fmt.Errorf("%w: finder requests need spend constraints", types.ErrInvalidInput)
	}
	requested := req.Spend.Min
	if req.Spend.Desired != nil {
		requested = *req.Spend.Desired
	}

	g, err := f.graphFor(book)
	if err != nil {
		return nil, err
	}

	materialized := make(map[*search.Candidate]*materialize.PathResult)
	var acceptErr error
	accept := func(c *search.Candidate) bool {
		res, err := f.materializer.Materialize(c, requested)
		if err != nil {
			if errors.Is(err, materialize.ErrRejected) {
				f.log.WithFields(logrus.Fields{
					"route":  c.RouteSignature(),
					"reason": err.Error(),
				}).Debug("candidate rejected")
				return false
			}
			if acceptErr == nil {
				acceptErr = err
			}
			return false
		}
		materialized[c] = res
		return true
	}

	outcome, err := f.engine.FindBestPaths(g, req.Source, req.Target, req.Spend, accept)
	if err != nil {
		return nil, err
	}
	if acceptErr != nil {
		return nil, acceptErr
	}

	results := make([]*materialize.PathResult, 0, len(outcome.Paths))
	for _, c := range outcome.Paths {
		if res, ok := materialized[c]; ok {
			results = append(results, res)
		}
	}
	return &ResultSet{Results: results, GuardLimits: outcome.GuardLimits}, nil
}
