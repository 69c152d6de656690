// Package service exposes the path finder over NATS request/reply.
package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/p2pbook/pathfinder/internal/config"
	"github.com/p2pbook/pathfinder/internal/finder"
	"github.com/p2pbook/pathfinder/internal/materialize"
	"github.com/p2pbook/pathfinder/internal/monitor"
	"github.com/p2pbook/pathfinder/internal/orderbook"
	"github.com/p2pbook/pathfinder/internal/search"
	"github.com/p2pbook/pathfinder/pkg/natsx"
	"github.com/p2pbook/pathfinder/pkg/types"
)

// Request is a pathfind invocation over the wire. Engine overrides are
// optional; absent fields fall back to the service defaults.
type Request struct {
	Orders       []orderbook.OrderDoc `json:"orders"`
	Source       string               `json:"source"`
	Target       string               `json:"target"`
	Spend        *SpendDoc            `json:"spend"`
	MaxHops      *int                 `json:"max_hops,omitempty"`
	TopK         *int                 `json:"top_k,omitempty"`
	MinTolerance *string              `json:"min_tolerance,omitempty"`
	MaxTolerance *string              `json:"max_tolerance,omitempty"`
}

// SpendDoc is the wire spend window, amounts as decimal strings in the
// source currency.
type SpendDoc struct {
	Min     string  `json:"min"`
	Max     string  `json:"max"`
	Desired *string `json:"desired,omitempty"`
	Scale   int32   `json:"scale"`
}

// LegDoc is one materialized hop on the wire.
type LegDoc struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Side     string `json:"side"`
	OrderID  string `json:"order_id"`
	Spent    string `json:"spent"`
	Received string `json:"received"`
}

// PathDoc is one result path on the wire.
type PathDoc struct {
	Route         string   `json:"route"`
	Cost          string   `json:"cost"`
	Hops          int      `json:"hops"`
	Legs          []LegDoc `json:"legs"`
	TotalSpent    string   `json:"total_spent"`
	TotalReceived string   `json:"total_received"`
	Residual      string   `json:"residual"`
}

// GuardDoc carries the guard flags.
type GuardDoc struct {
	ExpansionsReached    bool `json:"expansions_reached"`
	VisitedStatesReached bool `json:"visited_states_reached"`
	TimeBudgetReached    bool `json:"time_budget_reached"`
}

// Response is the reply payload.
type Response struct {
	RequestID string    `json:"request_id"`
	Paths     []PathDoc `json:"paths"`
	Guards    GuardDoc  `json:"guards"`
	ElapsedMs int64     `json:"elapsed_ms"`
	Error     string    `json:"error,omitempty"`
}

// Handler serves pathfind requests.
type Handler struct {
	nc       *natsx.Client
	defaults config.EngineConfig
	log      *logrus.Entry
}

// NewHandler builds a handler over a NATS client and engine defaults.
func NewHandler(nc *natsx.Client, defaults config.EngineConfig) *Handler {
	return &Handler{
		nc:       nc,
		defaults: defaults,
		log:      logrus.WithField("component", "pathfind-handler"),
	}
}

// Subscribe registers the handler on the request subject within the queue
// group.
func (h *Handler) Subscribe(subject, queue string) (*nats.Subscription, error) {
	return h.nc.QueueSubscribe(subject, queue, h.handle)
}

func (h *Handler) handle(msg *nats.Msg) {
	requestID := uuid.NewString()
	start := time.Now()
	log := h.log.WithField("request_id", requestID)

	var req Request
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.reply(msg, Response{RequestID: requestID, Error: "malformed request: " + err.Error()})
		return
	}

	resp := h.run(requestID, &req, start)
	if resp.Error != "" {
		log.WithField("error", resp.Error).Warn("pathfind request failed")
	} else {
		log.WithFields(logrus.Fields{
			"source":  req.Source,
			"target":  req.Target,
			"paths":   len(resp.Paths),
			"elapsed": time.Since(start),
		}).Info("pathfind request served")
	}
	h.reply(msg, resp)
}

func (h *Handler) reply(msg *nats.Msg, resp Response) {
	if msg.Reply == "" {
		return
	}
	if err := h.nc.RespondJSON(msg, resp); err != nil {
		h.log.Errorf("failed to respond: %v", err)
	}
}

func (h *Handler) run(requestID string, req *Request, start time.Time) Response {
	cfg := h.defaults
	if req.MaxHops != nil {
		cfg.MaxHops = *req.MaxHops
	}
	if req.TopK != nil {
		cfg.TopK = *req.TopK
	}
	if req.MinTolerance != nil {
		cfg.MinTolerance = *req.MinTolerance
	}
	if req.MaxTolerance != nil {
		cfg.MaxTolerance = *req.MaxTolerance
	}

	book, err := orderbook.BookFromDocs(req.Orders)
	if err != nil {
		return Response{RequestID: requestID, Error: err.Error()}
	}
	spend, err := decodeSpend(req.Spend, req.Source)
	if err != nil {
		return Response{RequestID: requestID, Error: err.Error()}
	}

	f, err := finder.New(finder.Config{
		MaxHops:          cfg.MaxHops,
		TopK:             cfg.TopK,
		MaxExpansions:    cfg.MaxExpansions,
		MaxVisitedStates: cfg.MaxVisitedStates,
		MinTolerance:     cfg.MinTolerance,
		MaxTolerance:     cfg.MaxTolerance,
		TimeBudget:       cfg.TimeBudget,
		GraphTTL:         cfg.GraphTTL,
	})
	if err != nil {
		return Response{RequestID: requestID, Error: err.Error()}
	}
	defer f.Close()

	set, err := f.FindBestPaths(book, finder.Request{
		Source: req.Source,
		Target: req.Target,
		Spend:  spend,
	})
	elapsed := time.Since(start)
	if err != nil {
		monitor.ObserveSearch(0, search.GuardLimitStatus{}, elapsed, err)
		return Response{RequestID: requestID, Error: err.Error(), ElapsedMs: elapsed.Milliseconds()}
	}
	monitor.ObserveSearch(len(set.Results), set.GuardLimits, elapsed, nil)

	return Response{
		RequestID: requestID,
		Paths:     encodePaths(set.Results),
		Guards: GuardDoc{
			ExpansionsReached:    set.GuardLimits.ExpansionsReached,
			VisitedStatesReached: set.GuardLimits.VisitedStatesReached,
			TimeBudgetReached:    set.GuardLimits.TimeBudgetReached,
		},
		ElapsedMs: elapsed.Milliseconds(),
	}
}

func decodeSpend(doc *SpendDoc, source string) (*search.SpendConstraints, error) {
	if doc == nil {
		return nil, nil
	}
	min, err := types.NewMoney(source, doc.Min, doc.Scale)
	if err != nil {
		return nil, err
	}
	max, err := types.NewMoney(source, doc.Max, doc.Scale)
	if err != nil {
		return nil, err
	}
	out := &search.SpendConstraints{Min: min, Max: max}
	if doc.Desired != nil {
		desired, err := types.NewMoney(source, *doc.Desired, doc.Scale)
		if err != nil {
			return nil, err
		}
		out.Desired = &desired
	}
	return out, nil
}

func encodePaths(results []*materialize.PathResult) []PathDoc {
	out := make([]PathDoc, 0, len(results))
	for _, r := range results {
		legs := make([]LegDoc, 0, len(r.Legs))
		for _, l := range r.Legs {
			legs = append(legs, LegDoc{
				From:     l.From,
				To:       l.To,
				Side:     string(l.Side),
				OrderID:  l.OrderID,
				Spent:    l.Spent.String(),
				Received: l.Received.String(),
			})
		}
		out = append(out, PathDoc{
			Route:         r.Candidate.RouteSignature(),
			Cost:          r.Candidate.Cost.StringFixed(types.ScaleCost),
			Hops:          r.Candidate.Hops,
			Legs:          legs,
			TotalSpent:    r.TotalSpent.String(),
			TotalReceived: r.TotalReceived.String(),
			Residual:      r.Residual.StringFixed(types.ScaleCost),
		})
	}
	return out
}
