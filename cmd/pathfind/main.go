package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/p2pbook/pathfinder/internal/config"
	"github.com/p2pbook/pathfinder/internal/finder"
	"github.com/p2pbook/pathfinder/internal/materialize"
	"github.com/p2pbook/pathfinder/internal/orderbook"
	"github.com/p2pbook/pathfinder/internal/search"
	"github.com/p2pbook/pathfinder/pkg/types"
)

type output struct {
	Route         string `json:"route"`
	Cost          string `json:"cost"`
	Hops          int    `json:"hops"`
	TotalSpent    string `json:"total_spent"`
	TotalReceived string `json:"total_received"`
	Residual      string `json:"residual"`
}

func main() {
	var (
		bookPath = flag.String("book", "book.json", "order book JSON file")
		source   = flag.String("source", "", "source currency")
		target   = flag.String("target", "", "target currency")
		spend    = flag.String("spend", "", "amount to spend, in the source currency")
		scale    = flag.Int("scale", 3, "spend amount scale")
	)
	flag.Parse()

	logger := logrus.New()
	if *source == "" || *target == "" || *spend == "" {
		logger.Fatal("source, target and spend are required")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	file, err := os.Open(*bookPath)
	if err != nil {
		logger.Fatalf("Failed to open book: %v", err)
	}
	book, err := orderbook.ReadBook(file)
	_ = file.Close()
	if err != nil {
		logger.Fatalf("Failed to parse book: %v", err)
	}

	amount, err := types.NewMoney(*source, *spend, int32(*scale))
	if err != nil {
		logger.Fatalf("Bad spend amount: %v", err)
	}

	f, err := finder.New(finder.Config{
		MaxHops:          cfg.Engine.MaxHops,
		TopK:             cfg.Engine.TopK,
		MaxExpansions:    cfg.Engine.MaxExpansions,
		MaxVisitedStates: cfg.Engine.MaxVisitedStates,
		MinTolerance:     cfg.Engine.MinTolerance,
		MaxTolerance:     cfg.Engine.MaxTolerance,
		TimeBudget:       cfg.Engine.TimeBudget,
		GraphTTL:         cfg.Engine.GraphTTL,
	})
	if err != nil {
		logger.Fatalf("Failed to build finder: %v", err)
	}
	defer f.Close()

	set, err := f.FindBestPaths(book, finder.Request{
		Source: *source,
		Target: *target,
		Spend:  &search.SpendConstraints{Min: amount, Max: amount, Desired: &amount},
	})
	if err != nil {
		logger.Fatalf("Search failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(render(set)); err != nil {
		logger.Fatalf("Failed to encode results: %v", err)
	}
}

func render(set *finder.ResultSet) []output {
	out := make([]output, 0, len(set.Results))
	for _, r := range set.Results {
		out = append(out, renderPath(r))
	}
	return out
}

func renderPath(r *materialize.PathResult) output {
	return output{
		Route:         r.Candidate.RouteSignature(),
		Cost:          r.Candidate.Cost.StringFixed(types.ScaleCost),
		Hops:          r.Candidate.Hops,
		TotalSpent:    r.TotalSpent.String(),
		TotalReceived: r.TotalReceived.String(),
		Residual:      r.Residual.StringFixed(types.ScaleCost),
	}
}
