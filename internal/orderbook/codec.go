package orderbook

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/p2pbook/pathfinder/pkg/types"
)

// OrderDoc is the wire shape of an order, shared by the CLI book files and
// the service requests. Amounts are decimal strings.
type OrderDoc struct {
	ID        string  `json:"id"`
	Side      string  `json:"side"`
	Base      string  `json:"base"`
	Quote     string  `json:"quote"`
	Min       string  `json:"min"`
	Max       string  `json:"max"`
	Scale     int32   `json:"scale"`
	Rate      string  `json:"rate"`
	RateScale int32   `json:"rate_scale"`
	Fee       *FeeDoc `json:"fee,omitempty"`
}

// FeeDoc describes an order's fee policy on the wire.
type FeeDoc struct {
	Kind        string `json:"kind"` // "percent" or "flat"
	BaseRate    string `json:"base_rate,omitempty"`
	QuoteRate   string `json:"quote_rate,omitempty"`
	BaseAmount  string `json:"base_amount,omitempty"`
	QuoteAmount string `json:"quote_amount,omitempty"`
	Scale       int32  `json:"scale,omitempty"`
}

// ToOrder validates and converts the document into a domain order.
func (d OrderDoc) ToOrder() (*types.Order, error) {
	pair, err := types.NewAssetPair(d.Base, d.Quote)
	if err != nil {
		return nil, err
	}
	min, err := types.NewMoney(d.Base, d.Min, d.Scale)
	if err != nil {
		return nil, err
	}
	max, err := types.NewMoney(d.Base, d.Max, d.Scale)
	if err != nil {
		return nil, err
	}
	bounds, err := types.NewOrderBounds(min, max)
	if err != nil {
		return nil, err
	}
	rate, err := types.NewExchangeRate(d.Base, d.Quote, d.Rate, d.RateScale)
	if err != nil {
		return nil, err
	}
	var policy types.FeePolicy
	if d.Fee != nil {
		policy, err = d.Fee.toPolicy(pair)
		if err != nil {
			return nil, err
		}
	}
	return types.NewOrder(d.ID, types.Side(d.Side), pair, bounds, rate, policy)
}

func (d *FeeDoc) toPolicy(pair types.AssetPair) (types.FeePolicy, error) {
	switch d.Kind {
	case "percent":
		baseRate, quoteRate := d.BaseRate, d.QuoteRate
		if baseRate == "" {
			baseRate = "0"
		}
		if quoteRate == "" {
			quoteRate = "0"
		}
		return types.NewPercentFeePolicy(baseRate, quoteRate)
	case "flat":
		var baseFee, quoteFee *types.Money
		if d.BaseAmount != "" {
			m, err := types.NewMoney(pair.Base, d.BaseAmount, d.Scale)
			if err != nil {
				return nil, err
			}
			baseFee = &m
		}
		if d.QuoteAmount != "" {
			m, err := types.NewMoney(pair.Quote, d.QuoteAmount, d.Scale)
			if err != nil {
				return nil, err
			}
			quoteFee = &m
		}
		return types.NewFlatFeePolicy(baseFee, quoteFee)
	default:
		return nil, fmt.Errorf("%w: fee kind %q", types.ErrInvalidInput, d.Kind)
	}
}

// BookFromDocs builds a book from wire orders.
func BookFromDocs(docs []OrderDoc) (*Book, error) {
	b := New()
	for i, d := range docs {
		o, err := d.ToOrder()
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
		if err := b.Add(o); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// ReadBook decodes a JSON document of the form {"orders": [...]} into a
// book.
func ReadBook(r io.Reader) (*Book, error) {
	var doc struct {
		Orders []OrderDoc `json:"orders"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: order book document: %v", types.ErrInvalidInput, err)
	}
	return BookFromDocs(doc.Orders)
}
