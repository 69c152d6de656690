// Package feed adapts external market data into p2p orders. The Binance
// adapter turns a depth snapshot into a synthetic order book for feeding
// the same graph/search pipeline used on native p2p books.
package feed

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/sirupsen/logrus"

	"github.com/p2pbook/pathfinder/internal/orderbook"
	"github.com/p2pbook/pathfinder/pkg/types"
)

// BinanceFeed pulls depth snapshots.
type BinanceFeed struct {
	client *binance.Client
	log    *logrus.Entry
}

// NewBinanceFeed builds a feed over public market data; no credentials are
// required for depth snapshots.
func NewBinanceFeed() *BinanceFeed {
	return &BinanceFeed{
		client: binance.NewClient("", ""),
		log:    logrus.WithField("component", "binance-feed"),
	}
}

// FetchBook pulls up to limit levels of the depth snapshot for the pair and
// converts each level into an order: bids become BUY orders (a bidder takes
// base off a traveller holding it), asks become SELL orders. Levels are
// floored at zero minimum with the level quantity as maximum.
func (f *BinanceFeed) FetchBook(ctx context.Context, base, quote string, scale int32, limit int) (*orderbook.Book, error) {
	pair, err := types.NewAssetPair(base, quote)
	if err != nil {
		return nil, err
	}

	depth, err := f.client.NewDepthService().
		Symbol(pair.Base + pair.Quote).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch depth for %s: %w", pair, err)
	}

	book := orderbook.New()
	for i, level := range depth.Bids {
		o, err := levelOrder(fmt.Sprintf("bid-%d", i), types.SideBuy, pair, level.Price, level.Quantity, scale)
		if err != nil {
			return nil, err
		}
		if err := book.Add(o); err != nil {
			return nil, err
		}
	}
	for i, level := range depth.Asks {
		o, err := levelOrder(fmt.Sprintf("ask-%d", i), types.SideSell, pair, level.Price, level.Quantity, scale)
		if err != nil {
			return nil, err
		}
		if err := book.Add(o); err != nil {
			return nil, err
		}
	}

	f.log.WithFields(logrus.Fields{
		"pair":   pair.String(),
		"orders": book.Len(),
	}).Info("depth snapshot converted")
	return book, nil
}

func levelOrder(id string, side types.Side, pair types.AssetPair, price, qty string, scale int32) (*types.Order, error) {
	min, err := types.NewMoney(pair.Base, "0", scale)
	if err != nil {
		return nil, err
	}
	max, err := types.NewMoney(pair.Base, qty, scale)
	if err != nil {
		return nil, err
	}
	bounds, err := types.NewOrderBounds(min, max)
	if err != nil {
		return nil, err
	}
	rate, err := types.NewExchangeRate(pair.Base, pair.Quote, price, scale)
	if err != nil {
		return nil, err
	}
	return types.NewOrder(id, side, pair, bounds, rate, nil)
}
