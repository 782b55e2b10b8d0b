package tushare

import (
	"context"
	"strconv"
	"time"

	"github.com/Eroleice/Quant-Cat/internal/clientdata"
	"github.com/Eroleice/Quant-Cat/internal/domain"
)

var _ domain.DataProvider = (*Client)(nil)

// MonthlyReturns fetches the most recent monthly bars for a security,
// newest first.
func (c *Client) MonthlyReturns(ctx context.Context, code string, limit int) ([]domain.MonthlyReturn, error) {
	params := map[string]string{"ts_code": code}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	frame, err := c.fetch(ctx, query{
		apiName: "monthly",
		params:  params,
		fields:  []string{"trade_date", "pct_chg"},
		table:   clientdata.TableMonthly,
		ttl:     clientdata.TTLMonthly,
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.MonthlyReturn, 0, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		month, err := domain.TradeMonthOf(frame.String(i, "trade_date"))
		if err != nil {
			c.log.Warn().Str("code", code).Str("trade_date", frame.String(i, "trade_date")).Msg("Skipping monthly bar with bad date")
			continue
		}
		out = append(out, domain.MonthlyReturn{
			TradeMonth: month,
			PctChange:  frame.Float(i, "pct_chg"),
		})
	}
	return out, nil
}

// DailyReturns fetches the cross-section of one trading day.
func (c *Client) DailyReturns(ctx context.Context, tradeDate time.Time) ([]domain.SecurityReturn, error) {
	frame, err := c.fetch(ctx, query{
		apiName: "daily",
		params:  map[string]string{"trade_date": domain.FormatTradeDate(tradeDate)},
		fields:  []string{"ts_code", "trade_date", "pct_chg", "vol", "amount"},
		table:   clientdata.TableDaily,
		ttl:     clientdata.TTLDaily,
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.SecurityReturn, 0, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		out = append(out, domain.SecurityReturn{
			Code:      frame.String(i, "ts_code"),
			TradeDate: parseDateOr(frame.String(i, "trade_date"), tradeDate),
			PctChange: frame.Float(i, "pct_chg"),
			Volume:    frame.Float(i, "vol"),
			Amount:    frame.Float(i, "amount"),
		})
	}
	return out, nil
}

// IndexConstituents fetches an index_weight snapshot. A zero tradeDate
// asks for the single most recent row, which carries the latest date.
func (c *Client) IndexConstituents(ctx context.Context, indexCode string, tradeDate time.Time) ([]domain.IndexWeight, error) {
	frame, err := c.fetch(ctx, constituentsQuery(indexCode, tradeDate))
	if err != nil {
		return nil, err
	}

	out := make([]domain.IndexWeight, 0, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		out = append(out, domain.IndexWeight{
			IndexCode:       frame.String(i, "index_code"),
			ConstituentCode: frame.String(i, "con_code"),
			TradeDate:       parseDateOr(frame.String(i, "trade_date"), tradeDate),
			Weight:          frame.Float(i, "weight"),
		})
	}
	return out, nil
}

// constituentsQuery builds the index_weight request. The latest-snapshot
// lookup is cached briefly; dated snapshots do not change.
func constituentsQuery(indexCode string, tradeDate time.Time) query {
	q := query{
		apiName: "index_weight",
		params:  map[string]string{"index_code": indexCode},
		fields:  []string{"index_code", "con_code", "trade_date", "weight"},
		table:   clientdata.TableIndexWeight,
		ttl:     clientdata.TTLIndexWeight,
	}
	if tradeDate.IsZero() {
		q.params["limit"] = "1"
		q.ttl = clientdata.TTLIndexWeightLatest
	} else {
		q.params["trade_date"] = domain.FormatTradeDate(tradeDate)
	}
	return q
}

// IndexDailyReturn fetches one index's session.
func (c *Client) IndexDailyReturn(ctx context.Context, indexCode string, tradeDate time.Time) ([]domain.IndexReturn, error) {
	frame, err := c.fetch(ctx, query{
		apiName: "index_daily",
		params: map[string]string{
			"ts_code":    indexCode,
			"trade_date": domain.FormatTradeDate(tradeDate),
		},
		fields: []string{"ts_code", "trade_date", "close", "pct_chg", "vol", "amount"},
		table:  clientdata.TableIndexDaily,
		ttl:    clientdata.TTLIndexDaily,
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.IndexReturn, 0, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		out = append(out, domain.IndexReturn{
			Code:      frame.String(i, "ts_code"),
			TradeDate: parseDateOr(frame.String(i, "trade_date"), tradeDate),
			Close:     frame.Float(i, "close"),
			PctChange: frame.Float(i, "pct_chg"),
			Volume:    frame.Float(i, "vol"),
			Amount:    frame.Float(i, "amount"),
		})
	}
	return out, nil
}

// SecurityProfile fetches the stock_basic row of a security.
func (c *Client) SecurityProfile(ctx context.Context, code string) ([]domain.SecurityProfile, error) {
	frame, err := c.fetch(ctx, query{
		apiName: "stock_basic",
		params:  map[string]string{"ts_code": code},
		fields:  []string{"ts_code", "symbol", "name", "area", "industry", "market", "list_date"},
		table:   clientdata.TableStockBasic,
		ttl:     clientdata.TTLStockBasic,
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.SecurityProfile, 0, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		out = append(out, domain.SecurityProfile{
			Code:     frame.String(i, "ts_code"),
			Symbol:   frame.String(i, "symbol"),
			Name:     frame.String(i, "name"),
			Area:     frame.String(i, "area"),
			Industry: frame.String(i, "industry"),
			Market:   frame.String(i, "market"),
			ListDate: frame.String(i, "list_date"),
		})
	}
	return out, nil
}

func parseDateOr(s string, fallback time.Time) time.Time {
	t, err := domain.ParseTradeDate(s)
	if err != nil {
		return fallback
	}
	return t
}
