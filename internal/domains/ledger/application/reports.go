package application

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
)

const uncategorized = "Uncategorized"

// Report summarizes revenue, stock and best sellers from the local state.
func (l *Ledger) Report(_ context.Context, input types.ReportInput) (*types.Report, error) {
	days := input.Days
	if days <= 0 {
		days = types.DefaultReportDays
	}
	if days > types.MaxReportDays {
		days = types.MaxReportDays
	}
	top := input.TopProducts
	if top <= 0 {
		top = types.DefaultTopProducts
	}
	now := input.Now
	if now.IsZero() {
		now = l.now()
	}
	now = now.UTC()

	l.stateMu.RLock()
	threshold := l.lowStockThreshold
	l.stateMu.RUnlock()

	report := &types.Report{
		GeneratedAt:       now,
		Revenue:           decimal.Zero,
		StockValue:        decimal.Zero,
		LowStockThreshold: threshold,
	}
	l.read(func(s *ledgerState) {
		report.PendingOrders = len(s.pending)
		report.ProductCount = len(s.products)
		categories := map[string]*types.CategoryStock{}
		var categoryOrder []string
		for _, p := range s.products {
			report.StockUnits += p.Stock
			report.StockValue = report.StockValue.Add(p.StockValue())
			if p.Stock <= threshold {
				report.LowStock = append(report.LowStock, p.Clone())
			}
			if p.Stock == 0 {
				report.OutOfStock = append(report.OutOfStock, p.Clone())
			}
			name := strings.TrimSpace(p.Category)
			if name == "" {
				name = uncategorized
			}
			c, ok := categories[name]
			if !ok {
				c = &types.CategoryStock{Category: name, Value: decimal.Zero}
				categories[name] = c
				categoryOrder = append(categoryOrder, name)
			}
			c.Units += p.Stock
			c.Value = c.Value.Add(p.StockValue())
			c.Products++
		}
		for _, name := range categoryOrder {
			report.Categories = append(report.Categories, *categories[name])
		}

		report.Daily = dailyRevenue(s.sales, now, days)
		sold := map[string]*types.ProductSales{}
		var soldOrder []string
		for _, sale := range s.sales {
			report.CompletedSales++
			report.Revenue = report.Revenue.Add(sale.Total)
			for _, line := range sale.Items {
				report.ItemsSold += line.Quantity
				agg, ok := sold[line.ProductID]
				if !ok {
					agg = &types.ProductSales{ProductID: line.ProductID, ProductName: line.ProductName, Revenue: decimal.Zero}
					sold[line.ProductID] = agg
					soldOrder = append(soldOrder, line.ProductID)
				}
				agg.Quantity += line.Quantity
				agg.Revenue = agg.Revenue.Add(line.Subtotal())
			}
		}
		ranked := make([]types.ProductSales, 0, len(soldOrder))
		for _, id := range soldOrder {
			ranked = append(ranked, *sold[id])
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].Quantity != ranked[j].Quantity {
				return ranked[i].Quantity > ranked[j].Quantity
			}
			if !ranked[i].Revenue.Equal(ranked[j].Revenue) {
				return ranked[i].Revenue.GreaterThan(ranked[j].Revenue)
			}
			return ranked[i].ProductName < ranked[j].ProductName
		})
		report.TopProducts = headOf(ranked, top)
		report.SlowProducts = tailOf(ranked, top)
	})
	return report, nil
}

// SetLowStockThreshold changes the stock level at or below which products are flagged.
func (l *Ledger) SetLowStockThreshold(_ context.Context, threshold int) error {
	if threshold < 0 {
		return mapError(domain.ErrInvalidThreshold)
	}
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.lowStockThreshold = threshold
	return nil
}

func dailyRevenue(sales []*domain.Sale, now time.Time, days int) []types.DailyRevenue {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	first := today.AddDate(0, 0, -(days - 1))
	out := make([]types.DailyRevenue, days)
	for i := range out {
		out[i] = types.DailyRevenue{Day: first.AddDate(0, 0, i), Revenue: decimal.Zero}
	}
	for _, sale := range sales {
		at := sale.EffectiveAt().UTC()
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
		if day.Before(first) || day.After(today) {
			continue
		}
		idx := int(day.Sub(first).Hours() / 24)
		out[idx].Revenue = out[idx].Revenue.Add(sale.Total)
		out[idx].Sales++
	}
	return out
}

func headOf(ranked []types.ProductSales, n int) []types.ProductSales {
	if len(ranked) < n {
		n = len(ranked)
	}
	if n == 0 {
		return nil
	}
	return append([]types.ProductSales(nil), ranked[:n]...)
}

// tailOf lists the least sold products, least first.
func tailOf(ranked []types.ProductSales, n int) []types.ProductSales {
	if len(ranked) < n {
		n = len(ranked)
	}
	if n == 0 {
		return nil
	}
	out := make([]types.ProductSales, 0, n)
	for i := len(ranked) - 1; i >= len(ranked)-n; i-- {
		out = append(out, ranked[i])
	}
	return out
}
