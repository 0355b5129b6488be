package purchasing

import (
	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func buildReceiveSummary(order *purchasing.PurchaseOrder, units []purchasing.ReceivedUnit, stock []StockPosition) *ReceiveSummaryResponse {
	serials := make(map[uuid.UUID]int, len(order.Items))
	for _, u := range units {
		serials[u.ItemID]++
	}
	positions := make(map[uuid.UUID]StockPosition, len(stock))
	for _, p := range stock {
		positions[p.ProductID] = p
	}

	resp := &ReceiveSummaryResponse{
		OrderID:       order.ID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Lines:         make([]ReceiveSummaryLine, 0, len(order.Items)),
		Ordered:       order.TotalOrderedQuantity(),
		Received:      order.TotalReceivedQuantity(),
		Percentage:    order.ReceiveProgress(),
		SerialUnits:   len(units),
		FullyReceived: order.IsFullyReceived(),
		CanReceive:    canReceive(order),
	}
	resp.Remaining = resp.Ordered - resp.Received

	for i := range order.Items {
		item := &order.Items[i]
		baseCost := item.BaseUnitCost(order.ExchangeRate)
		line := ReceiveSummaryLine{
			ItemID:             item.ID,
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			Ordered:            item.Quantity,
			Received:           item.ReceivedQuantity,
			Remaining:          item.RemainingQuantity(),
			Percentage:         item.ReceivedPercentage(),
			SerialUnits:        serials[item.ID],
			BaseUnitCost:       baseCost,
			FormattedUnitCost:  valueobject.FormatCurrency(item.CostPrice, order.Currency),
			FormattedBaseTotal: valueobject.FormatCurrency(baseCost.Mul(decimal.NewFromInt(int64(item.Quantity))), valueobject.BaseCurrency),
		}
		if pos, ok := positions[item.ProductID]; ok && item.ReceivedQuantity > 0 {
			avg := valueobject.AverageCost(pos.Quantity, pos.UnitCost, int64(item.ReceivedQuantity), baseCost)
			line.ProjectedAvgCost = &avg
		}
		resp.Lines = append(resp.Lines, line)
	}
	return resp
}

func canReceive(order *purchasing.PurchaseOrder) bool {
	_, err := purchasing.Resolve(order, purchasing.ActionPartialReceive)
	return err == nil
}
