package persistence

import (
	"strings"
)

// OrderSortFields contains allowed sort fields for purchase orders
var OrderSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"order_number":   true,
	"supplier_name":  true,
	"status":         true,
	"payment_status": true,
	"total_amount":   true,
}

// ValidateSortOrder normalizes the sort order to ASC or DESC.
// Anything other than asc yields DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, defaultField
// otherwise. The result is safe to interpolate into ORDER BY.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}
