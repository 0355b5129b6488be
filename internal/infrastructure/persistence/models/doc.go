// Package models contains the GORM persistence models for purchase orders.
// They are kept apart from the domain types so the domain package stays free
// of ORM tags; each model converts to and from its domain counterpart.
//
// Tables:
//   - purchase_orders, purchase_order_items: the aggregate and its lines
//   - purchase_order_payments: payments ledger
//   - purchase_order_received_units: serial-numbered units booked in
//   - purchase_order_quality_checks: inspection verdicts per line
//   - purchase_order_returns: goods sent back to the supplier
//   - purchase_order_audit_entries: one row per persisted lifecycle action
package models
