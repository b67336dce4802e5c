// Package pricing holds the order arithmetic in one place so every
// cart-bearing surface computes the same numbers.
package pricing

import (
	"fmt"

	"savora/internal/models"
)

// DefaultTaxRate applies when configuration does not override it.
const DefaultTaxRate = 0.10

// Totals is the result of pricing a set of cart lines. Values are exact
// float sums; rounding happens only at display time via FormatAmount.
type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// ComputeOrderTotals prices the given lines at the given tax rate.
func ComputeOrderTotals(lines []models.CartLine, taxRate float64) Totals {
	var subtotal float64
	for _, l := range lines {
		subtotal += l.Product.Price * float64(l.Qty)
	}
	tax := subtotal * taxRate
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// ClampQuantity floors a quantity at 1. Removing a line is an explicit
// action, never a decrement to zero.
func ClampQuantity(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}

// DecrementQuantity reduces a quantity by one, never below 1.
func DecrementQuantity(qty int) int {
	return ClampQuantity(qty - 1)
}

// FormatAmount renders a monetary value with two decimals for display.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
