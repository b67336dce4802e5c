package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"savora/internal/models"
)

func TestComputeOrderTotals(t *testing.T) {
	lines := []models.CartLine{
		{Product: models.Product{Price: 10}, Qty: 2},
		{Product: models.Product{Price: 5}, Qty: 1},
	}

	totals := ComputeOrderTotals(lines, DefaultTaxRate)

	assert.InDelta(t, 25.0, totals.Subtotal, 1e-9)
	assert.InDelta(t, 2.5, totals.Tax, 1e-9)
	assert.InDelta(t, 27.5, totals.Total, 1e-9)
}

func TestComputeOrderTotals_EmptyCart(t *testing.T) {
	totals := ComputeOrderTotals(nil, DefaultTaxRate)
	assert.Zero(t, totals.Subtotal)
	assert.Zero(t, totals.Tax)
	assert.Zero(t, totals.Total)
}

func TestComputeOrderTotals_InjectedRate(t *testing.T) {
	lines := []models.CartLine{{Product: models.Product{Price: 100}, Qty: 1}}
	totals := ComputeOrderTotals(lines, 0.25)
	assert.InDelta(t, 125.0, totals.Total, 1e-9)
}

func TestClampQuantity(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"already minimum", 1, 1},
		{"zero floors to one", 0, 1},
		{"negative floors to one", -3, 1},
		{"above minimum untouched", 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampQuantity(tt.in))
		})
	}
}

func TestDecrementQuantity_ClampedAtOne(t *testing.T) {
	assert.Equal(t, 1, DecrementQuantity(1))
	assert.Equal(t, 1, DecrementQuantity(2))
	assert.Equal(t, 4, DecrementQuantity(5))
}

func TestFormatAmount_TwoDecimals(t *testing.T) {
	assert.Equal(t, "27.50", FormatAmount(27.5))
	assert.Equal(t, "2.50", FormatAmount(2.5))
	assert.Equal(t, "9.99", FormatAmount(9.99))
}
