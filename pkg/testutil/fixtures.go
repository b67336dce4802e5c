package testutil

import (
	"fmt"

	"github.com/google/uuid"

	"savora/internal/models"
)

// TestIDs provides pre-generated IDs for deterministic test data.
var TestIDs = struct {
	UserID1     string
	UserID2     string
	ProductID1  string
	ProductID2  string
	CategoryID1 string
	CategoryID2 string
	OrderID1    string
}{
	UserID1:     "11111111-1111-1111-1111-111111111111",
	UserID2:     "22222222-2222-2222-2222-222222222222",
	ProductID1:  "aaaa0000-0000-0000-0000-000000000001",
	ProductID2:  "aaaa0000-0000-0000-0000-000000000002",
	CategoryID1: "cccc0000-0000-0000-0000-000000000001",
	CategoryID2: "cccc0000-0000-0000-0000-000000000002",
	OrderID1:    "eeee0000-0000-0000-0000-000000000001",
}

// ProductBuilder provides a fluent interface for building test products.
type ProductBuilder struct {
	product models.Product
}

// NewProductBuilder creates a ProductBuilder with sensible defaults.
func NewProductBuilder() *ProductBuilder {
	return &ProductBuilder{
		product: models.Product{
			ID:      uuid.NewString(),
			Name:    "Test Product",
			Price:   9.99,
			InStock: true,
		},
	}
}

func (b *ProductBuilder) WithID(id string) *ProductBuilder {
	b.product.ID = id
	return b
}

func (b *ProductBuilder) WithName(name string) *ProductBuilder {
	b.product.Name = name
	return b
}

func (b *ProductBuilder) WithPrice(price float64) *ProductBuilder {
	b.product.Price = price
	return b
}

func (b *ProductBuilder) WithCategoryID(id string) *ProductBuilder {
	b.product.Category = models.CategoryID(id)
	return b
}

func (b *ProductBuilder) WithCategory(c models.Category) *ProductBuilder {
	b.product.Category = models.PopulatedCategory(c)
	return b
}

func (b *ProductBuilder) OutOfStock() *ProductBuilder {
	b.product.InStock = false
	return b
}

// Build returns the constructed product.
func (b *ProductBuilder) Build() models.Product {
	return b.product
}

// CartBuilder assembles a cart line by line.
type CartBuilder struct {
	cart models.Cart
}

// NewCartBuilder creates an empty cart for a generated user.
func NewCartBuilder() *CartBuilder {
	return &CartBuilder{
		cart: models.Cart{
			ID:    uuid.NewString(),
			User:  TestIDs.UserID1,
			Lines: []models.CartLine{},
		},
	}
}

func (b *CartBuilder) ForUser(id string) *CartBuilder {
	b.cart.User = id
	return b
}

// WithLine appends a product at the given quantity.
func (b *CartBuilder) WithLine(product models.Product, qty int) *CartBuilder {
	b.cart.Lines = append(b.cart.Lines, models.CartLine{Product: product, Qty: qty})
	return b
}

// WithPricedLine is shorthand for a line whose only relevant fields are
// price and quantity.
func (b *CartBuilder) WithPricedLine(price float64, qty int) *CartBuilder {
	n := len(b.cart.Lines) + 1
	product := NewProductBuilder().
		WithName(fmt.Sprintf("Item %d", n)).
		WithPrice(price).
		Build()
	return b.WithLine(product, qty)
}

// Build returns the constructed cart.
func (b *CartBuilder) Build() models.Cart {
	return b.cart
}

// UserBuilder provides a fluent interface for building test users.
type UserBuilder struct {
	user models.User
}

// NewUserBuilder creates a UserBuilder with customer defaults.
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		user: models.User{
			ID:    uuid.NewString(),
			Name:  "Test User",
			Email: "test@example.com",
			Role:  models.RoleUser,
		},
	}
}

func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.user.ID = id
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

func (b *UserBuilder) AsAdmin() *UserBuilder {
	b.user.Role = models.RoleAdmin
	return b
}

// Build returns the constructed user.
func (b *UserBuilder) Build() models.User {
	return b.user
}
