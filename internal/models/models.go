package models

import "time"

// Role distinguishes customer accounts from back-office accounts.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User mirrors the backend user document. The client never mutates it
// directly; updates round-trip through the backend.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Category is a menu section (starters, mains, drinks, ...).
type Category struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Product is a menu item as served by the backend.
type Product struct {
	ID          string      `json:"_id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Price       float64     `json:"price"`
	Image       string      `json:"image,omitempty"`
	Category    CategoryRef `json:"category"`
	InStock     bool        `json:"inStock"`
}

// CartLine is one product with its quantity. The backend is the source of
// truth; the client only caches what the last read returned.
type CartLine struct {
	Product Product `json:"product"`
	Qty     int     `json:"qty"`
}

// Subtotal is the line price before tax.
func (l CartLine) Subtotal() float64 {
	return l.Product.Price * float64(l.Qty)
}

// Cart is the server-side cart for the authenticated user.
type Cart struct {
	ID    string     `json:"_id,omitempty"`
	User  string     `json:"user,omitempty"`
	Lines []CartLine `json:"items"`
}

// OrderStatus follows an order from placement to the table.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Order is a placed order as returned by the backend.
type Order struct {
	ID        string      `json:"_id"`
	User      string      `json:"user"`
	Lines     []CartLine  `json:"items"`
	Subtotal  float64     `json:"subtotal"`
	Tax       float64     `json:"tax"`
	Total     float64     `json:"total"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt,omitzero"`
}
