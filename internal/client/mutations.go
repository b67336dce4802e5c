package client

import (
	"context"

	"savora/internal/models"
	"savora/internal/pricing"
	"savora/internal/session"
)

// Login signs the customer in and records the credentials. Invalidates:
// Cart, Orders — the previous identity's reads must not survive.
func (c *Client) Login(ctx context.Context, email, password string) (models.User, error) {
	return c.authenticate(ctx, session.ScopeUser, pathUserLogin, models.LoginRequest{
		Email:    email,
		Password: password,
	})
}

// Signup creates a customer account and signs it in. Invalidates: Cart,
// Orders.
func (c *Client) Signup(ctx context.Context, name, email, password string) (models.User, error) {
	return c.authenticate(ctx, session.ScopeUser, pathUserSignup, models.SignupRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
}

// authenticate runs a login or signup round trip for either scope and
// mirrors the outcome into the session store.
func (c *Client) authenticate(ctx context.Context, scope session.Scope, path string, body any) (models.User, error) {
	c.sessions.SetLoading(scope, true)
	defer c.sessions.SetLoading(scope, false)
	c.sessions.ClearError(scope)

	v, err := c.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		var out models.AuthResponse
		if err := c.postJSON(ctx, scope, path, body, &out); err != nil {
			return nil, err
		}
		if err := c.sessions.SetCredentials(scope, out.User, out.Token); err != nil {
			return nil, err
		}
		return out.User, nil
	}, TagCart, TagOrders)
	if err != nil {
		c.sessions.SetError(scope, err.Error())
		return models.User{}, err
	}
	return v.(models.User), nil
}

// Logout clears the customer session and drops identity-bound reads.
func (c *Client) Logout(ctx context.Context) {
	c.sessions.Logout(session.ScopeUser)
	c.cache.Invalidate(ctx, TagCart, TagOrders)
}

// AddToCart puts qty of a product into the cart. Invalidates: Cart.
func (c *Client) AddToCart(ctx context.Context, productID string, qty int) (models.Cart, error) {
	return c.cartMutation(ctx, func(ctx context.Context) (any, error) {
		var out models.CartResponse
		err := c.postJSON(ctx, session.ScopeUser, pathAddToCart, models.AddToCartRequest{
			ProductID: productID,
			Qty:       pricing.ClampQuantity(qty),
		}, &out)
		if err != nil {
			return nil, err
		}
		return out.Cart, nil
	})
}

// UpdateCart sets the quantity of an existing line, floored at 1.
// Removal is RemoveFromCart, never a decrement to zero. Invalidates: Cart.
func (c *Client) UpdateCart(ctx context.Context, productID string, qty int) (models.Cart, error) {
	return c.cartMutation(ctx, func(ctx context.Context) (any, error) {
		var out models.CartResponse
		err := c.patchJSON(ctx, session.ScopeUser, pathUpdateCart, models.UpdateCartRequest{
			ProductID: productID,
			Qty:       pricing.ClampQuantity(qty),
		}, &out)
		if err != nil {
			return nil, err
		}
		return out.Cart, nil
	})
}

// RemoveFromCart deletes a line entirely. Invalidates: Cart.
func (c *Client) RemoveFromCart(ctx context.Context, productID string) (models.Cart, error) {
	return c.cartMutation(ctx, func(ctx context.Context) (any, error) {
		var out models.CartResponse
		err := c.deleteJSON(ctx, session.ScopeUser, pathRemoveFromCart, models.RemoveFromCartRequest{
			ProductID: productID,
		}, &out)
		if err != nil {
			return nil, err
		}
		return out.Cart, nil
	})
}

func (c *Client) cartMutation(ctx context.Context, run func(ctx context.Context) (any, error)) (models.Cart, error) {
	v, err := c.cache.Mutate(ctx, run, TagCart)
	if err != nil {
		return models.Cart{}, err
	}
	return v.(models.Cart), nil
}

// CreateOrder checks out the current cart. Invalidates: Cart, Orders —
// the backend empties the cart when the order is placed.
func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	v, err := c.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		var out models.OrderResponse
		if err := c.postJSON(ctx, session.ScopeUser, pathCreateOrder, req, &out); err != nil {
			return nil, err
		}
		return out.Order, nil
	}, TagCart, TagOrders)
	if err != nil {
		return models.Order{}, err
	}
	return v.(models.Order), nil
}

// CartTotals prices the given cart at the configured tax rate.
func (c *Client) CartTotals(cart models.Cart) pricing.Totals {
	return pricing.ComputeOrderTotals(cart.Lines, c.taxRate)
}
