package client

import (
	"context"
	"net/url"

	"savora/internal/cache"
	"savora/internal/models"
	"savora/internal/session"
)

// Endpoint paths, client side of the wire contract.
const (
	pathAllProducts    = "/users/get-all-products"
	pathProductByID    = "/users/products/"
	pathByCategory     = "/users/getByCategory"
	pathCategories     = "/users/categories"
	pathCart           = "/users/get-cart"
	pathAddToCart      = "/users/addToCart"
	pathUpdateCart     = "/users/updateCart"
	pathRemoveFromCart = "/users/removeFromCart"
	pathCreateOrder    = "/users/createOrder"
	pathUserLogin      = "/users/login"
	pathUserSignup     = "/users/signUp"
)

// Products returns the full menu. Provides: Products.
func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	key := cache.NewKey(pathAllProducts, nil)
	return queryAs[[]models.Product](ctx, c, key, []cache.Tag{TagProducts}, func(ctx context.Context) (any, error) {
		var out models.ProductsResponse
		if err := c.get(ctx, session.ScopeUser, pathAllProducts, nil, &out); err != nil {
			return nil, err
		}
		return out.Products, nil
	})
}

// Product returns one menu item by id. Provides: Products.
func (c *Client) Product(ctx context.Context, id string) (models.Product, error) {
	key := cache.NewKey(pathProductByID, map[string]string{"id": id})
	return queryAs[models.Product](ctx, c, key, []cache.Tag{TagProducts}, func(ctx context.Context) (any, error) {
		var out models.ProductResponse
		if err := c.get(ctx, session.ScopeUser, pathProductByID+id, nil, &out); err != nil {
			return models.Product{}, err
		}
		return out.Product, nil
	})
}

// ProductsByCategory filters the menu server-side. Provides: Products.
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	key := cache.NewKey(pathByCategory, map[string]string{"category": category})
	return queryAs[[]models.Product](ctx, c, key, []cache.Tag{TagProducts}, func(ctx context.Context) (any, error) {
		query := url.Values{"category": []string{category}}
		var out models.ProductsResponse
		if err := c.get(ctx, session.ScopeUser, pathByCategory, query, &out); err != nil {
			return nil, err
		}
		return out.Products, nil
	})
}

// Categories returns the menu sections. Provides: Categories.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	key := cache.NewKey(pathCategories, nil)
	return queryAs[[]models.Category](ctx, c, key, []cache.Tag{TagCategories}, func(ctx context.Context) (any, error) {
		var out models.CategoriesResponse
		if err := c.get(ctx, session.ScopeUser, pathCategories, nil, &out); err != nil {
			return nil, err
		}
		return out.Categories, nil
	})
}

// Cart returns the signed-in customer's cart. Provides: Cart.
func (c *Client) Cart(ctx context.Context) (models.Cart, error) {
	key := cache.NewKey(pathCart, nil)
	return queryAs[models.Cart](ctx, c, key, []cache.Tag{TagCart}, c.fetchCart)
}

func (c *Client) fetchCart(ctx context.Context) (any, error) {
	var out models.CartResponse
	if err := c.get(ctx, session.ScopeUser, pathCart, nil, &out); err != nil {
		return models.Cart{}, err
	}
	return out.Cart, nil
}

// WatchCart subscribes to cart changes: onChange fires with the fresh cart
// after every cart-invalidating mutation. Callers must Unsubscribe.
func (c *Client) WatchCart(onChange func(models.Cart, error)) *cache.Subscription {
	key := cache.NewKey(pathCart, nil)
	return c.cache.Subscribe(key, []cache.Tag{TagCart}, c.fetchCart, func(res cache.Result) {
		if res.Err != nil {
			onChange(models.Cart{}, res.Err)
			return
		}
		cart, ok := res.Data.(models.Cart)
		if !ok {
			return
		}
		onChange(cart, nil)
	})
}
