package client

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/url"
	"strconv"

	"savora/internal/cache"
	"savora/internal/models"
	"savora/internal/session"
	"savora/pkg/apierrors"
)

const (
	pathAdminLogin        = "/admin/login"
	pathAdminSignup       = "/admin/signUp"
	pathAdminCreateProd   = "/admin/createProduct"
	pathAdminAllProducts  = "/admin/getAllProducts"
	pathAdminUpdateProd   = "/admin/updateProduct/"
	pathAdminDeleteProds  = "/admin/deleteProducts"
	pathAdminByCategory   = "/admin/getByCategory"
	pathAdminCategories   = "/admin/categories"
	pathAdminAllOrders    = "/admin/getAllOrders"
	pathAdminUpdateOrders = "/admin/updateOrders/"
	pathAdminAllUsers     = "/admin/getAllUsers"
)

// AdminLogin signs the back-office identity in. Independent of the
// customer session. Invalidates: Orders, Users.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (models.User, error) {
	return c.adminAuthenticate(ctx, pathAdminLogin, models.LoginRequest{Email: email, Password: password})
}

// AdminSignup registers a back-office account and signs it in.
func (c *Client) AdminSignup(ctx context.Context, name, email, password string) (models.User, error) {
	return c.adminAuthenticate(ctx, pathAdminSignup, models.SignupRequest{Name: name, Email: email, Password: password})
}

func (c *Client) adminAuthenticate(ctx context.Context, path string, body any) (models.User, error) {
	scope := session.ScopeAdmin
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
	}, TagOrders, TagUsers)
	if err != nil {
		c.sessions.SetError(scope, err.Error())
		return models.User{}, err
	}
	return v.(models.User), nil
}

// AdminLogout clears the back-office session.
func (c *Client) AdminLogout(ctx context.Context) {
	c.sessions.Logout(session.ScopeAdmin)
	c.cache.Invalidate(ctx, TagOrders, TagUsers)
}

// AdminProducts lists the catalog for the back office. Provides: Products.
func (c *Client) AdminProducts(ctx context.Context) ([]models.Product, error) {
	key := cache.NewKey(pathAdminAllProducts, nil)
	return queryAs[[]models.Product](ctx, c, key, []cache.Tag{TagProducts}, func(ctx context.Context) (any, error) {
		var out models.ProductsResponse
		if err := c.get(ctx, session.ScopeAdmin, pathAdminAllProducts, nil, &out); err != nil {
			return nil, err
		}
		return out.Products, nil
	})
}

// AdminProductsByCategory filters the catalog. Provides: Products.
func (c *Client) AdminProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	key := cache.NewKey(pathAdminByCategory, map[string]string{"category": category})
	return queryAs[[]models.Product](ctx, c, key, []cache.Tag{TagProducts}, func(ctx context.Context) (any, error) {
		query := url.Values{"category": []string{category}}
		var out models.ProductsResponse
		if err := c.get(ctx, session.ScopeAdmin, pathAdminByCategory, query, &out); err != nil {
			return nil, err
		}
		return out.Products, nil
	})
}

// CreateProduct uploads a new menu item as multipart/form-data, the one
// non-JSON request on the wire. Invalidates: Products.
func (c *Client) CreateProduct(ctx context.Context, form models.CreateProductForm) (models.Product, error) {
	v, err := c.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		body, contentType, err := encodeProductForm(form)
		if err != nil {
			return nil, err
		}
		var out models.ProductResponse
		if err := c.do(ctx, session.ScopeAdmin, "POST", pathAdminCreateProd, nil, body, contentType, &out); err != nil {
			return nil, err
		}
		return out.Product, nil
	}, TagProducts)
	if err != nil {
		return models.Product{}, err
	}
	return v.(models.Product), nil
}

func encodeProductForm(form models.CreateProductForm) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := map[string]string{
		"name":        form.Name,
		"description": form.Description,
		"price":       strconv.FormatFloat(form.Price, 'f', -1, 64),
		"category":    form.CategoryID,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", apierrors.Wrap(err, apierrors.CodeInternal, "encode product form")
		}
	}
	if len(form.Image) > 0 {
		name := form.ImageName
		if name == "" {
			name = "image"
		}
		part, err := w.CreateFormFile("image", name)
		if err != nil {
			return nil, "", apierrors.Wrap(err, apierrors.CodeInternal, "encode product image")
		}
		if _, err := part.Write(form.Image); err != nil {
			return nil, "", apierrors.Wrap(err, apierrors.CodeInternal, "encode product image")
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", apierrors.Wrap(err, apierrors.CodeInternal, "finish product form")
	}
	return buf, w.FormDataContentType(), nil
}

// UpdateProduct patches an existing item. Invalidates: Products.
func (c *Client) UpdateProduct(ctx context.Context, id string, req models.UpdateProductRequest) (models.Product, error) {
	v, err := c.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		var out models.ProductResponse
		if err := c.patchJSON(ctx, session.ScopeAdmin, pathAdminUpdateProd+id, req, &out); err != nil {
			return nil, err
		}
		return out.Product, nil
	}, TagProducts)
	if err != nil {
		return models.Product{}, err
	}
	return v.(models.Product), nil
}

// DeleteProducts removes items by id in one call. Invalidates: Products.
func (c *Client) DeleteProducts(ctx context.Context, ids []string) error {
	_, err := c.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		var out models.MessageResponse
		err := c.deleteJSON(ctx, session.ScopeAdmin, pathAdminDeleteProds, models.DeleteProductsRequest{IDs: ids}, &out)
		return out, err
	}, TagProducts)
	return err
}

// AdminCategories lists menu sections. Provides: Categories.
func (c *Client) AdminCategories(ctx context.Context) ([]models.Category, error) {
	key := cache.NewKey(pathAdminCategories, nil)
	return queryAs[[]models.Category](ctx, c, key, []cache.Tag{TagCategories}, func(ctx context.Context) (any, error) {
		var out models.CategoriesResponse
		if err := c.get(ctx, session.ScopeAdmin, pathAdminCategories, nil, &out); err != nil {
			return nil, err
		}
		return out.Categories, nil
	})
}

// AdminCategory fetches one section by id. Provides: Categories.
func (c *Client) AdminCategory(ctx context.Context, id string) (models.Category, error) {
	key := cache.NewKey(pathAdminCategories+"/:id", map[string]string{"id": id})
	return queryAs[models.Category](ctx, c, key, []cache.Tag{TagCategories}, func(ctx context.Context) (any, error) {
		var out models.CategoryResponse
		if err := c.get(ctx, session.ScopeAdmin, pathAdminCategories+"/"+id, nil, &out); err != nil {
			return models.Category{}, err
		}
		return out.Category, nil
	})
}

// CreateCategory adds a menu section. Invalidates: Categories and
// Products — products embed their category.
func (c *Client) CreateCategory(ctx context.Context, req models.CategoryRequest) (models.Category, error) {
	v, err := c.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		var out models.CategoryResponse
		if err := c.postJSON(ctx, session.ScopeAdmin, pathAdminCategories, req, &out); err != nil {
			return nil, err
		}
		return out.Category, nil
	}, TagCategories, TagProducts)
	if err != nil {
		return models.Category{}, err
	}
	return v.(models.Category), nil
}

// UpdateCategory renames a section. Invalidates: Categories, Products.
func (c *Client) UpdateCategory(ctx context.Context, id string, req models.CategoryRequest) (models.Category, error) {
	v, err := c.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		var out models.CategoryResponse
		if err := c.patchJSON(ctx, session.ScopeAdmin, pathAdminCategories+"/"+id, req, &out); err != nil {
			return nil, err
		}
		return out.Category, nil
	}, TagCategories, TagProducts)
	if err != nil {
		return models.Category{}, err
	}
	return v.(models.Category), nil
}

// DeleteCategory removes a section. Invalidates: Categories, Products.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	_, err := c.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		var out models.MessageResponse
		err := c.deleteJSON(ctx, session.ScopeAdmin, pathAdminCategories+"/"+id, nil, &out)
		return out, err
	}, TagCategories, TagProducts)
	return err
}

// AdminOrders lists every order. Provides: Orders.
func (c *Client) AdminOrders(ctx context.Context) ([]models.Order, error) {
	key := cache.NewKey(pathAdminAllOrders, nil)
	return queryAs[[]models.Order](ctx, c, key, []cache.Tag{TagOrders}, func(ctx context.Context) (any, error) {
		var out models.OrdersResponse
		if err := c.get(ctx, session.ScopeAdmin, pathAdminAllOrders, nil, &out); err != nil {
			return nil, err
		}
		return out.Orders, nil
	})
}

// UpdateOrderStatus advances an order through the kitchen. Invalidates:
// Orders.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	v, err := c.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		var out models.OrderResponse
		err := c.patchJSON(ctx, session.ScopeAdmin, pathAdminUpdateOrders+id, models.UpdateOrderStatusRequest{Status: status}, &out)
		if err != nil {
			return nil, err
		}
		return out.Order, nil
	}, TagOrders)
	if err != nil {
		return models.Order{}, err
	}
	return v.(models.Order), nil
}

// AdminUsers lists customer accounts. Provides: Users.
func (c *Client) AdminUsers(ctx context.Context) ([]models.User, error) {
	key := cache.NewKey(pathAdminAllUsers, nil)
	return queryAs[[]models.User](ctx, c, key, []cache.Tag{TagUsers}, func(ctx context.Context) (any, error) {
		var out models.UsersResponse
		if err := c.get(ctx, session.ScopeAdmin, pathAdminAllUsers, nil, &out); err != nil {
			return nil, err
		}
		return out.Users, nil
	})
}
