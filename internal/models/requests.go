package models

// Request bodies sent to the backend. Field names follow the wire format;
// validation stays in the form layer, these are plain carriers.

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type UpdateCartRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type RemoveFromCartRequest struct {
	ProductID string `json:"productId"`
}

type CreateOrderRequest struct {
	Address string `json:"address,omitempty"`
	Note    string `json:"note,omitempty"`
}

// CreateProductForm carries the multipart fields for product creation.
// The image travels as a file part named "image".
type CreateProductForm struct {
	Name        string
	Description string
	Price       float64
	CategoryID  string
	ImageName   string
	Image       []byte
}

type UpdateProductRequest struct {
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
	CategoryID  string  `json:"category,omitempty"`
	InStock     *bool   `json:"inStock,omitempty"`
}

type DeleteProductsRequest struct {
	IDs []string `json:"ids"`
}

type CategoryRequest struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}
