package commerce

// Product is a catalog entry. Price is in whole yen.
type Product struct {
	ID          int64   `json:"id"`
	CategoryID  int64   `json:"category_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       int64   `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    *string `json:"image_url"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CartItem is a cart line with the product fields denormalized into it.
type CartItem struct {
	ID         int64   `json:"id"`
	ProductID  int64   `json:"product_id"`
	Quantity   int     `json:"quantity"`
	Name       string  `json:"name"`
	Price      int64   `json:"price"`
	ImageURL   *string `json:"image_url"`
	Stock      int     `json:"stock"`
	TotalPrice int64   `json:"total_price"`
}

// Order is read-only once created. CreatedAt is kept as sent; the API
// does not always include a zone offset.
type Order struct {
	ID          int64         `json:"id"`
	OrderNumber string        `json:"order_number"`
	Status      string        `json:"status"`
	TotalAmount int64         `json:"total_amount"`
	CreatedAt   string        `json:"created_at"`
	Details     []OrderDetail `json:"details"`
}

type OrderDetail struct {
	ID              int64   `json:"id"`
	ProductID       int64   `json:"product_id"`
	Quantity        int     `json:"quantity"`
	Price           int64   `json:"price"`
	ProductName     string  `json:"product_name"`
	ProductImageURL *string `json:"product_image_url"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID UserID `json:"userId"`
}

type AddToCartRequest struct {
	UserID    UserID `json:"user_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// ShippingDetails is the payment and delivery part of an order.
type ShippingDetails struct {
	PaymentMethod      string `json:"payment_method"`
	ShippingName       string `json:"shipping_name"`
	ShippingPostalCode string `json:"shipping_postal_code"`
	ShippingAddress    string `json:"shipping_address"`
	ShippingPhone      string `json:"shipping_phone"`
}

type CreateOrderRequest struct {
	UserID UserID `json:"user_id"`
	ShippingDetails
}
