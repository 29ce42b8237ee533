package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baladyapp/balady-backend/internal/cart"
	"github.com/baladyapp/balady-backend/internal/wishlist"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/pagination"
)

type productResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	SaleType      string          `json:"sale_type"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	ImageURL      *string         `json:"image_url,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

type adminProductResponse struct {
	productResponse
	CostPrice decimal.Decimal `json:"cost_price"`
}

func toProductResponse(p *models.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		SaleType:      p.SaleType.String(),
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
	}
}

func toAdminProductResponse(p *models.Product) adminProductResponse {
	return adminProductResponse{
		productResponse: toProductResponse(p),
		CostPrice:       p.CostPrice,
	}
}

type orderItemResponse struct {
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	SaleType        string          `json:"sale_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type paymentResponse struct {
	Method string          `json:"method"`
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
}

type statusHistoryResponse struct {
	OldStatus *string   `json:"old_status"`
	NewStatus string    `json:"new_status"`
	CreatedAt time.Time `json:"created_at"`
}

type shippingResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	City      string `json:"city"`
	Region    string `json:"region"`
	Street    string `json:"street"`
	Phone     string `json:"phone"`
}

type orderResponse struct {
	ID                 uuid.UUID               `json:"id"`
	Status             string                  `json:"status"`
	TotalProductsPrice decimal.Decimal         `json:"total_products_price"`
	ShippingFees       decimal.Decimal         `json:"shipping_fees"`
	DiscountAmount     decimal.Decimal         `json:"discount_amount"`
	FinalTotal         decimal.Decimal         `json:"final_total"`
	Shipping           shippingResponse        `json:"shipping"`
	Items              []orderItemResponse     `json:"items,omitempty"`
	Payment            *paymentResponse        `json:"payment,omitempty"`
	StatusHistory      []statusHistoryResponse `json:"status_history,omitempty"`
	DeliveredAt        *time.Time              `json:"delivered_at,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
}

func toOrderResponse(o *models.Order) orderResponse {
	resp := orderResponse{
		ID:                 o.ID,
		Status:             o.Status.String(),
		TotalProductsPrice: o.TotalProductsPrice,
		ShippingFees:       o.ShippingFees,
		DiscountAmount:     o.DiscountAmount,
		FinalTotal:         o.FinalTotal,
		Shipping: shippingResponse{
			FirstName: o.ShippingFirstName,
			LastName:  o.ShippingLastName,
			City:      o.ShippingCity,
			Region:    o.ShippingRegion,
			Street:    o.ShippingStreet,
			Phone:     o.ShippingPhone,
		},
		DeliveredAt: o.DeliveredAt,
		CreatedAt:   o.CreatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			SaleType:        item.SaleType.String(),
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
			Subtotal:        item.Quantity.Mul(item.PriceAtPurchase).Round(2),
		})
	}
	if o.Payment != nil {
		resp.Payment = &paymentResponse{
			Method: o.Payment.Method.String(),
			Status: o.Payment.Status.String(),
			Amount: o.Payment.Amount,
		}
	}
	for _, h := range o.StatusHistory {
		entry := statusHistoryResponse{
			NewStatus: h.NewStatus.String(),
			CreatedAt: h.CreatedAt,
		}
		if h.OldStatus != nil {
			old := h.OldStatus.String()
			entry.OldStatus = &old
		}
		resp.StatusHistory = append(resp.StatusHistory, entry)
	}
	return resp
}

func toOrderResponses(orders []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out
}

type addressResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	City      string    `json:"city"`
	Region    string    `json:"region"`
	Street    string    `json:"street"`
	Phone     string    `json:"phone"`
	IsDefault bool      `json:"is_default"`
}

func toAddressResponse(a *models.Address) addressResponse {
	return addressResponse{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		City:      a.City,
		Region:    a.Region,
		Street:    a.Street,
		Phone:     a.Phone,
		IsDefault: a.IsDefault,
	}
}

func toAddressResponses(list []models.Address) []addressResponse {
	out := make([]addressResponse, 0, len(list))
	for i := range list {
		out = append(out, toAddressResponse(&list[i]))
	}
	return out
}

type reviewResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toReviewResponse(review *models.Review) reviewResponse {
	return reviewResponse{
		ID:        review.ID,
		ProductID: review.ProductID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		Status:    review.Status.String(),
		CreatedAt: review.CreatedAt,
	}
}

type userResponse struct {
	ID            uuid.UUID `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Phone         string    `json:"phone"`
	PhoneVerified bool      `json:"phone_verified"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:            user.ID,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Phone:         user.Phone,
		PhoneVerified: user.PhoneVerified,
	}
}

type roleResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
}

func toRoleResponse(role *models.Role) roleResponse {
	return roleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Permissions: append([]string{}, role.Permissions...),
	}
}

type cartItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	SaleType  string          `json:"sale_type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	IsActive  bool            `json:"is_active"`
}

type cartResponse struct {
	CartID uuid.UUID          `json:"cart_id"`
	Items  []cartItemResponse `json:"items"`
	Total  decimal.Decimal    `json:"total"`
}

func toCartResponse(view *cart.View) cartResponse {
	resp := cartResponse{CartID: view.CartID, Items: make([]cartItemResponse, 0, len(view.Items)), Total: view.Total}
	for _, item := range view.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			SaleType:  item.SaleType,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
			IsActive:  item.IsActive,
		})
	}
	return resp
}

type wishlistEntryResponse struct {
	Product productResponse `json:"product"`
	AddedAt time.Time       `json:"added_at"`
}

func toWishlistResponse(entries []wishlist.Entry) []wishlistEntryResponse {
	out := make([]wishlistEntryResponse, 0, len(entries))
	for _, entry := range entries {
		product := entry.Product
		out = append(out, wishlistEntryResponse{
			Product: toProductResponse(&product),
			AddedAt: entry.Item.CreatedAt,
		})
	}
	return out
}

type stockTransactionResponse struct {
	QuantityChange decimal.Decimal `json:"quantity_change"`
	Reason         string          `json:"reason"`
	RelatedOrderID *uuid.UUID      `json:"related_order_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toStockTransactionResponses(txns []models.StockTransaction) []stockTransactionResponse {
	out := make([]stockTransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, stockTransactionResponse{
			QuantityChange: txn.QuantityChange,
			Reason:         txn.Reason.String(),
			RelatedOrderID: txn.RelatedOrderID,
			CreatedAt:      txn.CreatedAt,
		})
	}
	return out
}

// pageResponse wraps cursor-paginated collections. NextCursor is set when
// the page is full, pointing at the last returned row.
type pageResponse[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

func paginate[T any, M any](rows []M, params pagination.Params, cursorOf func(M) pagination.Cursor, convert func(M) T) pageResponse[T] {
	limit := pagination.NormalizeLimit(params.Limit)
	page := pageResponse[T]{Items: make([]T, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		page.Items = append(page.Items, convert(row))
	}
	if hasMore && len(rows) > 0 {
		cursor := pagination.EncodeCursor(cursorOf(rows[len(rows)-1]))
		page.NextCursor = &cursor
	}
	return page
}
