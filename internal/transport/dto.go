package transport

import "github.com/shopspring/decimal"

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest may be empty when the refresh token travels as a cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Role         string `json:"role"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type StoreRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	ImageURL    string `json:"imageUrl"    validate:"omitempty,url"`
}

type CreateProductRequest struct {
	StoreID     uint            `json:"storeId"     validate:"required"`
	CategoryID  *uint           `json:"categoryId"  validate:"omitempty,gt=0"`
	Name        string          `json:"name"        validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	ImageURL    string          `json:"imageUrl"    validate:"omitempty,url"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"       validate:"gte=0"`
}

type PatchProductRequest struct {
	CategoryID  *uint            `json:"categoryId"  validate:"omitempty,gt=0"`
	Name        *string          `json:"name"        validate:"omitempty,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	ImageURL    *string          `json:"imageUrl"    validate:"omitempty,url"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"       validate:"omitempty,gte=0"`
	Status      *string          `json:"status"      validate:"omitempty,oneof=active inactive"`
}

type AddressRequest struct {
	Street    string `json:"street"    validate:"required,max=200"`
	City      string `json:"city"      validate:"required,max=100"`
	State     string `json:"state"     validate:"max=100"`
	ZipCode   string `json:"zipCode"   validate:"max=20"`
	Country   string `json:"country"   validate:"required,max=100"`
	IsDefault bool   `json:"isDefault"`
}

type CartItemRequest struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity"  validate:"gte=1"`
}

type PlaceOrderItem struct {
	ProductID    uint            `json:"productId"    validate:"required"`
	Quantity     int             `json:"quantity"     validate:"gte=1"`
	PriceAtOrder decimal.Decimal `json:"priceAtOrder"`
}

type PlaceOrderRequest struct {
	StoreID   uint             `json:"storeId"   validate:"required"`
	AddressID uint             `json:"addressId" validate:"required"`
	Items     []PlaceOrderItem `json:"items"     validate:"required,min=1,dive"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type PatchStoreRequest struct {
	Name        *string `json:"name"        validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"imageUrl"    validate:"omitempty,url"`
}

type PatchAddressRequest struct {
	Street    *string `json:"street"    validate:"omitempty,max=200"`
	City      *string `json:"city"      validate:"omitempty,max=100"`
	State     *string `json:"state"     validate:"omitempty,max=100"`
	ZipCode   *string `json:"zipCode"   validate:"omitempty,max=20"`
	Country   *string `json:"country"   validate:"omitempty,max=100"`
	IsDefault *bool   `json:"isDefault"`
}

// CartQuantityRequest sets an absolute quantity; 0 drops the line.
type CartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=500"`
}
