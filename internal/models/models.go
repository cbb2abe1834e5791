package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type User struct {
	ID           uint      `gorm:"primaryKey"                  json:"id"`
	Name         string    `gorm:"not null"                    json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"        json:"email"`
	PasswordHash string    `gorm:"not null"                    json:"-"`
	Role         string    `gorm:"not null;default:customer"   json:"role"`
	Status       string    `gorm:"not null;default:active"     json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey"           json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

type Store struct {
	ID          uint      `gorm:"primaryKey"              json:"id"`
	Name        string    `gorm:"not null"                json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	OwnerID     uint      `gorm:"index;not null"          json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID"      json:"owner,omitempty"`
	Status      string    `gorm:"not null;default:active" json:"status"`
	Products    []Product `gorm:"foreignKey:StoreID"      json:"products,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey"                                  json:"id"`
	Name        string          `gorm:"not null;index"                              json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"                 json:"price"`
	Stock       int             `gorm:"not null;default:0;check:chk_products_stock,stock >= 0" json:"stock"`
	StoreID     uint            `gorm:"index;not null"                              json:"store_id"`
	Store       *Store          `gorm:"foreignKey:StoreID;constraint:OnDelete:RESTRICT" json:"store,omitempty"`
	CategoryID  *uint           `gorm:"index"                                       json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID"                       json:"category,omitempty"`
	Status      string          `gorm:"not null;default:active"                     json:"status"`
	Reviews     []ProductReview `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
	// AverageRating is filled in on single-product reads only.
	AverageRating *float64      `gorm:"-"                                           json:"average_rating,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)

type ProductReview struct {
	ID        uint      `gorm:"primaryKey"                                  json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_user_product;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID"                           json:"user,omitempty"`
	ProductID uint      `gorm:"uniqueIndex:idx_review_user_product;index;not null" json:"product_id"`
	Rating    int       `gorm:"not null;check:chk_reviews_rating,rating BETWEEN 1 AND 5" json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type Address struct {
	ID        uint      `gorm:"primaryKey"     json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Street    string    `gorm:"not null"       json:"street"`
	City      string    `gorm:"not null"       json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zip_code"`
	Country   string    `gorm:"not null"       json:"country"`
	IsDefault bool      `gorm:"default:false"  json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is the single-line form copied onto an order.
func (a *Address) Snapshot() string {
	return a.Street + ", " + a.City + ", " + a.State + " " + a.ZipCode + ", " + a.Country
}

type Order struct {
	ID              uint            `gorm:"primaryKey"                     json:"id"`
	UserID          uint            `gorm:"index;not null"                 json:"user_id"`
	Buyer           *User           `gorm:"foreignKey:UserID"              json:"buyer,omitempty"`
	StoreID         uint            `gorm:"index;not null"                 json:"store_id"`
	Store           *Store          `gorm:"foreignKey:StoreID"             json:"store,omitempty"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null"    json:"total_amount"`
	DeliveryAddress string          `gorm:"not null"                       json:"delivery_address"`
	Status          string          `gorm:"not null;index"                 json:"status"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID           uint            `gorm:"primaryKey"                               json:"id"`
	OrderID      uint            `gorm:"index;not null"                           json:"order_id"`
	ProductID    uint            `gorm:"index;not null"                           json:"product_id"`
	Product      *Product        `gorm:"foreignKey:ProductID"                     json:"product,omitempty"`
	Quantity     int             `gorm:"not null;check:chk_order_items_qty,quantity >= 1" json:"quantity"`
	PriceAtOrder decimal.Decimal `gorm:"type:numeric(12,2);not null"              json:"price_at_order"`
}

const EntityOrder = "Order"

const (
	NotifyOrderConfirmation = "order_confirmation"
	NotifyNewOrder          = "new_order"
	NotifyOrderStatusUpdate = "order_status_update"
	NotifyOrderCancelled    = "order_cancelled"
	NotifyAdminAlert        = "admin_alert"
)

type Notification struct {
	ID                uint      `gorm:"primaryKey"     json:"id"`
	UserID            uint      `gorm:"index;not null" json:"user_id"`
	Type              string    `gorm:"not null"       json:"type"`
	Message           string    `gorm:"not null"       json:"message"`
	RelatedEntityID   uint      `json:"related_entity_id"`
	RelatedEntityType string    `json:"related_entity_type"`
	IsRead            bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt         time.Time `json:"created_at"`
}

type CartItem struct {
	ID        uint     `gorm:"primaryKey"                            json:"id"`
	UserID    uint     `gorm:"uniqueIndex:idx_cart_user_product;not null" json:"user_id"`
	ProductID uint     `gorm:"uniqueIndex:idx_cart_user_product;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID"                  json:"product,omitempty"`
	Quantity  int      `gorm:"not null;default:1;check:chk_cart_qty,quantity > 0" json:"quantity"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"          json:"id"`
	UserID    uint      `gorm:"index;not null"      json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"`
	ExpiresAt time.Time `gorm:"not null"            json:"expires_at"`
	Revoked   bool      `gorm:"default:false"       json:"revoked"`
}
