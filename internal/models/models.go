package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusProcessed OrderStatus = "processed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

// CanTransitionTo implements the forward-only status machine:
// pending → processed → shipped → delivered, with canceled reachable from
// any non-terminal state. Backward moves are never allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.Valid() || s.Terminal() {
		return false
	}
	if next == OrderStatusCanceled {
		return true
	}
	rank := map[OrderStatus]int{
		OrderStatusPending:   0,
		OrderStatusProcessed: 1,
		OrderStatusShipped:   2,
		OrderStatusDelivered: 3,
	}
	from, ok := rank[s]
	if !ok {
		return false
	}
	to, ok := rank[next]
	if !ok {
		return false
	}
	return to == from+1
}

// User is an authentication identity. Customers hold exactly one profile
// referencing their user; staff users carry elevated privileges.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	DateJoined   time.Time `gorm:"not null" json:"date_joined"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	return nil
}

type Book struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Author      string          `gorm:"size:255;not null" json:"author"`
	Description string          `gorm:"size:500" json:"description"`
	Synopsis    string          `gorm:"size:500" json:"synopsis"`
	Genre       string          `gorm:"size:50" json:"genre"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Discount    decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount"`
	Stock       int             `gorm:"not null;check:stock >= 0" json:"stock"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type Customer struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User       User            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Phone      string          `gorm:"size:20;uniqueIndex;not null" json:"phone_number"`
	Address    string          `gorm:"size:500" json:"address"`
	TotalSpent decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_spent"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_book" json:"book_id"`
	Book      Book      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_book" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string    `gorm:"size:2000" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CartItem is one line of a customer's cart. Pricing is never stored here:
// list endpoints read unit price and discount from the current Book row.
type CartItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_customer_book" json:"customer_id"`
	Customer   Customer  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	BookID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_customer_book" json:"book_id"`
	Book       Book      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Quantity   int       `gorm:"not null;check:quantity >= 1" json:"quantity"`
	AddedAt    time.Time `gorm:"not null" json:"added_at"`
}

func (ci *CartItem) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	if ci.AddedAt.IsZero() {
		ci.AddedAt = time.Now().UTC()
	}
	return nil
}

// Order is an immutable snapshot of a cart at checkout time. The customer
// reference is nullable so order history survives profile deletion; the
// customer's name is duplicated for the same reason.
type Order struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID   *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id"`
	Customer     *Customer       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	CustomerName string          `gorm:"size:255" json:"customer_name"`
	Status       OrderStatus     `gorm:"size:20;not null;default:pending" json:"status"`
	TotalPrice   decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"total_price"`
	Discount     decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount"`
	Items        []OrderItem     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem freezes the book's title, unit price and discount at checkout.
// Later catalog edits never touch these fields.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	BookID     *uuid.UUID      `gorm:"type:uuid;index" json:"book_id"`
	Book       *Book           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	BookTitle  string          `gorm:"size:255;not null" json:"book_title"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Discount   decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_price"`
}

func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}

// Subtotal computes price * quantity * (1 - discount/100).
func (oi *OrderItem) Subtotal() decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(oi.Discount.Div(decimal.NewFromInt(100)))
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity))).Mul(factor)
}

// AllModels is the migration set, ordered so foreign keys resolve.
func AllModels() []any {
	return []any{
		&User{}, &Book{}, &Customer{}, &Review{}, &CartItem{}, &Order{}, &OrderItem{},
	}
}
