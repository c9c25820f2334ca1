package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bookstore/internal/events"
	"bookstore/internal/logger"
	"bookstore/internal/models"
	"bookstore/internal/policy"
	"bookstore/internal/repositories"
)

// OrderListFilter narrows admin listings; ignored for regular customers,
// who only ever see their own orders.
type OrderListFilter struct {
	CustomerID uuid.UUID
	Status     models.OrderStatus
}

type OrderService interface {
	Checkout(p *policy.Principal) (*models.Order, error)
	List(p *policy.Principal, filter OrderListFilter) ([]models.Order, error)
	Get(p *policy.Principal, id uuid.UUID) (*models.Order, error)
	UpdateStatus(p *policy.Principal, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
}

type orderService struct {
	db           *gorm.DB
	gate         *policy.Gate
	orderRepo    repositories.OrderRepository
	cartRepo     repositories.CartRepository
	customerRepo repositories.CustomerRepository
	publisher    events.Publisher
}

func NewOrderService(
	db *gorm.DB,
	gate *policy.Gate,
	orderRepo repositories.OrderRepository,
	cartRepo repositories.CartRepository,
	customerRepo repositories.CustomerRepository,
	publisher events.Publisher,
) OrderService {
	return &orderService{
		db:           db,
		gate:         gate,
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		customerRepo: customerRepo,
		publisher:    publisher,
	}
}

// Checkout converts the caller's cart into a pending order.
//
// All steps run in one transaction so concurrent checkouts cannot
// double-spend the same cart lines and a crash cannot leave an order
// without items or a drained cart without an order:
//  1. Lock and load the cart lines; refuse an empty cart.
//  2. Create the order in pending status.
//  3. Snapshot each book's title, price and discount into an order item.
//  4. Total = Σ item subtotals, then the order-level discount on top.
//  5. Bump the customer's running total_spent.
//  6. Drain the cart.
//
// The order-created event is emitted after commit, best-effort.
func (s *orderService) Checkout(p *policy.Principal) (*models.Order, error) {
	if err := s.gate.Checkout(p); err != nil {
		return nil, err
	}
	customer := p.Customer

	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		items, err := s.cartRepo.ListByCustomerForUpdate(tx, customer.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		customerID := customer.ID
		order = &models.Order{
			CustomerID:   &customerID,
			CustomerName: customer.User.Username,
			Status:       models.OrderStatusPending,
			Discount:     decimal.Zero,
		}
		if err := s.orderRepo.Create(tx, order); err != nil {
			logger.Log.Errorw("failed to create order", "customer", customer.ID, "error", err)
			return err
		}

		total := decimal.Zero
		for i := range items {
			book := items[i].Book
			bookID := book.ID
			item := &models.OrderItem{
				OrderID:   order.ID,
				BookID:    &bookID,
				BookTitle: book.Title,
				Quantity:  items[i].Quantity,
				Price:     book.Price,
				Discount:  book.Discount,
			}
			item.TotalPrice = item.Subtotal()
			if err := s.orderRepo.CreateItem(tx, item); err != nil {
				logger.Log.Errorw("failed to create order item", "order", order.ID, "book", bookID, "error", err)
				return err
			}
			order.Items = append(order.Items, *item)
			total = total.Add(item.TotalPrice)
		}

		factor := decimal.NewFromInt(1).Sub(order.Discount.Div(decimal.NewFromInt(100)))
		order.TotalPrice = total.Mul(factor)
		if err := s.orderRepo.Save(tx, order); err != nil {
			return err
		}

		if err := s.customerRepo.AddToTotalSpent(tx, customer.ID, order.TotalPrice); err != nil {
			return err
		}

		return s.cartRepo.DeleteByCustomer(tx, customer.ID)
	})
	if err != nil {
		if !errors.Is(err, ErrEmptyCart) {
			logger.Log.Errorw("checkout failed", "customer", customer.ID, "error", err)
		}
		return nil, err
	}

	logger.Log.Infow("order created", "id", order.ID, "customer", customer.ID,
		"items", len(order.Items), "total", order.TotalPrice.StringFixed(2))
	s.publisher.Publish(context.Background(), events.TopicOrders, events.Payload{
		"order_action": "create",
		"order_id":     order.ID.String(),
		"customer_id":  customer.ID.String(),
		"status":       string(order.Status),
		"total_price":  order.TotalPrice.StringFixed(2),
		"discount":     order.Discount.StringFixed(2),
		"created_at":   order.CreatedAt.UTC().Format(time.RFC3339),
	})
	return order, nil
}

// List returns the caller's own orders, or all orders (optionally
// filtered) for admins.
func (s *orderService) List(p *policy.Principal, filter OrderListFilter) ([]models.Order, error) {
	if p.Anonymous() {
		return nil, policy.ErrUnauthenticated
	}
	if !p.IsStaff() {
		if p.Customer == nil {
			return []models.Order{}, nil
		}
		return s.orderRepo.ListByCustomer(nil, p.Customer.ID)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.orderRepo.List(nil, repositories.OrderFilter{
		CustomerID: filter.CustomerID,
		Status:     filter.Status,
	})
}

func (s *orderService) Get(p *policy.Principal, id uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := s.gate.ViewOrder(p, order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus moves an order along the forward-only machine. Admin only.
// Reaching delivered emits one purchase-finalized event per item.
func (s *orderService) UpdateStatus(p *policy.Principal, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if err := s.gate.UpdateOrderStatus(p); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	// Lock the row so two concurrent updates cannot both validate against
	// the same stale status.
	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.GetByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !order.Status.CanTransitionTo(status) {
			return ErrInvalidTransition
		}
		return s.orderRepo.UpdateStatus(tx, order.ID, status)
	})
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) && !errors.Is(err, ErrInvalidTransition) {
			logger.Log.Errorw("failed to update order status", "id", id, "status", status, "error", err)
		}
		return nil, err
	}
	order.Status = status
	logger.Log.Infow("order status updated", "id", id, "status", status)

	if status == models.OrderStatusDelivered {
		now := time.Now().UTC().Format(time.RFC3339)
		for i := range order.Items {
			item := &order.Items[i]
			payload := events.Payload{
				"order_action": "item_delivered",
				"order_id":     order.ID.String(),
				"book_title":   item.BookTitle,
				"quantity":     strconv.Itoa(item.Quantity),
				"price":        item.Price.StringFixed(2),
				"discount":     item.Discount.StringFixed(2),
				"total_price":  item.TotalPrice.StringFixed(2),
				"timestamp":    now,
			}
			if item.BookID != nil {
				payload["book_id"] = item.BookID.String()
			}
			s.publisher.Publish(context.Background(), events.TopicOrders, payload)
		}
	}
	return order, nil
}
