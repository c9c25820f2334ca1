package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bookstore/internal/logger"
	"bookstore/internal/models"
	"bookstore/internal/policy"
	"bookstore/internal/repositories"
)

// CartLine is a cart item priced from the current catalog state. Unlike
// order items, nothing here is snapshotted: the displayed price tracks
// whatever deal the book carries right now.
type CartLine struct {
	ID         uuid.UUID       `json:"id"`
	BookID     uuid.UUID       `json:"book_id"`
	BookTitle  string          `json:"book_title"`
	BookPrice  decimal.Decimal `json:"book_price"`
	Quantity   int             `json:"quantity"`
	Discount   decimal.Decimal `json:"discount"`
	TotalPrice decimal.Decimal `json:"total_price"`
	AddedAt    time.Time       `json:"added_at"`
}

type CartService interface {
	Add(p *policy.Principal, bookID uuid.UUID, qty int) (*CartLine, error)
	SetQuantity(p *policy.Principal, itemID uuid.UUID, qty int) (*CartLine, error)
	Remove(p *policy.Principal, itemID uuid.UUID) error
	Clear(p *policy.Principal) error
	List(p *policy.Principal) ([]CartLine, error)
	CustomerCart(p *policy.Principal, customerID uuid.UUID) ([]CartLine, error)
}

type cartService struct {
	db           *gorm.DB
	gate         *policy.Gate
	cartRepo     repositories.CartRepository
	bookRepo     repositories.BookRepository
	customerRepo repositories.CustomerRepository
}

func NewCartService(
	db *gorm.DB,
	gate *policy.Gate,
	cartRepo repositories.CartRepository,
	bookRepo repositories.BookRepository,
	customerRepo repositories.CustomerRepository,
) CartService {
	return &cartService{
		db:           db,
		gate:         gate,
		cartRepo:     cartRepo,
		bookRepo:     bookRepo,
		customerRepo: customerRepo,
	}
}

// priceLine computes the live total: price * quantity * (1 - discount/100).
func priceLine(item *models.CartItem, book *models.Book) CartLine {
	factor := decimal.NewFromInt(1).Sub(book.Discount.Div(decimal.NewFromInt(100)))
	total := book.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Mul(factor)
	return CartLine{
		ID:         item.ID,
		BookID:     book.ID,
		BookTitle:  book.Title,
		BookPrice:  book.Price,
		Quantity:   item.Quantity,
		Discount:   book.Discount,
		TotalPrice: total,
		AddedAt:    item.AddedAt,
	}
}

// Add puts a book into the caller's cart. Adding a book already present
// merges into the existing line by incrementing its quantity; a fresh line
// always starts at quantity 1.
func (s *cartService) Add(p *policy.Principal, bookID uuid.UUID, qty int) (*CartLine, error) {
	if err := s.gate.MutateCart(p, p.CustomerID()); err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	book, err := s.bookRepo.GetByID(nil, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	customerID := p.Customer.ID
	item, err := s.cartRepo.GetByCustomerAndBook(nil, customerID, bookID)
	switch {
	case err == nil:
		item.Quantity += qty
		if err := s.cartRepo.Save(nil, item); err != nil {
			logger.Log.Errorw("failed to merge cart line", "customer", customerID, "book", bookID, "error", err)
			return nil, err
		}
		logger.Log.Infow("cart line merged", "customer", customerID, "book", bookID, "quantity", item.Quantity)
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = &models.CartItem{
			CustomerID: customerID,
			BookID:     bookID,
			Quantity:   1,
		}
		if err := s.cartRepo.Create(nil, item); err != nil {
			logger.Log.Errorw("failed to create cart line", "customer", customerID, "book", bookID, "error", err)
			return nil, err
		}
	default:
		return nil, err
	}

	line := priceLine(item, book)
	return &line, nil
}

// SetQuantity overwrites a line's quantity; only the owning customer may
// do so, and the quantity must stay at least 1.
func (s *cartService) SetQuantity(p *policy.Principal, itemID uuid.UUID, qty int) (*CartLine, error) {
	item, err := s.cartRepo.GetByID(nil, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	if err := s.gate.MutateCart(p, item.CustomerID); err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	item.Quantity = qty
	if err := s.cartRepo.Save(nil, item); err != nil {
		logger.Log.Errorw("failed to update cart quantity", "item", itemID, "error", err)
		return nil, err
	}
	line := priceLine(item, &item.Book)
	return &line, nil
}

func (s *cartService) Remove(p *policy.Principal, itemID uuid.UUID) error {
	item, err := s.cartRepo.GetByID(nil, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		return err
	}
	if err := s.gate.MutateCart(p, item.CustomerID); err != nil {
		return err
	}
	return s.cartRepo.Delete(nil, item.ID)
}

// Clear removes every line in the caller's cart.
func (s *cartService) Clear(p *policy.Principal) error {
	if p.Anonymous() {
		return policy.ErrUnauthenticated
	}
	if p.Customer == nil {
		return policy.ErrForbidden
	}
	if err := s.gate.MutateCart(p, p.Customer.ID); err != nil {
		return err
	}
	return s.cartRepo.DeleteByCustomer(nil, p.Customer.ID)
}

func (s *cartService) List(p *policy.Principal) ([]CartLine, error) {
	if p.Anonymous() {
		return nil, policy.ErrUnauthenticated
	}
	if p.Customer == nil {
		return []CartLine{}, nil
	}
	return s.listFor(p, p.Customer.ID)
}

// CustomerCart is the admin lookup of another customer's cart. Read-only:
// the mutation policy never passes for a non-owner. The policy check runs
// before the existence lookup so unauthorized callers cannot probe for
// valid customer ids.
func (s *cartService) CustomerCart(p *policy.Principal, customerID uuid.UUID) ([]CartLine, error) {
	if err := s.gate.ViewCart(p, customerID); err != nil {
		return nil, err
	}
	if _, err := s.customerRepo.GetByID(nil, customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return s.listFor(p, customerID)
}

func (s *cartService) listFor(p *policy.Principal, customerID uuid.UUID) ([]CartLine, error) {
	if err := s.gate.ViewCart(p, customerID); err != nil {
		return nil, err
	}
	items, err := s.cartRepo.ListByCustomer(nil, customerID)
	if err != nil {
		return nil, err
	}
	lines := make([]CartLine, 0, len(items))
	for i := range items {
		lines = append(lines, priceLine(&items[i], &items[i].Book))
	}
	return lines, nil
}
