package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bookstore/internal/events"
	"bookstore/internal/logger"
	"bookstore/internal/models"
	"bookstore/internal/policy"
	"bookstore/internal/repositories"
)

func init() {
	logger.InitDev()
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_fk=1"), &gorm.Config{})
	require.NoError(t, err)

	// a single connection keeps the in-memory database alive across
	// transactions
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

type fixture struct {
	db       *gorm.DB
	gate     *policy.Gate
	recorder *events.Recorder

	userRepo     repositories.UserRepository
	bookRepo     repositories.BookRepository
	customerRepo repositories.CustomerRepository
	reviewRepo   repositories.ReviewRepository
	cartRepo     repositories.CartRepository
	orderRepo    repositories.OrderRepository

	catalog  CatalogService
	customer CustomerService
	cart     CartService
	order    OrderService
	review   ReviewService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	f := &fixture{
		db:           db,
		gate:         policy.NewGate(),
		recorder:     events.NewRecorder(),
		userRepo:     repositories.NewUserRepository(db),
		bookRepo:     repositories.NewBookRepository(db),
		customerRepo: repositories.NewCustomerRepository(db),
		reviewRepo:   repositories.NewReviewRepository(db),
		cartRepo:     repositories.NewCartRepository(db),
		orderRepo:    repositories.NewOrderRepository(db),
	}
	f.catalog = NewCatalogService(f.gate, f.bookRepo)
	f.customer = NewCustomerService(db, f.gate, f.userRepo, f.customerRepo, f.recorder)
	f.cart = NewCartService(db, f.gate, f.cartRepo, f.bookRepo, f.customerRepo)
	f.order = NewOrderService(db, f.gate, f.orderRepo, f.cartRepo, f.customerRepo, f.recorder)
	f.review = NewReviewService(f.gate, f.reviewRepo, f.bookRepo, f.customerRepo)
	return f
}

// newCustomer creates a user with a profile and returns its principal.
func (f *fixture) newCustomer(t *testing.T, username, phone string) *policy.Principal {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, f.userRepo.Create(nil, user))
	customer := &models.Customer{UserID: user.ID, Phone: phone}
	require.NoError(t, f.customerRepo.Create(nil, customer))
	customer.User = *user
	return &policy.Principal{User: user, Customer: customer}
}

// newAdmin creates a staff user without a customer profile.
func (f *fixture) newAdmin(t *testing.T, username string) *policy.Principal {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x", IsStaff: true}
	require.NoError(t, f.userRepo.Create(nil, user))
	return &policy.Principal{User: user}
}

func (f *fixture) newBook(t *testing.T, title, price, discount string, stock int) *models.Book {
	t.Helper()
	book := &models.Book{
		Title:    title,
		Author:   "Author",
		Genre:    "Fiction",
		Price:    decimal.RequireFromString(price),
		Discount: decimal.RequireFromString(discount),
		Stock:    stock,
	}
	require.NoError(t, f.bookRepo.Create(nil, book))
	return book
}

// reloadPrincipal refreshes the profile attached to a principal, picking
// up counters updated through raw SQL expressions.
func (f *fixture) reloadPrincipal(t *testing.T, p *policy.Principal) {
	t.Helper()
	customer, err := f.customerRepo.GetByID(nil, p.Customer.ID)
	require.NoError(t, err)
	p.Customer = customer
}
