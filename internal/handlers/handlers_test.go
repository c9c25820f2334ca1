package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bookstore/internal/auth"
	"bookstore/internal/events"
	"bookstore/internal/logger"
	"bookstore/internal/models"
	"bookstore/internal/policy"
	"bookstore/internal/repositories"
	"bookstore/internal/services"
)

func init() {
	logger.InitDev()
	gin.SetMode(gin.TestMode)
}

type env struct {
	router   *gin.Engine
	db       *gorm.DB
	tokens   *auth.Manager
	recorder *events.Recorder

	userRepo     repositories.UserRepository
	customerRepo repositories.CustomerRepository
	bookRepo     repositories.BookRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_fk=1"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	userRepo := repositories.NewUserRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	cartRepo := repositories.NewCartRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	gate := policy.NewGate()
	recorder := events.NewRecorder()
	tokens := auth.NewManager("test-secret", time.Hour, 24*time.Hour)

	router := gin.New()
	router.Use(auth.Middleware(tokens, userRepo, customerRepo))
	RegisterRoutes(router, Services{
		Auth:     services.NewAuthService(tokens, userRepo),
		Catalog:  services.NewCatalogService(gate, bookRepo),
		Customer: services.NewCustomerService(db, gate, userRepo, customerRepo, recorder),
		Cart:     services.NewCartService(db, gate, cartRepo, bookRepo, customerRepo),
		Order:    services.NewOrderService(db, gate, orderRepo, cartRepo, customerRepo, recorder),
		Review:   services.NewReviewService(gate, reviewRepo, bookRepo, customerRepo),
	})

	return &env{
		router:       router,
		db:           db,
		tokens:       tokens,
		recorder:     recorder,
		userRepo:     userRepo,
		customerRepo: customerRepo,
		bookRepo:     bookRepo,
	}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "body: %s", w.Body.String())
}

// registerAndLogin walks the public path: POST /customer then /api/token.
func (e *env) registerAndLogin(t *testing.T, username, phone string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/customer", "", gin.H{
		"username":     username,
		"password":     "password123",
		"phone_number": phone,
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	w = e.do(t, http.MethodPost, "/api/token", "", gin.H{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	var pair auth.TokenPair
	decode(t, w, &pair)
	return pair.Access
}

// newStaffToken creates a staff user directly; there is no HTTP path for
// staff provisioning.
func (e *env) newStaffToken(t *testing.T, username string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Username: username, PasswordHash: string(hash), IsStaff: true}
	require.NoError(t, e.userRepo.Create(nil, user))
	pair, err := e.tokens.IssuePair(user.ID)
	require.NoError(t, err)
	return pair.Access
}

func (e *env) newBook(t *testing.T, adminToken, title, price, discount string, stock int) models.Book {
	t.Helper()
	w := e.do(t, http.MethodPost, "/books", adminToken, gin.H{
		"title":    title,
		"author":   "Author",
		"genre":    "Fiction",
		"price":    price,
		"discount": discount,
		"stock":    stock,
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var book models.Book
	decode(t, w, &book)
	return book
}

func TestRegisterLoginAndRefresh(t *testing.T) {
	e := newEnv(t)
	token := e.registerAndLogin(t, "alice", "+100")

	w := e.do(t, http.MethodGet, "/customer", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var customers []models.Customer
	decode(t, w, &customers)
	require.Len(t, customers, 1)
	assert.Equal(t, "+100", customers[0].Phone)

	// bad credentials
	w = e.do(t, http.MethodPost, "/api/token", "", gin.H{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// short password rejected at binding
	w = e.do(t, http.MethodPost, "/customer", "", gin.H{
		"username": "bob", "password": "short", "phone_number": "+200",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	e := newEnv(t)
	e.registerAndLogin(t, "alice", "+100")

	w := e.do(t, http.MethodPost, "/customer", "", gin.H{
		"username": "alice", "password": "password123", "phone_number": "+999",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/customer", "", gin.H{
		"username": "alice2", "password": "password123", "phone_number": "+100",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookWritesRequireStaffOverHTTP(t *testing.T) {
	e := newEnv(t)
	customerToken := e.registerAndLogin(t, "alice", "+100")
	adminToken := e.newStaffToken(t, "root")

	body := gin.H{"title": "Book A", "author": "Author", "price": "10.00"}

	w := e.do(t, http.MethodPost, "/books", customerToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, "/books", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/books", adminToken, body)
	assert.Equal(t, http.StatusCreated, w.Code)

	// catalog reads are public
	w = e.do(t, http.MethodGet, "/books", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var books []models.Book
	decode(t, w, &books)
	assert.Len(t, books, 1)
}

func TestInvalidBearerToken(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/books", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	e := newEnv(t)
	token := e.registerAndLogin(t, "alice", "+100")
	adminToken := e.newStaffToken(t, "root")
	a := e.newBook(t, adminToken, "Book A", "100.00", "10", 10)
	b := e.newBook(t, adminToken, "Book B", "200.00", "20", 10)

	// Book A twice merges into one line of quantity 2
	for i := 0; i < 2; i++ {
		w := e.do(t, http.MethodPost, "/cart", token, gin.H{"book_id": a.ID.String()})
		require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	}
	w := e.do(t, http.MethodPost, "/cart", token, gin.H{"book_id": b.ID.String()})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lines []services.CartLine
	decode(t, w, &lines)
	require.Len(t, lines, 2)

	w = e.do(t, http.MethodPost, "/orders/create-order", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var order models.Order
	decode(t, w, &order)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("340")),
		"expected 340, got %s", order.TotalPrice)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Len(t, order.Items, 2)

	// cart is drained, a second checkout is a 400
	w = e.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &lines)
	assert.Empty(t, lines)

	w = e.do(t, http.MethodPost, "/orders/create-order", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderStatusUpdateOverHTTP(t *testing.T) {
	e := newEnv(t)
	token := e.registerAndLogin(t, "alice", "+100")
	adminToken := e.newStaffToken(t, "root")
	book := e.newBook(t, adminToken, "Book A", "10.00", "0", 10)

	w := e.do(t, http.MethodPost, "/cart", token, gin.H{"book_id": book.ID.String()})
	require.Equal(t, http.StatusCreated, w.Code)
	w = e.do(t, http.MethodPost, "/orders/create-order", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var order models.Order
	decode(t, w, &order)

	path := "/orders/" + order.ID.String()

	// customers cannot drive the machine
	w = e.do(t, http.MethodPut, path, token, gin.H{"status": "processed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// extra fields are rejected even with a valid status
	w = e.do(t, http.MethodPut, path, adminToken, gin.H{
		"status": "processed", "total_price": 5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// skipping a state is rejected
	w = e.do(t, http.MethodPut, path, adminToken, gin.H{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPut, path, adminToken, gin.H{"status": "processed"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &order)
	assert.Equal(t, models.OrderStatusProcessed, order.Status)

	w = e.do(t, http.MethodPut, path, adminToken, gin.H{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderVisibilityOverHTTP(t *testing.T) {
	e := newEnv(t)
	aliceToken := e.registerAndLogin(t, "alice", "+100")
	bobToken := e.registerAndLogin(t, "bob", "+200")
	adminToken := e.newStaffToken(t, "root")
	book := e.newBook(t, adminToken, "Book A", "10.00", "0", 10)

	w := e.do(t, http.MethodPost, "/cart", aliceToken, gin.H{"book_id": book.ID.String()})
	require.Equal(t, http.StatusCreated, w.Code)
	w = e.do(t, http.MethodPost, "/orders/create-order", aliceToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var order models.Order
	decode(t, w, &order)

	path := "/orders/" + order.ID.String()
	w = e.do(t, http.MethodGet, path, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(t, http.MethodGet, path, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodGet, path, aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// bob's listing does not include alice's order
	w = e.do(t, http.MethodGet, "/orders", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []models.Order
	decode(t, w, &orders)
	assert.Empty(t, orders)
}

func TestAdminCartLookupIsReadOnly(t *testing.T) {
	e := newEnv(t)
	token := e.registerAndLogin(t, "alice", "+100")
	adminToken := e.newStaffToken(t, "root")
	book := e.newBook(t, adminToken, "Book A", "10.00", "0", 10)

	w := e.do(t, http.MethodPost, "/cart", token, gin.H{"book_id": book.ID.String()})
	require.Equal(t, http.StatusCreated, w.Code)
	var line services.CartLine
	decode(t, w, &line)

	customer, err := e.customerRepo.GetByID(nil, lineOwner(t, e, line))
	require.NoError(t, err)

	// admin may inspect the cart
	w = e.do(t, http.MethodGet, "/cart/user-cart/"+customer.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lines []services.CartLine
	decode(t, w, &lines)
	assert.Len(t, lines, 1)

	// but not mutate it
	w = e.do(t, http.MethodPut, "/cart/"+line.ID.String(), adminToken, gin.H{"quantity": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(t, http.MethodDelete, "/cart/"+line.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// lineOwner resolves the customer owning a cart line.
func lineOwner(t *testing.T, e *env, line services.CartLine) uuid.UUID {
	t.Helper()
	var item models.CartItem
	require.NoError(t, e.db.First(&item, "id = ?", line.ID).Error)
	return item.CustomerID
}

func TestPublicBookReviews(t *testing.T) {
	e := newEnv(t)
	token := e.registerAndLogin(t, "alice", "+100")
	adminToken := e.newStaffToken(t, "root")
	book := e.newBook(t, adminToken, "Book A", "10.00", "0", 10)

	w := e.do(t, http.MethodPost, "/reviews", token, gin.H{
		"book": book.ID.String(), "rating": 5, "comment": "great",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	// anyone may read a book's reviews, no token needed
	w = e.do(t, http.MethodGet, "/reviews/book-reviews/"+book.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reviews []models.Review
	decode(t, w, &reviews)
	assert.Len(t, reviews, 1)

	// a second review from the same user conflicts
	w = e.do(t, http.MethodPost, "/reviews", token, gin.H{
		"book": book.ID.String(), "rating": 1,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// creating anonymously is unauthorized
	w = e.do(t, http.MethodPost, "/reviews", "", gin.H{
		"book": book.ID.String(), "rating": 5,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnknownIDsReturn404(t *testing.T) {
	e := newEnv(t)
	token := e.registerAndLogin(t, "alice", "+100")
	missing := "00000000-0000-0000-0000-000000000001"

	w := e.do(t, http.MethodGet, "/books/"+missing, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = e.do(t, http.MethodGet, "/orders/"+missing, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = e.do(t, http.MethodGet, "/customer/"+missing, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// malformed ids are a 400, not a 404
	w = e.do(t, http.MethodGet, "/books/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
