package repositories

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookstore/internal/models"
)

// Every method takes an optional *gorm.DB so services can pass their
// transaction handle; nil falls back to the repository's own connection.

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
	GetByUsername(db *gorm.DB, username string) (*models.User, error)
	Delete(db *gorm.DB, id uuid.UUID) error
}

type BookRepository interface {
	Create(db *gorm.DB, book *models.Book) error
	Save(db *gorm.DB, book *models.Book) error
	Delete(db *gorm.DB, id uuid.UUID) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Book, error)
	List(db *gorm.DB) ([]models.Book, error)
	FilterByAuthor(db *gorm.DB, author string) ([]models.Book, error)
	FilterByGenre(db *gorm.DB, genre string) ([]models.Book, error)
	SearchByTitle(db *gorm.DB, title string) ([]models.Book, error)
}

type CustomerRepository interface {
	Create(db *gorm.DB, customer *models.Customer) error
	Save(db *gorm.DB, customer *models.Customer) error
	Delete(db *gorm.DB, id uuid.UUID) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Customer, error)
	GetByUserID(db *gorm.DB, userID uuid.UUID) (*models.Customer, error)
	List(db *gorm.DB) ([]models.Customer, error)
	PhoneTaken(db *gorm.DB, phone string, excludeID uuid.UUID) (bool, error)
	AddToTotalSpent(db *gorm.DB, id uuid.UUID, amount decimal.Decimal) error
}

type ReviewRepository interface {
	Create(db *gorm.DB, review *models.Review) error
	Save(db *gorm.DB, review *models.Review) error
	Delete(db *gorm.DB, id uuid.UUID) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Review, error)
	GetByBookAndUser(db *gorm.DB, bookID, userID uuid.UUID) (*models.Review, error)
	ListByUser(db *gorm.DB, userID uuid.UUID) ([]models.Review, error)
	ListByBook(db *gorm.DB, bookID uuid.UUID) ([]models.Review, error)
	ListAll(db *gorm.DB) ([]models.Review, error)
}

type CartRepository interface {
	Create(db *gorm.DB, item *models.CartItem) error
	Save(db *gorm.DB, item *models.CartItem) error
	Delete(db *gorm.DB, id uuid.UUID) error
	DeleteByCustomer(db *gorm.DB, customerID uuid.UUID) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.CartItem, error)
	GetByCustomerAndBook(db *gorm.DB, customerID, bookID uuid.UUID) (*models.CartItem, error)
	ListByCustomer(db *gorm.DB, customerID uuid.UUID) ([]models.CartItem, error)
	ListByCustomerForUpdate(db *gorm.DB, customerID uuid.UUID) ([]models.CartItem, error)
}

// OrderFilter narrows admin order listings; zero values mean "no filter".
type OrderFilter struct {
	CustomerID uuid.UUID
	Status     models.OrderStatus
}

type OrderRepository interface {
	Create(db *gorm.DB, order *models.Order) error
	Save(db *gorm.DB, order *models.Order) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Order, error)
	GetByIDForUpdate(db *gorm.DB, id uuid.UUID) (*models.Order, error)
	List(db *gorm.DB, filter OrderFilter) ([]models.Order, error)
	ListByCustomer(db *gorm.DB, customerID uuid.UUID) ([]models.Order, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, status models.OrderStatus) error
	CreateItem(db *gorm.DB, item *models.OrderItem) error
}

// concrete implementations

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(db *gorm.DB, user *models.User) error {
	if db == nil {
		db = r.db
	}
	return db.Create(user).Error
}

func (r *userRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(db *gorm.DB, username string) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	if err := db.First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.User{}, "id = ?", id).Error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(db *gorm.DB, book *models.Book) error {
	if db == nil {
		db = r.db
	}
	return db.Create(book).Error
}

func (r *bookRepository) Save(db *gorm.DB, book *models.Book) error {
	if db == nil {
		db = r.db
	}
	return db.Save(book).Error
}

func (r *bookRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Book{}, "id = ?", id).Error
}

func (r *bookRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Book, error) {
	if db == nil {
		db = r.db
	}
	var book models.Book
	if err := db.First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) List(db *gorm.DB) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	var books []models.Book
	if err := db.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) FilterByAuthor(db *gorm.DB, author string) ([]models.Book, error) {
	return r.filter(db, "author", author)
}

func (r *bookRepository) FilterByGenre(db *gorm.DB, genre string) ([]models.Book, error) {
	return r.filter(db, "genre", genre)
}

func (r *bookRepository) SearchByTitle(db *gorm.DB, title string) ([]models.Book, error) {
	return r.filter(db, "title", title)
}

// filter does a case-insensitive substring match on a single column.
func (r *bookRepository) filter(db *gorm.DB, column, value string) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	var books []models.Book
	like := "%" + value + "%"
	if err := db.Where("LOWER("+column+") LIKE LOWER(?)", like).Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(db *gorm.DB, customer *models.Customer) error {
	if db == nil {
		db = r.db
	}
	return db.Create(customer).Error
}

func (r *customerRepository) Save(db *gorm.DB, customer *models.Customer) error {
	if db == nil {
		db = r.db
	}
	return db.Save(customer).Error
}

func (r *customerRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Customer{}, "id = ?", id).Error
}

func (r *customerRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Customer, error) {
	if db == nil {
		db = r.db
	}
	var customer models.Customer
	if err := db.Preload("User").First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) GetByUserID(db *gorm.DB, userID uuid.UUID) (*models.Customer, error) {
	if db == nil {
		db = r.db
	}
	var customer models.Customer
	if err := db.Preload("User").First(&customer, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(db *gorm.DB) ([]models.Customer, error) {
	if db == nil {
		db = r.db
	}
	var customers []models.Customer
	if err := db.Preload("User").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *customerRepository) PhoneTaken(db *gorm.DB, phone string, excludeID uuid.UUID) (bool, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	q := db.Model(&models.Customer{}).Where("phone = ?", phone)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *customerRepository) AddToTotalSpent(db *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Customer{}).
		Where("id = ?", id).
		UpdateColumn("total_spent", gorm.Expr("total_spent + ?", amount)).
		Error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(db *gorm.DB, review *models.Review) error {
	if db == nil {
		db = r.db
	}
	return db.Create(review).Error
}

func (r *reviewRepository) Save(db *gorm.DB, review *models.Review) error {
	if db == nil {
		db = r.db
	}
	return db.Save(review).Error
}

func (r *reviewRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Review{}, "id = ?", id).Error
}

func (r *reviewRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Review, error) {
	if db == nil {
		db = r.db
	}
	var review models.Review
	if err := db.Preload("Book").Preload("User").First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByBookAndUser(db *gorm.DB, bookID, userID uuid.UUID) (*models.Review, error) {
	if db == nil {
		db = r.db
	}
	var review models.Review
	if err := db.First(&review, "book_id = ? AND user_id = ?", bookID, userID).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByUser(db *gorm.DB, userID uuid.UUID) ([]models.Review, error) {
	if db == nil {
		db = r.db
	}
	var reviews []models.Review
	if err := db.Preload("Book").Where("user_id = ?", userID).Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) ListByBook(db *gorm.DB, bookID uuid.UUID) ([]models.Review, error) {
	if db == nil {
		db = r.db
	}
	var reviews []models.Review
	if err := db.Preload("User").Where("book_id = ?", bookID).Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) ListAll(db *gorm.DB) ([]models.Review, error) {
	if db == nil {
		db = r.db
	}
	var reviews []models.Review
	if err := db.Preload("Book").Preload("User").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(db *gorm.DB, item *models.CartItem) error {
	if db == nil {
		db = r.db
	}
	return db.Create(item).Error
}

func (r *cartRepository) Save(db *gorm.DB, item *models.CartItem) error {
	if db == nil {
		db = r.db
	}
	return db.Save(item).Error
}

func (r *cartRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.CartItem{}, "id = ?", id).Error
}

func (r *cartRepository) DeleteByCustomer(db *gorm.DB, customerID uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.CartItem{}, "customer_id = ?", customerID).Error
}

func (r *cartRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.CartItem, error) {
	if db == nil {
		db = r.db
	}
	var item models.CartItem
	if err := db.Preload("Book").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) GetByCustomerAndBook(db *gorm.DB, customerID, bookID uuid.UUID) (*models.CartItem, error) {
	if db == nil {
		db = r.db
	}
	var item models.CartItem
	if err := db.First(&item, "customer_id = ? AND book_id = ?", customerID, bookID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) ListByCustomer(db *gorm.DB, customerID uuid.UUID) ([]models.CartItem, error) {
	if db == nil {
		db = r.db
	}
	var items []models.CartItem
	if err := db.Preload("Book").Where("customer_id = ?", customerID).Order("added_at").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) ListByCustomerForUpdate(db *gorm.DB, customerID uuid.UUID) ([]models.CartItem, error) {
	if db == nil {
		db = r.db
	}
	q := db
	// sqlite has no SELECT ... FOR UPDATE; its single-writer model covers us there.
	if db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var items []models.CartItem
	if err := q.Preload("Book").Where("customer_id = ?", customerID).Order("added_at").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(db *gorm.DB, order *models.Order) error {
	if db == nil {
		db = r.db
	}
	return db.Create(order).Error
}

func (r *orderRepository) Save(db *gorm.DB, order *models.Order) error {
	if db == nil {
		db = r.db
	}
	return db.Save(order).Error
}

func (r *orderRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Order, error) {
	if db == nil {
		db = r.db
	}
	var order models.Order
	if err := db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByIDForUpdate(db *gorm.DB, id uuid.UUID) (*models.Order, error) {
	if db == nil {
		db = r.db
	}
	q := db
	if db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.Order
	if err := q.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(db *gorm.DB, filter OrderFilter) ([]models.Order, error) {
	if db == nil {
		db = r.db
	}
	q := db.Preload("Items")
	if filter.CustomerID != uuid.Nil {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var orders []models.Order
	if err := q.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListByCustomer(db *gorm.DB, customerID uuid.UUID) ([]models.Order, error) {
	return r.List(db, OrderFilter{CustomerID: customerID})
}

func (r *orderRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, status models.OrderStatus) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepository) CreateItem(db *gorm.DB, item *models.OrderItem) error {
	if db == nil {
		db = r.db
	}
	return db.Create(item).Error
}
