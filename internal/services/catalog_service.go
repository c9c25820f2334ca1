package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bookstore/internal/logger"
	"bookstore/internal/models"
	"bookstore/internal/policy"
	"bookstore/internal/repositories"
)

// BookInput carries the writable fields of a catalog entry.
type BookInput struct {
	Title       string
	Author      string
	Description string
	Synopsis    string
	Genre       string
	Price       decimal.Decimal
	Discount    decimal.Decimal
	Stock       int
}

// CatalogService manages the book catalog. Reads are public; writes are
// admin-gated through the policy gate.
type CatalogService interface {
	CreateBook(p *policy.Principal, in BookInput) (*models.Book, error)
	UpdateBook(p *policy.Principal, id uuid.UUID, in BookInput) (*models.Book, error)
	DeleteBook(p *policy.Principal, id uuid.UUID) error
	GetBook(id uuid.UUID) (*models.Book, error)
	ListBooks() ([]models.Book, error)
	BooksByAuthor(author string) ([]models.Book, error)
	BooksByGenre(genre string) ([]models.Book, error)
	SearchBooks(title string) ([]models.Book, error)
}

type catalogService struct {
	gate     *policy.Gate
	bookRepo repositories.BookRepository
}

func NewCatalogService(gate *policy.Gate, bookRepo repositories.BookRepository) CatalogService {
	return &catalogService{gate: gate, bookRepo: bookRepo}
}

func validateBookInput(in BookInput) error {
	if !in.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if in.Discount.IsNegative() || in.Discount.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidDiscount
	}
	if in.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

func (s *catalogService) CreateBook(p *policy.Principal, in BookInput) (*models.Book, error) {
	if err := s.gate.ManageCatalog(p); err != nil {
		return nil, err
	}
	if err := validateBookInput(in); err != nil {
		return nil, err
	}
	book := &models.Book{
		Title:       in.Title,
		Author:      in.Author,
		Description: in.Description,
		Synopsis:    in.Synopsis,
		Genre:       in.Genre,
		Price:       in.Price,
		Discount:    in.Discount,
		Stock:       in.Stock,
	}
	if err := s.bookRepo.Create(nil, book); err != nil {
		logger.Log.Errorw("failed to create book", "title", in.Title, "error", err)
		return nil, err
	}
	logger.Log.Infow("book created", "id", book.ID, "title", book.Title)
	return book, nil
}

func (s *catalogService) UpdateBook(p *policy.Principal, id uuid.UUID, in BookInput) (*models.Book, error) {
	if err := s.gate.ManageCatalog(p); err != nil {
		return nil, err
	}
	if err := validateBookInput(in); err != nil {
		return nil, err
	}
	book, err := s.bookRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	book.Title = in.Title
	book.Author = in.Author
	book.Description = in.Description
	book.Synopsis = in.Synopsis
	book.Genre = in.Genre
	book.Price = in.Price
	book.Discount = in.Discount
	book.Stock = in.Stock
	if err := s.bookRepo.Save(nil, book); err != nil {
		logger.Log.Errorw("failed to update book", "id", id, "error", err)
		return nil, err
	}
	return book, nil
}

func (s *catalogService) DeleteBook(p *policy.Principal, id uuid.UUID) error {
	if err := s.gate.ManageCatalog(p); err != nil {
		return err
	}
	if _, err := s.bookRepo.GetByID(nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return err
	}
	if err := s.bookRepo.Delete(nil, id); err != nil {
		logger.Log.Errorw("failed to delete book", "id", id, "error", err)
		return err
	}
	logger.Log.Infow("book deleted", "id", id)
	return nil
}

func (s *catalogService) GetBook(id uuid.UUID) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

func (s *catalogService) ListBooks() ([]models.Book, error) {
	return s.bookRepo.List(nil)
}

// BooksByAuthor returns the whole catalog when author is empty, matching
// the list-filter contract: no match is an empty result, not an error.
func (s *catalogService) BooksByAuthor(author string) ([]models.Book, error) {
	if author == "" {
		return s.bookRepo.List(nil)
	}
	return s.bookRepo.FilterByAuthor(nil, author)
}

func (s *catalogService) BooksByGenre(genre string) ([]models.Book, error) {
	if genre == "" {
		return s.bookRepo.List(nil)
	}
	return s.bookRepo.FilterByGenre(nil, genre)
}

func (s *catalogService) SearchBooks(title string) ([]models.Book, error) {
	return s.bookRepo.SearchByTitle(nil, title)
}
