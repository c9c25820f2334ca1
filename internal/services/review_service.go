package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookstore/internal/logger"
	"bookstore/internal/models"
	"bookstore/internal/policy"
	"bookstore/internal/repositories"
)

type ReviewInput struct {
	Rating  int
	Comment string
}

type ReviewService interface {
	Create(p *policy.Principal, bookID uuid.UUID, in ReviewInput) (*models.Review, error)
	Update(p *policy.Principal, id uuid.UUID, in ReviewInput) (*models.Review, error)
	Delete(p *policy.Principal, id uuid.UUID) error
	List(p *policy.Principal) ([]models.Review, error)
	MyReviews(p *policy.Principal) ([]models.Review, error)
	BookReviews(bookID uuid.UUID) ([]models.Review, error)
	CustomerReviews(p *policy.Principal, customerID uuid.UUID) ([]models.Review, error)
}

type reviewService struct {
	gate         *policy.Gate
	reviewRepo   repositories.ReviewRepository
	bookRepo     repositories.BookRepository
	customerRepo repositories.CustomerRepository
}

func NewReviewService(
	gate *policy.Gate,
	reviewRepo repositories.ReviewRepository,
	bookRepo repositories.BookRepository,
	customerRepo repositories.CustomerRepository,
) ReviewService {
	return &reviewService{
		gate:         gate,
		reviewRepo:   reviewRepo,
		bookRepo:     bookRepo,
		customerRepo: customerRepo,
	}
}

func validateReviewInput(in ReviewInput) error {
	if in.Rating < 1 || in.Rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// Create writes the caller's review for a book. One review per
// (user, book) pair; a second attempt is a conflict.
func (s *reviewService) Create(p *policy.Principal, bookID uuid.UUID, in ReviewInput) (*models.Review, error) {
	if p.Anonymous() {
		return nil, policy.ErrUnauthenticated
	}
	if err := validateReviewInput(in); err != nil {
		return nil, err
	}
	if _, err := s.bookRepo.GetByID(nil, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	if _, err := s.reviewRepo.GetByBookAndUser(nil, bookID, p.User.ID); err == nil {
		return nil, ErrDuplicateReview
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	review := &models.Review{
		BookID:  bookID,
		UserID:  p.User.ID,
		Rating:  in.Rating,
		Comment: in.Comment,
	}
	if err := s.reviewRepo.Create(nil, review); err != nil {
		logger.Log.Errorw("failed to create review", "book", bookID, "user", p.User.ID, "error", err)
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Update(p *policy.Principal, id uuid.UUID, in ReviewInput) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if err := s.gate.MutateReview(p, review); err != nil {
		return nil, err
	}
	if err := validateReviewInput(in); err != nil {
		return nil, err
	}
	review.Rating = in.Rating
	review.Comment = in.Comment
	if err := s.reviewRepo.Save(nil, review); err != nil {
		logger.Log.Errorw("failed to update review", "id", id, "error", err)
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Delete(p *policy.Principal, id uuid.UUID) error {
	review, err := s.reviewRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	if err := s.gate.MutateReview(p, review); err != nil {
		return err
	}
	return s.reviewRepo.Delete(nil, id)
}

// List returns everything for admins, the caller's own reviews otherwise.
func (s *reviewService) List(p *policy.Principal) ([]models.Review, error) {
	if p.Anonymous() {
		return nil, policy.ErrUnauthenticated
	}
	if p.IsStaff() {
		return s.reviewRepo.ListAll(nil)
	}
	return s.reviewRepo.ListByUser(nil, p.User.ID)
}

func (s *reviewService) MyReviews(p *policy.Principal) ([]models.Review, error) {
	if p.Anonymous() {
		return nil, policy.ErrUnauthenticated
	}
	return s.reviewRepo.ListByUser(nil, p.User.ID)
}

// BookReviews is public: anyone may read a book's reviews.
func (s *reviewService) BookReviews(bookID uuid.UUID) ([]models.Review, error) {
	if _, err := s.bookRepo.GetByID(nil, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return s.reviewRepo.ListByBook(nil, bookID)
}

// CustomerReviews is the admin lookup by customer (profile) id.
func (s *reviewService) CustomerReviews(p *policy.Principal, customerID uuid.UUID) ([]models.Review, error) {
	if err := s.gate.ViewAllReviews(p); err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.GetByID(nil, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return s.reviewRepo.ListByUser(nil, customer.UserID)
}
