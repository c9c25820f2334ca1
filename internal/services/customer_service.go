package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bookstore/internal/events"
	"bookstore/internal/logger"
	"bookstore/internal/models"
	"bookstore/internal/policy"
	"bookstore/internal/repositories"
)

// RegisterInput creates both the identity and the profile in one step.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Phone    string
	Address  string
}

// CustomerUpdate holds profile fields for update/partial-update. Nil
// pointers mean "leave unchanged" on partial updates.
type CustomerUpdate struct {
	Phone   *string
	Address *string
}

type CustomerService interface {
	Register(p *policy.Principal, in RegisterInput) (*models.Customer, error)
	List(p *policy.Principal) ([]models.Customer, error)
	Get(p *policy.Principal, id uuid.UUID) (*models.Customer, error)
	Update(p *policy.Principal, id uuid.UUID, in CustomerUpdate, partial bool) (*models.Customer, error)
	Delete(p *policy.Principal, id uuid.UUID) error
}

type customerService struct {
	db           *gorm.DB
	gate         *policy.Gate
	userRepo     repositories.UserRepository
	customerRepo repositories.CustomerRepository
	publisher    events.Publisher
}

func NewCustomerService(
	db *gorm.DB,
	gate *policy.Gate,
	userRepo repositories.UserRepository,
	customerRepo repositories.CustomerRepository,
	publisher events.Publisher,
) CustomerService {
	return &customerService{
		db:           db,
		gate:         gate,
		userRepo:     userRepo,
		customerRepo: customerRepo,
		publisher:    publisher,
	}
}

// Register creates the identity and profile atomically. Open to anonymous
// callers only: an authenticated user cannot create a second account.
func (s *customerService) Register(p *policy.Principal, in RegisterInput) (*models.Customer, error) {
	if err := s.gate.Register(p); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByUsername(nil, in.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	taken, err := s.customerRepo.PhoneTaken(nil, in.Phone, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrPhoneTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var customer *models.Customer
	err = s.db.Transaction(func(tx *gorm.DB) error {
		user := &models.User{
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: string(hash),
		}
		if err := s.userRepo.Create(tx, user); err != nil {
			logger.Log.Errorw("failed to create user", "username", in.Username, "error", err)
			return err
		}
		customer = &models.Customer{
			UserID:  user.ID,
			Phone:   in.Phone,
			Address: in.Address,
		}
		if err := s.customerRepo.Create(tx, customer); err != nil {
			logger.Log.Errorw("failed to create customer profile", "username", in.Username, "error", err)
			return err
		}
		customer.User = *user
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Infow("customer registered", "id", customer.ID, "username", in.Username)
	s.publishProfileEvent("create", customer)
	return customer, nil
}

// List returns every profile for admins, the caller's own otherwise.
func (s *customerService) List(p *policy.Principal) ([]models.Customer, error) {
	if p.Anonymous() {
		return nil, policy.ErrUnauthenticated
	}
	if p.IsStaff() {
		return s.customerRepo.List(nil)
	}
	if p.Customer == nil {
		return []models.Customer{}, nil
	}
	return []models.Customer{*p.Customer}, nil
}

func (s *customerService) Get(p *policy.Principal, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	if err := s.gate.ViewCustomer(p, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Update(p *policy.Principal, id uuid.UUID, in CustomerUpdate, partial bool) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	if err := s.gate.MutateCustomer(p, customer); err != nil {
		return nil, err
	}

	if !partial && in.Phone == nil {
		return nil, ErrPhoneRequired
	}

	if in.Phone != nil && *in.Phone != customer.Phone {
		taken, err := s.customerRepo.PhoneTaken(nil, *in.Phone, customer.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrPhoneTaken
		}
		customer.Phone = *in.Phone
	}
	if in.Address != nil {
		customer.Address = *in.Address
	} else if !partial {
		customer.Address = ""
	}

	if err := s.customerRepo.Save(nil, customer); err != nil {
		logger.Log.Errorw("failed to update customer", "id", id, "error", err)
		return nil, err
	}
	s.publishProfileEvent("update", customer)
	return customer, nil
}

// Delete removes the profile and its identity. Order history survives via
// the SET NULL customer reference.
func (s *customerService) Delete(p *policy.Principal, id uuid.UUID) error {
	customer, err := s.customerRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCustomerNotFound
		}
		return err
	}
	if err := s.gate.MutateCustomer(p, customer); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.customerRepo.Delete(tx, customer.ID); err != nil {
			return err
		}
		return s.userRepo.Delete(tx, customer.UserID)
	})
	if err != nil {
		logger.Log.Errorw("failed to delete customer", "id", id, "error", err)
		return err
	}
	logger.Log.Infow("customer deleted", "id", id, "username", customer.User.Username)
	s.publishProfileEvent("delete", customer)
	return nil
}

func (s *customerService) publishProfileEvent(action string, c *models.Customer) {
	s.publisher.Publish(context.Background(), events.TopicCustomer, events.Payload{
		"user_action":  action,
		"customer_id":  c.ID.String(),
		"user_id":      c.UserID.String(),
		"username":     c.User.Username,
		"phone_number": c.Phone,
		"spent_money":  c.TotalSpent.StringFixed(2),
		"date_joined":  c.User.DateJoined.UTC().Format(time.RFC3339),
	})
}
