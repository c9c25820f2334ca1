// Package policy is the single authorization checkpoint. Services call it
// at the top of every operation instead of scattering is-staff checks
// through handlers.
package policy

import (
	"errors"

	"github.com/google/uuid"

	"bookstore/internal/models"
)

var (
	// ErrForbidden is returned for any ownership or role violation.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated is returned when an operation requires a principal
	// and none is present.
	ErrUnauthenticated = errors.New("authentication required")
)

// Principal is the authenticated caller. Customer is nil for identities
// without a profile (fresh accounts, service users).
type Principal struct {
	User     *models.User
	Customer *models.Customer
}

// Anonymous reports whether no identity is attached.
func (p *Principal) Anonymous() bool {
	return p == nil || p.User == nil
}

// IsStaff reports whether the principal carries admin privileges.
func (p *Principal) IsStaff() bool {
	return !p.Anonymous() && p.User.IsStaff
}

// CustomerID returns the principal's profile id, or uuid.Nil.
func (p *Principal) CustomerID() uuid.UUID {
	if p == nil || p.Customer == nil {
		return uuid.Nil
	}
	return p.Customer.ID
}

// Gate evaluates every authorization rule in the system.
type Gate struct{}

func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) requireAuth(p *Principal) error {
	if p.Anonymous() {
		return ErrUnauthenticated
	}
	return nil
}

// ManageCatalog: book create/update/delete is admin only.
func (g *Gate) ManageCatalog(p *Principal) error {
	if err := g.requireAuth(p); err != nil {
		return err
	}
	if !p.IsStaff() {
		return ErrForbidden
	}
	return nil
}

// Register: only unauthenticated callers may create an account.
func (g *Gate) Register(p *Principal) error {
	if !p.Anonymous() {
		return ErrForbidden
	}
	return nil
}

// ViewCustomer: self or admin.
func (g *Gate) ViewCustomer(p *Principal, c *models.Customer) error {
	if err := g.requireAuth(p); err != nil {
		return err
	}
	if p.IsStaff() || p.User.ID == c.UserID {
		return nil
	}
	return ErrForbidden
}

// MutateCustomer: self or admin, same as viewing.
func (g *Gate) MutateCustomer(p *Principal, c *models.Customer) error {
	return g.ViewCustomer(p, c)
}

// ViewCart: own cart always; any cart for admins (read-only lookup).
func (g *Gate) ViewCart(p *Principal, ownerID uuid.UUID) error {
	if err := g.requireAuth(p); err != nil {
		return err
	}
	if p.IsStaff() || p.CustomerID() == ownerID {
		return nil
	}
	return ErrForbidden
}

// MutateCart: the owning customer only. Staff identities are rejected
// outright, even when the cart hangs off their own profile.
func (g *Gate) MutateCart(p *Principal, ownerID uuid.UUID) error {
	if err := g.requireAuth(p); err != nil {
		return err
	}
	if p.IsStaff() {
		return ErrForbidden
	}
	if p.Customer == nil || p.Customer.ID != ownerID {
		return ErrForbidden
	}
	return nil
}

// MutateReview: the authoring user only, no admin override.
func (g *Gate) MutateReview(p *Principal, r *models.Review) error {
	if err := g.requireAuth(p); err != nil {
		return err
	}
	if p.User.ID != r.UserID {
		return ErrForbidden
	}
	return nil
}

// ViewAllReviews: cross-customer review listing is admin only.
func (g *Gate) ViewAllReviews(p *Principal) error {
	if err := g.requireAuth(p); err != nil {
		return err
	}
	if !p.IsStaff() {
		return ErrForbidden
	}
	return nil
}

// ViewOrder: the owning customer or an admin.
func (g *Gate) ViewOrder(p *Principal, o *models.Order) error {
	if err := g.requireAuth(p); err != nil {
		return err
	}
	if p.IsStaff() {
		return nil
	}
	if o.CustomerID != nil && *o.CustomerID == p.CustomerID() && p.CustomerID() != uuid.Nil {
		return nil
	}
	return ErrForbidden
}

// UpdateOrderStatus: admin only.
func (g *Gate) UpdateOrderStatus(p *Principal) error {
	if err := g.requireAuth(p); err != nil {
		return err
	}
	if !p.IsStaff() {
		return ErrForbidden
	}
	return nil
}

// Checkout: any customer with a profile.
func (g *Gate) Checkout(p *Principal) error {
	if err := g.requireAuth(p); err != nil {
		return err
	}
	if p.Customer == nil {
		return ErrForbidden
	}
	return nil
}
