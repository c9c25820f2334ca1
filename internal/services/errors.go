package services

import "errors"

// Sentinel errors surfaced by the service layer. Handlers map these onto
// HTTP status codes; anything else propagates as a 500.
var (
	ErrBookNotFound     = errors.New("book not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrOrderNotFound    = errors.New("order not found")

	// ErrInvalidQuantity is returned when a cart quantity would drop below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrEmptyCart refuses checkout of an empty cart; a zero-total order is
	// never created silently.
	ErrEmptyCart = errors.New("your cart is empty")

	// ErrDuplicateReview is returned when the (user, book) pair already has
	// a review.
	ErrDuplicateReview = errors.New("you have already reviewed this book")

	// ErrPhoneTaken is returned when another customer already holds the
	// phone number. Re-submitting one's own unchanged number is not an error.
	ErrPhoneTaken = errors.New("phone number already in use")

	ErrUsernameTaken = errors.New("username already exists")

	// ErrPhoneRequired is returned on full updates that omit the phone number.
	ErrPhoneRequired = errors.New("phone number is required")

	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	ErrInvalidPrice    = errors.New("price must be greater than zero")
	ErrInvalidDiscount = errors.New("discount must be between 0 and 100")
	ErrInvalidStock    = errors.New("stock must not be negative")

	ErrInvalidStatus = errors.New("unknown order status")

	// ErrInvalidTransition rejects backward or out-of-order status moves.
	ErrInvalidTransition = errors.New("status transition not allowed")
)
