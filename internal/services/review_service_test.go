package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/policy"
)

func TestReviewCreateAndDuplicate(t *testing.T) {
	f := newFixture(t)
	alice := f.newCustomer(t, "alice", "+100")
	bob := f.newCustomer(t, "bob", "+200")
	book := f.newBook(t, "Book A", "10.00", "0", 10)

	review, err := f.review.Create(alice, book.ID, ReviewInput{Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, alice.User.ID, review.UserID)

	// second review for the same book by the same user is a conflict
	_, err = f.review.Create(alice, book.ID, ReviewInput{Rating: 1, Comment: "changed my mind"})
	assert.ErrorIs(t, err, ErrDuplicateReview)

	// another customer may still review the same book
	_, err = f.review.Create(bob, book.ID, ReviewInput{Rating: 3, Comment: "ok"})
	require.NoError(t, err)

	all, err := f.review.BookReviews(book.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReviewCreateValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.newCustomer(t, "alice", "+100")
	book := f.newBook(t, "Book A", "10.00", "0", 10)

	for _, rating := range []int{0, -1, 6} {
		_, err := f.review.Create(alice, book.ID, ReviewInput{Rating: rating})
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
	}

	_, err := f.review.Create(alice, uuid.New(), ReviewInput{Rating: 4})
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestReviewUpdateAuthorOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.newCustomer(t, "alice", "+100")
	bob := f.newCustomer(t, "bob", "+200")
	admin := f.newAdmin(t, "root")
	book := f.newBook(t, "Book A", "10.00", "0", 10)

	review, err := f.review.Create(alice, book.ID, ReviewInput{Rating: 5, Comment: "great"})
	require.NoError(t, err)

	_, err = f.review.Update(bob, review.ID, ReviewInput{Rating: 1})
	assert.ErrorIs(t, err, policy.ErrForbidden)

	// staff have no override on review content either
	_, err = f.review.Update(admin, review.ID, ReviewInput{Rating: 1})
	assert.ErrorIs(t, err, policy.ErrForbidden)

	updated, err := f.review.Update(alice, review.ID, ReviewInput{Rating: 2, Comment: "reread it"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)
	assert.Equal(t, "reread it", updated.Comment)
}

func TestReviewDeleteAuthorOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.newCustomer(t, "alice", "+100")
	bob := f.newCustomer(t, "bob", "+200")
	book := f.newBook(t, "Book A", "10.00", "0", 10)

	review, err := f.review.Create(alice, book.ID, ReviewInput{Rating: 5})
	require.NoError(t, err)

	err = f.review.Delete(bob, review.ID)
	assert.ErrorIs(t, err, policy.ErrForbidden)

	require.NoError(t, f.review.Delete(alice, review.ID))

	err = f.review.Delete(alice, review.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)

	// deleting frees the (user, book) slot for a fresh review
	_, err = f.review.Create(alice, book.ID, ReviewInput{Rating: 3})
	require.NoError(t, err)
}

func TestReviewListScopes(t *testing.T) {
	f := newFixture(t)
	alice := f.newCustomer(t, "alice", "+100")
	bob := f.newCustomer(t, "bob", "+200")
	admin := f.newAdmin(t, "root")
	a := f.newBook(t, "Book A", "10.00", "0", 10)
	b := f.newBook(t, "Book B", "10.00", "0", 10)

	_, err := f.review.Create(alice, a.ID, ReviewInput{Rating: 5})
	require.NoError(t, err)
	_, err = f.review.Create(alice, b.ID, ReviewInput{Rating: 4})
	require.NoError(t, err)
	_, err = f.review.Create(bob, a.ID, ReviewInput{Rating: 2})
	require.NoError(t, err)

	mine, err := f.review.List(alice)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := f.review.List(admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err = f.review.MyReviews(bob)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestCustomerReviewsAdminLookup(t *testing.T) {
	f := newFixture(t)
	alice := f.newCustomer(t, "alice", "+100")
	bob := f.newCustomer(t, "bob", "+200")
	admin := f.newAdmin(t, "root")
	book := f.newBook(t, "Book A", "10.00", "0", 10)

	_, err := f.review.Create(alice, book.ID, ReviewInput{Rating: 5})
	require.NoError(t, err)

	reviews, err := f.review.CustomerReviews(admin, alice.Customer.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	_, err = f.review.CustomerReviews(bob, alice.Customer.ID)
	assert.ErrorIs(t, err, policy.ErrForbidden)

	_, err = f.review.CustomerReviews(admin, uuid.New())
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestBookReviewsUnknownBook(t *testing.T) {
	f := newFixture(t)
	_, err := f.review.BookReviews(uuid.New())
	assert.ErrorIs(t, err, ErrBookNotFound)
}
