package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories over one connection or transaction.
type Store struct {
	db *gorm.DB

	Users        *UserRepository
	Apartments   *ApartmentRepository
	Reservations *ReservationRepository
	Payments     *PaymentRepository
	Ratings      *RatingRepository
	Favorites    *FavoriteRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Users:        NewUserRepository(db),
		Apartments:   NewApartmentRepository(db),
		Reservations: NewReservationRepository(db),
		Payments:     NewPaymentRepository(db),
		Ratings:      NewRatingRepository(db),
		Favorites:    NewFavoriteRepository(db),
	}
}

// Transaction runs fn against a Store bound to a single database transaction.
// Inside fn only the tx Store may be used; the outer Store would need a second connection.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
