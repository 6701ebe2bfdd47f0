package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"linkboard/api/database"
	"linkboard/api/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

type UserStore struct {
	db    *database.DBClient
	qb    sq.StatementBuilderType
	nowFn func() time.Time
}

// NewUserStore creates a new UserStore instance.
func NewUserStore(db *database.DBClient) *UserStore {
	return &UserStore{
		db:    db,
		qb:    sq.StatementBuilder.PlaceholderFormat(db.Dialect.PlaceholderFormat()),
		nowFn: time.Now,
	}
}

// CreateUser inserts a new admin user into the database.
func (s *UserStore) CreateUser(ctx context.Context, email string, hashedPassword []byte) (*models.User, error) {
	now := s.nowFn().UTC().Truncate(time.Second)
	user := &models.User{
		ID:             uuid.New().String(),
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.qb.Insert("users").
		Columns("id", "email", "hashed_password", "created_at", "updated_at").
		Values(user.ID, user.Email, string(user.HashedPassword), now.Unix(), now.Unix()).
		RunWith(s.db.DB).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	var hashed string
	var createdAt, updatedAt int64

	err := s.qb.Select("id", "email", "hashed_password", "created_at", "updated_at").
		From("users").
		Where(sq.Eq{"email": email}).
		RunWith(s.db.DB).
		QueryRowContext(ctx).
		Scan(&user.ID, &user.Email, &hashed, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	user.HashedPassword = []byte(hashed)
	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	user.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return user, nil
}
