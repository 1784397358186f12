package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DirectoryRepository stores users and categories.
type DirectoryRepository struct {
	db *pgxpool.Pool
}

// NewDirectoryRepository constructs a DirectoryRepository.
func NewDirectoryRepository(db *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// CreateUser inserts u. A duplicate email is a conflict.
func (r *DirectoryRepository) CreateUser(ctx context.Context, u *model.User) error {
	_, err := r.db.Exec(ctx, `INSERT INTO users (id, name, email) VALUES ($1, $2, $3)`, u.ID, u.Name, u.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("email %s is already registered", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// User returns a user or an apperr.ErrNotFound error.
func (r *DirectoryRepository) User(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user %s", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// CreateCategory inserts c. A duplicate name is a conflict.
func (r *DirectoryRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	_, err := r.db.Exec(ctx, `INSERT INTO categories (id, name) VALUES ($1, $2)`, c.ID, c.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("category %q already exists", c.Name)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// Category returns a category or an apperr.ErrNotFound error.
func (r *DirectoryRepository) Category(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := r.db.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("category %s", id)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}
