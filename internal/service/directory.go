package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
)

// Directory registers users and categories.
type Directory struct {
	store repository.Directory
	opts  options
}

// NewDirectory constructs a Directory.
func NewDirectory(store repository.Directory, opts ...Option) *Directory {
	return &Directory{store: store, opts: buildOptions(opts)}
}

// CreateUser registers a user. Emails are unique.
func (d *Directory) CreateUser(ctx context.Context, req model.NewUserRequest) (model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if name == "" {
		return model.User{}, apperr.Validation("name is required")
	}
	if !isValidEmail(email) {
		return model.User{}, apperr.Validation("email %q is not a valid email address", req.Email)
	}

	u := model.User{ID: uuid.NewString(), Name: name, Email: email}
	if err := d.store.CreateUser(ctx, &u); err != nil {
		return model.User{}, err
	}
	d.opts.logger.InfoContext(ctx, "user created", slog.String("user_id", u.ID))
	return u, nil
}

// CreateCategory adds a category. Names are unique.
func (d *Directory) CreateCategory(ctx context.Context, req model.NewCategoryRequest) (model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.Category{}, apperr.Validation("name is required")
	}

	c := model.Category{ID: uuid.NewString(), Name: name}
	if err := d.store.CreateCategory(ctx, &c); err != nil {
		return model.Category{}, err
	}
	d.opts.logger.InfoContext(ctx, "category created", slog.String("category_id", c.ID))
	return c, nil
}
