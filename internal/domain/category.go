package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Category validation errors
var (
	ErrEmptyCategoryID   = errors.New("category ID cannot be empty")
	ErrEmptyCategoryName = errors.New("category name cannot be empty")
	ErrCategoryNameLong  = errors.New("category name cannot be longer than 50 characters")
)

const maxCategoryNameLength = 50

// Category is a label shared by all users. Names are unique.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCategory creates a new Category with a trimmed name.
func NewCategory(name string) (*Category, error) {
	now := time.Now().UTC()
	category := &Category{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := category.Validate(); err != nil {
		return nil, err
	}

	return category, nil
}

// Validate checks if the Category has valid data.
func (c *Category) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCategoryID
	}
	if c.Name == "" {
		return ErrEmptyCategoryName
	}
	if utf8.RuneCountInString(c.Name) > maxCategoryNameLength {
		return ErrCategoryNameLong
	}
	return nil
}

// Rename changes the name. The category is left unchanged when the new name
// is invalid.
func (c *Category) Rename(name string) error {
	renamed := *c
	renamed.Name = strings.TrimSpace(name)
	if err := renamed.Validate(); err != nil {
		return err
	}

	c.Name = renamed.Name
	c.UpdatedAt = time.Now().UTC()
	return nil
}
