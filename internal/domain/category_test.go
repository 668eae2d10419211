package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRename(t *testing.T) {
	t.Parallel()

	category, err := NewCategory("Home")
	require.NoError(t, err)
	created := category.UpdatedAt

	require.NoError(t, category.Rename("  Garden "))
	assert.Equal(t, "Garden", category.Name)
	assert.False(t, category.UpdatedAt.Before(created))

	assert.ErrorIs(t, category.Rename("   "), ErrEmptyCategoryName)
	assert.ErrorIs(t, category.Rename(strings.Repeat("x", 51)), ErrCategoryNameLong)
	assert.Equal(t, "Garden", category.Name)
}
