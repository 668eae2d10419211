package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page       int
		limit      int
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, 1, DefaultPageLimit, 0},
		{"negative page", -3, 5, 1, 5, 0},
		{"third page", 3, 20, 3, 20, 40},
		{"limit capped", 2, 1000, 2, MaxPageLimit, MaxPageLimit},
		{"largest page that fits", math.MaxInt/10 + 1, 10, math.MaxInt/10 + 1, 10, math.MaxInt / 10 * 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit, offset, err := pageWindow(tt.page, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
			assert.GreaterOrEqual(t, offset, 0)
		})
	}
}

func TestPageWindowOverflow(t *testing.T) {
	t.Parallel()

	for _, page := range []int{math.MaxInt, math.MaxInt/10 + 2} {
		_, _, _, err := pageWindow(page, 10)
		assert.ErrorIs(t, err, ErrPageTooLarge)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}
