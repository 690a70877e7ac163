package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, size         int
		wantOffset, wantLi int
	}{
		{page: 1, size: 10, wantOffset: 0, wantLi: 10},
		{page: 3, size: 10, wantOffset: 20, wantLi: 10},
		{page: 0, size: 5, wantOffset: 0, wantLi: 5},
		{page: 2, size: 0, wantOffset: DefaultPageSize, wantLi: DefaultPageSize},
		{page: 1, size: 1000, wantOffset: 0, wantLi: DefaultPageSize},
		{page: math.MaxInt, size: MaxPageSize, wantOffset: (MaxPage - 1) * MaxPageSize, wantLi: MaxPageSize},
		{page: math.MinInt, size: 10, wantOffset: 0, wantLi: 10},
	}
	for _, tt := range tests {
		offset, limit := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.wantOffset, offset)
		assert.Equal(t, tt.wantLi, limit)
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("abc", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
}

func TestMeta(t *testing.T) {
	t.Parallel()

	m := Meta(2, 10, 25)
	assert.EqualValues(t, 3, m["total_pages"])
	assert.Equal(t, true, m["has_prev"])
	assert.Equal(t, true, m["has_next"])

	m = Meta(3, 10, 25)
	assert.Equal(t, false, m["has_next"])

	m = Meta(math.MaxInt, 10, 25)
	assert.Equal(t, MaxPage, m["page"])
	assert.Equal(t, false, m["has_next"])
}
