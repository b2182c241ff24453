package valueobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplayDate(t *testing.T) {
	t.Run("renders in Phnom Penh time", func(t *testing.T) {
		at := time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC)
		assert.Equal(t, "05 Mar 2024 / 3:30 PM", DisplayDate(&at))
	})

	t.Run("nil and zero render empty", func(t *testing.T) {
		var zero time.Time
		assert.Empty(t, DisplayDate(nil))
		assert.Empty(t, DisplayDate(&zero))
	})
}
