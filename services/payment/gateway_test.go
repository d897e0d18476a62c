package payment

import (
	"testing"
	"time"

	"barberly/models"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRefundPolicy(t *testing.T) {
	startsAt := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)
	b := models.Booking{Price: 45}

	tests := []struct {
		name string
		now  time.Time
		b    models.Booking
		want float64
	}{
		{"two days ahead", startsAt.Add(-48 * time.Hour), b, 45},
		{"exactly a day ahead", startsAt.Add(-24 * time.Hour), b, 45},
		{"same day", startsAt.Add(-3 * time.Hour), b, 22.5},
		{"after start", startsAt.Add(time.Minute), b, 0},
		{"already refunded", startsAt.Add(-48 * time.Hour), models.Booking{Price: 45, RefundedAmount: 45}, 0},
		{"fractional price", startsAt.Add(-time.Hour), models.Booking{Price: 25.5}, 12.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DefaultRefundPolicy(tt.b, startsAt, tt.now), 0.001)
		})
	}
}

func TestFullRefundPolicy(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 30.0, FullRefundPolicy(models.Booking{Price: 30}, now, now))
	assert.Equal(t, 0.0, FullRefundPolicy(models.Booking{Price: 30, RefundedAmount: 40}, now, now))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), toMinorUnits(19.99))
	assert.Equal(t, int64(4500), toMinorUnits(45))
	assert.Equal(t, 19.99, fromMinorUnits(1999))
}
