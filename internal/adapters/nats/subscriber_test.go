package natsadapter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tenaworks/proximity/internal/core/domain"
)

func TestDispatch(t *testing.T) {
	valid := []byte(`{"provider_id":"a","location":{"latitude":9.03,"longitude":38.74}}`)

	tests := []struct {
		name    string
		data    []byte
		err     error
		want    disposition
		applied bool
	}{
		{"applied", valid, nil, ack, true},
		{"malformed", []byte("{not json"), nil, term, false},
		{"unknown provider", valid, fmt.Errorf("provider a: %w", domain.ErrNotFound), term, true},
		{"invalid coordinates", valid, fmt.Errorf("lat 95: %w", domain.ErrInvalidCoordinates), term, true},
		{"transient", valid, errors.New("connection reset"), nak, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applied := false
			got := dispatch(context.Background(), LocationSubject("a"), tt.data, func(ctx context.Context, u *domain.LocationUpdate) error {
				applied = true
				if u.ProviderID != "a" {
					t.Errorf("expected provider a, got %q", u.ProviderID)
				}
				return tt.err
			})
			if got != tt.want {
				t.Errorf("expected disposition %d, got %d", tt.want, got)
			}
			if applied != tt.applied {
				t.Errorf("expected applied=%v, got %v", tt.applied, applied)
			}
		})
	}
}
