package domain

import (
	"testing"
	"time"
)

func TestInvitationIsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name string
		inv  Invitation
		want bool
	}{
		{"pending and future expiry", Invitation{Status: RequestPending, ExpiresAt: &future}, false},
		{"pending and past expiry", Invitation{Status: RequestPending, ExpiresAt: &past}, true},
		{"pending without expiry", Invitation{Status: RequestPending}, false},
		{"already accepted", Invitation{Status: RequestAccepted, ExpiresAt: &past}, false},
		{"already declined", Invitation{Status: RequestDeclined, ExpiresAt: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.inv.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}
