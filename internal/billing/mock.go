package billing

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// DefaultMockDelay is how long a mock payment takes
const DefaultMockDelay = 2 * time.Second

// MockProcessor simulates a card payment that always succeeds
type MockProcessor struct {
	delay time.Duration
}

var _ Processor = (*MockProcessor)(nil)

// NewMockProcessor creates a MockProcessor. A negative delay uses DefaultMockDelay.
func NewMockProcessor(delay time.Duration) *MockProcessor {
	if delay < 0 {
		delay = DefaultMockDelay
	}
	return &MockProcessor{delay: delay}
}

// Checkout waits for the configured delay and reports success.
// It returns ctx.Err() if the context ends first.
func (m *MockProcessor) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	if !req.Plan.IsPaid() {
		return CheckoutResult{}, ErrNoPaymentRequired
	}

	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return CheckoutResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	result := CheckoutResult{
		Status:    CheckoutCompleted,
		PlanID:    req.Plan.ID,
		PaymentID: "pi_mock_" + uuid.NewString(),
	}
	log.Printf("Mock payment %s succeeded for %s (plan: %s)", result.PaymentID, req.UserID, req.Plan.ID)
	return result, nil
}
