package budget

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BudgetIDLayout is the timestamp layout embedded in generated budget IDs.
const BudgetIDLayout = "20060102150405"

// NewBudgetID returns "BUD" followed by the local timestamp at second
// resolution. Two budgets created within the same second would collide, so
// a taken ID gets a short random suffix.
func NewBudgetID(ctx context.Context, s AOPStore, now time.Time) (string, error) {
	id := "BUD" + now.Format(BudgetIDLayout)

	taken, err := s.BudgetIDExists(ctx, id)
	if err != nil {
		return "", err
	}
	if !taken {
		return id, nil
	}
	return id + "-" + uuid.NewString()[:8], nil
}
