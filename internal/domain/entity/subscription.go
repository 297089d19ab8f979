package entity

import "time"

// SubscriptionStatus is the lifecycle state of a paid plan.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a user's paid plan.
type Subscription struct {
	ID        string
	UserID    string
	PlanID    string
	Status    SubscriptionStatus
	StartDate time.Time
	EndDate   *time.Time
}

// IsActiveAt reports whether the subscription grants paid access at t.
// An active subscription without an end date never lapses.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	if s == nil || s.Status != SubscriptionActive {
		return false
	}
	return s.EndDate == nil || !s.EndDate.Before(t)
}
