// Package user provides the HTTP handlers for account-level endpoints.
package user

import "time"

// CountResponse is the body of GET /users/count.
type CountResponse struct {
	TotalUsers int64 `json:"total_users" example:"1520"`
}

// SubscriptionDTO is the caller's active plan.
type SubscriptionDTO struct {
	ID        string     `json:"id"`
	PlanID    string     `json:"planId"`
	Status    string     `json:"status" example:"active"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}

// SubscriptionResponse is the body of GET /users/me/subscription.
type SubscriptionResponse struct {
	IsPaidUser   bool             `json:"isPaidUser"`
	Subscription *SubscriptionDTO `json:"subscription"`
}

// StepsBody is both the request and response of the steps endpoints.
type StepsBody struct {
	CompletedSteps []string `json:"completedSteps" example:"intro,first-pr"`
}
