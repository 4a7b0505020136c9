package domain

import "time"

// UserPlan enumerates billing plans.
type UserPlan string

const (
	UserPlanFree       UserPlan = "free"
	UserPlanBasic      UserPlan = "basic"
	UserPlanPro        UserPlan = "pro"
	UserPlanInfluencer UserPlan = "influencer"
)

// UnlimitedQuota marks a plan with no daily generation cap.
const UnlimitedQuota = -1

// DailyLimit returns the number of generations per day the plan allows.
func (p UserPlan) DailyLimit() int {
	switch p {
	case UserPlanBasic:
		return 50
	case UserPlanPro, UserPlanInfluencer:
		return UnlimitedQuota
	default:
		return 10
	}
}

// Valid reports whether the plan is one the platform sells.
func (p UserPlan) Valid() bool {
	switch p {
	case UserPlanFree, UserPlanBasic, UserPlanPro, UserPlanInfluencer:
		return true
	}
	return false
}

// User represents a signed-up account.
type User struct {
	Email          string
	PasswordHash   string
	Plan           UserPlan
	DailyLimit     int
	SubscriptionID string
	CreatedAt      time.Time
}

// IsUnlimited reports whether the account has no daily cap.
func (u User) IsUnlimited() bool {
	return u.DailyLimit == UnlimitedQuota
}
