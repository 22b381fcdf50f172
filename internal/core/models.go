package core

import "time"

// Household is the tenant boundary. Products and reminders belong to exactly
// one household; the Telegram chat id is the notification channel for all of them.
type Household struct {
	ID             int64
	Name           string
	InviteCode     string
	TelegramChatID *string // Nullable; unset means no notifications
	Language       string
	CreatedAt      time.Time
}

// ChatID returns the linked chat id, or "" when no chat is linked.
func (h *Household) ChatID() string {
	if h.TelegramChatID == nil {
		return ""
	}
	return *h.TelegramChatID
}

// User represents a web user. Users authenticate via the bot's hash login link
// and join households with invite codes.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

// HouseholdMember represents a user's membership in a household
type HouseholdMember struct {
	UserID      int64
	HouseholdID int64
	JoinedAt    time.Time
}

// ProductStatus represents where a product sits in its restock cycle
type ProductStatus string

const (
	StatusStocked  ProductStatus = "stocked"
	StatusOnList   ProductStatus = "on_list"
	StatusReminded ProductStatus = "reminded"
	// StatusBought exists in the original schema but no transition produces it.
	StatusBought ProductStatus = "bought"
)

// Product is a tracked consumable with a predictable depletion cycle.
type Product struct {
	ID               int64
	HouseholdID      int64
	Name             string
	Category         string
	DaysUntilEmpty   int // Consumption cycle length, days
	RemindDaysBefore int
	LastRestockedAt  time.Time
	Status           ProductStatus
	IsRecurring      bool // One-off products leave the system when bought
	ShopURL          string
	IsActive         bool // Soft-delete flag; inactive products are invisible
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Reminder is a due-dated household chore, optionally recurring.
type Reminder struct {
	ID          int64
	HouseholdID int64
	Title       string
	Description string
	DueDate     time.Time
	RepeatDays  *int // Nullable; nil means one-off
	IsDone      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRecurring reports whether completing the reminder rolls the due date
// forward instead of marking it done.
func (r *Reminder) IsRecurring() bool {
	return r.RepeatDays != nil && *r.RepeatDays > 0
}

// RepeatEvery returns the repeat interval in days, or 0 for one-off reminders.
func (r *Reminder) RepeatEvery() int {
	if r.RepeatDays == nil {
		return 0
	}
	return *r.RepeatDays
}

// DispatchLogEntry is an append-only record of a sent product reminder.
type DispatchLogEntry struct {
	ID        int64
	RunID     string
	ProductID int64
	Message   string
	CreatedAt time.Time
}
