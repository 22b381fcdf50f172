package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Defaults applied when a product is created through quick-add with no
// explicit cycle, matching the web form's initial values.
const (
	DefaultDaysUntilEmpty   = 7
	DefaultRemindDaysBefore = 2
	DefaultReminderLeadDays = 7
)

// Store interface defines the methods required from the storage layer
type Store interface {
	// User operations
	CreateUser(username string) (*User, error)
	GetUserByID(id int64) (*User, error)
	GetUserByUsername(username string) (*User, error)

	// Household operations
	CreateHousehold(name, inviteCode, language string) (*Household, error)
	GetHouseholdByID(id int64) (*Household, error)
	GetHouseholdByInviteCode(inviteCode string) (*Household, error)
	GetHouseholdByChatID(chatID string) (*Household, error)
	GetHouseholdsByUserID(userID int64) ([]*Household, error)
	UpdateHousehold(id int64, name string, telegramChatID *string, language string) error
	AddUserToHousehold(userID, householdID int64) error
	IsUserInHousehold(userID, householdID int64) (bool, error)

	// Product operations
	CreateProduct(p *Product) (*Product, error)
	GetProductByID(id int64) (*Product, error)
	GetActiveProductsByHousehold(householdID int64) ([]*Product, error)
	GetActiveStockedProducts() ([]*Product, error)
	SearchActiveProducts(householdID int64, nameSubstring string) ([]*Product, error)
	UpdateProduct(id int64, name, category string, daysUntilEmpty, remindDaysBefore int, isRecurring bool, shopURL string, now time.Time) error
	SetProductStatus(id int64, status ProductStatus, now time.Time) error
	RestockProduct(id int64, now time.Time) error
	DeactivateProduct(id int64, now time.Time) error

	// Reminder operations
	CreateReminder(r *Reminder) (*Reminder, error)
	GetReminderByID(id int64) (*Reminder, error)
	GetRemindersByHousehold(householdID int64) ([]*Reminder, error)
	GetDueReminders(now time.Time) ([]*Reminder, error)
	UpdateReminder(id int64, title, description string, dueDate time.Time, repeatDays *int, now time.Time) error
	SetReminderDone(id int64, done bool, now time.Time) error
	AdvanceReminderDueDate(id int64, dueDate time.Time, now time.Time) error
	DeleteReminder(id int64) error

	// Dispatch log operations
	AppendDispatchLog(entry *DispatchLogEntry) error
}

// Service provides business logic for the application
type Service struct {
	store Store
}

// NewService creates a new Service instance
func NewService(store Store) *Service {
	return &Service{
		store: store,
	}
}

// CreateUser creates a new user
func (s *Service) CreateUser(username string) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	return s.store.CreateUser(username)
}

// GetUserByID retrieves a user by ID
func (s *Service) GetUserByID(id int64) (*User, error) {
	return s.store.GetUserByID(id)
}

// GetUserByUsername retrieves a user by username
func (s *Service) GetUserByUsername(username string) (*User, error) {
	return s.store.GetUserByUsername(username)
}

// CreateHousehold creates a new household with a generated invite code and
// adds the creator as its first member.
func (s *Service) CreateHousehold(name string, creatorUserID int64, language string) (*Household, error) {
	if name == "" {
		return nil, fmt.Errorf("household name cannot be empty")
	}
	if language == "" {
		language = "en"
	}

	inviteCode, err := generateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}

	household, err := s.store.CreateHousehold(name, inviteCode, language)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddUserToHousehold(creatorUserID, household.ID); err != nil {
		return nil, fmt.Errorf("failed to add creator to household: %w", err)
	}

	return household, nil
}

// GetHouseholdByID retrieves a household by ID
func (s *Service) GetHouseholdByID(id int64) (*Household, error) {
	return s.store.GetHouseholdByID(id)
}

// GetHouseholdsByUserID retrieves all households for a user
func (s *Service) GetHouseholdsByUserID(userID int64) ([]*Household, error) {
	return s.store.GetHouseholdsByUserID(userID)
}

// JoinHousehold adds a user to a household using an invite code
func (s *Service) JoinHousehold(userID int64, inviteCode string) (*Household, error) {
	household, err := s.store.GetHouseholdByInviteCode(inviteCode)
	if err != nil {
		return nil, err
	}

	isMember, err := s.store.IsUserInHousehold(userID, household.ID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, fmt.Errorf("user is already a member of this household")
	}

	if err := s.store.AddUserToHousehold(userID, household.ID); err != nil {
		return nil, err
	}

	return household, nil
}

// UpdateHouseholdSettings updates name, notification channel and language.
// An empty chat id unlinks the household from Telegram.
func (s *Service) UpdateHouseholdSettings(id int64, name, telegramChatID, language string) error {
	if name == "" {
		return fmt.Errorf("household name cannot be empty")
	}
	var chatID *string
	if telegramChatID != "" {
		chatID = &telegramChatID
	}
	return s.store.UpdateHousehold(id, name, chatID, language)
}

// LinkTelegramChat binds a chat id to the household matching the invite code.
func (s *Service) LinkTelegramChat(inviteCode, chatID string) (*Household, error) {
	household, err := s.store.GetHouseholdByInviteCode(inviteCode)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateHousehold(household.ID, household.Name, &chatID, household.Language); err != nil {
		return nil, err
	}
	household.TelegramChatID = &chatID
	return household, nil
}

// HouseholdByChatID resolves an inbound chat to its household. Resolution
// fails closed: unknown chats get an error, never a new household.
func (s *Service) HouseholdByChatID(chatID string) (*Household, error) {
	return s.store.GetHouseholdByChatID(chatID)
}

// CreateProduct adds a new tracked consumable, stocked as of now.
func (s *Service) CreateProduct(householdID int64, name, category string, daysUntilEmpty, remindDaysBefore int, isRecurring bool, shopURL string, now time.Time) (*Product, error) {
	if name == "" {
		return nil, fmt.Errorf("product name cannot be empty")
	}
	if daysUntilEmpty <= 0 {
		return nil, fmt.Errorf("days until empty must be positive")
	}
	if remindDaysBefore < 0 {
		return nil, fmt.Errorf("remind days before cannot be negative")
	}

	return s.store.CreateProduct(&Product{
		HouseholdID:      householdID,
		Name:             name,
		Category:         category,
		DaysUntilEmpty:   daysUntilEmpty,
		RemindDaysBefore: remindDaysBefore,
		LastRestockedAt:  now,
		Status:           StatusStocked,
		IsRecurring:      isRecurring,
		ShopURL:          shopURL,
		IsActive:         true,
	})
}

// GetProductByID retrieves a product by ID
func (s *Service) GetProductByID(id int64) (*Product, error) {
	return s.store.GetProductByID(id)
}

// UpdateProduct edits a product's attributes. Status and the restock anchor
// are never touched by an edit.
func (s *Service) UpdateProduct(id int64, name, category string, daysUntilEmpty, remindDaysBefore int, isRecurring bool, shopURL string, now time.Time) error {
	if name == "" {
		return fmt.Errorf("product name cannot be empty")
	}
	if daysUntilEmpty <= 0 {
		return fmt.Errorf("days until empty must be positive")
	}
	if remindDaysBefore < 0 {
		return fmt.Errorf("remind days before cannot be negative")
	}
	return s.store.UpdateProduct(id, name, category, daysUntilEmpty, remindDaysBefore, isRecurring, shopURL, now)
}

// AddToList puts a stocked product on the shopping list.
func (s *Service) AddToList(productID int64, now time.Time) error {
	product, err := s.store.GetProductByID(productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return fmt.Errorf("product is no longer active")
	}
	return s.store.SetProductStatus(productID, StatusOnList, now)
}

// MarkBought applies the bought transition: recurring products cycle back to
// stocked with a fresh timer, one-off products leave the system.
func (s *Service) MarkBought(productID int64, now time.Time) (*Product, error) {
	product, err := s.store.GetProductByID(productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("product is no longer active")
	}

	if product.IsRecurring {
		if err := s.store.RestockProduct(productID, now); err != nil {
			return nil, err
		}
		product.Status = StatusStocked
		product.LastRestockedAt = now
		return product, nil
	}

	if err := s.store.DeactivateProduct(productID, now); err != nil {
		return nil, err
	}
	product.IsActive = false
	return product, nil
}

// MarkAllBought applies the bought transition to every listed product of the
// household and returns how many were affected.
func (s *Service) MarkAllBought(householdID int64, now time.Time) (int, error) {
	listed, err := s.ListNeeded(householdID, now)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, item := range listed {
		if _, err := s.MarkBought(item.Product.ID, now); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// RemoveProduct soft-deletes a product regardless of its current status.
func (s *Service) RemoveProduct(productID int64, now time.Time) error {
	return s.store.DeactivateProduct(productID, now)
}

// FindProductByName does a case-insensitive substring match over the
// household's active products. Returns (nil, nil) when nothing matches; the
// first match by creation order wins when several do.
func (s *Service) FindProductByName(householdID int64, query string) (*Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	matches, err := s.store.SearchActiveProducts(householdID, query)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// QuickAdd puts an existing product on the list by name, or creates a one-off
// product that starts on the list. Returns whether a product was created.
func (s *Service) QuickAdd(householdID int64, name string, now time.Time) (*Product, bool, error) {
	existing, err := s.FindProductByName(householdID, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if err := s.store.SetProductStatus(existing.ID, StatusOnList, now); err != nil {
			return nil, false, err
		}
		existing.Status = StatusOnList
		return existing, false, nil
	}

	product, err := s.store.CreateProduct(&Product{
		HouseholdID:      householdID,
		Name:             name,
		DaysUntilEmpty:   DefaultDaysUntilEmpty,
		RemindDaysBefore: DefaultRemindDaysBefore,
		LastRestockedAt:  now,
		Status:           StatusOnList,
		IsRecurring:      false,
		IsActive:         true,
	})
	if err != nil {
		return nil, false, err
	}
	return product, true, nil
}

// ListProducts returns every active product of the household with its timing,
// soonest-empty first.
func (s *Service) ListProducts(householdID int64, now time.Time) ([]ProductWithTiming, error) {
	products, err := s.store.GetActiveProductsByHousehold(householdID)
	if err != nil {
		return nil, err
	}
	return projectAndSort(products, now), nil
}

// ListNeeded returns the shopping list: products on the list or already
// reminded, soonest-empty first.
func (s *Service) ListNeeded(householdID int64, now time.Time) ([]ProductWithTiming, error) {
	all, err := s.ListProducts(householdID, now)
	if err != nil {
		return nil, err
	}
	var needed []ProductWithTiming
	for _, item := range all {
		if item.Product.Status == StatusOnList || item.Product.Status == StatusReminded {
			needed = append(needed, item)
		}
	}
	return needed, nil
}

// ListUrgent returns stocked products whose countdown has entered the remind
// window, soonest-empty first.
func (s *Service) ListUrgent(householdID int64, now time.Time) ([]ProductWithTiming, error) {
	all, err := s.ListProducts(householdID, now)
	if err != nil {
		return nil, err
	}
	var urgent []ProductWithTiming
	for _, item := range all {
		if item.Product.Status != StatusStocked {
			continue
		}
		if item.Timing.DaysRemaining <= item.Product.RemindDaysBefore {
			urgent = append(urgent, item)
		}
	}
	return urgent, nil
}

func projectAndSort(products []*Product, now time.Time) []ProductWithTiming {
	items := make([]ProductWithTiming, 0, len(products))
	for _, p := range products {
		items = append(items, ProductWithTiming{Product: p, Timing: Project(p, now)})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timing.DaysRemaining < items[j].Timing.DaysRemaining
	})
	return items
}

// CreateReminder creates a reminder. A nil due date defaults to a week out.
func (s *Service) CreateReminder(householdID int64, title, description string, dueDate *time.Time, repeatDays *int, now time.Time) (*Reminder, error) {
	if title == "" {
		return nil, fmt.Errorf("reminder title cannot be empty")
	}
	if repeatDays != nil && *repeatDays <= 0 {
		return nil, fmt.Errorf("repeat days must be positive")
	}

	due := now.AddDate(0, 0, DefaultReminderLeadDays)
	if dueDate != nil {
		due = *dueDate
	}

	return s.store.CreateReminder(&Reminder{
		HouseholdID: householdID,
		Title:       title,
		Description: description,
		DueDate:     due,
		RepeatDays:  repeatDays,
		IsDone:      false,
	})
}

// GetReminderByID retrieves a reminder by ID
func (s *Service) GetReminderByID(id int64) (*Reminder, error) {
	return s.store.GetReminderByID(id)
}

// UpdateReminder edits a reminder's attributes.
func (s *Service) UpdateReminder(id int64, title, description string, dueDate time.Time, repeatDays *int, now time.Time) error {
	if title == "" {
		return fmt.Errorf("reminder title cannot be empty")
	}
	if repeatDays != nil && *repeatDays <= 0 {
		return fmt.Errorf("repeat days must be positive")
	}
	return s.store.UpdateReminder(id, title, description, dueDate, repeatDays, now)
}

// CompleteReminder finishes a reminder. Recurring reminders never become
// done; their due date advances by the repeat interval instead.
func (s *Service) CompleteReminder(id int64, now time.Time) (*Reminder, error) {
	reminder, err := s.store.GetReminderByID(id)
	if err != nil {
		return nil, err
	}

	if reminder.IsRecurring() {
		next := reminder.DueDate.AddDate(0, 0, *reminder.RepeatDays)
		if err := s.store.AdvanceReminderDueDate(id, next, now); err != nil {
			return nil, err
		}
		reminder.DueDate = next
		return reminder, nil
	}

	if err := s.store.SetReminderDone(id, true, now); err != nil {
		return nil, err
	}
	reminder.IsDone = true
	return reminder, nil
}

// ToggleReminderDone is the interactive checkbox: completing an open
// recurring reminder advances it, everything else flips the done flag.
func (s *Service) ToggleReminderDone(id int64, now time.Time) (*Reminder, error) {
	reminder, err := s.store.GetReminderByID(id)
	if err != nil {
		return nil, err
	}

	if !reminder.IsDone && reminder.IsRecurring() {
		return s.CompleteReminder(id, now)
	}

	if err := s.store.SetReminderDone(id, !reminder.IsDone, now); err != nil {
		return nil, err
	}
	reminder.IsDone = !reminder.IsDone
	return reminder, nil
}

// CompleteReminderByTitle matches a pending reminder by case-insensitive
// substring and completes it. Returns (nil, nil) when nothing matches.
func (s *Service) CompleteReminderByTitle(householdID int64, query string, now time.Time) (*Reminder, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	reminders, err := s.store.GetRemindersByHousehold(householdID)
	if err != nil {
		return nil, err
	}
	lowered := strings.ToLower(query)
	for _, r := range reminders {
		if r.IsDone {
			continue
		}
		if strings.Contains(strings.ToLower(r.Title), lowered) {
			return s.CompleteReminder(r.ID, now)
		}
	}
	return nil, nil
}

// PendingReminders returns the household's open reminders, earliest due first.
func (s *Service) PendingReminders(householdID int64) ([]*Reminder, error) {
	reminders, err := s.store.GetRemindersByHousehold(householdID)
	if err != nil {
		return nil, err
	}
	var pending []*Reminder
	for _, r := range reminders {
		if !r.IsDone {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// DoneReminders returns the household's completed one-off reminders.
func (s *Service) DoneReminders(householdID int64) ([]*Reminder, error) {
	reminders, err := s.store.GetRemindersByHousehold(householdID)
	if err != nil {
		return nil, err
	}
	var done []*Reminder
	for _, r := range reminders {
		if r.IsDone {
			done = append(done, r)
		}
	}
	return done, nil
}

// DeleteReminder hard-deletes a reminder.
func (s *Service) DeleteReminder(id int64) error {
	return s.store.DeleteReminder(id)
}

// generateInviteCode generates a random invite code
func generateInviteCode() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
