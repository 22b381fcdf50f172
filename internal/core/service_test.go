package core_test

import (
	"testing"
	"time"

	"pantry-monolith/internal/core"
	"pantry-monolith/internal/store"
)

func newTestService(t *testing.T) (*core.Service, *store.Store) {
	t.Helper()
	// Unique in-memory database per test to avoid cross-test collisions.
	st, err := store.NewStore("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return core.NewService(st), st
}

func newTestHousehold(t *testing.T, service *core.Service) *core.Household {
	t.Helper()
	user, err := service.CreateUser("tester-" + t.Name())
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	household, err := service.CreateHousehold("Home", user.ID, "en")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return household
}

func mustCreateProduct(t *testing.T, service *core.Service, householdID int64, name string, recurring bool, now time.Time) *core.Product {
	t.Helper()
	product, err := service.CreateProduct(householdID, name, "", 7, 2, recurring, "", now)
	if err != nil {
		t.Fatalf("create product %q: %v", name, err)
	}
	return product
}

func TestMarkBoughtRecurringRestocks(t *testing.T) {
	service, _ := newTestService(t)
	household := newTestHousehold(t, service)
	start := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	product := mustCreateProduct(t, service, household.ID, "Havermelk", true, start)
	if err := service.AddToList(product.ID, start); err != nil {
		t.Fatalf("add to list: %v", err)
	}

	boughtAt := start.AddDate(0, 0, 6)
	updated, err := service.MarkBought(product.ID, boughtAt)
	if err != nil {
		t.Fatalf("mark bought: %v", err)
	}
	if updated.Status != core.StatusStocked {
		t.Fatalf("status = %s, want %s", updated.Status, core.StatusStocked)
	}

	stored, err := service.GetProductByID(product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if !stored.IsActive {
		t.Fatal("recurring product must stay active after purchase")
	}
	if stored.Status != core.StatusStocked {
		t.Fatalf("stored status = %s, want %s", stored.Status, core.StatusStocked)
	}
	if !stored.LastRestockedAt.Equal(boughtAt) {
		t.Fatalf("last restocked at = %v, want %v", stored.LastRestockedAt, boughtAt)
	}
}

func TestMarkBoughtOneOffDeactivates(t *testing.T) {
	service, _ := newTestService(t)
	household := newTestHousehold(t, service)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	product := mustCreateProduct(t, service, household.ID, "Bananen", false, now)

	updated, err := service.MarkBought(product.ID, now)
	if err != nil {
		t.Fatalf("mark bought: %v", err)
	}
	if updated.IsActive {
		t.Fatal("one-off product must leave the system when bought")
	}

	found, err := service.FindProductByName(household.ID, "banan")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if found != nil {
		t.Fatal("deactivated product must not be searchable")
	}
}

func TestQuickAddExistingGoesOnList(t *testing.T) {
	service, _ := newTestService(t)
	household := newTestHousehold(t, service)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	mustCreateProduct(t, service, household.ID, "Havermelk", true, now)

	product, created, err := service.QuickAdd(household.ID, "haver", now)
	if err != nil {
		t.Fatalf("quick add: %v", err)
	}
	if created {
		t.Fatal("expected the existing product to match")
	}
	if product.Name != "Havermelk" {
		t.Fatalf("matched %q, want Havermelk", product.Name)
	}
	if product.Status != core.StatusOnList {
		t.Fatalf("status = %s, want %s", product.Status, core.StatusOnList)
	}
}

func TestQuickAddUnknownCreatesOneOff(t *testing.T) {
	service, _ := newTestService(t)
	household := newTestHousehold(t, service)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	product, created, err := service.QuickAdd(household.ID, "Slagroom", now)
	if err != nil {
		t.Fatalf("quick add: %v", err)
	}
	if !created {
		t.Fatal("expected a new product")
	}
	if product.IsRecurring {
		t.Fatal("quick-added products are one-off")
	}
	if product.Status != core.StatusOnList {
		t.Fatalf("status = %s, want %s", product.Status, core.StatusOnList)
	}
	if product.DaysUntilEmpty != core.DefaultDaysUntilEmpty || product.RemindDaysBefore != core.DefaultRemindDaysBefore {
		t.Fatalf("defaults = %d/%d, want %d/%d", product.DaysUntilEmpty, product.RemindDaysBefore,
			core.DefaultDaysUntilEmpty, core.DefaultRemindDaysBefore)
	}
}

func TestFindProductByNameFirstMatchWins(t *testing.T) {
	service, _ := newTestService(t)
	household := newTestHousehold(t, service)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	mustCreateProduct(t, service, household.ID, "Havermelk", true, now)
	mustCreateProduct(t, service, household.ID, "Haverkoekjes", true, now)

	product, err := service.FindProductByName(household.ID, "HAVER")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if product == nil || product.Name != "Havermelk" {
		t.Fatalf("matched %+v, want the first-created Havermelk", product)
	}
}

func TestMarkAllBought(t *testing.T) {
	service, _ := newTestService(t)
	household := newTestHousehold(t, service)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	recurring := mustCreateProduct(t, service, household.ID, "Melk", true, now)
	if err := service.AddToList(recurring.ID, now); err != nil {
		t.Fatalf("add to list: %v", err)
	}
	if _, _, err := service.QuickAdd(household.ID, "Bananen", now); err != nil {
		t.Fatalf("quick add: %v", err)
	}
	mustCreateProduct(t, service, household.ID, "Koffie", true, now) // stays stocked

	count, err := service.MarkAllBought(household.ID, now)
	if err != nil {
		t.Fatalf("mark all bought: %v", err)
	}
	if count != 2 {
		t.Fatalf("marked %d products, want 2", count)
	}

	needed, err := service.ListNeeded(household.ID, now)
	if err != nil {
		t.Fatalf("list needed: %v", err)
	}
	if len(needed) != 0 {
		t.Fatalf("shopping list still has %d items", len(needed))
	}
}

func TestListUrgentFiltersByWindow(t *testing.T) {
	service, _ := newTestService(t)
	household := newTestHousehold(t, service)
	start := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	mustCreateProduct(t, service, household.ID, "Melk", true, start) // 7d cycle
	if _, err := service.CreateProduct(household.ID, "Rijst", "", 30, 2, true, "", start); err != nil {
		t.Fatalf("create product: %v", err)
	}

	now := start.AddDate(0, 0, 6)
	urgent, err := service.ListUrgent(household.ID, now)
	if err != nil {
		t.Fatalf("list urgent: %v", err)
	}
	if len(urgent) != 1 || urgent[0].Product.Name != "Melk" {
		t.Fatalf("urgent = %+v, want only Melk", urgent)
	}
}

func TestCompleteReminderRecurringNeverDone(t *testing.T) {
	service, _ := newTestService(t)
	household := newTestHousehold(t, service)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	due := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	repeat := 14
	reminder, err := service.CreateReminder(household.ID, "Planten water geven", "", &due, &repeat, now)
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	completed, err := service.CompleteReminder(reminder.ID, now)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.IsDone {
		t.Fatal("recurring reminder must never become done")
	}
	if want := due.AddDate(0, 0, repeat); !completed.DueDate.Equal(want) {
		t.Fatalf("due date = %v, want %v", completed.DueDate, want)
	}

	stored, err := service.GetReminderByID(reminder.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.IsDone {
		t.Fatal("stored recurring reminder flipped to done")
	}
	if want := due.AddDate(0, 0, repeat); !stored.DueDate.Equal(want) {
		t.Fatalf("stored due date = %v, want %v", stored.DueDate, want)
	}
}

func TestCompleteReminderOneOff(t *testing.T) {
	service, _ := newTestService(t)
	household := newTestHousehold(t, service)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	reminder, err := service.CreateReminder(household.ID, "Stofzuigen", "", nil, nil, now)
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}
	if want := now.AddDate(0, 0, core.DefaultReminderLeadDays); !reminder.DueDate.Equal(want) {
		t.Fatalf("default due date = %v, want %v", reminder.DueDate, want)
	}

	completed, err := service.CompleteReminder(reminder.ID, now)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !completed.IsDone {
		t.Fatal("one-off reminder should be done after completion")
	}

	pending, err := service.PendingReminders(household.ID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("still %d pending reminders", len(pending))
	}
}

func TestToggleReminderDoneReopens(t *testing.T) {
	service, _ := newTestService(t)
	household := newTestHousehold(t, service)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	reminder, err := service.CreateReminder(household.ID, "Ramen lappen", "", nil, nil, now)
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	toggled, err := service.ToggleReminderDone(reminder.ID, now)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.IsDone {
		t.Fatal("first toggle should mark done")
	}

	reopened, err := service.ToggleReminderDone(reminder.ID, now)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if reopened.IsDone {
		t.Fatal("second toggle should reopen")
	}
}

func TestCompleteReminderByTitleNoMatch(t *testing.T) {
	service, _ := newTestService(t)
	household := newTestHousehold(t, service)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	reminder, err := service.CompleteReminderByTitle(household.ID, "bestaat niet", now)
	if err != nil {
		t.Fatalf("complete by title: %v", err)
	}
	if reminder != nil {
		t.Fatalf("matched %+v, want no match", reminder)
	}
}

func TestHouseholdChatResolutionFailsClosed(t *testing.T) {
	service, _ := newTestService(t)
	household := newTestHousehold(t, service)

	if _, err := service.HouseholdByChatID("424242"); err == nil {
		t.Fatal("unknown chat must not resolve to a household")
	}

	linked, err := service.LinkTelegramChat(household.InviteCode, "424242")
	if err != nil {
		t.Fatalf("link chat: %v", err)
	}
	if linked.ChatID() != "424242" {
		t.Fatalf("chat id = %q, want 424242", linked.ChatID())
	}

	resolved, err := service.HouseholdByChatID("424242")
	if err != nil {
		t.Fatalf("resolve after link: %v", err)
	}
	if resolved.ID != household.ID {
		t.Fatalf("resolved household %d, want %d", resolved.ID, household.ID)
	}
}
