package store

import (
	"testing"
	"time"

	"pantry-monolith/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedHousehold(t *testing.T, st *Store) *core.Household {
	t.Helper()
	household, err := st.CreateHousehold("Home", "code-"+t.Name(), "en")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return household
}

func seedProduct(t *testing.T, st *Store, householdID int64, name string, status core.ProductStatus) *core.Product {
	t.Helper()
	product, err := st.CreateProduct(&core.Product{
		HouseholdID:      householdID,
		Name:             name,
		DaysUntilEmpty:   7,
		RemindDaysBefore: 2,
		LastRestockedAt:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Status:           status,
		IsRecurring:      true,
		IsActive:         true,
	})
	if err != nil {
		t.Fatalf("create product %q: %v", name, err)
	}
	return product
}

func TestSearchActiveProductsOrderAndCase(t *testing.T) {
	st := newTestStore(t)
	household := seedHousehold(t, st)

	seedProduct(t, st, household.ID, "Havermelk", core.StatusStocked)
	seedProduct(t, st, household.ID, "Haverkoekjes", core.StatusStocked)
	seedProduct(t, st, household.ID, "Koffie", core.StatusStocked)

	matches, err := st.SearchActiveProducts(household.ID, "HAVER")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].Name != "Havermelk" || matches[1].Name != "Haverkoekjes" {
		t.Fatalf("order = %s, %s; want creation order", matches[0].Name, matches[1].Name)
	}
}

func TestSearchExcludesInactive(t *testing.T) {
	st := newTestStore(t)
	household := seedHousehold(t, st)

	product := seedProduct(t, st, household.ID, "Bananen", core.StatusOnList)
	if err := st.DeactivateProduct(product.ID, time.Now()); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	matches, err := st.SearchActiveProducts(household.ID, "banan")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("matches = %d, want 0", len(matches))
	}
}

func TestGetActiveStockedProductsFiltersStatus(t *testing.T) {
	st := newTestStore(t)
	household := seedHousehold(t, st)

	seedProduct(t, st, household.ID, "Melk", core.StatusStocked)
	seedProduct(t, st, household.ID, "Brood", core.StatusOnList)
	seedProduct(t, st, household.ID, "Kaas", core.StatusReminded)

	stocked, err := st.GetActiveStockedProducts()
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(stocked) != 1 || stocked[0].Name != "Melk" {
		t.Fatalf("stocked = %+v, want only Melk", stocked)
	}
}

func TestGetDueRemindersBoundary(t *testing.T) {
	st := newTestStore(t)
	household := seedHousehold(t, st)
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	mustReminder := func(title string, due time.Time, done bool) *core.Reminder {
		r, err := st.CreateReminder(&core.Reminder{
			HouseholdID: household.ID,
			Title:       title,
			DueDate:     due,
			IsDone:      done,
		})
		if err != nil {
			t.Fatalf("create reminder %q: %v", title, err)
		}
		return r
	}

	mustReminder("past", now.AddDate(0, 0, -1), false)
	mustReminder("exactly now", now, false)
	mustReminder("future", now.AddDate(0, 0, 1), false)
	mustReminder("done", now.AddDate(0, 0, -5), true)

	due, err := st.GetDueReminders(now)
	if err != nil {
		t.Fatalf("due reminders: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due = %d, want 2 (past and exactly-now)", len(due))
	}
	for _, r := range due {
		if r.Title == "future" || r.Title == "done" {
			t.Fatalf("%q must not be due", r.Title)
		}
	}
}

func TestReminderRepeatDaysRoundTrip(t *testing.T) {
	st := newTestStore(t)
	household := seedHousehold(t, st)
	repeat := 14

	created, err := st.CreateReminder(&core.Reminder{
		HouseholdID: household.ID,
		Title:       "Planten",
		DueDate:     time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		RepeatDays:  &repeat,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.RepeatDays == nil || *created.RepeatDays != 14 {
		t.Fatalf("repeat days = %v, want 14", created.RepeatDays)
	}

	oneOff, err := st.CreateReminder(&core.Reminder{
		HouseholdID: household.ID,
		Title:       "Eenmalig",
		DueDate:     time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create one-off: %v", err)
	}
	if oneOff.RepeatDays != nil {
		t.Fatalf("one-off repeat days = %v, want nil", *oneOff.RepeatDays)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	if err := st.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
