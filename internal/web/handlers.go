package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"pantry-monolith/internal/core"
)

type basePageData struct {
	Username  string
	Locale    string
	Household *core.Household
}

type dashboardData struct {
	basePageData
	Households []*core.Household
	Error      string
}

// productView pairs a product with its projection for the templates.
type productView struct {
	Product *core.Product
	Timing  core.Timing
	Urgency core.Urgency
}

type householdViewData struct {
	basePageData
	Products []productView
	Error    string
}

type shoppingListData struct {
	basePageData
	Items []productView
}

// reminderView annotates a reminder with its overdue state.
type reminderView struct {
	Reminder *core.Reminder
	Overdue  bool
}

type remindersData struct {
	basePageData
	Pending []reminderView
	Done    []*core.Reminder
}

type settingsData struct {
	basePageData
	Error   string
	Success string
}

func (s *Server) buildBasePageData(user *core.User, locale string, household *core.Household) basePageData {
	return basePageData{
		Username:  user.Username,
		Locale:    locale,
		Household: household,
	}
}

// loadHousehold resolves the {householdID} route parameter and checks the
// session user is a member.
func (s *Server) loadHousehold(w http.ResponseWriter, r *http.Request) (*core.User, *core.Household, bool) {
	userID, _ := s.getUserID(r)

	householdID, err := strconv.ParseInt(chi.URLParam(r, "householdID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid household ID", http.StatusBadRequest)
		return nil, nil, false
	}

	user, err := s.service.GetUserByID(userID)
	if err != nil {
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return nil, nil, false
	}

	household, err := s.service.GetHouseholdByID(householdID)
	if err != nil {
		http.Error(w, "Household not found", http.StatusNotFound)
		return nil, nil, false
	}

	households, err := s.service.GetHouseholdsByUserID(userID)
	if err != nil {
		http.Error(w, "Failed to load households", http.StatusInternalServerError)
		return nil, nil, false
	}
	for _, h := range households {
		if h.ID == household.ID {
			return user, household, true
		}
	}

	http.Error(w, "Not a member of this household", http.StatusForbidden)
	return nil, nil, false
}

func toProductViews(items []core.ProductWithTiming) []productView {
	views := make([]productView, 0, len(items))
	for _, item := range items {
		views = append(views, productView{
			Product: item.Product,
			Timing:  item.Timing,
			Urgency: core.UrgencyOf(item.Product, item.Timing),
		})
	}
	return views
}

// handleDashboard displays the user's households
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.getUserID(r)
	locale := s.detectLocale(r)

	user, err := s.service.GetUserByID(userID)
	if err != nil {
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	households, err := s.service.GetHouseholdsByUserID(userID)
	if err != nil {
		http.Error(w, "Failed to load households", http.StatusInternalServerError)
		return
	}

	data := dashboardData{
		basePageData: s.buildBasePageData(user, locale, nil),
		Households:   households,
		Error:        r.URL.Query().Get("error"),
	}

	s.renderTemplate(w, "dashboard.html", data)
}

// handleCreateHousehold creates a new household
func (s *Server) handleCreateHousehold(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.getUserID(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Error(w, "Household name is required", http.StatusBadRequest)
		return
	}

	household, err := s.service.CreateHousehold(name, userID, s.detectLocale(r))
	if err != nil {
		http.Error(w, "Failed to create household", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/households/"+strconv.FormatInt(household.ID, 10), http.StatusSeeOther)
}

// handleJoinHousehold joins a household using an invite code
func (s *Server) handleJoinHousehold(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.getUserID(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	inviteCode := strings.TrimSpace(r.FormValue("invite_code"))
	if inviteCode == "" {
		http.Error(w, "Invite code is required", http.StatusBadRequest)
		return
	}

	household, err := s.service.JoinHousehold(userID, inviteCode)
	if err != nil {
		http.Redirect(w, r, "/dashboard?error="+err.Error(), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/households/"+strconv.FormatInt(household.ID, 10), http.StatusSeeOther)
}

// handleHouseholdView displays all of a household's tracked products
func (s *Server) handleHouseholdView(w http.ResponseWriter, r *http.Request) {
	user, household, ok := s.loadHousehold(w, r)
	if !ok {
		return
	}
	locale := s.detectLocale(r)

	products, err := s.service.ListProducts(household.ID, time.Now())
	if err != nil {
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}

	data := householdViewData{
		basePageData: s.buildBasePageData(user, locale, household),
		Products:     toProductViews(products),
		Error:        r.URL.Query().Get("error"),
	}

	s.renderTemplate(w, "household.html", data)
}

// handleShoppingList displays the products currently needed
func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	user, household, ok := s.loadHousehold(w, r)
	if !ok {
		return
	}
	locale := s.detectLocale(r)

	items, err := s.service.ListNeeded(household.ID, time.Now())
	if err != nil {
		http.Error(w, "Failed to load shopping list", http.StatusInternalServerError)
		return
	}

	data := shoppingListData{
		basePageData: s.buildBasePageData(user, locale, household),
		Items:        toProductViews(items),
	}

	s.renderTemplate(w, "shopping_list.html", data)
}

// handleBoughtAll applies the bought transition to the whole shopping list
func (s *Server) handleBoughtAll(w http.ResponseWriter, r *http.Request) {
	_, household, ok := s.loadHousehold(w, r)
	if !ok {
		return
	}

	if _, err := s.service.MarkAllBought(household.ID, time.Now()); err != nil {
		log.Error().Err(err).Int64("household_id", household.ID).Msg("mark all bought failed")
	}

	http.Redirect(w, r, "/households/"+strconv.FormatInt(household.ID, 10)+"/shopping-list", http.StatusSeeOther)
}

// handleCreateProduct adds a new product to the household
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	_, household, ok := s.loadHousehold(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	category := strings.TrimSpace(r.FormValue("category"))
	shopURL := strings.TrimSpace(r.FormValue("shop_url"))
	daysUntilEmpty, _ := strconv.Atoi(r.FormValue("days_until_empty"))
	remindDaysBefore, err := strconv.Atoi(r.FormValue("remind_days_before"))
	if err != nil {
		remindDaysBefore = core.DefaultRemindDaysBefore
	}
	isRecurring := r.FormValue("is_recurring") != ""

	_, err = s.service.CreateProduct(household.ID, name, category, daysUntilEmpty, remindDaysBefore, isRecurring, shopURL, time.Now())
	if err != nil {
		http.Redirect(w, r, "/households/"+strconv.FormatInt(household.ID, 10)+"?error="+err.Error(), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/households/"+strconv.FormatInt(household.ID, 10), http.StatusSeeOther)
}

// productRedirect sends the user back to the product's household page
func (s *Server) productRedirect(w http.ResponseWriter, r *http.Request, householdID int64) {
	ref := r.Header.Get("Referer")
	if ref == "" {
		ref = "/households/" + strconv.FormatInt(householdID, 10)
	}
	http.Redirect(w, r, ref, http.StatusSeeOther)
}

func (s *Server) loadProduct(w http.ResponseWriter, r *http.Request) (*core.Product, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return nil, false
	}

	product, err := s.service.GetProductByID(productID)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return nil, false
	}

	return product, true
}

// handleUpdateProduct edits a product's attributes
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := s.loadProduct(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	category := strings.TrimSpace(r.FormValue("category"))
	shopURL := strings.TrimSpace(r.FormValue("shop_url"))
	daysUntilEmpty, _ := strconv.Atoi(r.FormValue("days_until_empty"))
	remindDaysBefore, _ := strconv.Atoi(r.FormValue("remind_days_before"))
	isRecurring := r.FormValue("is_recurring") != ""

	if err := s.service.UpdateProduct(product.ID, name, category, daysUntilEmpty, remindDaysBefore, isRecurring, shopURL, time.Now()); err != nil {
		http.Redirect(w, r, "/households/"+strconv.FormatInt(product.HouseholdID, 10)+"?error="+err.Error(), http.StatusSeeOther)
		return
	}

	s.productRedirect(w, r, product.HouseholdID)
}

// handleAddToList puts a product on the shopping list
func (s *Server) handleAddToList(w http.ResponseWriter, r *http.Request) {
	product, ok := s.loadProduct(w, r)
	if !ok {
		return
	}

	if err := s.service.AddToList(product.ID, time.Now()); err != nil {
		log.Error().Err(err).Int64("product_id", product.ID).Msg("add to list failed")
	}

	s.productRedirect(w, r, product.HouseholdID)
}

// handleMarkBought applies the bought transition to a single product
func (s *Server) handleMarkBought(w http.ResponseWriter, r *http.Request) {
	product, ok := s.loadProduct(w, r)
	if !ok {
		return
	}

	if _, err := s.service.MarkBought(product.ID, time.Now()); err != nil {
		log.Error().Err(err).Int64("product_id", product.ID).Msg("mark bought failed")
	}

	s.productRedirect(w, r, product.HouseholdID)
}

// handleDeleteProduct soft-deletes a product
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := s.loadProduct(w, r)
	if !ok {
		return
	}

	if err := s.service.RemoveProduct(product.ID, time.Now()); err != nil {
		log.Error().Err(err).Int64("product_id", product.ID).Msg("delete product failed")
	}

	s.productRedirect(w, r, product.HouseholdID)
}

// handleReminders displays the household's reminders
func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	user, household, ok := s.loadHousehold(w, r)
	if !ok {
		return
	}
	locale := s.detectLocale(r)
	now := time.Now()

	pending, err := s.service.PendingReminders(household.ID)
	if err != nil {
		http.Error(w, "Failed to load reminders", http.StatusInternalServerError)
		return
	}
	done, err := s.service.DoneReminders(household.ID)
	if err != nil {
		http.Error(w, "Failed to load reminders", http.StatusInternalServerError)
		return
	}

	views := make([]reminderView, 0, len(pending))
	for _, reminder := range pending {
		views = append(views, reminderView{
			Reminder: reminder,
			Overdue:  core.OverdueOn(reminder.DueDate, now),
		})
	}

	data := remindersData{
		basePageData: s.buildBasePageData(user, locale, household),
		Pending:      views,
		Done:         done,
	}

	s.renderTemplate(w, "reminders.html", data)
}

// handleCreateReminder creates a reminder from the form
func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	_, household, ok := s.loadHousehold(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))

	var dueDate *time.Time
	if due, err := time.Parse("2006-01-02", r.FormValue("due_date")); err == nil {
		dueDate = &due
	}

	var repeatDays *int
	if repeat, err := strconv.Atoi(r.FormValue("repeat_days")); err == nil && repeat > 0 {
		repeatDays = &repeat
	}

	if _, err := s.service.CreateReminder(household.ID, title, description, dueDate, repeatDays, time.Now()); err != nil {
		log.Error().Err(err).Int64("household_id", household.ID).Msg("create reminder failed")
	}

	http.Redirect(w, r, "/households/"+strconv.FormatInt(household.ID, 10)+"/reminders", http.StatusSeeOther)
}

func (s *Server) loadReminder(w http.ResponseWriter, r *http.Request) (*core.Reminder, bool) {
	reminderID, err := strconv.ParseInt(chi.URLParam(r, "reminderID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid reminder ID", http.StatusBadRequest)
		return nil, false
	}

	reminder, err := s.service.GetReminderByID(reminderID)
	if err != nil {
		http.Error(w, "Reminder not found", http.StatusNotFound)
		return nil, false
	}

	return reminder, true
}

// handleToggleReminder flips a reminder's done state; completing a recurring
// reminder advances its due date instead
func (s *Server) handleToggleReminder(w http.ResponseWriter, r *http.Request) {
	reminder, ok := s.loadReminder(w, r)
	if !ok {
		return
	}

	if _, err := s.service.ToggleReminderDone(reminder.ID, time.Now()); err != nil {
		log.Error().Err(err).Int64("reminder_id", reminder.ID).Msg("toggle reminder failed")
	}

	http.Redirect(w, r, "/households/"+strconv.FormatInt(reminder.HouseholdID, 10)+"/reminders", http.StatusSeeOther)
}

// handleUpdateReminder edits a reminder
func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	reminder, ok := s.loadReminder(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))

	dueDate := reminder.DueDate
	if due, err := time.Parse("2006-01-02", r.FormValue("due_date")); err == nil {
		dueDate = due
	}

	var repeatDays *int
	if repeat, err := strconv.Atoi(r.FormValue("repeat_days")); err == nil && repeat > 0 {
		repeatDays = &repeat
	}

	if err := s.service.UpdateReminder(reminder.ID, title, description, dueDate, repeatDays, time.Now()); err != nil {
		log.Error().Err(err).Int64("reminder_id", reminder.ID).Msg("update reminder failed")
	}

	http.Redirect(w, r, "/households/"+strconv.FormatInt(reminder.HouseholdID, 10)+"/reminders", http.StatusSeeOther)
}

// handleDeleteReminder deletes a reminder
func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	reminder, ok := s.loadReminder(w, r)
	if !ok {
		return
	}

	if err := s.service.DeleteReminder(reminder.ID); err != nil {
		log.Error().Err(err).Int64("reminder_id", reminder.ID).Msg("delete reminder failed")
	}

	http.Redirect(w, r, "/households/"+strconv.FormatInt(reminder.HouseholdID, 10)+"/reminders", http.StatusSeeOther)
}

// handleSettingsPage displays the household settings
func (s *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	user, household, ok := s.loadHousehold(w, r)
	if !ok {
		return
	}
	locale := s.detectLocale(r)

	data := settingsData{
		basePageData: s.buildBasePageData(user, locale, household),
		Error:        r.URL.Query().Get("error"),
		Success:      r.URL.Query().Get("success"),
	}

	s.renderTemplate(w, "settings.html", data)
}

// handleUpdateSettings updates household name, chat link and language
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	_, household, ok := s.loadHousehold(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	chatID := strings.TrimSpace(r.FormValue("telegram_chat_id"))
	language := r.FormValue("language")
	if language != "nl" && language != "en" {
		language = "en"
	}

	settingsURL := "/households/" + strconv.FormatInt(household.ID, 10) + "/settings"
	if err := s.service.UpdateHouseholdSettings(household.ID, name, chatID, language); err != nil {
		http.Redirect(w, r, settingsURL+"?error="+err.Error(), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, settingsURL+"?success=1", http.StatusSeeOther)
}
