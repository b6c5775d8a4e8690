package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
)

// AccountClient is the backend surface the shell needs.
type AccountClient interface {
	Authenticator
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResult, error)
}

// ShellDeps are the process-wide collaborators shared by every controller.
type ShellDeps struct {
	Navigation    *NavigationRegistry
	Dispatch      *DispatchTable
	Calendar      *CalendarCatalog
	UpcomingLimit int
	Accounts      AccountClient
	Sweep         LegacyKeySweep
	Logger        *zap.Logger
	Now           func() time.Time
}

func (d ShellDeps) withDefaults() ShellDeps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Sweep.Substrings == nil {
		d.Sweep = DefaultLegacyKeySweep
	}
	return d
}

// ShellController owns the orchestration state of one device. Views only
// receive read-only props and signal intents back through callbacks.
type ShellController struct {
	deps    ShellDeps
	session *SessionStore
	logger  *zap.Logger

	mu        sync.Mutex
	activeTab models.TabID
	ui        *UIState
	calendar  *CalendarState
	lastSeen  time.Time
}

// NewShellController builds a signed-out controller over kv.
func NewShellController(deps ShellDeps, kv KVStore) *ShellController {
	deps = deps.withDefaults()
	now := deps.Now()
	return &ShellController{
		deps:      deps,
		session:   NewSessionStore(kv, deps.Accounts, deps.Logger, WithKeySweep(deps.Sweep)),
		logger:    deps.Logger,
		activeTab: models.TabDashboard,
		ui:        NewUIState(),
		calendar:  NewCalendarState(deps.Calendar, deps.UpcomingLimit, now),
		lastSeen:  now,
	}
}

// Restore picks up a persisted session. It never fails; bad data signs out.
func (c *ShellController) Restore(ctx context.Context) *models.User {
	user := c.session.RestoreSession(ctx)
	c.mu.Lock()
	c.activeTab = models.TabDashboard
	c.mu.Unlock()
	return user
}

// Login signs in and lands on the dashboard. A failed attempt leaves the
// session and tab untouched.
func (c *ShellController) Login(ctx context.Context, email, password string) (models.ShellState, error) {
	if _, err := c.session.Login(ctx, email, password); err != nil {
		return c.Snapshot(), err
	}
	c.mu.Lock()
	c.activeTab = models.TabDashboard
	c.ui.CloseDropdown()
	c.mu.Unlock()
	return c.Snapshot(), nil
}

// Register creates an account without signing in.
func (c *ShellController) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResult, error) {
	return c.deps.Accounts.Register(ctx, req)
}

// Logout signs out and resets the tab. Cleanup errors are logged by the
// session store and not returned; the device is signed out regardless.
func (c *ShellController) Logout(ctx context.Context) models.ShellState {
	_ = c.session.Logout(ctx)
	c.mu.Lock()
	c.activeTab = models.TabDashboard
	c.ui.CloseDropdown()
	c.mu.Unlock()
	return c.Snapshot()
}

// CurrentUser returns the signed-in user or nil.
func (c *ShellController) CurrentUser() *models.User {
	return c.session.CurrentUser()
}

func (c *ShellController) requireUser() (*models.User, error) {
	user := c.session.CurrentUser()
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "sign in to continue")
	}
	return user, nil
}

// Navigate switches the active tab. Tabs the role cannot reach are refused
// and the state is left as it was.
func (c *ShellController) Navigate(tab models.TabID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Checked under c.mu so a concurrent Logout cannot be overtaken.
	user, err := c.requireUser()
	if err != nil {
		return err
	}
	if !c.deps.Navigation.Reachable(user.Role, tab) {
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("tab %q is not available for %s", tab, user.Role))
	}

	c.activeTab = tab
	if tab == models.TabNotifications {
		c.ui.CloseDropdown()
	}
	c.touch()
	return nil
}

// Menu returns the grouped navigation of the signed-in role.
func (c *ShellController) Menu() ([]models.MenuSection, error) {
	user, err := c.requireUser()
	if err != nil {
		return nil, err
	}
	return c.deps.Navigation.Menu(user.Role)
}

// CurrentView resolves the active tab. The props carry the controller's
// intents so a mounted view can change tab or sign out.
func (c *ShellController) CurrentView() (models.Resolution, error) {
	user, err := c.requireUser()
	if err != nil {
		return models.Resolution{}, err
	}

	c.mu.Lock()
	tab := c.activeTab
	dark := c.ui.Preferences().DarkMode
	c.mu.Unlock()

	props := models.ViewProps{
		Role:         user.Role,
		CurrentUser:  user,
		DarkMode:     dark,
		SetActiveTab: c.Navigate,
		Logout: func() error {
			c.Logout(context.Background())
			return nil
		},
	}
	res, err := c.deps.Dispatch.Resolve(user.Role, tab, props)
	if err != nil {
		c.logger.Warn("view fallback", zap.String("tab", string(tab)), zap.String("role", string(user.Role)), zap.Error(err))
	}
	return res, err
}

// ToggleDarkMode flips the theme.
func (c *ShellController) ToggleDarkMode() models.ShellState {
	c.mu.Lock()
	c.ui.ToggleDarkMode()
	c.touch()
	c.mu.Unlock()
	return c.Snapshot()
}

// SetPreferences applies the non-nil fields. Nothing changes when the font
// size is invalid.
func (c *ShellController) SetPreferences(dark *bool, size *models.FontSize) (models.ShellState, error) {
	c.mu.Lock()
	if size != nil {
		if err := c.ui.SetFontSize(*size); err != nil {
			c.mu.Unlock()
			return c.Snapshot(), err
		}
	}
	if dark != nil {
		c.ui.SetDarkMode(*dark)
	}
	c.touch()
	c.mu.Unlock()
	return c.Snapshot(), nil
}

// SetFontSize changes the base text size.
func (c *ShellController) SetFontSize(size models.FontSize) error {
	_, err := c.SetPreferences(nil, &size)
	return err
}

// OpenNotifications shows the dropdown.
func (c *ShellController) OpenNotifications() models.NotificationFeed {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ui.OpenDropdown()
	c.touch()
	return c.ui.Feed()
}

// PointerDown forwards a global pointer-down to the listener set.
func (c *ShellController) PointerDown(region models.PointerRegion) models.NotificationFeed {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ui.PointerDown(region)
	return c.ui.Feed()
}

// Notifications returns the dropdown payload.
func (c *ShellController) Notifications() models.NotificationFeed {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ui.Feed()
}

// MarkNotificationRead marks one notification as read.
func (c *ShellController) MarkNotificationRead(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ui.MarkRead(id)
}

// MarkAllRead marks every notification and returns how many changed.
func (c *ShellController) MarkAllRead() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ui.MarkAllRead()
}

// Notify pushes a notification from a producer.
func (c *ShellController) Notify(message string, priority models.NotificationPriority) (models.Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ui.Push(message, priority)
}

// ShiftMonth moves the calendar by one month.
func (c *ShellController) ShiftMonth(delta int) (models.CalendarView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.calendar.ShiftMonth(delta); err != nil {
		return models.CalendarView{}, err
	}
	return c.calendar.View(c.deps.Now()), nil
}

// SelectDate filters the calendar list to one date.
func (c *ShellController) SelectDate(date string) (models.CalendarView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.calendar.SelectDate(date); err != nil {
		return models.CalendarView{}, err
	}
	return c.calendar.View(c.deps.Now()), nil
}

// ClearDate returns the calendar to the upcoming list.
func (c *ShellController) ClearDate() models.CalendarView {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calendar.ClearDate()
	return c.calendar.View(c.deps.Now())
}

// Calendar returns the current calendar view.
func (c *ShellController) Calendar() models.CalendarView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calendar.View(c.deps.Now())
}

// Snapshot returns a copy of the shell state.
func (c *ShellController) Snapshot() models.ShellState {
	user := c.session.CurrentUser()

	c.mu.Lock()
	defer c.mu.Unlock()
	return models.ShellState{
		User:          user,
		Authenticated: user != nil,
		ActiveTab:     c.activeTab,
		Preferences:   c.ui.Preferences(),
		Root:          c.ui.Root(),
		Notifications: c.ui.Notifications(),
		Unread:        c.ui.Unread(),
		DropdownOpen:  c.ui.DropdownOpen(),
		CalendarMonth: c.calendar.Month(),
		SelectedDate:  c.calendar.Selected(),
	}
}

// touch records activity; callers hold c.mu.
func (c *ShellController) touch() {
	c.lastSeen = c.deps.Now()
}

func (c *ShellController) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// ShellRegistry keeps one controller per device id.
type ShellRegistry struct {
	deps    ShellDeps
	newKV   func(deviceID string) KVStore
	metrics *MetricsService
	logger  *zap.Logger

	mu     sync.Mutex
	shells map[string]*ShellController
}

// NewShellRegistry constructs the registry. newKV returns the device
// scoped persistence for a device id.
func NewShellRegistry(deps ShellDeps, newKV func(deviceID string) KVStore, metrics *MetricsService) *ShellRegistry {
	deps = deps.withDefaults()
	return &ShellRegistry{
		deps:    deps,
		newKV:   newKV,
		metrics: metrics,
		logger:  deps.Logger,
		shells:  make(map[string]*ShellController),
	}
}

// Get returns the device's controller. On first use the persisted session
// is restored before the controller becomes visible to other requests.
func (r *ShellRegistry) Get(ctx context.Context, deviceID string) *ShellController {
	if shell := r.lookup(deviceID); shell != nil {
		return shell
	}

	deps := r.deps
	deps.Logger = r.logger.With(zap.String("device_id", deviceID))
	fresh := NewShellController(deps, r.newKV(deviceID))
	if user := fresh.Restore(ctx); user != nil {
		deps.Logger.Debug("session restored", zap.String("role", string(user.Role)))
	}

	r.mu.Lock()
	if shell, ok := r.shells[deviceID]; ok {
		r.mu.Unlock()
		return shell
	}
	r.shells[deviceID] = fresh
	count := len(r.shells)
	r.mu.Unlock()

	r.metrics.SetActiveShells(count)
	return fresh
}

func (r *ShellRegistry) lookup(deviceID string) *ShellController {
	r.mu.Lock()
	shell, ok := r.shells[deviceID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	shell.mu.Lock()
	shell.touch()
	shell.mu.Unlock()
	return shell
}

// Len counts live controllers.
func (r *ShellRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shells)
}

// Broadcast pushes a notification to every live controller and returns how
// many received it.
func (r *ShellRegistry) Broadcast(message string, priority models.NotificationPriority) int {
	r.mu.Lock()
	shells := make([]*ShellController, 0, len(r.shells))
	for _, s := range r.shells {
		shells = append(shells, s)
	}
	r.mu.Unlock()

	delivered := 0
	for _, s := range shells {
		if _, err := s.Notify(message, priority); err != nil {
			r.logger.Warn("broadcast rejected", zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

// Sweep drops controllers idle for longer than maxIdle. Their persisted
// sessions stay in the KV store and are restored on the next request.
func (r *ShellRegistry) Sweep(maxIdle time.Duration) int {
	cutoff := r.deps.Now().Add(-maxIdle)

	r.mu.Lock()
	removed := 0
	for id, s := range r.shells {
		if s.idleSince().Before(cutoff) {
			delete(r.shells, id)
			removed++
		}
	}
	count := len(r.shells)
	r.mu.Unlock()

	r.metrics.SetActiveShells(count)
	if removed > 0 {
		r.logger.Info("idle shells evicted", zap.Int("removed", removed), zap.Int("remaining", count))
	}
	return removed
}
