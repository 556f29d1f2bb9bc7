package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Phabs974/ListePCMontage/models"
)

// AutoRefreshInterval is how often the dashboard refreshes itself to keep
// the counters current without manual reload
const AutoRefreshInterval = 15 * time.Second

// ErrFieldNotEditable is returned when the user's role does not allow the
// action; the matching control is disabled in the UI
var ErrFieldNotEditable = errors.New("field not editable for this role")

// ErrMissingFields is returned when the new-order form misses a required field
var ErrMissingFields = errors.New("invoice number, client, product and sale date are required")

// Dashboard is the orders screen state: the current filters, the displayed
// list and the counters derived from the unfiltered order set. Every
// mutation reloads from the server instead of patching locally, so the
// list and the counters always come from one source of truth.
type Dashboard struct {
	api  *Client
	user *models.User

	// reloadMu serializes reloads; mu protects the state below it.
	// Concurrent reloads still resolve last-write-wins, there is no
	// request fencing.
	reloadMu sync.Mutex
	mu       sync.Mutex
	view     models.View
	search   string
	orders   []models.Order
	counts   models.StageCounts

	stopOnce sync.Once
	stop     chan struct{}

	// OnUpdate, when set before the first reload, is invoked after every
	// successful reload, including the periodic ones
	OnUpdate func()
}

// NewDashboard creates the orders screen state for the given user
func NewDashboard(api *Client, user *models.User) *Dashboard {
	return &Dashboard{
		api:  api,
		user: user,
		view: models.ViewAll,
		stop: make(chan struct{}),
	}
}

// Reload fetches the filtered list for display and the full list for the
// counters
func (d *Dashboard) Reload(ctx context.Context) error {
	d.reloadMu.Lock()
	defer d.reloadMu.Unlock()

	d.mu.Lock()
	view, search := d.view, d.search
	d.mu.Unlock()

	filtered, err := d.api.ListOrders(ctx, ListOrdersOptions{View: view, Query: search})
	if err != nil {
		return err
	}
	full, err := d.api.ListOrders(ctx, ListOrdersOptions{View: models.ViewAll})
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.orders = filtered
	d.counts = models.CountStages(full)
	d.mu.Unlock()

	if d.OnUpdate != nil {
		d.OnUpdate()
	}
	return nil
}

// SetView switches the workflow tab and reloads
func (d *Dashboard) SetView(ctx context.Context, view models.View) error {
	if !view.Valid() {
		return errors.New("unknown view")
	}
	d.mu.Lock()
	d.view = view
	d.mu.Unlock()
	return d.Reload(ctx)
}

// SetSearch changes the search text and reloads
func (d *Dashboard) SetSearch(ctx context.Context, search string) error {
	d.mu.Lock()
	d.search = search
	d.mu.Unlock()
	return d.Reload(ctx)
}

// View returns the selected workflow tab
func (d *Dashboard) View() models.View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view
}

// Search returns the current search text
func (d *Dashboard) Search() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.search
}

// Orders returns the displayed order list
func (d *Dashboard) Orders() []models.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	orders := make([]models.Order, len(d.orders))
	copy(orders, d.orders)
	return orders
}

// Counts returns the counters derived from the unfiltered order set
func (d *Dashboard) Counts() models.StageCounts {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts
}

// CanEdit reports whether the current user's role may change the field;
// drives the disabled state of the matching control
func (d *Dashboard) CanEdit(field string) bool {
	return models.CanEditOrderField(d.user.Role, field)
}

// CanCreateOrders reports whether the new-order form is available
func (d *Dashboard) CanCreateOrders() bool {
	return d.user.Role == models.RoleAdmin || d.user.Role == models.RoleVendor
}

// ToggleField inverts a workflow flag and reloads
func (d *Dashboard) ToggleField(ctx context.Context, order models.Order, field string) error {
	if !d.CanEdit(field) {
		return ErrFieldNotEditable
	}

	var current bool
	switch field {
	case "prepared":
		current = order.Prepared
	case "built":
		current = order.Built
	case "delivered":
		current = order.Delivered
	default:
		return errors.New("unknown field " + field)
	}

	if _, err := d.api.UpdateOrder(ctx, order.ID, map[string]interface{}{field: !current}); err != nil {
		return err
	}
	return d.Reload(ctx)
}

// SetStatus updates the free-text status and reloads; empty text clears it
func (d *Dashboard) SetStatus(ctx context.Context, order models.Order, status string) error {
	if !d.CanEdit("status") {
		return ErrFieldNotEditable
	}

	var value interface{}
	if status != "" {
		value = status
	}
	if _, err := d.api.UpdateOrder(ctx, order.ID, map[string]interface{}{"status": value}); err != nil {
		return err
	}
	return d.Reload(ctx)
}

// CreateOrder submits the new-order form and reloads
func (d *Dashboard) CreateOrder(ctx context.Context, draft OrderDraft) error {
	if !d.CanCreateOrders() {
		return ErrFieldNotEditable
	}
	if draft.InvoiceNumber == "" || draft.ClientName == "" || draft.ProductName == "" || draft.SoldAt.IsZero() {
		return ErrMissingFields
	}

	// The form captures a local wall-clock time; the API gets an absolute
	// instant
	draft.SoldAt = draft.SoldAt.UTC()

	if _, err := d.api.CreateOrder(ctx, draft); err != nil {
		return err
	}
	return d.Reload(ctx)
}

// StartAutoRefresh reloads the dashboard on a timer until Stop is called.
// Refresh errors are dropped: the screen keeps its last state and the next
// tick tries again.
func (d *Dashboard) StartAutoRefresh(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = d.Reload(context.Background())
			case <-d.stop:
				return
			}
		}
	}()
}

// Stop tears down the auto-refresh timer. Must be called when the screen
// goes away, so a discarded view is never updated.
func (d *Dashboard) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
}
