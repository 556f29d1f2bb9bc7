package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusAlreadyGiven is the status sentinel that removes an order from the
// prepare and build buckets: the machine already left with the customer.
// It is a plain string comparison; any other status text has no workflow
// meaning.
const StatusAlreadyGiven = "DEJA DONNER"

// Order is a sale tracked through the prepare -> build -> deliver workflow
type Order struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceNumber string     `gorm:"uniqueIndex;not null" json:"invoice_number"`
	Store         *string    `json:"store"`
	ClientName    string     `gorm:"not null" json:"client_name"`
	ProductName   string     `gorm:"not null" json:"product_name"`
	SoldAt        time.Time  `gorm:"not null" json:"sold_at"`
	Prepared      bool       `gorm:"not null;default:false" json:"prepared"`
	Built         bool       `gorm:"not null;default:false" json:"built"`
	Delivered     bool       `gorm:"not null;default:false" json:"delivered"`
	Status        *string    `json:"status"`
	CreatedBy     *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns a UUID primary key when none is set
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *Order) statusAlreadyGiven() bool {
	return o.Status != nil && *o.Status == StatusAlreadyGiven
}

// ToPrepare reports whether the order still has to be prepared
func (o *Order) ToPrepare() bool {
	return !o.Prepared && !o.statusAlreadyGiven()
}

// ToBuild reports whether the order is prepared but not yet built
func (o *Order) ToBuild() bool {
	return o.Prepared && !o.Built && !o.statusAlreadyGiven()
}

// ToDeliver reports whether the order is built but not yet delivered
func (o *Order) ToDeliver() bool {
	return o.Built && !o.Delivered
}

// Done reports whether the order left the workflow
func (o *Order) Done() bool {
	return o.Delivered
}

// View is a named filter over the order list
type View string

const (
	ViewAll       View = "all"
	ViewToPrepare View = "to_prepare"
	ViewToBuild   View = "to_build"
	ViewToDeliver View = "to_deliver"
	ViewDone      View = "done"
)

// Views lists every view, in tab order
var Views = []View{ViewAll, ViewToPrepare, ViewToBuild, ViewToDeliver, ViewDone}

// Valid reports whether the view is one of the known views
func (v View) Valid() bool {
	switch v {
	case ViewAll, ViewToPrepare, ViewToBuild, ViewToDeliver, ViewDone:
		return true
	}
	return false
}

// Matches reports whether the order belongs to the view
func (v View) Matches(o *Order) bool {
	switch v {
	case ViewToPrepare:
		return o.ToPrepare()
	case ViewToBuild:
		return o.ToBuild()
	case ViewToDeliver:
		return o.ToDeliver()
	case ViewDone:
		return o.Done()
	default:
		return true
	}
}

// StageCounts are the dashboard counters, derived from the unfiltered
// order set
type StageCounts struct {
	Total     int
	ToPrepare int
	ToBuild   int
	ToDeliver int
}

// CountStages computes the dashboard counters over the given orders
func CountStages(orders []Order) StageCounts {
	counts := StageCounts{Total: len(orders)}
	for i := range orders {
		o := &orders[i]
		if o.ToPrepare() {
			counts.ToPrepare++
		}
		if o.ToBuild() {
			counts.ToBuild++
		}
		if o.ToDeliver() {
			counts.ToDeliver++
		}
	}
	return counts
}

// OrderFields lists the patchable order fields
var OrderFields = []string{"prepared", "built", "delivered", "status"}

// orderFieldRoles is the single source of truth for field-level edit
// permissions, used by the PATCH handler and by client-side control gating
var orderFieldRoles = map[string][]Role{
	"prepared":  {RoleAdmin, RoleVendor},
	"built":     {RoleAdmin, RoleBuilder},
	"delivered": {RoleAdmin, RoleVendor},
	"status":    {RoleAdmin, RoleVendor},
}

// CanEditOrderField reports whether the role may change the given order field
func CanEditOrderField(role Role, field string) bool {
	for _, allowed := range orderFieldRoles[field] {
		if role == allowed {
			return true
		}
	}
	return false
}
