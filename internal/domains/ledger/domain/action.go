package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionType names a mutation recorded while the backend was unreachable.
type ActionType string

const (
	ActionAddProduct    ActionType = "ADD_PRODUCT"
	ActionUpdateProduct ActionType = "UPDATE_PRODUCT"
	ActionDeleteProduct ActionType = "DELETE_PRODUCT"
	ActionSale          ActionType = "SALE"
	ActionHoldOrder     ActionType = "HOLD_ORDER"
	ActionCompleteOrder ActionType = "COMPLETE_ORDER"
	ActionCancelOrder   ActionType = "CANCEL_ORDER"
	// ActionClearSales is never queued; it names the operation in logs and errors.
	ActionClearSales ActionType = "CLEAR_SALES"
)

// Action is one queued mutation. Exactly the payload fields relevant to Type are set.
type Action struct {
	ID         string
	Type       ActionType
	ProductID  string
	OrderID    string
	Product    *Product
	Patch      *ProductPatch
	Sale       *Sale
	EnqueuedAt time.Time
}

// NewAction stamps an action with a fresh id.
func NewAction(actionType ActionType, at time.Time) Action {
	return Action{ID: uuid.NewString(), Type: actionType, EnqueuedAt: at.UTC()}
}

// Validate checks that the payload matches the action type.
func (a Action) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrInvalidAction
	}
	switch a.Type {
	case ActionAddProduct:
		if a.Product == nil {
			return ErrInvalidAction
		}
	case ActionUpdateProduct:
		if a.ProductID == "" || a.Patch == nil {
			return ErrInvalidAction
		}
	case ActionDeleteProduct:
		if a.ProductID == "" {
			return ErrInvalidAction
		}
	case ActionSale, ActionHoldOrder, ActionCompleteOrder:
		if a.Sale == nil {
			return ErrInvalidAction
		}
	case ActionCancelOrder:
		if a.OrderID == "" {
			return ErrInvalidAction
		}
	default:
		return ErrInvalidAction
	}
	return nil
}

// Subject returns the id of the entity the action targets.
func (a Action) Subject() string {
	switch {
	case a.ProductID != "":
		return a.ProductID
	case a.OrderID != "":
		return a.OrderID
	case a.Product != nil:
		return a.Product.ID
	case a.Sale != nil:
		return a.Sale.ID
	default:
		return ""
	}
}

// Identity is the acting user of a ledger session.
type Identity struct {
	UserID   string
	UserName string
	Token    string
}

// IsZero reports whether no user is signed in.
func (i Identity) IsZero() bool {
	return strings.TrimSpace(i.UserID) == ""
}
