package domain

import "time"

// Status describes the lifecycle position of an order.
// Transitions are PENDING -> APPROVED or PENDING -> REJECTED, exactly once;
// both outcomes are terminal.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether the status admits no further transition.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Product is a catalog entry. Price is in minor currency units. Stock holds
// the not-yet-delivered redeemable codes in FIFO order: the oldest code is
// delivered first, admin restock appends to the tail.
type Product struct {
	ID     string   `json:"id" db:"id"`
	Name   string   `json:"name" db:"name"`
	Price  int64    `json:"price" db:"price"`
	MinQty int      `json:"min_qty" db:"min_qty"`
	Stock  []string `json:"stock"`
}

// Order records a purchase attempt. ProductName and TotalPrice are snapshots
// taken at creation time; later catalog changes never affect them.
type Order struct {
	ID          string    `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Username    string    `json:"username" db:"username"`
	ProductID   string    `json:"product_id" db:"product_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	Quantity    int       `json:"quantity" db:"quantity"`
	TotalPrice  int64     `json:"total_price" db:"total_price"`
	Status      Status    `json:"status" db:"status"`
	ProofRef    string    `json:"proof_ref" db:"proof_ref"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// User is a known bot user, created on first contact and never deleted.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	FirstSeen time.Time `json:"first_seen" db:"first_seen"`
}

// Session is the ephemeral checkout state between product selection and
// payment proof submission, keyed by user id. It is never persisted to the
// order ledger; its frozen values become the order on submission.
type Session struct {
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	TotalPrice  int64     `json:"total_price"`
	StartedAt   time.Time `json:"started_at"`
}

// Delivery is the result of a successful approval: the approved order plus
// the exact codes debited from stock, in delivery order.
type Delivery struct {
	Order Order
	Codes []string
}

// ProductStat is the remaining stock count for one product.
type ProductStat struct {
	ProductID string
	Name      string
	Remaining int
}

// Stats aggregates the admin statistics view.
type Stats struct {
	Users    int
	Pending  int
	Approved int
	Rejected int
	Revenue  int64
	Products []ProductStat
}
