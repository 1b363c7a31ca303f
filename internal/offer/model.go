package offer

import "time"

// Offer represents one standing buy intent against one asset. The record is
// destroyed either by a successful settlement or by an owner cancellation,
// both of which hand its storage deposit back to the owner.
type Offer struct {
	ID        string
	AssetID   string
	Amount    uint64
	Price     uint64
	OwnerID   string
	Deposit   int64
	CreatedAt time.Time
}

// recordSize is the persisted size of an offer record: asset reference,
// amount, price, owner identity.
const recordSize = 32 + 8 + 8 + 32
