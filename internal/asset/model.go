package asset

import "time"

// Asset represents one tradable equity-like asset. Name, Symbol, TotalSupply
// and CurrentPrice are fixed at creation; OwnerID changes only through a
// successful settlement.
type Asset struct {
	ID           string
	OwnerID      string
	Name         string
	Symbol       string
	TotalSupply  uint64
	CurrentPrice uint64
	Deposit      int64
	CreatedAt    time.Time
}

const (
	// maxNameLen and maxSymbolLen bound the variable-length fields so the
	// storage deposit stays proportional to a known record size.
	maxNameLen   = 32
	maxSymbolLen = 8

	// fixedRecordSize covers the owner identity plus the two fixed uint64
	// fields; name and symbol are added per record.
	fixedRecordSize = 32 + 8 + 8
)

// RecordSize returns the persisted size of the asset record, used to price
// its storage deposit.
func RecordSize(name, symbol string) int64 {
	return int64(fixedRecordSize + len(name) + len(symbol))
}
