package models

// SequenceCounter holds the last ordinal issued for a scope key. Rows are
// locked FOR UPDATE during allocation so concurrent callers serialize per
// scope.
type SequenceCounter struct {
	Scope string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null"`
}
