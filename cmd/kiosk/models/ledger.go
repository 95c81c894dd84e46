package models

import (
	"time"
)

// ProvenanceFlags are optional markers the kiosk frontend attaches to a booth
// line (pass-derived lines, golden priority tickets). The backend treats them
// as opaque: preserved on storage, overwritten on merge when the incoming line
// carries them, never invented or cleared on its own.
type ProvenanceFlags struct {
	IsGolden    *bool `json:"isGolden,omitempty"`
	Derived     *bool `json:"derived,omitempty"`
	DerivedFrom *int  `json:"derivedFrom,omitempty"`
	GoldenFrom  *int  `json:"goldenFrom,omitempty"`
}

// Overwrite copies every flag that is set on in onto f, leaving unset flags
// untouched
func (f *ProvenanceFlags) Overwrite(in ProvenanceFlags) {
	if in.IsGolden != nil {
		f.IsGolden = in.IsGolden
	}
	if in.Derived != nil {
		f.Derived = in.Derived
	}
	if in.DerivedFrom != nil {
		f.DerivedFrom = in.DerivedFrom
	}
	if in.GoldenFrom != nil {
		f.GoldenFrom = in.GoldenFrom
	}
}

// BoothEntitlement is one purchased booth product line within a ledger record.
// The JSON field names match the stored representation and must not change.
type BoothEntitlement struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	Price     int    `json:"price"`
	Remaining int    `json:"remaining"`
	ProvenanceFlags
}

// LedgerRecord is one student's aggregated purchase history.
// Maps to: students table
type LedgerRecord struct {
	// Storage-assigned, immutable
	ID int64 `json:"id"`

	// Exactly 5 ASCII digits
	StudentNumber string `json:"student_number"`

	Phone string `json:"phone"`
	Name  string `json:"name"`

	// At most one entry per distinct booth number; stored as a JSON array
	// in a single column
	Entitlements []BoothEntitlement `json:"booths"`

	TotalPrice int `json:"total_price"`

	// Refreshed on every merge and payment, acts as the last-touched marker
	CreatedAt time.Time `json:"created_at"`
}

// FindEntitlement returns a pointer to the entitlement for the given booth
// number, or nil when the record has no line for that booth
func (r *LedgerRecord) FindEntitlement(boothNumber int) *BoothEntitlement {
	for i := range r.Entitlements {
		if r.Entitlements[i].Number == boothNumber {
			return &r.Entitlements[i]
		}
	}
	return nil
}
