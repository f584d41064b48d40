package models

import (
	"strings"
	"time"
)

// ChangeRecord is one entry on the shift-change notice board: who leaves a
// shift, who covers it, where and when
type ChangeRecord struct {
	ID        int64     `json:"id" db:"id"`
	Date      string    `json:"date" db:"date"` // DD/MM/YYYY
	Building  string    `json:"building" db:"building"`
	Sector    string    `json:"sector" db:"sector"`
	Outgoing  string    `json:"outgoing" db:"outgoing"`
	Incoming  string    `json:"incoming" db:"incoming"`
	Reason    string    `json:"reason" db:"reason"` // always derived from Outgoing, never set directly
	Notes     string    `json:"notes" db:"notes"`
	CreatedBy string    `json:"createdBy" db:"created_by"` // empty for spreadsheet-sourced rows
	EditedBy  string    `json:"editedBy" db:"edited_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// RecordPatch carries the editable fields of a ChangeRecord for partial
// updates. Nil fields are left untouched. CreatedBy is deliberately absent:
// attribution is set once at insert time and never overwritten
type RecordPatch struct {
	Date     *string `json:"date,omitempty"`
	Building *string `json:"building,omitempty"`
	Sector   *string `json:"sector,omitempty"`
	Outgoing *string `json:"outgoing,omitempty"`
	Incoming *string `json:"incoming,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// SnapshotRow is one parsed data row from the external spreadsheet. The json
// tags match the batch format pushed by the Apps Script webhook
type SnapshotRow struct {
	Date     string `json:"date"`
	Building string `json:"building"`
	Sector   string `json:"sector"`
	Outgoing string `json:"outgoing"`
	Incoming string `json:"incoming"`
	Notes    string `json:"notes"`
}

// Record converts a snapshot row into an unattributed ChangeRecord
func (r SnapshotRow) Record() ChangeRecord {
	return ChangeRecord{
		Date:     r.Date,
		Building: r.Building,
		Sector:   r.Sector,
		Outgoing: r.Outgoing,
		Incoming: r.Incoming,
		Reason:   DeriveReason(r.Outgoing),
		Notes:    r.Notes,
	}
}

// DeriveReason extracts the reason portion of the outgoing-staff cell: every
// token after the first one ("Maria Silva - férias" -> "Silva - férias").
// Returns "" when the cell holds a single token or is empty
func DeriveReason(outgoing string) string {
	fields := strings.Fields(outgoing)
	if len(fields) <= 1 {
		return ""
	}
	return strings.Join(fields[1:], " ")
}

// SyncResult is the outcome of one reconciliation run
type SyncResult struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}
