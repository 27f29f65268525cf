package model

// ReconciledRow is one valid input row after digesting and duplicate marking.
// Serial is a 1-based global position assigned in (source order, row order).
type ReconciledRow struct {
	Source      string `json:"source"`
	EntityKey   string `json:"entity_key"`
	Digest      string `json:"digest"`
	IsDuplicate bool   `json:"is_duplicate"`
	// DuplicateOf holds the entity key of the duplicate group's first
	// occurrence (smallest serial). Empty when the digest is unique.
	DuplicateOf string `json:"duplicate_of,omitempty"`
	Serial      int64  `json:"serial"`
}

// ExceptionRow is a row excluded from reconciliation.
type ExceptionRow struct {
	Source    string          `json:"source"`
	EntityKey string          `json:"entity_key"`
	Reason    ExceptionReason `json:"reason"`
}

// SourceSummary holds per-source counts for the run summary.
type SourceSummary struct {
	Name      string `json:"name"`
	Loaded    bool   `json:"loaded"`
	Rows      int    `json:"rows"`
	Missing   int    `json:"missing"`
	Malformed int    `json:"malformed"`
	Distinct  int    `json:"distinct_digests"`
}

// ReconciliationReport is the immutable result of one pipeline run.
// Hashed is false only when the run was executed on cleartext identifiers
// for debugging; emitters must label such artifacts.
type ReconciliationReport struct {
	Rows            []ReconciledRow `json:"rows"`
	Exceptions      []ExceptionRow  `json:"exceptions"`
	Sources         []SourceSummary `json:"sources"`
	TotalDuplicates int             `json:"total_duplicates"`
	Hashed          bool            `json:"hashed"`
}

// TotalRows returns the number of reconciled rows.
func (r *ReconciliationReport) TotalRows() int { return len(r.Rows) }

// OverlapRow is one entry of the cross-source overlap analysis: the number
// of distinct digests present in every source of the combination.
type OverlapRow struct {
	Sources []string `json:"sources"`
	Size    int      `json:"size"`
	Count   int      `json:"count"`
}
