package geo

// CorrectionType tags the cause of a label change.
type CorrectionType string

const (
	InvalidState CorrectionType = "invalid_state"
	StateAlias   CorrectionType = "state_alias"
	StateFuzzy   CorrectionType = "state_fuzzy"
)

// Correction records one change made to a geography label. To is nil when
// the value was rejected.
type Correction struct {
	Type CorrectionType `json:"type"`
	From string         `json:"from"`
	To   *string        `json:"to"`
}

// Corrected builds a correction from -> to.
func Corrected(t CorrectionType, from, to string) Correction {
	return Correction{Type: t, From: from, To: &to}
}

// Rejected builds a correction for a value mapped to nothing.
func Rejected(t CorrectionType, from string) Correction {
	return Correction{Type: t, From: from}
}
