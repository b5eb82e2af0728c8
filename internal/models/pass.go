package models

import "time"

// PassStatus enumerates the pass lifecycle states.
type PassStatus string

const (
	PassStatusPending   PassStatus = "PENDING"
	PassStatusApproved  PassStatus = "APPROVED"
	PassStatusActive    PassStatus = "ACTIVE"
	PassStatusUsed      PassStatus = "USED"
	PassStatusExpired   PassStatus = "EXPIRED"
	PassStatusRejected  PassStatus = "REJECTED"
	PassStatusCancelled PassStatus = "CANCELLED"
)

// passTransitions is the authoritative transition table. Anything not
// listed here is an invalid transition.
var passTransitions = map[PassStatus][]PassStatus{
	PassStatusPending:  {PassStatusApproved, PassStatusRejected, PassStatusCancelled, PassStatusExpired},
	PassStatusApproved: {PassStatusActive, PassStatusUsed, PassStatusCancelled, PassStatusExpired},
	PassStatusActive:   {PassStatusUsed, PassStatusExpired},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to PassStatus) bool {
	for _, allowed := range passTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
func (s PassStatus) Terminal() bool {
	switch s {
	case PassStatusUsed, PassStatusExpired, PassStatusRejected, PassStatusCancelled:
		return true
	}
	return false
}

// NonTerminalStatuses are the states counted against the
// one-active-request-per-identity invariant.
var NonTerminalStatuses = []PassStatus{PassStatusPending, PassStatusApproved, PassStatusActive}

// Pass is a leave request and, once approved, the pass derived from it.
// Request and pass share the row: pass_id equals the request id.
type Pass struct {
	ID            string     `db:"id" json:"pass_id"`
	RegNo         string     `db:"reg_no" json:"reg_no"`
	Purpose       string     `db:"purpose" json:"purpose"`
	LeaveTime     time.Time  `db:"leave_time" json:"leave_time"`
	ReturnTime    time.Time  `db:"return_time" json:"return_time"`
	ProofFilename string     `db:"proof_filename" json:"-"`
	ProofMime     string     `db:"proof_mime" json:"-"`
	Status        PassStatus `db:"status" json:"status"`
	DecidedBy     *string    `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt     *time.Time `db:"decided_at" json:"decided_at,omitempty"`
	DecisionNote  *string    `db:"decision_note" json:"decision_note,omitempty"`
	TokenNonce    *string    `db:"token_nonce" json:"-"`
	TokenMintedAt *time.Time `db:"token_minted_at" json:"-"`
	UsedAt        *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// EffectiveStatus resolves time-derived states without a write:
// APPROVED passes read as ACTIVE inside the leave window, and any
// non-terminal pass reads as EXPIRED past return_time plus grace.
func (p *Pass) EffectiveStatus(now time.Time, grace time.Duration) PassStatus {
	if p.Status.Terminal() {
		return p.Status
	}
	if now.After(p.ReturnTime.Add(grace)) {
		return PassStatusExpired
	}
	if p.Status == PassStatusApproved && !now.Before(p.LeaveTime) {
		return PassStatusActive
	}
	return p.Status
}

// LapsedBy reports whether the pass window (plus grace) has passed.
func (p *Pass) LapsedBy(now time.Time, grace time.Duration) bool {
	return now.After(p.ReturnTime.Add(grace))
}

// PassDetail joins the pass with its holder's profile for client display.
type PassDetail struct {
	Pass
	Name         string `db:"name" json:"name"`
	Department   string `db:"department" json:"department"`
	ClassName    string `db:"class_name" json:"class"`
	ProfileImage string `db:"profile_image" json:"profile_image"`
}
