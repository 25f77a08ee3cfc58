package domain

import (
	"encoding/json"
	"time"
)

// Segment is a named, persisted snapshot of the customers matching a rule tree
// at materialization time. Rules are stored as the raw structured document so
// the persisted representation round-trips exactly; the rules package owns
// parsing and evaluation. MatchedCustomerIDs is a point-in-time set, replaced
// wholesale on update, never recomputed on customer mutation.
type Segment struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Rules              json.RawMessage `json:"rules"`
	MatchedCustomerIDs []string        `json:"matched_customer_ids"`
	CustomerCount      int             `json:"customer_count"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
