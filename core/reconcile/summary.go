package reconcile

import (
	"inventory-sync/core/diff"
	"inventory-sync/core/store"
)

// ActionCounts aggregates attempt outcomes for one action kind.
type ActionCounts struct {
	// Attempted is the number of operations invoked against the backing
	// system.
	Attempted int `json:"attempted"`
	// Succeeded is the number that completed without error.
	Succeeded int `json:"succeeded"`
	// Failed is the number whose backing-system call returned an error.
	Failed int `json:"failed"`
}

// Operation is one entry in the ordered execution log. The sequence number
// reflects actual execution order, which the ordering guarantees (parent
// before children for creates, children before parent for deletes) can be
// verified against.
type Operation struct {
	// Seq is the 1-based execution sequence number within the run.
	Seq int `json:"seq"`
	// Action is the operation kind (create, update, delete).
	Action diff.Action `json:"action"`
	// Type and ID identify the record operated on.
	Type string `json:"type"`
	ID   string `json:"unique_id"`
	// Status is the outcome (success or failure).
	Status store.Status `json:"status"`
}

// Failure identifies one element whose backing-system operation failed,
// with the captured message. The failure list is what enables retrying only
// the failed subset.
type Failure struct {
	// Action is the operation that failed.
	Action diff.Action `json:"action"`
	// Type and ID identify the record.
	Type string `json:"type"`
	ID   string `json:"unique_id"`
	// Message is the captured error message.
	Message string `json:"message"`
}

// Summary is the result of one apply pass. A summary with zero failures and
// zero attempts means the two sides were already in sync.
type Summary struct {
	// RunID uniquely identifies this apply pass in logs and audit output.
	RunID string `json:"run_id"`

	// Creates, Updates and Deletes aggregate outcomes per action.
	Creates ActionCounts `json:"creates"`
	Updates ActionCounts `json:"updates"`
	Deletes ActionCounts `json:"deletes"`

	// Operations is the ordered execution log.
	Operations []Operation `json:"operations"`

	// Failures lists every failed element with its identity and message.
	Failures []Failure `json:"failures"`
}

// Changed reports whether any operation was attempted.
func (s *Summary) Changed() bool {
	return s.Creates.Attempted+s.Updates.Attempted+s.Deletes.Attempted > 0
}

// counts returns the ActionCounts bucket for an action.
func (s *Summary) counts(action diff.Action) *ActionCounts {
	switch action {
	case diff.ActionCreate:
		return &s.Creates
	case diff.ActionUpdate:
		return &s.Updates
	default:
		return &s.Deletes
	}
}

// record appends one executed operation to the log and updates the counts.
func (s *Summary) record(action diff.Action, typeName, uid string, err error) {
	counts := s.counts(action)
	counts.Attempted++

	status := store.StatusSuccess
	if err != nil {
		status = store.StatusFailure
		counts.Failed++
		s.Failures = append(s.Failures, Failure{
			Action:  action,
			Type:    typeName,
			ID:      uid,
			Message: err.Error(),
		})
	} else {
		counts.Succeeded++
	}

	s.Operations = append(s.Operations, Operation{
		Seq:    len(s.Operations) + 1,
		Action: action,
		Type:   typeName,
		ID:     uid,
		Status: status,
	})
}
