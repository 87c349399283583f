package audit

import "time"

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
)

// Action describes what was done.
type Action string

const (
	ActionInjectRun      Action = "inject_run"
	ActionFileInjected   Action = "file_injected"
	ActionInjectFailed   Action = "inject_failed"
	ActionBackupPruned   Action = "backup_pruned"
	ActionBackupRestored Action = "backup_restored"
	ActionSearch         Action = "search"
)

// Entry is a single journal record. Target is a document path relative to
// the root, or the keyword for searches.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorType ActorType `json:"actor_type"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	RunID     string    `json:"run_id,omitempty"`
	Target    string    `json:"target,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Count     int       `json:"count"`
}
