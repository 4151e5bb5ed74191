package wizard

import (
	"github.com/taxglide/filingwizard/pkg/filing"
)

// PhaseKind enumerates the wizard's positions in the role-completion graph.
type PhaseKind string

const (
	PhaseIdle                PhaseKind = "IDLE"
	PhaseRoleActive          PhaseKind = "ROLE_ACTIVE"
	PhaseSpouseCheckpoint    PhaseKind = "SPOUSE_CHECKPOINT"
	PhaseDependentCheckpoint PhaseKind = "DEPENDENT_CHECKPOINT"
	PhaseReview              PhaseKind = "REVIEW"
	PhaseSubmitted           PhaseKind = "SUBMITTED"
)

// Phase is the serializable wizard position: exactly one kind is active, and
// RoleActive carries the record it answers for plus the current index into
// that role's visible section list.
type Phase struct {
	Kind PhaseKind `json:"kind"`

	// Role is set while Kind is PhaseRoleActive.
	Role filing.RoleRef `json:"role,omitempty"`

	// Section indexes the visible section list of the active role.
	Section int `json:"section"`

	// DependentIndex counts how many dependent returns have been finished,
	// tracked locally so the checkpoint does not depend on committed state.
	DependentIndex int `json:"dependentIndex,omitempty"`
}

// Terminal reports whether no further commands can move the wizard.
func (p Phase) Terminal() bool { return p.Kind == PhaseSubmitted }

// Active reports whether a role is currently answering sections.
func (p Phase) Active() bool { return p.Kind == PhaseRoleActive }

// checkpoint phases and review refuse SAVE_AND_EXIT; there is no section
// position worth snapshotting in them.
func (p Phase) snapshotable() bool { return p.Kind == PhaseRoleActive }

// Snapshot converts the phase into the persisted progress record.
func (p Phase) Snapshot() filing.Progress {
	return filing.Progress{
		Phase:          string(p.Kind),
		Section:        p.Section,
		Role:           p.Role.Role,
		RecordID:       p.Role.RecordID,
		DependentIndex: p.DependentIndex,
	}
}

// phaseFromProgress rebuilds a Phase from a persisted snapshot. The caller
// still has to check that the record pointer resolves.
func phaseFromProgress(pr filing.Progress) Phase {
	return Phase{
		Kind:           PhaseKind(pr.Phase),
		Role:           filing.RoleRef{Role: pr.Role, RecordID: pr.RecordID},
		Section:        pr.Section,
		DependentIndex: pr.DependentIndex,
	}
}
