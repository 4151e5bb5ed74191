package wizard

import "github.com/taxglide/filingwizard/pkg/filing"

// CommandKind names a dispatchable wizard command. The string values double
// as the wire format the HTTP layer accepts.
type CommandKind string

const (
	CmdInit            CommandKind = "INIT"
	CmdNextSection     CommandKind = "NEXT_SECTION"
	CmdPrevSection     CommandKind = "PREV_SECTION"
	CmdGoToSection     CommandKind = "GO_TO_SECTION"
	CmdGoToRole        CommandKind = "GO_TO_ROLE"
	CmdAddSpouse       CommandKind = "ADD_SPOUSE"
	CmdSkipSpouse      CommandKind = "SKIP_SPOUSE"
	CmdAddDependents   CommandKind = "ADD_DEPENDENTS"
	CmdSkipDependents  CommandKind = "SKIP_DEPENDENTS"
	CmdCompletePhase   CommandKind = "COMPLETE_PHASE"
	CmdSubmit          CommandKind = "SUBMIT"
	CmdSaveAndExit     CommandKind = "SAVE_AND_EXIT"
	CmdRestoreProgress CommandKind = "RESTORE_PROGRESS"
)

// Command is one user-driven event. Only the fields relevant to the kind
// are read: Section for GO_TO_SECTION, Role for GO_TO_ROLE, Count for
// ADD_DEPENDENTS.
type Command struct {
	Kind    CommandKind    `json:"kind"`
	Section int            `json:"section,omitempty"`
	Role    filing.RoleRef `json:"role,omitempty"`
	Count   int            `json:"count,omitempty"`
}
