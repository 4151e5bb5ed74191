// Package wizard drives a filing through its question sections: one phase
// active at a time, section transitions gated by validation, checkpoints for
// the optional spouse and dependent roles, and a submission hand-off to the
// submit package. The engine processes one command at a time; the phase is a
// serializable value so progress snapshots and tests can replay any
// sequence.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/taxglide/filingwizard/pkg/filing"
	"github.com/taxglide/filingwizard/pkg/pricing"
	"github.com/taxglide/filingwizard/pkg/schema"
	"github.com/taxglide/filingwizard/pkg/store"
	"github.com/taxglide/filingwizard/pkg/submit"
	"github.com/taxglide/filingwizard/pkg/validation"
	"github.com/taxglide/filingwizard/pkg/visibility"
)

const defaultSaveDelay = 750 * time.Millisecond

// Engine orchestrates one filing's wizard session.
type Engine struct {
	mu    sync.Mutex // one in-flight command at a time
	addMu sync.Mutex // serialises child-record creation per filing

	st        store.Store
	schemas   schema.Provider
	calc      *pricing.Calculator
	sub       *submit.Submitter
	log       *slog.Logger
	saveDelay time.Duration

	filingID string
	loaded   bool
	f        *filing.Filing
	sch      schema.Schema
	persons  []*filing.PersonRecord
	business *filing.BusinessRecord

	phase    Phase
	finished map[string]bool // dependents finished this session
	saver    *saver

	// transient per-dispatch view state
	errs       []validation.FieldError
	roleGate   *validation.RoleResult
	notice     string
	submission *submit.Result
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for best-effort save failures.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithCalculator overrides the fee schedule.
func WithCalculator(calc *pricing.Calculator) Option {
	return func(e *Engine) { e.calc = calc }
}

// WithSubmitter overrides the submission protocol implementation.
func WithSubmitter(sub *submit.Submitter) Option {
	return func(e *Engine) { e.sub = sub }
}

// WithSaveDelay tunes the answer-save debounce. Zero disables the timer so
// writes only happen on flush; tests use this.
func WithSaveDelay(d time.Duration) Option {
	return func(e *Engine) { e.saveDelay = d }
}

// New builds an engine for one filing. Dispatch CmdInit before anything
// else.
func New(st store.Store, schemas schema.Provider, filingID string, options ...Option) *Engine {
	e := &Engine{
		st:        st,
		schemas:   schemas,
		filingID:  filingID,
		saveDelay: defaultSaveDelay,
		phase:     Phase{Kind: PhaseIdle},
		finished:  make(map[string]bool),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.calc == nil {
		e.calc = pricing.New()
	}
	if e.sub == nil {
		e.sub = submit.New(st, schemas, e.calc)
	}
	e.saver = newSaver(st, e.saveDelay, e.log)
	return e
}

// Dispatch applies one command and returns the refreshed view. Recoverable
// problems (validation, gates, conflicts) appear in the view; Go errors are
// reserved for misuse and transport failures, and the phase never advances
// on either.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.errs, e.roleGate, e.submission = nil, nil, nil
	e.notice = ""

	if e.phase.Terminal() {
		return e.view(), ErrTerminal
	}

	var err error
	switch cmd.Kind {
	case CmdInit, CmdRestoreProgress:
		err = e.init(ctx)
	case CmdNextSection:
		err = e.nextSection(ctx)
	case CmdPrevSection:
		err = e.prevSection()
	case CmdGoToSection:
		err = e.goToSection(ctx, cmd.Section)
	case CmdGoToRole:
		err = e.goToRole(ctx, cmd.Role)
	case CmdAddSpouse:
		err = e.addSpouse(ctx)
	case CmdSkipSpouse:
		err = e.skipSpouse()
	case CmdAddDependents:
		err = e.addDependents(ctx, cmd.Count)
	case CmdSkipDependents:
		err = e.skipDependents()
	case CmdCompletePhase:
		err = e.completePhaseCmd(ctx)
	case CmdSubmit:
		err = e.submit(ctx)
	case CmdSaveAndExit:
		err = e.saveAndExit(ctx)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
	}
	return e.view(), err
}

// View returns the current projection without dispatching anything.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view()
}

// Flush forces any pending debounced answer write to the backend now.
func (e *Engine) Flush(ctx context.Context) error {
	return e.saver.Flush(ctx)
}

// SetAnswer records one answer on the active record and queues a debounced
// save. The write is local immediately; the backend sees it at the next
// flush.
func (e *Engine) SetAnswer(ctx context.Context, key string, value any) (View, error) {
	_ = ctx
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.phase.Active() {
		return e.view(), ErrNoActiveRole
	}
	answers, ok := e.activeAnswers()
	if !ok {
		return e.view(), ErrNoActiveRole
	}
	answers[key] = value
	e.queueActive()
	return e.view(), nil
}

// init loads the filing, guarantees the root record exists, and resolves
// the starting phase: amendment override first, then a resumable snapshot,
// then the root role's first section.
func (e *Engine) init(ctx context.Context) error {
	f, err := e.st.Filing(ctx, e.filingID)
	if err != nil {
		return transport("load filing", err)
	}
	sch, err := e.schemas.Schema(f.Year, f.Kind)
	if err != nil {
		return fmt.Errorf("wizard: questionnaire for %s %d: %w", f.Kind, f.Year, err)
	}
	e.f, e.sch = f, sch

	if err := e.ensureRootRecord(ctx); err != nil {
		return err
	}
	if err := e.reloadChildren(ctx); err != nil {
		return err
	}
	e.loaded = true

	root := e.rootRoleRef()

	// A reopened filing restarts from the top: the amendment override
	// outranks any stale snapshot.
	if f.Reference != "" {
		e.phase = Phase{Kind: PhaseRoleActive, Role: root}
		return nil
	}

	if f.Progress != nil && f.Status.Resumable() {
		if restored, ok := e.restore(*f.Progress); ok {
			e.phase = restored
			return nil
		}
	}

	e.phase = Phase{Kind: PhaseRoleActive, Role: root}
	return nil
}

// restore maps a snapshot back onto live records. A pointer that no longer
// resolves falls back to a fresh start instead of erroring.
func (e *Engine) restore(pr filing.Progress) (Phase, bool) {
	restored := phaseFromProgress(pr)
	if restored.Kind != PhaseRoleActive {
		return Phase{}, false
	}
	rec, ok := e.resolveRole(restored.Role)
	if !ok {
		return Phase{}, false
	}
	restored.Role = rec
	answers, _ := e.answersFor(rec)
	restored.Section = clamp(restored.Section, len(e.visibleSections(answers)))
	return restored, true
}

func (e *Engine) nextSection(ctx context.Context) error {
	if !e.phase.Active() {
		return ErrNoActiveRole
	}
	if err := e.saver.Flush(ctx); err != nil {
		return transport("flush answers", err)
	}

	answers, _ := e.activeAnswers()
	vis := e.visibleSections(answers)
	if len(vis) == 0 {
		e.notice = "No sections apply to this return yet."
		return nil
	}
	idx := clamp(e.phase.Section, len(vis))
	sec := e.sch.Sections[vis[idx]]

	result := validation.ValidateSection(sec, answers)
	if !result.Valid {
		e.errs = result.Errors
		return nil
	}
	if idx == len(vis)-1 {
		// Last visible section: completing the phase takes over from
		// advancing the index.
		return e.completePhase(ctx)
	}
	e.phase.Section = idx + 1
	return nil
}

func (e *Engine) prevSection() error {
	if !e.phase.Active() {
		return ErrNoActiveRole
	}
	if e.phase.Section > 0 {
		e.phase.Section--
	}
	return nil
}

func (e *Engine) goToSection(ctx context.Context, target int) error {
	if !e.phase.Active() {
		return ErrNoActiveRole
	}
	if err := e.saver.Flush(ctx); err != nil {
		return transport("flush answers", err)
	}
	answers, _ := e.activeAnswers()
	e.phase.Section = clamp(target, len(e.visibleSections(answers)))
	return nil
}

func (e *Engine) goToRole(ctx context.Context, ref filing.RoleRef) error {
	if !e.loaded {
		return ErrNoActiveRole
	}
	if err := e.saver.Flush(ctx); err != nil {
		return transport("flush answers", err)
	}
	resolved, ok := e.resolveRole(ref)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrUnknownRole, ref.Role, ref.RecordID)
	}
	e.phase = Phase{Kind: PhaseRoleActive, Role: resolved, DependentIndex: e.phase.DependentIndex}
	return nil
}

func (e *Engine) completePhaseCmd(ctx context.Context) error {
	if !e.phase.Active() {
		return ErrNoActiveRole
	}
	if err := e.saver.Flush(ctx); err != nil {
		return transport("flush answers", err)
	}
	return e.completePhase(ctx)
}

// completePhase runs the whole-role gate. On failure the phase stays put
// and the section index jumps to the first section still missing fields.
func (e *Engine) completePhase(ctx context.Context) error {
	answers, _ := e.activeAnswers()
	role := validation.ValidateRole(e.sch, answers)
	if !role.Valid {
		e.roleGate = &role
		e.phase.Section = role.FirstMissingIndex
		vis := e.visibleSections(answers)
		if role.FirstMissingIndex >= 0 && role.FirstMissingIndex < len(vis) {
			sec := e.sch.Sections[vis[role.FirstMissingIndex]]
			e.errs = validation.ValidateSection(sec, answers).Errors
		}
		return nil
	}
	return e.advanceRole(ctx)
}

func (e *Engine) advanceRole(ctx context.Context) error {
	switch e.phase.Role.Role {
	case filing.RolePrimary:
		return e.enterSpouseCheckpoint(ctx)
	case filing.RoleSpouse:
		return e.enterDependentCheckpoint()
	case filing.RoleDependent:
		e.finished[e.phase.Role.RecordID] = true
		e.phase.DependentIndex++
		return e.enterDependentCheckpoint()
	case filing.RoleCorporateEntity, filing.RoleTrustEntity:
		e.phase = Phase{Kind: PhaseReview}
		return nil
	default:
		return ErrNoActiveRole
	}
}

// enterSpouseCheckpoint auto-advances only when the marital answer has been
// explicitly given and is not spouse-eligible. An unanswered marital
// question keeps the checkpoint open.
func (e *Engine) enterSpouseCheckpoint(ctx context.Context) error {
	_ = ctx
	e.phase = Phase{Kind: PhaseSpouseCheckpoint, DependentIndex: e.phase.DependentIndex}

	primary := e.primary()
	if primary == nil {
		return nil
	}
	if q, ok := e.sch.ByPurpose(schema.PurposeMaritalStatus); ok {
		if visibility.Answered(primary.Answers, q.ID) && !spouseEligible(q, primary.Answers[q.ID]) {
			return e.enterDependentCheckpoint()
		}
	}
	if spouse := e.spouse(); spouse != nil {
		// A spouse record already exists (resume or amendment); continue
		// into it rather than asking again.
		e.phase = Phase{Kind: PhaseRoleActive, Role: filing.RoleRef{Role: filing.RoleSpouse, RecordID: spouse.ID}, DependentIndex: e.phase.DependentIndex}
	}
	return nil
}

func (e *Engine) enterDependentCheckpoint() error {
	e.phase = Phase{Kind: PhaseDependentCheckpoint, DependentIndex: e.phase.DependentIndex}

	declared := e.declaredDependents()
	if len(declared) == 0 {
		e.phase = Phase{Kind: PhaseReview}
		return nil
	}
	earners := earning(declared)
	if len(earners) == 0 {
		e.notice = "Your dependents do not earn income, so no separate returns are required."
		e.phase = Phase{Kind: PhaseReview}
		return nil
	}

	deps := e.dependentRecords()
	if len(deps) == 0 {
		// Await ADD_DEPENDENTS or SKIP_DEPENDENTS.
		return nil
	}
	for _, d := range deps {
		if d.Complete || e.finished[d.ID] {
			continue
		}
		e.phase = Phase{Kind: PhaseRoleActive, Role: filing.RoleRef{Role: filing.RoleDependent, RecordID: d.ID}, DependentIndex: e.phase.DependentIndex}
		return nil
	}
	e.phase = Phase{Kind: PhaseReview}
	return nil
}

func (e *Engine) addSpouse(ctx context.Context) error {
	if e.phase.Kind != PhaseSpouseCheckpoint {
		return ErrBadCheckpoint
	}
	rec, err := e.createPerson(ctx, filing.RoleSpouse, 0)
	if err != nil {
		return err
	}
	e.phase = Phase{Kind: PhaseRoleActive, Role: filing.RoleRef{Role: filing.RoleSpouse, RecordID: rec.ID}, DependentIndex: e.phase.DependentIndex}
	return nil
}

func (e *Engine) skipSpouse() error {
	if e.phase.Kind != PhaseSpouseCheckpoint {
		return ErrBadCheckpoint
	}
	return e.enterDependentCheckpoint()
}

func (e *Engine) addDependents(ctx context.Context, count int) error {
	if e.phase.Kind != PhaseDependentCheckpoint {
		return ErrBadCheckpoint
	}
	earners := earning(e.declaredDependents())
	existing := len(e.dependentRecords())
	want := count
	if max := len(earners) - existing; want > max {
		want = max
	}
	for i := 0; i < want; i++ {
		if _, err := e.createPerson(ctx, filing.RoleDependent, existing+i); err != nil {
			return err
		}
	}
	return e.enterDependentCheckpoint()
}

func (e *Engine) skipDependents() error {
	if e.phase.Kind != PhaseDependentCheckpoint {
		return ErrBadCheckpoint
	}
	e.phase = Phase{Kind: PhaseReview}
	return nil
}

func (e *Engine) submit(ctx context.Context) error {
	if e.phase.Kind != PhaseReview {
		return ErrBadCheckpoint
	}
	if err := e.saver.Flush(ctx); err != nil {
		return transport("flush answers", err)
	}

	result := e.sub.Submit(ctx, e.filingID)
	e.submission = &result
	if !result.OK() {
		return nil
	}

	f, err := e.st.Filing(ctx, e.filingID)
	if err != nil {
		return transport("reload filing", err)
	}
	e.f = f
	if err := e.reloadChildren(ctx); err != nil {
		return err
	}
	e.phase = Phase{Kind: PhaseSubmitted}
	return nil
}

// saveAndExit persists the position snapshot. Progress persistence is
// best-effort: failures are logged, never surfaced. Answer flushing is not
// best-effort and does surface.
func (e *Engine) saveAndExit(ctx context.Context) error {
	if !e.phase.snapshotable() {
		return ErrNoSave
	}
	if err := e.saver.Flush(ctx); err != nil {
		return transport("flush answers", err)
	}
	if err := e.st.SaveProgress(ctx, e.filingID, e.phase.Snapshot()); err != nil {
		e.log.Warn("progress save failed", "filing", e.filingID, "error", err)
	}
	return nil
}

// ensureRootRecord creates the primary person or business record if absent.
// Creation holds the add lock across the backend round trip and re-checks
// inside it, so a double-clicked or retried init cannot create two roots.
func (e *Engine) ensureRootRecord(ctx context.Context) error {
	e.addMu.Lock()
	defer e.addMu.Unlock()

	if e.f.Kind.Entity() {
		_, err := e.st.Business(ctx, e.filingID)
		if err == nil {
			return nil
		}
		if !notFound(err) {
			return transport("load business record", err)
		}
		biz := &filing.BusinessRecord{FilingID: e.filingID, Answers: make(map[string]any)}
		if err := e.st.CreateBusiness(ctx, biz); err != nil {
			return transport("create business record", err)
		}
		return nil
	}

	persons, err := e.st.Persons(ctx, e.filingID)
	if err != nil {
		return transport("load persons", err)
	}
	for _, p := range persons {
		if p.Role == filing.RolePrimary {
			return nil
		}
	}
	primary := &filing.PersonRecord{FilingID: e.filingID, Role: filing.RolePrimary, Answers: make(map[string]any)}
	if err := e.st.CreatePerson(ctx, primary); err != nil {
		return transport("create primary record", err)
	}
	return nil
}

// createPerson adds a spouse or dependent under the add lock, re-checking
// existing records inside it so duplicate add requests collapse to one.
func (e *Engine) createPerson(ctx context.Context, role filing.Role, ordinal int) (*filing.PersonRecord, error) {
	e.addMu.Lock()
	defer e.addMu.Unlock()

	persons, err := e.st.Persons(ctx, e.filingID)
	if err != nil {
		return nil, transport("load persons", err)
	}
	for _, p := range persons {
		if p.Role == role && (role != filing.RoleDependent || p.Ordinal == ordinal) {
			e.persons = persons
			return p, nil
		}
	}

	rec := &filing.PersonRecord{
		FilingID: e.filingID,
		Role:     role,
		Ordinal:  ordinal,
		Answers:  make(map[string]any),
	}
	if err := e.st.CreatePerson(ctx, rec); err != nil {
		return nil, transport("create person record", err)
	}
	if err := e.reloadChildren(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (e *Engine) reloadChildren(ctx context.Context) error {
	if e.f.Kind.Entity() {
		biz, err := e.st.Business(ctx, e.filingID)
		if err != nil {
			return transport("load business record", err)
		}
		e.business = biz
		return nil
	}
	persons, err := e.st.Persons(ctx, e.filingID)
	if err != nil {
		return transport("load persons", err)
	}
	e.persons = persons
	return nil
}

func (e *Engine) rootRoleRef() filing.RoleRef {
	if e.f.Kind.Entity() {
		return filing.RoleRef{Role: filing.RootRole(e.f.Kind), RecordID: e.business.ID}
	}
	if p := e.primary(); p != nil {
		return filing.RoleRef{Role: filing.RolePrimary, RecordID: p.ID}
	}
	return filing.RoleRef{Role: filing.RolePrimary}
}

// resolveRole maps a possibly partial ref (role only, or role+record) onto
// a live record.
func (e *Engine) resolveRole(ref filing.RoleRef) (filing.RoleRef, bool) {
	if e.f.Kind.Entity() {
		if e.business == nil {
			return filing.RoleRef{}, false
		}
		root := filing.RootRole(e.f.Kind)
		if ref.Role != root {
			return filing.RoleRef{}, false
		}
		if ref.RecordID != "" && ref.RecordID != e.business.ID {
			return filing.RoleRef{}, false
		}
		return filing.RoleRef{Role: root, RecordID: e.business.ID}, true
	}
	for _, p := range e.persons {
		if p.Role != ref.Role {
			continue
		}
		if ref.RecordID == "" || ref.RecordID == p.ID {
			return filing.RoleRef{Role: p.Role, RecordID: p.ID}, true
		}
	}
	return filing.RoleRef{}, false
}

func (e *Engine) primary() *filing.PersonRecord {
	for _, p := range e.persons {
		if p.Role == filing.RolePrimary {
			return p
		}
	}
	return nil
}

func (e *Engine) spouse() *filing.PersonRecord {
	for _, p := range e.persons {
		if p.Role == filing.RoleSpouse {
			return p
		}
	}
	return nil
}

func (e *Engine) dependentRecords() []*filing.PersonRecord {
	var out []*filing.PersonRecord
	for _, p := range e.persons {
		if p.Role == filing.RoleDependent {
			out = append(out, p)
		}
	}
	return out
}

func (e *Engine) personByID(id string) *filing.PersonRecord {
	for _, p := range e.persons {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (e *Engine) activeAnswers() (map[string]any, bool) {
	return e.answersFor(e.phase.Role)
}

func (e *Engine) answersFor(ref filing.RoleRef) (map[string]any, bool) {
	if e.f == nil {
		return nil, false
	}
	if e.f.Kind.Entity() {
		if e.business == nil {
			return nil, false
		}
		return e.business.Answers, true
	}
	if p := e.personByID(ref.RecordID); p != nil {
		return p.Answers, true
	}
	return nil, false
}

func (e *Engine) queueActive() {
	if e.f.Kind.Entity() {
		e.syncBusinessIdentity()
		e.saver.queueBusiness(e.business)
		return
	}
	if p := e.personByID(e.phase.Role.RecordID); p != nil {
		e.saver.queuePerson(p)
	}
}

// syncBusinessIdentity mirrors the identifying answers onto the record's
// dedicated columns so the duplicate gate and review screen see them.
func (e *Engine) syncBusinessIdentity() {
	for key, value := range e.business.Answers {
		switch {
		case strings.HasSuffix(key, ".legalName"):
			e.business.Name = visibility.AsString(value)
		case strings.HasSuffix(key, ".businessNumber"), strings.HasSuffix(key, ".trustNumber"):
			e.business.Registration = visibility.AsString(value)
		}
	}
}

// visibleSections returns schema section indexes visible for these answers.
func (e *Engine) visibleSections(answers map[string]any) []int {
	out := make([]int, 0, len(e.sch.Sections))
	for i, sec := range e.sch.Sections {
		if visibility.SectionVisible(sec, answers) {
			out = append(out, i)
		}
	}
	return out
}

type dependentDecl struct {
	Name        string
	EarnsIncome bool
}

// declaredDependents reads the dependents group off the primary record.
func (e *Engine) declaredDependents() []dependentDecl {
	primary := e.primary()
	if primary == nil {
		return nil
	}
	q, ok := e.sch.ByPurpose(schema.PurposeDependents)
	if !ok {
		return nil
	}

	nameField, incomeField := "", ""
	for _, f := range q.Fields {
		if f.IncomeFlag && incomeField == "" {
			incomeField = f.Name
		}
		if f.Type == schema.TypeText && nameField == "" {
			nameField = f.Name
		}
	}

	var out []dependentDecl
	for _, raw := range asList(primary.Answers[q.ID]) {
		item, _ := raw.(map[string]any)
		out = append(out, dependentDecl{
			Name:        visibility.AsString(item[nameField]),
			EarnsIncome: visibility.Truthy(item[incomeField]),
		})
	}
	return out
}

func earning(declared []dependentDecl) []dependentDecl {
	var out []dependentDecl
	for _, d := range declared {
		if d.EarnsIncome {
			out = append(out, d)
		}
	}
	return out
}

func (e *Engine) view() View {
	v := View{FilingID: e.filingID, Phase: e.phase}
	if !e.loaded {
		return v
	}
	v.Reference = e.f.Reference
	v.Errors = e.errs
	v.RoleGate = e.roleGate
	v.Notice = e.notice
	v.Submission = e.submission

	quote := e.calc.Compute(e.f, e.sch, e.pricingRecords())
	v.Pricing = &quote
	v.AmountDueCents = quote.TotalCents
	if e.f.Amendment() {
		v.AmountDueCents = pricing.AmountDueCents(quote.TotalCents, e.f.PaidCents)
		v.NoPaymentDue = v.AmountDueCents == 0
	}

	v.Completion = e.completion()

	if e.phase.Active() {
		answers, ok := e.activeAnswers()
		if ok {
			vis := e.visibleSections(answers)
			v.SectionCount = len(vis)
			idx := clamp(e.phase.Section, len(vis))
			if len(vis) > 0 {
				sec := e.sch.Sections[vis[idx]]
				v.SectionID = sec.ID
				v.SectionTitle = sec.Title
				v.Questions = visibility.VisibleQuestions(sec, answers)
			}
		}
	}
	return v
}

func (e *Engine) pricingRecords() []pricing.Record {
	if e.f.Kind.Entity() {
		if e.business == nil {
			return nil
		}
		return []pricing.Record{{Role: filing.RootRole(e.f.Kind), Answers: e.business.Answers}}
	}
	out := make([]pricing.Record, 0, len(e.persons))
	for _, p := range e.persons {
		out = append(out, pricing.Record{Role: p.Role, Answers: p.Answers})
	}
	return out
}

func (e *Engine) completion() []Completion {
	if e.f.Kind.Entity() {
		if e.business == nil {
			return nil
		}
		role := validation.ValidateRole(e.sch, e.business.Answers)
		return []Completion{{
			Role:          filing.RootRole(e.f.Kind),
			RecordID:      e.business.ID,
			Label:         e.business.Name,
			MissingFields: role.TotalMissingFields,
			Complete:      e.business.Complete,
		}}
	}

	declared := e.declaredDependents()
	out := make([]Completion, 0, len(e.persons))
	for _, p := range e.persons {
		role := validation.ValidateRole(e.sch, p.Answers)
		c := Completion{
			Role:          p.Role,
			RecordID:      p.ID,
			Ordinal:       p.Ordinal,
			MissingFields: role.TotalMissingFields,
			Complete:      p.Complete,
		}
		if p.Role == filing.RoleDependent {
			if earners := earning(declared); p.Ordinal < len(earners) {
				c.Label = earners[p.Ordinal].Name
			}
		}
		out = append(out, c)
	}
	return out
}

func clamp(idx, length int) int {
	if length == 0 {
		return 0
	}
	if idx < 0 {
		return 0
	}
	if idx >= length {
		return length - 1
	}
	return idx
}

func asList(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	default:
		return nil
	}
}

func notFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// spouseEligible reports whether the marital answer keeps the spouse
// checkpoint open. An answer outside the declared list means a spouse
// return cannot apply.
func spouseEligible(q schema.Question, answer any) bool {
	got := strings.TrimSpace(visibility.AsString(answer))
	for _, v := range q.SpouseEligible {
		if got == v {
			return true
		}
	}
	return false
}
