package allocator

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/core/model"
)

// ErrAlreadyRun is returned when Run is called a second time on the same engine
var ErrAlreadyRun = errors.New("allocation engine has already run")

const (
	modeOverSubscribed  = "over_subscribed"
	modeUnderSubscribed = "under_subscribed"
)

// Engine runs round-based enrollment over a CourseSystem.
// An Engine is single use: construct a new one for every run.
type Engine struct {
	courses *coursesystem.CourseSystem
	state   *EnrollmentState
	orderer CandidateOrderer
	logger  *zap.Logger
	metrics *Metrics

	policy           ScoringPolicy
	singlePlacement  bool
	useRequiredFlags bool
	rng              *rand.Rand

	ran       bool
	passes    int
	closed    []*model.Section
	exhausted map[int]*model.Student
	enrolled  int
	waitlist  int
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger (default zap.NewNop)
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRand sets the random source used to break ties
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithOrderer replaces the default PriorityLoadOrderer
func WithOrderer(orderer CandidateOrderer) Option {
	return func(e *Engine) {
		e.orderer = orderer
	}
}

// WithMetrics sets the counters updated during the run. Without it the engine
// registers a private set on a fresh registry.
func WithMetrics(metrics *Metrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// WithScoringPolicy selects the scoring table layout (default PolicyBalanced)
func WithScoringPolicy(policy ScoringPolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// WithSinglePlacement withdraws a student from every other section once they are
// enrolled or waitlisted anywhere, so each student receives at most one placement
func WithSinglePlacement() Option {
	return func(e *Engine) {
		e.singlePlacement = true
	}
}

// WithRequiredFlags scores each preference with its own required flag. By default every
// preference is scored as required.
func WithRequiredFlags() Option {
	return func(e *Engine) {
		e.useRequiredFlags = true
	}
}

// SeededRand returns a deterministic random source for the given seed
func SeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>32))
}

// Outcome summarises a completed run. Enrollment and waitlists are read from the CourseSystem.
type Outcome struct {
	// Levels is the number of priority levels processed
	Levels int

	// Passes is the number of passes made over the open sections across all levels
	Passes int

	// ClosedSections filled during the run, in closing order
	ClosedSections []*model.Section

	// OpenSections were never closed, in registration order
	OpenSections []*model.Section

	// ExhaustedStudents reached the credit cap and were withdrawn from all remaining candidacies
	ExhaustedStudents []*model.Student

	// Enrolled is the number of seats granted by this run
	Enrolled int

	// Waitlisted is the number of waitlist entries added by this run
	Waitlisted int

	// LookupMisses is the number of scoring lookups outside the table
	LookupMisses int
}

// New creates an engine for the given course system. The scoring table is derived from the
// first registered student's preference list.
func New(courses *coursesystem.CourseSystem, opts ...Option) *Engine {
	e := &Engine{
		courses:   courses,
		orderer:   PriorityLoadOrderer{},
		logger:    zap.NewNop(),
		policy:    PolicyBalanced,
		exhausted: make(map[int]*model.Student),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(prometheus.NewRegistry())
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	var representative *model.Student
	if students := courses.Students(); len(students) > 0 {
		representative = students[0]
	}

	e.state = &EnrollmentState{
		Courses:          courses,
		Scorer:           NewPriorityScorer(representative, e.policy, e.logger, e.metrics.LookupMisses),
		Rand:             e.rng,
		PriorityOffset:   make(map[int]int),
		Candidates:       make(map[int][]*model.Student),
		UseRequiredFlags: e.useRequiredFlags,
	}

	return e
}

// State exposes the run-scoped state
func (e *Engine) State() *EnrollmentState {
	return e.state
}

// PriorityOffset returns the student's current displacement penalty
func (e *Engine) PriorityOffset(student *model.Student) int {
	return e.state.PriorityOffset[student.ID]
}

// Run allocates seats level by level, highest priority first. The course system is mutated in place.
// If ctx is cancelled the run stops before the next section and returns ctx.Err(); seats granted
// up to that point are kept.
func (e *Engine) Run(ctx context.Context) (*Outcome, error) {
	if e.ran {
		return nil, ErrAlreadyRun
	}
	e.ran = true

	// Seed candidates and offsets from every preference list
	e.seed()

	levels := e.state.Scorer.AllPriorities()
	e.logger.Info("Starting allocation",
		zap.Int("student_count", len(e.courses.Students())),
		zap.Int("section_count", len(e.courses.Sections())),
		zap.Int("level_count", len(levels)),
		zap.String("policy", string(e.state.Scorer.Policy())),
		zap.String("orderer", e.orderer.Name()))

	for _, level := range levels {
		if err := e.runLevel(ctx, level); err != nil {
			e.logger.Warn("Allocation interrupted", zap.Int("level", level), zap.Error(err))
			return nil, err
		}
	}

	outcome := e.buildOutcome(len(levels))
	e.logger.Info("Allocation complete",
		zap.Int("passes", outcome.Passes),
		zap.Int("enrolled", outcome.Enrolled),
		zap.Int("waitlisted", outcome.Waitlisted),
		zap.Int("closed_sections", len(outcome.ClosedSections)),
		zap.Int("open_sections", len(outcome.OpenSections)),
		zap.Int("exhausted_students", len(outcome.ExhaustedStudents)),
		zap.Int("lookup_misses", outcome.LookupMisses))

	return outcome, nil
}

// seed registers every student as a candidate for each section they asked for
func (e *Engine) seed() {
	for _, student := range e.courses.Students() {
		e.state.PriorityOffset[student.ID] = 0

		for rank, pref := range student.Preferences {
			if pref.Section == nil {
				continue
			}

			// Resolve against the registered section with the same id
			section, ok := e.courses.Section(pref.Section.ID)
			if !ok {
				e.logger.Warn("Preference names an unregistered section, skipping",
					zap.Int("student_id", student.ID),
					zap.Int("section_id", pref.Section.ID),
					zap.Int("preference_rank", rank))
				continue
			}

			// Already seated there before the run
			if section.IsEnrolled(student) {
				continue
			}

			if !e.state.IsCandidate(student, section) {
				e.state.Candidates[section.ID] = append(e.state.Candidates[section.ID], student)
			}
		}
	}
}

// runLevel closes over-subscribed sections until none fill, then serves under-subscribed ones once
func (e *Engine) runLevel(ctx context.Context, level int) error {
	e.logger.Debug("Processing priority level",
		zap.Int("level", level),
		zap.Int("open_sections", len(e.state.Candidates)))

	for {
		closed, err := e.processSections(ctx, level, true)
		if err != nil {
			return err
		}
		if closed == 0 {
			break
		}
	}

	_, err := e.processSections(ctx, level, false)
	return err
}

// processSections makes one pass over the open sections in registration order. Only sections whose
// subscription matches overSubscribed are served. Sections that fill are closed once the pass ends.
// Returns the number of sections closed.
func (e *Engine) processSections(ctx context.Context, level int, overSubscribed bool) (int, error) {
	mode := modeUnderSubscribed
	if overSubscribed {
		mode = modeOverSubscribed
	}
	e.passes++
	e.metrics.Passes.WithLabelValues(mode).Inc()

	var toClose []*model.Section
	for _, section := range e.openSections() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		queue := e.orderer.OrderCandidates(e.state, section)
		isOverSubscribed := section.OpenSeats() < len(queue)
		if isOverSubscribed != overSubscribed {
			continue
		}

		if e.fillSection(section, queue, level) {
			toClose = append(toClose, section)
		}
	}

	for _, section := range toClose {
		e.closeSection(section)
	}

	return len(toClose), nil
}

// openSections returns the sections still taking part, in registration order
func (e *Engine) openSections() []*model.Section {
	var open []*model.Section
	for _, section := range e.courses.Sections() {
		if _, ok := e.state.Candidates[section.ID]; ok {
			open = append(open, section)
		}
	}
	return open
}

// fillSection seats candidates from the head of the queue while the section has room and the head
// scores at least level. Candidates whose remaining credits cannot take the section stay in line
// ahead of the unserved rest of the queue, and that becomes the section's candidate list.
// Returns true if the section has no open seat afterwards.
func (e *Engine) fillSection(section *model.Section, queue []*model.Student, level int) bool {
	var exhausted, placed, overCap []*model.Student

	next := 0
	for next < len(queue) && section.HasOpenSeat() {
		student := queue[next]

		// At the credit cap, withdraw everywhere without penalty
		if e.courses.HasMaxCredits(student) {
			exhausted = append(exhausted, student)
			next++
			continue
		}

		// Below the floor, defer the rest of the queue to a later level
		if e.state.FinalPriority(student, section) < level {
			break
		}

		next++
		if !e.courses.Enroll(student, section) {
			overCap = append(overCap, student)
			e.logger.Debug("Section does not fit student's remaining credits",
				zap.Int("student_id", student.ID),
				zap.Int("section_id", section.ID),
				zap.Float64("enrolled_credits", e.courses.EnrolledCredits(student)),
				zap.Float64("credit_weight", section.CreditWeight))
			continue
		}

		e.enrolled++
		e.metrics.Enrolled.Inc()
		placed = append(placed, student)
		e.logger.Debug("Enrolled student",
			zap.Int("student_id", student.ID),
			zap.Int("section_id", section.ID),
			zap.Int("level", level))
	}

	e.state.Candidates[section.ID] = append(overCap, queue[next:]...)

	for _, student := range exhausted {
		e.state.removeEverywhere(student)
		if _, seen := e.exhausted[student.ID]; !seen {
			e.exhausted[student.ID] = student
			e.metrics.ExhaustedStudents.Inc()
		}
	}

	if e.singlePlacement {
		for _, student := range placed {
			e.state.removeEverywhere(student)
		}
	}

	return !section.HasOpenSeat()
}

// closeSection waitlists the remaining candidates in queue order, penalises each of them and
// drops the section from the run
func (e *Engine) closeSection(section *model.Section) {
	remaining := e.state.Candidates[section.ID]
	delete(e.state.Candidates, section.ID)

	for _, student := range remaining {
		e.courses.AddToWaitlist(student, section)
		e.state.PriorityOffset[student.ID]--
		e.waitlist++
		e.metrics.Waitlisted.Inc()

		if e.singlePlacement {
			e.state.removeEverywhere(student)
		}
	}

	e.closed = append(e.closed, section)
	e.metrics.SectionsClosed.Inc()
	e.logger.Debug("Closed section",
		zap.Int("section_id", section.ID),
		zap.Int("enrolled", len(section.Enrolled)),
		zap.Int("waitlisted", len(remaining)))
}

// buildOutcome summarises the run
func (e *Engine) buildOutcome(levels int) *Outcome {
	exhausted := make([]*model.Student, 0, len(e.exhausted))
	for _, student := range e.courses.Students() {
		if _, ok := e.exhausted[student.ID]; ok {
			exhausted = append(exhausted, student)
		}
	}

	closed := make(map[int]bool, len(e.closed))
	for _, section := range e.closed {
		closed[section.ID] = true
	}
	var open []*model.Section
	for _, section := range e.courses.Sections() {
		if !closed[section.ID] {
			open = append(open, section)
		}
	}

	return &Outcome{
		Levels:            levels,
		Passes:            e.passes,
		ClosedSections:    e.closed,
		OpenSections:      open,
		ExhaustedStudents: exhausted,
		Enrolled:          e.enrolled,
		Waitlisted:        e.waitlist,
		LookupMisses:      e.state.Scorer.LookupMisses(),
	}
}
