package allocator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/pkg/core/model"
)

// DefaultPreferenceSlots is the preference list length assumed when no representative student is available
const DefaultPreferenceSlots = 10

// ScoringPolicy selects how the priority table is laid out
type ScoringPolicy string

const (
	// PolicyBalanced puts every required preference above every non-required one,
	// then orders by preference rank and finally by seniority
	PolicyBalanced ScoringPolicy = "balanced"

	// PolicyJagged scores diagonal bands of preference rank plus seniority precedence,
	// so a junior student's first choice can tie with a senior student's second choice
	PolicyJagged ScoringPolicy = "jagged"
)

// ParseScoringPolicy converts a policy name (case-insensitive) into a ScoringPolicy
func ParseScoringPolicy(name string) (ScoringPolicy, error) {
	switch ScoringPolicy(strings.ToLower(strings.TrimSpace(name))) {
	case PolicyBalanced:
		return PolicyBalanced, nil
	case PolicyJagged:
		return PolicyJagged, nil
	}
	return "", fmt.Errorf("unknown scoring policy %q", name)
}

// priorityKey identifies one row of the scoring table
type priorityKey struct {
	seniority int
	rank      int
	required  bool
}

// missKey identifies one student's preference that fell outside the table
type missKey struct {
	studentID int
	rank      int
	required  bool
}

// PriorityScorer maps (seniority, preference rank, required) to an integer score.
// Higher scores are served first. The table is built once and never changes.
type PriorityScorer struct {
	policy          ScoringPolicy
	preferenceSlots int
	table           map[priorityKey]int
	priorities      []int

	logger       *zap.Logger
	missCounter  prometheus.Counter
	lookupMisses int
	missed       map[missKey]bool
}

// NewPriorityScorer builds the scoring table. The number of preference slots is taken from the
// representative student's preference list, falling back to DefaultPreferenceSlots.
// logger and missCounter may be nil.
func NewPriorityScorer(representative *model.Student, policy ScoringPolicy, logger *zap.Logger, missCounter prometheus.Counter) *PriorityScorer {
	if logger == nil {
		logger = zap.NewNop()
	}

	slots := DefaultPreferenceSlots
	if representative != nil && len(representative.Preferences) > 0 {
		slots = len(representative.Preferences)
	}

	ps := &PriorityScorer{
		policy:          policy,
		preferenceSlots: slots,
		table:           make(map[priorityKey]int),
		logger:          logger,
		missCounter:     missCounter,
		missed:          make(map[missKey]bool),
	}

	switch policy {
	case PolicyJagged:
		ps.populateJagged()
	default:
		ps.policy = PolicyBalanced
		ps.populateBalanced()
	}
	ps.collectPriorities()

	return ps
}

// precedence converts a seniority into its position in the scoring order (Senior = 0)
func precedence(seniority int) int {
	return model.SeniorityLevels - 1 - seniority
}

// populateBalanced fills the table with 2*P*S distinct scores. The required band occupies
// the top P*S scores.
func (ps *PriorityScorer) populateBalanced() {
	p := ps.preferenceSlots
	s := model.SeniorityLevels

	for band, required := range []bool{true, false} {
		for rank := 0; rank < p; rank++ {
			for seniority := 0; seniority < s; seniority++ {
				value := 2*p*s - (p*s*band + s*rank + precedence(seniority) + 1)
				ps.table[priorityKey{seniority: seniority, rank: rank, required: required}] = value
			}
		}
	}
}

// populateJagged fills the table with P+S-1 distinct scores, one per diagonal rank+precedence.
// The required flag does not affect the score.
func (ps *PriorityScorer) populateJagged() {
	p := ps.preferenceSlots
	s := model.SeniorityLevels
	bands := p + s - 1

	for rank := 0; rank < p; rank++ {
		for seniority := 0; seniority < s; seniority++ {
			value := bands - (rank + precedence(seniority))
			ps.table[priorityKey{seniority: seniority, rank: rank, required: true}] = value
			ps.table[priorityKey{seniority: seniority, rank: rank, required: false}] = value
		}
	}
}

// collectPriorities records the distinct scores, highest first
func (ps *PriorityScorer) collectPriorities() {
	seen := make(map[int]bool, len(ps.table))
	for _, value := range ps.table {
		if !seen[value] {
			seen[value] = true
			ps.priorities = append(ps.priorities, value)
		}
	}
	slices.Sort(ps.priorities)
	slices.Reverse(ps.priorities)
}

// CalculatePriority returns the table score for the student's preference at rank.
// Unknown combinations (including rank -1) are scored -1. Each distinct (student, rank, required)
// miss is counted and logged once; repeats are logged at debug.
func (ps *PriorityScorer) CalculatePriority(rank int, student *model.Student, required bool) int {
	key := priorityKey{seniority: student.Seniority.Rank(), rank: rank, required: required}
	if value, ok := ps.table[key]; ok {
		return value
	}

	fields := []zap.Field{
		zap.Int("student_id", student.ID),
		zap.String("student_name", student.Name),
		zap.Int("preference_rank", rank),
		zap.String("seniority", student.Seniority.String()),
		zap.Bool("required", required),
	}

	miss := missKey{studentID: student.ID, rank: rank, required: required}
	if ps.missed[miss] {
		ps.logger.Debug("Repeated lookup for deranked preference", fields...)
		return -1
	}
	ps.missed[miss] = true

	ps.lookupMisses++
	if ps.missCounter != nil {
		ps.missCounter.Inc()
	}
	ps.logger.Warn("Preference deranked, no priority for lookup", fields...)

	return -1
}

// AllPriorities returns the distinct scores in descending order
func (ps *PriorityScorer) AllPriorities() []int {
	return slices.Clone(ps.priorities)
}

// Policy returns the policy the table was built with
func (ps *PriorityScorer) Policy() ScoringPolicy {
	return ps.policy
}

// PreferenceSlots returns the number of preference ranks covered by the table
func (ps *PriorityScorer) PreferenceSlots() int {
	return ps.preferenceSlots
}

// LookupMisses returns how many distinct preferences fell outside the table
func (ps *PriorityScorer) LookupMisses() int {
	return ps.lookupMisses
}
