package allocator

import (
	"cmp"
	"slices"

	"github.com/jakechorley/section-allocator/pkg/core/model"
)

// CandidateOrderer decides the order in which a section's candidates are offered seats.
// Alternative heuristics can be swapped in without changing the engine.
type CandidateOrderer interface {
	// Name returns a human-readable identifier for this orderer
	Name() string

	// OrderCandidates returns the section's current candidates, first in line first.
	// The returned slice must be newly allocated; the engine keeps it as the section's candidate list.
	OrderCandidates(state *EnrollmentState, section *model.Section) []*model.Student
}

// bucketKey groups candidates that cannot be separated by score or credit load
type bucketKey struct {
	priority   int
	creditLoad float64
}

// PriorityLoadOrderer orders candidates by final priority (highest first), then by
// enrolled credits (lightest first). Remaining ties are shuffled with the state's random source.
type PriorityLoadOrderer struct{}

func (PriorityLoadOrderer) Name() string {
	return "PriorityLoad"
}

func (PriorityLoadOrderer) OrderCandidates(state *EnrollmentState, section *model.Section) []*model.Student {
	candidates := state.Candidates[section.ID]

	// Bucket candidates by (final priority, credit load), keeping candidate order inside each bucket
	buckets := make(map[bucketKey][]*model.Student)
	keys := make([]bucketKey, 0)
	for _, student := range candidates {
		key := bucketKey{
			priority:   state.FinalPriority(student, section),
			creditLoad: state.Courses.EnrolledCredits(student),
		}
		if _, exists := buckets[key]; !exists {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], student)
	}

	// Highest priority first, then lightest load
	slices.SortFunc(keys, func(a, b bucketKey) int {
		if c := cmp.Compare(b.priority, a.priority); c != 0 {
			return c
		}
		return cmp.Compare(a.creditLoad, b.creditLoad)
	})

	// Shuffle within each bucket and flatten
	queue := make([]*model.Student, 0, len(candidates))
	for _, key := range keys {
		bucket := buckets[key]
		if state.Rand != nil {
			state.Rand.Shuffle(len(bucket), func(i, j int) {
				bucket[i], bucket[j] = bucket[j], bucket[i]
			})
		}
		queue = append(queue, bucket...)
	}

	return queue
}
