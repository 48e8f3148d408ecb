// Package progress derives completion percentages from a course and the set
// of lesson ids a learner has completed. Coming-soon lessons never count
// toward a denominator. Ids that are not in the course are ignored.
package progress

import (
	"math"

	"github.com/yungbote/allbound-backend/internal/domain/content"
)

type CompletedSet map[string]struct{}

func NewCompletedSet(ids []string) CompletedSet {
	s := make(CompletedSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s CompletedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func counts(l *content.Lesson) bool {
	return l != nil && !l.IsComingSoon()
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

func tally(m *content.Module, completed CompletedSet) (done, total int) {
	if m == nil {
		return 0, 0
	}
	for _, l := range m.Lessons {
		if !counts(l) {
			continue
		}
		total++
		if completed.Has(l.ID) {
			done++
		}
	}
	return done, total
}

func CourseProgress(c *content.Course, completed CompletedSet) int {
	if c == nil {
		return 0
	}
	done, total := 0, 0
	for _, m := range c.Modules {
		d, t := tally(m, completed)
		done += d
		total += t
	}
	return percent(done, total)
}

func ModuleProgress(m *content.Module, completed CompletedSet) int {
	return percent(tally(m, completed))
}

func TotalLessons(c *content.Course) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, m := range c.Modules {
		_, t := tally(m, nil)
		n += t
	}
	return n
}

// TotalModules counts modules with at least one lesson that is not coming soon.
func TotalModules(c *content.Course) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, m := range c.Modules {
		if _, t := tally(m, nil); t > 0 {
			n++
		}
	}
	return n
}

type ModuleSummary struct {
	ModuleID  string `json:"module_id"`
	Title     string `json:"title"`
	Percent   int    `json:"percent"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

type Summary struct {
	Percent          int             `json:"percent"`
	CompletedLessons int             `json:"completed_lessons"`
	TotalLessons     int             `json:"total_lessons"`
	CompletedModules int             `json:"completed_modules"`
	TotalModules     int             `json:"total_modules"`
	Modules          []ModuleSummary `json:"modules"`
	NextUp           *string         `json:"next_up"`
}

// Summarize computes every figure the player sidebar shows. NextUp is the
// first available lesson, in course order, that is not yet completed.
func Summarize(c *content.Course, completed CompletedSet) Summary {
	out := Summary{Modules: []ModuleSummary{}}
	if c == nil {
		return out
	}
	for _, m := range c.Modules {
		if m == nil {
			continue
		}
		done, total := tally(m, completed)
		out.CompletedLessons += done
		out.TotalLessons += total
		if total > 0 {
			out.TotalModules++
			if done == total {
				out.CompletedModules++
			}
		}
		out.Modules = append(out.Modules, ModuleSummary{
			ModuleID:  m.ID,
			Title:     m.Title,
			Percent:   percent(done, total),
			Completed: done,
			Total:     total,
		})
		if out.NextUp != nil {
			continue
		}
		for _, l := range m.Lessons {
			if l != nil && l.IsAvailable() && !completed.Has(l.ID) {
				id := l.ID
				out.NextUp = &id
				break
			}
		}
	}
	out.Percent = percent(out.CompletedLessons, out.TotalLessons)
	return out
}
