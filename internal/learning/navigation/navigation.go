// Package navigation resolves the lessons before and after the one a learner
// is watching.
//
// Within a module only the direct neighbour is considered: when it is not
// available the answer is nil rather than the next candidate. Only at a
// module boundary does the search move to the adjacent module, taking its
// last (previous) or first (next) available lesson.
package navigation

import (
	"github.com/yungbote/allbound-backend/internal/domain/content"
)

type LessonRef struct {
	ModuleID string `json:"module_id"`
	LessonID string `json:"lesson_id"`
	Title    string `json:"title"`
}

type Adjacent struct {
	Previous *LessonRef `json:"previous"`
	Next     *LessonRef `json:"next"`
}

func ref(m *content.Module, l *content.Lesson) *LessonRef {
	return &LessonRef{ModuleID: m.ID, LessonID: l.ID, Title: l.Title}
}

func orderedModules(c *content.Course) []*content.Module {
	out := make([]*content.Module, 0, len(c.Modules))
	for _, m := range c.Modules {
		if m != nil {
			out = append(out, m)
		}
	}
	content.SortModules(out)
	return out
}

func orderedLessons(m *content.Module) []*content.Lesson {
	out := make([]*content.Lesson, 0, len(m.Lessons))
	for _, l := range m.Lessons {
		if l != nil {
			out = append(out, l)
		}
	}
	content.SortLessons(out)
	return out
}

// Resolve returns both neighbours. Unknown module or lesson ids, or a lesson
// that does not belong to the given module, yield an empty result.
func Resolve(c *content.Course, moduleID, lessonID string) Adjacent {
	if c == nil {
		return Adjacent{}
	}
	modules := orderedModules(c)
	mi := -1
	for i, m := range modules {
		if m.ID == moduleID {
			mi = i
			break
		}
	}
	if mi < 0 {
		return Adjacent{}
	}
	lessons := orderedLessons(modules[mi])
	li := -1
	for i, l := range lessons {
		if l.ID == lessonID {
			li = i
			break
		}
	}
	if li < 0 {
		return Adjacent{}
	}

	var out Adjacent
	if li > 0 {
		if cand := lessons[li-1]; cand.IsAvailable() {
			out.Previous = ref(modules[mi], cand)
		}
	} else if mi > 0 {
		prev := modules[mi-1]
		pl := orderedLessons(prev)
		for i := len(pl) - 1; i >= 0; i-- {
			if pl[i].IsAvailable() {
				out.Previous = ref(prev, pl[i])
				break
			}
		}
	}

	if li < len(lessons)-1 {
		if cand := lessons[li+1]; cand.IsAvailable() {
			out.Next = ref(modules[mi], cand)
		}
	} else if mi < len(modules)-1 {
		next := modules[mi+1]
		for _, l := range orderedLessons(next) {
			if l.IsAvailable() {
				out.Next = ref(next, l)
				break
			}
		}
	}
	return out
}

func Previous(c *content.Course, moduleID, lessonID string) *LessonRef {
	return Resolve(c, moduleID, lessonID).Previous
}

func Next(c *content.Course, moduleID, lessonID string) *LessonRef {
	return Resolve(c, moduleID, lessonID).Next
}
