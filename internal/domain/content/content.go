package content

import (
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type LessonStatus string

const (
	StatusAvailable  LessonStatus = "available"
	StatusComingSoon LessonStatus = "coming-soon"
	StatusDraft      LessonStatus = "draft"
)

// ParseLessonStatus accepts the three statuses, case-insensitively. Empty
// input means available.
func ParseLessonStatus(s string) (LessonStatus, bool) {
	switch LessonStatus(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusAvailable:
		return StatusAvailable, true
	case StatusComingSoon:
		return StatusComingSoon, true
	case StatusDraft:
		return StatusDraft, true
	default:
		return "", false
	}
}

type ResourceType string

const (
	ResourceWhimsical ResourceType = "whimsical"
	ResourceDrive     ResourceType = "drive"
	ResourceDoc       ResourceType = "doc"
	ResourceNotion    ResourceType = "notion"
	ResourceFile      ResourceType = "file"
	ResourceLink      ResourceType = "link"
)

func (t ResourceType) Valid() bool {
	switch t {
	case ResourceWhimsical, ResourceDrive, ResourceDoc, ResourceNotion, ResourceFile, ResourceLink:
		return true
	default:
		return false
	}
}

// Link is an inline lesson attachment stored as JSON on the lesson row.
type Link struct {
	Title string `json:"title,omitempty" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

type Module struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	OrderIndex  int       `gorm:"column:order_index;not null;default:0;index" json:"order_index"`
	Lessons     []*Lesson `gorm:"-" json:"lessons,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Module) TableName() string { return "modules" }

type Lesson struct {
	ID             string                    `gorm:"column:id;primaryKey" json:"id"`
	ModuleID       string                    `gorm:"column:module_id;not null;index" json:"module_id"`
	Title          string                    `gorm:"column:title;not null" json:"title"`
	VideoURL       *string                   `gorm:"column:video_url" json:"video_url"`
	OrderIndex     int                       `gorm:"column:order_index;not null;default:0" json:"order_index"`
	Status         LessonStatus              `gorm:"column:status;not null;default:'available'" json:"status"`
	TitleHidden    bool                      `gorm:"column:title_hidden;not null;default:false" json:"title_hidden"`
	WhimsicalLinks datatypes.JSONSlice[Link] `gorm:"column:whimsical_links" json:"whimsical_links"`
	DriveLinks     datatypes.JSONSlice[Link] `gorm:"column:drive_links" json:"drive_links"`
	Resources      []*Resource               `gorm:"-" json:"resources,omitempty"`
	CreatedAt      time.Time                 `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time                 `gorm:"not null" json:"updated_at"`
}

func (Lesson) TableName() string { return "lessons" }

// EffectiveStatus maps an unset status to available.
func (l *Lesson) EffectiveStatus() LessonStatus {
	if l == nil {
		return ""
	}
	if s, ok := ParseLessonStatus(string(l.Status)); ok {
		return s
	}
	return l.Status
}

func (l *Lesson) IsAvailable() bool  { return l.EffectiveStatus() == StatusAvailable }
func (l *Lesson) IsComingSoon() bool { return l.EffectiveStatus() == StatusComingSoon }
func (l *Lesson) IsDraft() bool      { return l.EffectiveStatus() == StatusDraft }

type Resource struct {
	ID         string       `gorm:"column:id;primaryKey" json:"id"`
	Title      string       `gorm:"column:title;not null" json:"title"`
	URL        string       `gorm:"column:url;not null" json:"url"`
	Type       ResourceType `gorm:"column:type;not null;default:'link'" json:"type"`
	Category   string       `gorm:"column:category" json:"category,omitempty"`
	LessonID   *string      `gorm:"column:lesson_id;index" json:"lesson_id,omitempty"`
	ModuleID   *string      `gorm:"column:module_id;index" json:"module_id,omitempty"`
	IsGlobal   bool         `gorm:"column:is_global;not null;default:false;index" json:"is_global"`
	OrderIndex int          `gorm:"column:order_index;not null;default:0" json:"order_index"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

func (Resource) TableName() string { return "resources" }

// Course is the whole catalogue. It has no table of its own; the title and
// description come from configuration.
type Course struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Modules     []*Module `json:"modules"`
}

func SortModules(ms []*Module) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].OrderIndex != ms[j].OrderIndex {
			return ms[i].OrderIndex < ms[j].OrderIndex
		}
		return ms[i].ID < ms[j].ID
	})
}

func SortLessons(ls []*Lesson) {
	sort.SliceStable(ls, func(i, j int) bool {
		if ls[i].OrderIndex != ls[j].OrderIndex {
			return ls[i].OrderIndex < ls[j].OrderIndex
		}
		return ls[i].ID < ls[j].ID
	})
}

func SortResources(rs []*Resource) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].OrderIndex != rs[j].OrderIndex {
			return rs[i].OrderIndex < rs[j].OrderIndex
		}
		return rs[i].ID < rs[j].ID
	})
}

// Assemble builds the course tree from flat rows. Lessons whose module is
// missing and resources whose lesson is missing are dropped. Module-level
// and global resources are not attached to lessons.
func Assemble(title, description string, modules []*Module, lessons []*Lesson, resources []*Resource) *Course {
	byModule := make(map[string]*Module, len(modules))
	out := make([]*Module, 0, len(modules))
	for _, m := range modules {
		if m == nil {
			continue
		}
		cp := *m
		cp.Lessons = nil
		byModule[cp.ID] = &cp
		out = append(out, &cp)
	}
	byLesson := make(map[string]*Lesson, len(lessons))
	for _, l := range lessons {
		if l == nil {
			continue
		}
		m, ok := byModule[l.ModuleID]
		if !ok {
			continue
		}
		cp := *l
		cp.Resources = nil
		byLesson[cp.ID] = &cp
		m.Lessons = append(m.Lessons, &cp)
	}
	for _, r := range resources {
		if r == nil || r.LessonID == nil {
			continue
		}
		if l, ok := byLesson[*r.LessonID]; ok {
			l.Resources = append(l.Resources, r)
		}
	}
	for _, m := range out {
		SortLessons(m.Lessons)
		for _, l := range m.Lessons {
			SortResources(l.Resources)
		}
	}
	SortModules(out)
	return &Course{Title: title, Description: description, Modules: out}
}

func (c *Course) FindModule(moduleID string) *Module {
	if c == nil {
		return nil
	}
	for _, m := range c.Modules {
		if m != nil && m.ID == moduleID {
			return m
		}
	}
	return nil
}

// FindLesson locates a lesson anywhere in the course.
func (c *Course) FindLesson(lessonID string) (*Module, *Lesson) {
	if c == nil {
		return nil, nil
	}
	for _, m := range c.Modules {
		if m == nil {
			continue
		}
		for _, l := range m.Lessons {
			if l != nil && l.ID == lessonID {
				return m, l
			}
		}
	}
	return nil, nil
}

// LessonIDs lists every lesson id in course order.
func (c *Course) LessonIDs() []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, m := range c.Modules {
		if m == nil {
			continue
		}
		for _, l := range m.Lessons {
			if l != nil {
				out = append(out, l.ID)
			}
		}
	}
	return out
}

// LearnerView copies the course without draft lessons, blanking titles of
// coming-soon lessons marked TitleHidden.
func (c *Course) LearnerView() *Course {
	if c == nil {
		return nil
	}
	out := &Course{Title: c.Title, Description: c.Description, Modules: make([]*Module, 0, len(c.Modules))}
	for _, m := range c.Modules {
		if m == nil {
			continue
		}
		mc := *m
		mc.Lessons = make([]*Lesson, 0, len(m.Lessons))
		for _, l := range m.Lessons {
			if l == nil || l.IsDraft() {
				continue
			}
			lc := *l
			lc.Status = l.EffectiveStatus()
			if lc.IsComingSoon() && lc.TitleHidden {
				lc.Title = ""
			}
			if lc.IsComingSoon() {
				lc.VideoURL = nil
			}
			mc.Lessons = append(mc.Lessons, &lc)
		}
		out.Modules = append(out.Modules, &mc)
	}
	return out
}
