// Package bundle loads the course catalogue shipped with the binary. It is
// served directly when the content source is static and seeds an empty
// database otherwise.
package bundle

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/yungbote/allbound-backend/internal/domain/content"
)

//go:embed course.yaml
var embeddedCourse []byte

type yamlResource struct {
	ID         string `yaml:"id"`
	Title      string `yaml:"title"`
	URL        string `yaml:"url"`
	Type       string `yaml:"type"`
	Category   string `yaml:"category"`
	OrderIndex int    `yaml:"order_index"`
}

type yamlLesson struct {
	ID             string         `yaml:"id"`
	Title          string         `yaml:"title"`
	VideoURL       string         `yaml:"video_url"`
	Status         string         `yaml:"status"`
	TitleHidden    bool           `yaml:"title_hidden"`
	WhimsicalLinks []content.Link `yaml:"whimsical_links"`
	DriveLinks     []content.Link `yaml:"drive_links"`
	Resources      []yamlResource `yaml:"resources"`
}

type yamlModule struct {
	ID          string       `yaml:"id"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	OrderIndex  int          `yaml:"order_index"`
	Lessons     []yamlLesson `yaml:"lessons"`
}

type yamlCourse struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Modules     []yamlModule   `yaml:"modules"`
	Resources   []yamlResource `yaml:"resources"`
}

type Bundle struct {
	Course *content.Course
	// Global holds resources shown in the library regardless of lesson.
	Global []*content.Resource
}

func Load() (*Bundle, error) {
	return Parse(embeddedCourse)
}

// LoadFile reads a bundle from disk, falling back to the embedded one when
// path is empty.
func LoadFile(path string) (*Bundle, error) {
	if strings.TrimSpace(path) == "" {
		return Load()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course bundle %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Bundle, error) {
	var yc yamlCourse
	if err := yaml.Unmarshal(raw, &yc); err != nil {
		return nil, fmt.Errorf("parse course bundle: %w", err)
	}

	now := time.Now().UTC()
	seen := map[string]bool{}
	claim := func(kind, id string) error {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("course bundle: %s without id", kind)
		}
		if seen[id] {
			return fmt.Errorf("course bundle: duplicate id %q", id)
		}
		seen[id] = true
		return nil
	}

	var (
		modules   []*content.Module
		lessons   []*content.Lesson
		resources []*content.Resource
		global    []*content.Resource
	)
	for _, ym := range yc.Modules {
		if err := claim("module", ym.ID); err != nil {
			return nil, err
		}
		modules = append(modules, &content.Module{
			ID:          ym.ID,
			Title:       ym.Title,
			Description: ym.Description,
			OrderIndex:  ym.OrderIndex,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		for i, yl := range ym.Lessons {
			if err := claim("lesson", yl.ID); err != nil {
				return nil, err
			}
			status, ok := content.ParseLessonStatus(yl.Status)
			if !ok {
				return nil, fmt.Errorf("course bundle: lesson %q has unknown status %q", yl.ID, yl.Status)
			}
			var video *string
			if v := strings.TrimSpace(yl.VideoURL); v != "" {
				video = &v
			}
			lessons = append(lessons, &content.Lesson{
				ID:             yl.ID,
				ModuleID:       ym.ID,
				Title:          yl.Title,
				VideoURL:       video,
				OrderIndex:     i,
				Status:         status,
				TitleHidden:    yl.TitleHidden,
				WhimsicalLinks: datatypes.NewJSONSlice(nonNil(yl.WhimsicalLinks)),
				DriveLinks:     datatypes.NewJSONSlice(nonNil(yl.DriveLinks)),
				CreatedAt:      now,
				UpdatedAt:      now,
			})
			for j, yr := range yl.Resources {
				if err := claim("resource", yr.ID); err != nil {
					return nil, err
				}
				lessonID := yl.ID
				r := toResource(yr, now)
				r.LessonID = &lessonID
				r.OrderIndex = j
				resources = append(resources, r)
			}
		}
	}
	for _, yr := range yc.Resources {
		if err := claim("resource", yr.ID); err != nil {
			return nil, err
		}
		r := toResource(yr, now)
		r.IsGlobal = true
		global = append(global, r)
	}

	return &Bundle{
		Course: content.Assemble(yc.Title, yc.Description, modules, lessons, resources),
		Global: global,
	}, nil
}

func toResource(yr yamlResource, now time.Time) *content.Resource {
	t := content.ResourceType(strings.ToLower(strings.TrimSpace(yr.Type)))
	return &content.Resource{
		ID:         yr.ID,
		Title:      yr.Title,
		URL:        yr.URL,
		Type:       t,
		Category:   yr.Category,
		OrderIndex: yr.OrderIndex,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func nonNil(links []content.Link) []content.Link {
	if links == nil {
		return []content.Link{}
	}
	return links
}

// Rows flattens the bundle into table rows for seeding.
func (b *Bundle) Rows() ([]*content.Module, []*content.Lesson, []*content.Resource) {
	var (
		modules   []*content.Module
		lessons   []*content.Lesson
		resources []*content.Resource
	)
	if b == nil || b.Course == nil {
		return modules, lessons, resources
	}
	for _, m := range b.Course.Modules {
		mc := *m
		mc.Lessons = nil
		modules = append(modules, &mc)
		for _, l := range m.Lessons {
			lc := *l
			lc.Resources = nil
			lessons = append(lessons, &lc)
			resources = append(resources, l.Resources...)
		}
	}
	resources = append(resources, b.Global...)
	return modules, lessons, resources
}

// AllResources returns lesson and global resources together.
func (b *Bundle) AllResources() []*content.Resource {
	_, _, rs := b.Rows()
	return rs
}
