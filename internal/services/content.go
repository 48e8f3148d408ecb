package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/clients/redis"
	"github.com/yungbote/allbound-backend/internal/data/repos"
	"github.com/yungbote/allbound-backend/internal/domain/content"
	"github.com/yungbote/allbound-backend/internal/learning/bundle"
	"github.com/yungbote/allbound-backend/internal/learning/navigation"
	"github.com/yungbote/allbound-backend/internal/learning/resources"
	"github.com/yungbote/allbound-backend/internal/observability"
	"github.com/yungbote/allbound-backend/internal/platform/apierr"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

const (
	ContentSourceDB     = "db"
	ContentSourceStatic = "static"

	courseCacheKey = "course:snapshot:v1"
)

// CourseSnapshot is the full catalogue, drafts included, plus the resources
// that belong to no lesson.
type CourseSnapshot struct {
	Course *content.Course     `json:"course"`
	Global []*content.Resource `json:"global_resources"`
	Loose  []*content.Resource `json:"module_resources,omitempty"`
}

type LessonView struct {
	Lesson     *content.Lesson     `json:"lesson"`
	Module     *content.Module     `json:"module"`
	Locked     bool                `json:"locked"`
	Resources  []resources.Ref     `json:"resources"`
	Navigation navigation.Adjacent `json:"navigation"`
}

type ContentService interface {
	Course(ctx context.Context) (*CourseSnapshot, error)
	// LearnerCourse hides drafts and hidden coming-soon titles.
	LearnerCourse(ctx context.Context) (*content.Course, error)
	Lesson(ctx context.Context, lessonID string) (*LessonView, error)
	ResourceLibrary(ctx context.Context) ([]resources.Group, error)
	Invalidate(ctx context.Context) error
	// SeedIfEmpty copies the bundled course into an empty store.
	SeedIfEmpty(ctx context.Context) (bool, error)
}

type contentService struct {
	db        *gorm.DB
	log       *logger.Logger
	source    string
	bundle    *bundle.Bundle
	cache     redis.CourseCache
	modules   repos.ModuleRepo
	lessons   repos.LessonRepo
	resources repos.ResourceRepo
}

func NewContentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	source string,
	b *bundle.Bundle,
	cache redis.CourseCache,
	moduleRepo repos.ModuleRepo,
	lessonRepo repos.LessonRepo,
	resourceRepo repos.ResourceRepo,
) ContentService {
	source = strings.ToLower(strings.TrimSpace(source))
	if source != ContentSourceStatic {
		source = ContentSourceDB
	}
	if cache == nil {
		cache = redis.Noop()
	}
	return &contentService{
		db:        db,
		log:       baseLog.With("service", "ContentService"),
		source:    source,
		bundle:    b,
		cache:     cache,
		modules:   moduleRepo,
		lessons:   lessonRepo,
		resources: resourceRepo,
	}
}

func (s *contentService) Course(ctx context.Context) (*CourseSnapshot, error) {
	if s.source == ContentSourceStatic {
		return s.fromBundle()
	}

	if raw, ok, err := s.cache.Get(ctx, courseCacheKey); err != nil {
		s.log.Warn("Course cache read failed", "error", err)
	} else if ok {
		var snap CourseSnapshot
		if err := json.Unmarshal(raw, &snap); err == nil && snap.Course != nil {
			observability.Current().IncCourseCache("hit")
			return &snap, nil
		}
		s.log.Warn("Discarding unreadable course cache entry")
	}

	observability.Current().IncCourseCache("miss")
	snap, err := s.loadFromStore(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(snap); err == nil {
		if err := s.cache.Set(ctx, courseCacheKey, raw); err != nil {
			s.log.Warn("Course cache write failed", "error", err)
		}
	}
	return snap, nil
}

func (s *contentService) fromBundle() (*CourseSnapshot, error) {
	if s.bundle == nil || s.bundle.Course == nil {
		return nil, apierr.Upstream("content_unavailable", fmt.Errorf("no course bundle loaded"))
	}
	return &CourseSnapshot{Course: s.bundle.Course, Global: s.bundle.Global}, nil
}

func (s *contentService) loadFromStore(ctx context.Context) (*CourseSnapshot, error) {
	var (
		modules []*content.Module
		lessons []*content.Lesson
		rows    []*content.Resource
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		modules, err = s.modules.List(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		lessons, err = s.lessons.ListAll(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.resources.List(gctx, nil, repos.ResourceFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("Load course from store failed", "error", err)
		return nil, apierr.Upstream("content_unavailable", err)
	}

	title, description := "", ""
	if s.bundle != nil && s.bundle.Course != nil {
		title, description = s.bundle.Course.Title, s.bundle.Course.Description
	}
	snap := &CourseSnapshot{
		Course: content.Assemble(title, description, modules, lessons, rows),
		Global: []*content.Resource{},
	}
	for _, r := range rows {
		switch {
		case r.IsGlobal:
			snap.Global = append(snap.Global, r)
		case r.LessonID == nil && r.ModuleID != nil:
			snap.Loose = append(snap.Loose, r)
		}
	}
	return snap, nil
}

func (s *contentService) LearnerCourse(ctx context.Context) (*content.Course, error) {
	snap, err := s.Course(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Course.LearnerView(), nil
}

func (s *contentService) Lesson(ctx context.Context, lessonID string) (*LessonView, error) {
	lessonID = strings.TrimSpace(lessonID)
	if lessonID == "" {
		return nil, apierr.BadRequest("lesson id required")
	}
	course, err := s.LearnerCourse(ctx)
	if err != nil {
		return nil, err
	}
	m, l := course.FindLesson(lessonID)
	if l == nil {
		return nil, apierr.NotFound("lesson")
	}

	view := &LessonView{
		Lesson:     l,
		Module:     &content.Module{ID: m.ID, Title: m.Title, Description: m.Description, OrderIndex: m.OrderIndex},
		Locked:     !l.IsAvailable(),
		Resources:  []resources.Ref{},
		Navigation: navigation.Resolve(course, m.ID, l.ID),
	}
	if !view.Locked {
		view.Resources = resources.ForLesson(l)
	}
	return view, nil
}

func (s *contentService) ResourceLibrary(ctx context.Context) ([]resources.Group, error) {
	snap, err := s.Course(ctx)
	if err != nil {
		return nil, err
	}
	return resources.Library(snap.Global), nil
}

func (s *contentService) Invalidate(ctx context.Context) error {
	if s.source == ContentSourceStatic {
		return nil
	}
	if err := s.cache.Invalidate(ctx, courseCacheKey); err != nil {
		s.log.Warn("Course cache invalidation failed", "error", err)
		return err
	}
	return nil
}

func (s *contentService) SeedIfEmpty(ctx context.Context) (bool, error) {
	if s.bundle == nil {
		return false, nil
	}
	seeded := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.modules.Count(ctx, tx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		modules, lessons, rs := s.bundle.Rows()
		if _, err := s.modules.Create(ctx, tx, modules); err != nil {
			return fmt.Errorf("seed modules: %w", err)
		}
		if _, err := s.lessons.Create(ctx, tx, lessons); err != nil {
			return fmt.Errorf("seed lessons: %w", err)
		}
		if _, err := s.resources.Create(ctx, tx, rs); err != nil {
			return fmt.Errorf("seed resources: %w", err)
		}
		seeded = true
		s.log.Info("Seeded course from bundle", "modules", len(modules), "lessons", len(lessons), "resources", len(rs))
		return nil
	})
	if err != nil {
		return false, err
	}
	if seeded {
		_ = s.Invalidate(ctx)
	}
	return seeded, nil
}
