package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/data/repos"
	"github.com/yungbote/allbound-backend/internal/domain/content"
	"github.com/yungbote/allbound-backend/internal/learning/resources"
	"github.com/yungbote/allbound-backend/internal/platform/apierr"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type ModuleInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=4000"`
}

type ModulePatch struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
}

type LessonInput struct {
	Title          string         `json:"title" validate:"required,max=200"`
	VideoURL       *string        `json:"video_url" validate:"omitempty,url"`
	Status         string         `json:"status" validate:"omitempty,oneof=available coming-soon draft"`
	TitleHidden    bool           `json:"title_hidden"`
	WhimsicalLinks []content.Link `json:"whimsical_links"`
	DriveLinks     []content.Link `json:"drive_links"`
}

type LessonPatch struct {
	ModuleID       *string         `json:"module_id"`
	Title          *string         `json:"title" validate:"omitempty,min=1,max=200"`
	VideoURL       *string         `json:"video_url" validate:"omitempty,url"`
	ClearVideo     bool            `json:"clear_video"`
	Status         *string         `json:"status" validate:"omitempty,oneof=available coming-soon draft"`
	TitleHidden    *bool           `json:"title_hidden"`
	WhimsicalLinks *[]content.Link `json:"whimsical_links"`
	DriveLinks     *[]content.Link `json:"drive_links"`
}

type ResourceInput struct {
	Title    string  `json:"title" validate:"required,max=200"`
	URL      string  `json:"url" validate:"required,url"`
	Type     string  `json:"type" validate:"omitempty,oneof=whimsical drive doc notion file link"`
	Category string  `json:"category" validate:"max=100"`
	LessonID *string `json:"lesson_id"`
	ModuleID *string `json:"module_id"`
	IsGlobal bool    `json:"is_global"`
}

type ResourcePatch struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	URL      *string `json:"url" validate:"omitempty,url"`
	Type     *string `json:"type" validate:"omitempty,oneof=whimsical drive doc notion file link"`
	Category *string `json:"category" validate:"omitempty,max=100"`
}

type AdminContentService interface {
	ListModules(ctx context.Context) ([]*content.Module, error)
	GetModule(ctx context.Context, id string) (*content.Module, error)
	CreateModule(ctx context.Context, in ModuleInput) (*content.Module, error)
	UpdateModule(ctx context.Context, id string, in ModulePatch) (*content.Module, error)
	// DeleteModule removes the module with its lessons and their resources.
	DeleteModule(ctx context.Context, id string) error
	// ReorderModules takes every module id in the new order.
	ReorderModules(ctx context.Context, ids []string) ([]*content.Module, error)

	ListLessons(ctx context.Context, moduleID string) ([]*content.Lesson, error)
	GetLesson(ctx context.Context, id string) (*content.Lesson, error)
	CreateLesson(ctx context.Context, moduleID string, in LessonInput) (*content.Lesson, error)
	UpdateLesson(ctx context.Context, id string, in LessonPatch) (*content.Lesson, error)
	DeleteLesson(ctx context.Context, id string) error
	ReorderLessons(ctx context.Context, moduleID string, ids []string) ([]*content.Lesson, error)

	ListResources(ctx context.Context, filter repos.ResourceFilter) ([]*content.Resource, error)
	GetResource(ctx context.Context, id string) (*content.Resource, error)
	CreateResource(ctx context.Context, in ResourceInput) (*content.Resource, error)
	UpdateResource(ctx context.Context, id string, in ResourcePatch) (*content.Resource, error)
	DeleteResource(ctx context.Context, id string) error
	ReorderResources(ctx context.Context, filter repos.ResourceFilter, ids []string) ([]*content.Resource, error)
}

type adminContentService struct {
	db        *gorm.DB
	log       *logger.Logger
	content   ContentService
	modules   repos.ModuleRepo
	lessons   repos.LessonRepo
	resources repos.ResourceRepo
}

func NewAdminContentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	contentSvc ContentService,
	moduleRepo repos.ModuleRepo,
	lessonRepo repos.LessonRepo,
	resourceRepo repos.ResourceRepo,
) AdminContentService {
	return &adminContentService{
		db:        db,
		log:       baseLog.With("service", "AdminContentService"),
		content:   contentSvc,
		modules:   moduleRepo,
		lessons:   lessonRepo,
		resources: resourceRepo,
	}
}

// changed drops the cached course after a write. A failed invalidation is
// logged; the cache entry still expires on its TTL.
func (s *adminContentService) changed(ctx context.Context) {
	if s.content == nil {
		return
	}
	if err := s.content.Invalidate(ctx); err != nil {
		s.log.Warn("Course cache not invalidated", "error", err)
	}
}

// ---- modules ----

func (s *adminContentService) ListModules(ctx context.Context) ([]*content.Module, error) {
	modules, err := s.modules.List(ctx, nil)
	if err != nil {
		return nil, apierr.FromDB("modules", err)
	}
	lessons, err := s.lessons.ListAll(ctx, nil)
	if err != nil {
		return nil, apierr.FromDB("lessons", err)
	}
	return content.Assemble("", "", modules, lessons, nil).Modules, nil
}

func (s *adminContentService) GetModule(ctx context.Context, id string) (*content.Module, error) {
	m, err := s.modules.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apierr.FromDB("module", err)
	}
	lessons, err := s.lessons.ListByModule(ctx, nil, id)
	if err != nil {
		return nil, apierr.FromDB("lessons", err)
	}
	m.Lessons = lessons
	return m, nil
}

func (s *adminContentService) CreateModule(ctx context.Context, in ModuleInput) (*content.Module, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var created *content.Module
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		idx, err := s.modules.NextOrderIndex(ctx, tx)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		out, err := s.modules.Create(ctx, tx, []*content.Module{{
			ID:          uuid.NewString(),
			Title:       in.Title,
			Description: strings.TrimSpace(in.Description),
			OrderIndex:  idx,
			CreatedAt:   now,
			UpdatedAt:   now,
		}})
		if err != nil {
			return err
		}
		created = out[0]
		return nil
	})
	if err != nil {
		return nil, apierr.FromDB("module", err)
	}
	s.log.Info("Module created", "module_id", created.ID)
	s.changed(ctx)
	return created, nil
}

func (s *adminContentService) UpdateModule(ctx context.Context, id string, in ModulePatch) (*content.Module, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if err := s.modules.Update(ctx, nil, id, updates); err != nil {
		return nil, apierr.FromDB("module", err)
	}
	s.changed(ctx)
	return s.GetModule(ctx, id)
}

func (s *adminContentService) DeleteModule(ctx context.Context, id string) error {
	if err := s.modules.Delete(ctx, nil, id); err != nil {
		return apierr.FromDB("module", err)
	}
	s.log.Info("Module deleted", "module_id", id)
	s.changed(ctx)
	return nil
}

func (s *adminContentService) ReorderModules(ctx context.Context, ids []string) ([]*content.Module, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.modules.List(ctx, tx)
		if err != nil {
			return err
		}
		existing := make([]string, 0, len(current))
		for _, m := range current {
			existing = append(existing, m.ID)
		}
		if err := sameIDSet(existing, ids, "module"); err != nil {
			return err
		}
		return s.modules.Reorder(ctx, tx, ids)
	})
	if err != nil {
		return nil, apierr.FromDB("module", err)
	}
	s.changed(ctx)
	return s.modules.List(ctx, nil)
}

// ---- lessons ----

func (s *adminContentService) ListLessons(ctx context.Context, moduleID string) ([]*content.Lesson, error) {
	if _, err := s.modules.GetByID(ctx, nil, moduleID); err != nil {
		return nil, apierr.FromDB("module", err)
	}
	out, err := s.lessons.ListByModule(ctx, nil, moduleID)
	if err != nil {
		return nil, apierr.FromDB("lessons", err)
	}
	return out, nil
}

func (s *adminContentService) GetLesson(ctx context.Context, id string) (*content.Lesson, error) {
	l, err := s.lessons.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apierr.FromDB("lesson", err)
	}
	rs, err := s.resources.List(ctx, nil, repos.ResourceFilter{LessonID: id})
	if err != nil {
		return nil, apierr.FromDB("resources", err)
	}
	l.Resources = rs
	return l, nil
}

func (s *adminContentService) CreateLesson(ctx context.Context, moduleID string, in LessonInput) (*content.Lesson, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.VideoURL = trimOptional(in.VideoURL)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	status, _ := content.ParseLessonStatus(in.Status)

	var created *content.Lesson
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.modules.GetByID(ctx, tx, moduleID); err != nil {
			return err
		}
		idx, err := s.lessons.NextOrderIndex(ctx, tx, moduleID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		out, err := s.lessons.Create(ctx, tx, []*content.Lesson{{
			ID:             uuid.NewString(),
			ModuleID:       moduleID,
			Title:          in.Title,
			VideoURL:       in.VideoURL,
			OrderIndex:     idx,
			Status:         status,
			TitleHidden:    in.TitleHidden,
			WhimsicalLinks: datatypes.NewJSONSlice(cleanLinks(in.WhimsicalLinks)),
			DriveLinks:     datatypes.NewJSONSlice(cleanLinks(in.DriveLinks)),
			CreatedAt:      now,
			UpdatedAt:      now,
		}})
		if err != nil {
			return err
		}
		created = out[0]
		return nil
	})
	if err != nil {
		return nil, apierr.FromDB("module", err)
	}
	s.log.Info("Lesson created", "lesson_id", created.ID, "module_id", moduleID)
	s.changed(ctx)
	return created, nil
}

func (s *adminContentService) UpdateLesson(ctx context.Context, id string, in LessonPatch) (*content.Lesson, error) {
	in.VideoURL = trimOptional(in.VideoURL)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.VideoURL != nil {
		updates["video_url"] = *in.VideoURL
	} else if in.ClearVideo {
		updates["video_url"] = nil
	}
	if in.Status != nil {
		status, _ := content.ParseLessonStatus(*in.Status)
		updates["status"] = status
	}
	if in.TitleHidden != nil {
		updates["title_hidden"] = *in.TitleHidden
	}
	if in.WhimsicalLinks != nil {
		updates["whimsical_links"] = datatypes.NewJSONSlice(cleanLinks(*in.WhimsicalLinks))
	}
	if in.DriveLinks != nil {
		updates["drive_links"] = datatypes.NewJSONSlice(cleanLinks(*in.DriveLinks))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ModuleID != nil && strings.TrimSpace(*in.ModuleID) != "" {
			target := strings.TrimSpace(*in.ModuleID)
			current, err := s.lessons.GetByID(ctx, tx, id)
			if err != nil {
				return err
			}
			if current.ModuleID != target {
				if _, err := s.modules.GetByID(ctx, tx, target); err != nil {
					return apierr.NotFound("target module")
				}
				idx, err := s.lessons.NextOrderIndex(ctx, tx, target)
				if err != nil {
					return err
				}
				updates["module_id"] = target
				updates["order_index"] = idx
			}
		}
		return s.lessons.Update(ctx, tx, id, updates)
	})
	if err != nil {
		return nil, apierr.FromDB("lesson", err)
	}
	s.changed(ctx)
	return s.GetLesson(ctx, id)
}

func (s *adminContentService) DeleteLesson(ctx context.Context, id string) error {
	if err := s.lessons.Delete(ctx, nil, id); err != nil {
		return apierr.FromDB("lesson", err)
	}
	s.log.Info("Lesson deleted", "lesson_id", id)
	s.changed(ctx)
	return nil
}

func (s *adminContentService) ReorderLessons(ctx context.Context, moduleID string, ids []string) ([]*content.Lesson, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.modules.GetByID(ctx, tx, moduleID); err != nil {
			return err
		}
		current, err := s.lessons.ListByModule(ctx, tx, moduleID)
		if err != nil {
			return err
		}
		existing := make([]string, 0, len(current))
		for _, l := range current {
			existing = append(existing, l.ID)
		}
		if err := sameIDSet(existing, ids, "lesson"); err != nil {
			return err
		}
		return s.lessons.Reorder(ctx, tx, moduleID, ids)
	})
	if err != nil {
		return nil, apierr.FromDB("module", err)
	}
	s.changed(ctx)
	return s.lessons.ListByModule(ctx, nil, moduleID)
}

// ---- resources ----

func (s *adminContentService) ListResources(ctx context.Context, filter repos.ResourceFilter) ([]*content.Resource, error) {
	out, err := s.resources.List(ctx, nil, filter)
	if err != nil {
		return nil, apierr.FromDB("resources", err)
	}
	return out, nil
}

func (s *adminContentService) GetResource(ctx context.Context, id string) (*content.Resource, error) {
	r, err := s.resources.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apierr.FromDB("resource", err)
	}
	return r, nil
}

// parentFilter names the one collection a new resource joins.
func parentFilter(in ResourceInput) (repos.ResourceFilter, error) {
	lessonID := strings.TrimSpace(deref(in.LessonID))
	moduleID := strings.TrimSpace(deref(in.ModuleID))
	set := 0
	for _, b := range []bool{lessonID != "", moduleID != "", in.IsGlobal} {
		if b {
			set++
		}
	}
	if set != 1 {
		return repos.ResourceFilter{}, apierr.BadRequest("exactly one of lesson_id, module_id or is_global is required")
	}
	return repos.ResourceFilter{LessonID: lessonID, ModuleID: moduleID, Global: in.IsGlobal}, nil
}

func (s *adminContentService) CreateResource(ctx context.Context, in ResourceInput) (*content.Resource, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	filter, err := parentFilter(in)
	if err != nil {
		return nil, err
	}
	typ := content.ResourceType(in.Type)
	if typ == "" {
		typ = content.ResourceType(resources.Classify(in.URL))
	}

	var created *content.Resource
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch {
		case filter.LessonID != "":
			if _, err := s.lessons.GetByID(ctx, tx, filter.LessonID); err != nil {
				return apierr.NotFound("lesson")
			}
		case filter.ModuleID != "":
			if _, err := s.modules.GetByID(ctx, tx, filter.ModuleID); err != nil {
				return apierr.NotFound("module")
			}
		}
		idx, err := s.resources.NextOrderIndex(ctx, tx, filter)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		r := &content.Resource{
			ID:         uuid.NewString(),
			Title:      in.Title,
			URL:        in.URL,
			Type:       typ,
			Category:   strings.TrimSpace(in.Category),
			IsGlobal:   filter.Global,
			OrderIndex: idx,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if filter.LessonID != "" {
			r.LessonID = &filter.LessonID
		}
		if filter.ModuleID != "" {
			r.ModuleID = &filter.ModuleID
		}
		out, err := s.resources.Create(ctx, tx, []*content.Resource{r})
		if err != nil {
			return err
		}
		created = out[0]
		return nil
	})
	if err != nil {
		return nil, apierr.FromDB("resource", err)
	}
	s.log.Info("Resource created", "resource_id", created.ID)
	s.changed(ctx)
	return created, nil
}

func (s *adminContentService) UpdateResource(ctx context.Context, id string, in ResourcePatch) (*content.Resource, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.URL != nil {
		updates["url"] = strings.TrimSpace(*in.URL)
	}
	if in.Type != nil {
		updates["type"] = *in.Type
	}
	if in.Category != nil {
		updates["category"] = strings.TrimSpace(*in.Category)
	}
	if err := s.resources.Update(ctx, nil, id, updates); err != nil {
		return nil, apierr.FromDB("resource", err)
	}
	s.changed(ctx)
	return s.GetResource(ctx, id)
}

func (s *adminContentService) DeleteResource(ctx context.Context, id string) error {
	if err := s.resources.Delete(ctx, nil, id); err != nil {
		return apierr.FromDB("resource", err)
	}
	s.changed(ctx)
	return nil
}

func (s *adminContentService) ReorderResources(ctx context.Context, filter repos.ResourceFilter, ids []string) ([]*content.Resource, error) {
	if filter.IsZero() {
		return nil, apierr.BadRequest("one of lesson_id, module_id or global is required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.resources.List(ctx, tx, filter)
		if err != nil {
			return err
		}
		existing := make([]string, 0, len(current))
		for _, r := range current {
			existing = append(existing, r.ID)
		}
		if err := sameIDSet(existing, ids, "resource"); err != nil {
			return err
		}
		return s.resources.Reorder(ctx, tx, filter, ids)
	})
	if err != nil {
		return nil, apierr.FromDB("resource", err)
	}
	s.changed(ctx)
	return s.resources.List(ctx, nil, filter)
}

// sameIDSet checks that ids is a permutation of existing.
func sameIDSet(existing, ids []string, kind string) error {
	if len(ids) != len(existing) {
		return apierr.BadRequest("reorder must list all %d %ss, got %d", len(existing), kind, len(ids))
	}
	want := make(map[string]bool, len(existing))
	for _, id := range existing {
		want[id] = true
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return apierr.BadRequest("duplicate %s id %s", kind, id)
		}
		seen[id] = true
		if !want[id] {
			return apierr.BadRequest("unknown %s id %s", kind, id)
		}
	}
	return nil
}

func cleanLinks(links []content.Link) []content.Link {
	out := make([]content.Link, 0, len(links))
	for _, l := range links {
		l.URL = strings.TrimSpace(l.URL)
		l.Title = strings.TrimSpace(l.Title)
		if l.URL != "" {
			out = append(out, l)
		}
	}
	return out
}

func trimOptional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
