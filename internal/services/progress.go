package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/data/repos"
	"github.com/yungbote/allbound-backend/internal/domain/progress"
	learnprogress "github.com/yungbote/allbound-backend/internal/learning/progress"
	"github.com/yungbote/allbound-backend/internal/platform/apierr"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type ProgressView struct {
	UserID           string                `json:"user_id"`
	CompletedLessons []string              `json:"completed_lessons"`
	CurrentLesson    *string               `json:"current_lesson"`
	LastAccessed     *time.Time            `json:"last_accessed"`
	Summary          learnprogress.Summary `json:"summary"`
}

type ProgressService interface {
	Get(ctx context.Context, userID string) (*ProgressView, error)
	// Save replaces the stored set. Ids that are not lessons of the course
	// are kept but do not count.
	Save(ctx context.Context, userID string, completed []string, current *string) (*ProgressView, error)
	MarkComplete(ctx context.Context, userID, lessonID string) (*ProgressView, error)
	MarkIncomplete(ctx context.Context, userID, lessonID string) (*ProgressView, error)
	Init(ctx context.Context, userID string) error
}

type progressService struct {
	db       *gorm.DB
	log      *logger.Logger
	content  ContentService
	progress repos.ProgressRepo
}

func NewProgressService(db *gorm.DB, baseLog *logger.Logger, contentSvc ContentService, progressRepo repos.ProgressRepo) ProgressService {
	return &progressService{
		db:       db,
		log:      baseLog.With("service", "ProgressService"),
		content:  contentSvc,
		progress: progressRepo,
	}
}

func (s *progressService) view(ctx context.Context, userID string, row *progress.UserProgress) (*ProgressView, error) {
	course, err := s.content.LearnerCourse(ctx)
	if err != nil {
		return nil, err
	}
	v := &ProgressView{UserID: userID, CompletedLessons: []string{}}
	if row != nil {
		v.CompletedLessons = append(v.CompletedLessons, row.CompletedLessons...)
		v.CurrentLesson = row.CurrentLesson
		v.LastAccessed = row.LastAccessed
	}
	v.Summary = learnprogress.Summarize(course, learnprogress.NewCompletedSet(v.CompletedLessons))
	return v, nil
}

func (s *progressService) load(ctx context.Context, tx *gorm.DB, userID string) (*progress.UserProgress, error) {
	row, err := s.progress.Get(ctx, tx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apierr.FromDB("progress", err)
	}
	return row, nil
}

func (s *progressService) Get(ctx context.Context, userID string) (*ProgressView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apierr.Unauthorized("missing user")
	}
	row, err := s.load(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, userID, row)
}

func (s *progressService) Save(ctx context.Context, userID string, completed []string, current *string) (*ProgressView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apierr.Unauthorized("missing user")
	}
	ids := dedupeIDs(completed)
	if current != nil {
		c := strings.TrimSpace(*current)
		current = &c
		if c == "" {
			current = nil
		}
	}
	row, err := s.progress.Save(ctx, nil, userID, ids, current)
	if err != nil {
		s.log.Error("Save progress failed", "error", err, "user_id", userID)
		return nil, apierr.FromDB("progress", err)
	}
	return s.view(ctx, userID, row)
}

func (s *progressService) MarkComplete(ctx context.Context, userID, lessonID string) (*ProgressView, error) {
	return s.toggle(ctx, userID, lessonID, true)
}

func (s *progressService) MarkIncomplete(ctx context.Context, userID, lessonID string) (*ProgressView, error) {
	return s.toggle(ctx, userID, lessonID, false)
}

func (s *progressService) toggle(ctx context.Context, userID, lessonID string, done bool) (*ProgressView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apierr.Unauthorized("missing user")
	}
	lessonID = strings.TrimSpace(lessonID)
	course, err := s.content.LearnerCourse(ctx)
	if err != nil {
		return nil, err
	}
	_, l := course.FindLesson(lessonID)
	if l == nil {
		return nil, apierr.NotFound("lesson")
	}
	if done && !l.IsAvailable() {
		return nil, apierr.BadRequest("lesson %s is not available yet", lessonID)
	}

	var saved *progress.UserProgress
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.load(ctx, tx, userID)
		if err != nil {
			return err
		}
		var ids []string
		var current *string
		if row != nil {
			ids = append(ids, row.CompletedLessons...)
			current = row.CurrentLesson
		}
		if done {
			ids = append(ids, lessonID)
			current = &lessonID
		} else {
			ids = removeID(ids, lessonID)
		}
		saved, err = s.progress.Save(ctx, tx, userID, dedupeIDs(ids), current)
		return err
	})
	if err != nil {
		s.log.Error("Update lesson completion failed", "error", err, "user_id", userID, "lesson_id", lessonID)
		return nil, apierr.FromDB("progress", err)
	}
	return s.view(ctx, userID, saved)
}

func (s *progressService) Init(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apierr.BadRequest("user id required")
	}
	return s.progress.Ensure(ctx, nil, userID)
}

// dedupeIDs trims ids and drops blanks and repeats, keeping first-seen order.
func dedupeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func removeID(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
