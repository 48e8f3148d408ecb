package progress

import (
	"time"

	"gorm.io/datatypes"
)

// UserProgress is the stored set of lessons a learner has completed.
// Lesson ids are kept even if the lesson is later removed from the course.
type UserProgress struct {
	UserID           string                      `gorm:"column:user_id;primaryKey" json:"user_id"`
	CompletedLessons datatypes.JSONSlice[string] `gorm:"column:completed_lessons" json:"completed_lessons"`
	CurrentLesson    *string                     `gorm:"column:current_lesson" json:"current_lesson"`
	LastAccessed     *time.Time                  `gorm:"column:last_accessed" json:"last_accessed"`
	CreatedAt        time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time                   `gorm:"not null" json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }
