package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/data/repos/commerce"
	"github.com/yungbote/allbound-backend/internal/data/repos/content"
	"github.com/yungbote/allbound-backend/internal/data/repos/progress"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type ModuleRepo = content.ModuleRepo
type LessonRepo = content.LessonRepo
type ResourceRepo = content.ResourceRepo
type ResourceFilter = content.ResourceFilter

type ProgressRepo = progress.ProgressRepo

type OrderRepo = commerce.OrderRepo
type MemberRepo = commerce.MemberRepo

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return content.NewModuleRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return content.NewLessonRepo(db, baseLog)
}
func NewResourceRepo(db *gorm.DB, baseLog *logger.Logger) ResourceRepo {
	return content.NewResourceRepo(db, baseLog)
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return progress.NewProgressRepo(db, baseLog)
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return commerce.NewOrderRepo(db, baseLog)
}
func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	return commerce.NewMemberRepo(db, baseLog)
}
