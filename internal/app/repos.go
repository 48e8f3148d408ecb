package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/data/repos"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type Repos struct {
	Module   repos.ModuleRepo
	Lesson   repos.LessonRepo
	Resource repos.ResourceRepo
	Progress repos.ProgressRepo
	Order    repos.OrderRepo
	Member   repos.MemberRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Module:   repos.NewModuleRepo(db, log),
		Lesson:   repos.NewLessonRepo(db, log),
		Resource: repos.NewResourceRepo(db, log),
		Progress: repos.NewProgressRepo(db, log),
		Order:    repos.NewOrderRepo(db, log),
		Member:   repos.NewMemberRepo(db, log),
	}
}
