package progress

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/data/repos/testutil"
)

func TestProgressRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewProgressRepo(db, testutil.Logger(t))

	if _, err := repo.Get(ctx, tx, "u1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Get before save: got=%v want ErrRecordNotFound", err)
	}

	if err := repo.Ensure(ctx, tx, "u1"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	row, err := repo.Get(ctx, tx, "u1")
	if err != nil {
		t.Fatalf("Get after ensure: %v", err)
	}
	if len(row.CompletedLessons) != 0 || row.CurrentLesson != nil {
		t.Fatalf("ensured row should be empty: %+v", row)
	}

	current := "l2"
	if _, err := repo.Save(ctx, tx, "u1", []string{"l1", "gone"}, &current); err != nil {
		t.Fatalf("Save: %v", err)
	}
	row, err = repo.Get(ctx, tx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual([]string(row.CompletedLessons), []string{"l1", "gone"}) {
		t.Fatalf("completed: got=%v", row.CompletedLessons)
	}
	if row.CurrentLesson == nil || *row.CurrentLesson != "l2" || row.LastAccessed == nil {
		t.Fatalf("current/last accessed: %+v", row)
	}

	// Ensure must not clobber existing progress.
	if err := repo.Ensure(ctx, tx, "u1"); err != nil {
		t.Fatalf("Ensure again: %v", err)
	}
	row, _ = repo.Get(ctx, tx, "u1")
	if len(row.CompletedLessons) != 2 {
		t.Fatalf("Ensure overwrote progress: %+v", row)
	}

	if _, err := repo.Save(ctx, tx, "u1", nil, nil); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	row, _ = repo.Get(ctx, tx, "u1")
	if len(row.CompletedLessons) != 0 || row.CurrentLesson != nil {
		t.Fatalf("Save should replace: %+v", row)
	}

	if err := repo.Delete(ctx, tx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, tx, "u1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Get after delete: got=%v", err)
	}
}
