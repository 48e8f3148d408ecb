package resources

import (
	"testing"

	"github.com/yungbote/allbound-backend/internal/domain/content"
	"gorm.io/datatypes"
)

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"https://whimsical.com/outbound-map-123":             KindWhimsical,
		"https://drive.google.com/drive/folders/abc":         KindDrive,
		"https://docs.google.com/document/d/xyz/edit":        KindDoc,
		"https://allbound.notion.site/Playbook-1":            KindNotion,
		"https://www.notion.so/team/Page":                    KindNotion,
		"https://cdn.allbound.in/templates/sequence.PDF":     KindFile,
		"https://cdn.allbound.in/templates/sheet.xlsx?dl=1":  KindFile,
		"https://www.linkedin.com/sales/":                    KindLink,
		"":                                                   KindLink,
	}
	for in, want := range cases {
		if got := Classify(in); got != want {
			t.Fatalf("Classify(%q): got=%s want=%s", in, got, want)
		}
	}
}

func TestForLessonMergesAndDedupes(t *testing.T) {
	lessonID := "l1"
	l := &content.Lesson{
		ID: lessonID,
		WhimsicalLinks: datatypes.NewJSONSlice([]content.Link{
			{Title: "ICP map", URL: "https://whimsical.com/icp"},
			{URL: " "},
		}),
		DriveLinks: datatypes.NewJSONSlice([]content.Link{
			{URL: "https://drive.google.com/file/d/1"},
		}),
		Resources: []*content.Resource{
			{ID: "r2", URL: "https://docs.google.com/document/d/2", Title: "Script", OrderIndex: 2},
			{ID: "r1", URL: "https://whimsical.com/icp/", Title: "dup", OrderIndex: 1, Type: content.ResourceWhimsical},
			{ID: "r3", URL: "https://example.com/guide.pdf", Title: "Guide", Type: content.ResourceLink, OrderIndex: 3},
		},
	}
	got := ForLesson(l)
	if len(got) != 4 {
		t.Fatalf("len: got=%d refs=%+v", len(got), got)
	}
	want := []struct {
		kind  Kind
		title string
	}{
		{KindWhimsical, "ICP map"},
		{KindDrive, "Google Drive"},
		{KindDoc, "Script"},
		{KindLink, "Guide"},
	}
	for i, w := range want {
		if got[i].Kind != w.kind || got[i].Title != w.title {
			t.Fatalf("ref %d: got=%+v want kind=%s title=%s", i, got[i], w.kind, w.title)
		}
	}
	if refs := ForLesson(nil); refs == nil || len(refs) != 0 {
		t.Fatalf("nil lesson should give an empty list")
	}
}

func TestLibrary(t *testing.T) {
	lessonID := "l1"
	rows := []*content.Resource{
		{ID: "g2", URL: "https://docs.google.com/a", Title: "Email templates", Category: "Templates", IsGlobal: true, OrderIndex: 2},
		{ID: "g1", URL: "https://whimsical.com/b", Title: "Funnel", Category: "Templates", IsGlobal: true, OrderIndex: 1},
		{ID: "g3", URL: "https://example.com/c", Title: "Reading list", IsGlobal: true},
		{ID: "local", URL: "https://example.com/d", LessonID: &lessonID},
	}
	groups := Library(rows)
	if len(groups) != 2 {
		t.Fatalf("groups: got=%+v", groups)
	}
	if groups[0].Category != DefaultCategory || groups[1].Category != "Templates" {
		t.Fatalf("group order: got=%s,%s", groups[0].Category, groups[1].Category)
	}
	if tpl := groups[1].Resources; len(tpl) != 2 || tpl[0].Title != "Funnel" || tpl[0].Kind != KindWhimsical {
		t.Fatalf("templates group: got=%+v", tpl)
	}
}
