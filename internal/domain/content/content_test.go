package content

import "testing"

func strPtr(s string) *string { return &s }

func TestAssembleOrdersByIndexThenID(t *testing.T) {
	modules := []*Module{
		{ID: "m-b", OrderIndex: 1},
		{ID: "m-a", OrderIndex: 1},
		{ID: "m-welcome", OrderIndex: 0},
	}
	lessons := []*Lesson{
		{ID: "l3", ModuleID: "m-a", OrderIndex: 2},
		{ID: "l2", ModuleID: "m-a", OrderIndex: 1},
		{ID: "l1", ModuleID: "m-a", OrderIndex: 1},
		{ID: "orphan", ModuleID: "gone", OrderIndex: 0},
	}
	resources := []*Resource{
		{ID: "r2", LessonID: strPtr("l1"), OrderIndex: 1},
		{ID: "r1", LessonID: strPtr("l1"), OrderIndex: 0},
		{ID: "rg", IsGlobal: true},
	}

	c := Assemble("Allbound", "", modules, lessons, resources)
	gotModules := []string{}
	for _, m := range c.Modules {
		gotModules = append(gotModules, m.ID)
	}
	if want := []string{"m-welcome", "m-a", "m-b"}; !equal(gotModules, want) {
		t.Fatalf("module order: got=%v want=%v", gotModules, want)
	}
	if got := c.LessonIDs(); !equal(got, []string{"l1", "l2", "l3"}) {
		t.Fatalf("lesson order: got=%v", got)
	}
	_, l1 := c.FindLesson("l1")
	if l1 == nil || len(l1.Resources) != 2 || l1.Resources[0].ID != "r1" {
		t.Fatalf("lesson resources: got=%+v", l1)
	}
	if m, l := c.FindLesson("orphan"); m != nil || l != nil {
		t.Fatalf("orphan lesson should be dropped")
	}
	if modules[1].Lessons != nil {
		t.Fatalf("Assemble mutated its input")
	}
}

func TestLearnerView(t *testing.T) {
	c := &Course{Modules: []*Module{{
		ID: "m1",
		Lessons: []*Lesson{
			{ID: "a", Title: "Intro", Status: ""},
			{ID: "b", Title: "Secret", Status: StatusComingSoon, TitleHidden: true, VideoURL: strPtr("https://v")},
			{ID: "c", Title: "Soon", Status: StatusComingSoon},
			{ID: "d", Title: "WIP", Status: StatusDraft},
		},
	}}}
	v := c.LearnerView()
	ls := v.Modules[0].Lessons
	if len(ls) != 3 {
		t.Fatalf("draft not removed: got=%d lessons", len(ls))
	}
	if ls[0].Status != StatusAvailable {
		t.Fatalf("empty status should read as available: got=%q", ls[0].Status)
	}
	if ls[1].Title != "" || ls[1].VideoURL != nil {
		t.Fatalf("hidden coming-soon lesson leaked: %+v", ls[1])
	}
	if ls[2].Title != "Soon" {
		t.Fatalf("visible coming-soon title changed: %q", ls[2].Title)
	}
	if c.Modules[0].Lessons[1].Title != "Secret" {
		t.Fatalf("LearnerView mutated the source course")
	}
}

func TestParseLessonStatus(t *testing.T) {
	cases := map[string]LessonStatus{"": StatusAvailable, "Coming-Soon": StatusComingSoon, " draft ": StatusDraft}
	for in, want := range cases {
		got, ok := ParseLessonStatus(in)
		if !ok || got != want {
			t.Fatalf("ParseLessonStatus(%q): got=%q ok=%v want=%q", in, got, ok, want)
		}
	}
	if _, ok := ParseLessonStatus("archived"); ok {
		t.Fatalf("unknown status accepted")
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
