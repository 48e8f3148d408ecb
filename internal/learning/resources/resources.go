// Package resources turns the three ways a lesson can carry attachments
// (inline whimsical links, inline drive links, resource rows) into one list
// of typed references.
package resources

import (
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/yungbote/allbound-backend/internal/domain/content"
)

type Kind string

const (
	KindWhimsical Kind = "whimsical"
	KindDrive     Kind = "drive"
	KindDoc       Kind = "doc"
	KindNotion    Kind = "notion"
	KindFile      Kind = "file"
	KindLink      Kind = "link"
)

type Ref struct {
	Kind     Kind   `json:"kind"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
}

var fileExtensions = map[string]bool{
	".pdf": true, ".zip": true, ".csv": true, ".xlsx": true, ".xls": true,
	".docx": true, ".doc": true, ".pptx": true, ".ppt": true, ".txt": true,
	".png": true, ".jpg": true, ".jpeg": true, ".mp3": true, ".mp4": true,
}

// Classify guesses a kind from the URL alone. It is the only place that
// inspects URL text; everything else works from the resolved Kind.
func Classify(raw string) Kind {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return KindLink
	case strings.Contains(s, "whimsical.com"):
		return KindWhimsical
	case strings.Contains(s, "drive.google.com"):
		return KindDrive
	case strings.Contains(s, "docs.google.com"):
		return KindDoc
	case strings.Contains(s, "notion.so"), strings.Contains(s, "notion.site"):
		return KindNotion
	}
	p := s
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		p = u.Path
	}
	if fileExtensions[path.Ext(p)] {
		return KindFile
	}
	return KindLink
}

// FromType trusts an explicit resource type and classifies otherwise.
func FromType(t content.ResourceType, rawURL string) Kind {
	if t.Valid() {
		return Kind(t)
	}
	return Classify(rawURL)
}

func defaultTitle(k Kind) string {
	switch k {
	case KindWhimsical:
		return "Whimsical board"
	case KindDrive:
		return "Google Drive"
	case KindDoc:
		return "Google Doc"
	case KindNotion:
		return "Notion page"
	case KindFile:
		return "Download"
	default:
		return "Link"
	}
}

func normalizeURL(raw string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(raw)), "/")
}

func newRef(k Kind, rawURL, title, category string) Ref {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle(k)
	}
	return Ref{Kind: k, URL: strings.TrimSpace(rawURL), Title: title, Category: strings.TrimSpace(category)}
}

// ForLesson merges all attachment sources in a fixed order (whimsical, drive,
// resource rows by order) and drops blank and duplicate URLs; the first
// occurrence wins.
func ForLesson(l *content.Lesson) []Ref {
	out := []Ref{}
	if l == nil {
		return out
	}
	seen := map[string]bool{}
	add := func(r Ref) {
		key := normalizeURL(r.URL)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, r)
	}
	for _, link := range l.WhimsicalLinks {
		add(newRef(KindWhimsical, link.URL, link.Title, ""))
	}
	for _, link := range l.DriveLinks {
		add(newRef(KindDrive, link.URL, link.Title, ""))
	}
	rows := make([]*content.Resource, 0, len(l.Resources))
	for _, r := range l.Resources {
		if r != nil {
			rows = append(rows, r)
		}
	}
	content.SortResources(rows)
	for _, r := range rows {
		add(newRef(FromType(r.Type, r.URL), r.URL, r.Title, r.Category))
	}
	return out
}

type Group struct {
	Category  string `json:"category"`
	Resources []Ref  `json:"resources"`
}

const DefaultCategory = "General"

// Library groups global resources by category for the resource library page.
// Groups are sorted by name; resources keep their order within a group.
func Library(rows []*content.Resource) []Group {
	global := make([]*content.Resource, 0, len(rows))
	for _, r := range rows {
		if r != nil && r.IsGlobal && strings.TrimSpace(r.URL) != "" {
			global = append(global, r)
		}
	}
	content.SortResources(global)

	byCategory := map[string]*Group{}
	names := []string{}
	for _, r := range global {
		cat := strings.TrimSpace(r.Category)
		if cat == "" {
			cat = DefaultCategory
		}
		g, ok := byCategory[cat]
		if !ok {
			g = &Group{Category: cat}
			byCategory[cat] = g
			names = append(names, cat)
		}
		g.Resources = append(g.Resources, newRef(FromType(r.Type, r.URL), r.URL, r.Title, cat))
	}
	sort.Strings(names)
	out := make([]Group, 0, len(names))
	for _, n := range names {
		out = append(out, *byCategory[n])
	}
	return out
}
