package wizard

import (
	"strings"

	"github.com/pavelanni/reassess/internal/model"
)

// SectionSeparator joins sections in the clipboard export.
const SectionSeparator = "\n\n---\n\n"

// ApprovedSectionsText renders the approved sections for the clipboard.
func (s *Session) ApprovedSectionsText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ApprovedSectionsText(s.st.Sections)
}

// RubricTable renders the rubric as a pipe-delimited table for the clipboard.
func (s *Session) RubricTable() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RubricTable(s.lang, s.st.Rubric)
}

// ApprovedSectionsText joins approved sections as "title\n\ncontent" with
// emphasis markers removed from the content.
func ApprovedSectionsText(sections []model.SectionState) string {
	var parts []string
	for _, sec := range sections {
		if sec.Status != model.SectionApproved {
			continue
		}
		parts = append(parts, sec.Title+"\n\n"+strings.ReplaceAll(sec.Content, "*", ""))
	}
	return strings.Join(parts, SectionSeparator)
}

// SplitSectionsText parses text produced by ApprovedSectionsText back into
// titles and contents. Audience is not part of the export and stays empty.
func SplitSectionsText(text string) []model.TaskSection {
	if text == "" {
		return nil
	}
	var out []model.TaskSection
	for _, part := range strings.Split(text, SectionSeparator) {
		title, content, _ := strings.Cut(part, "\n\n")
		out = append(out, model.TaskSection{Title: title, Content: content})
	}
	return out
}

// RubricTable renders rows under a localized header and a separator row.
func RubricTable(lang string, rows []model.RubricRow) string {
	if len(rows) == 0 {
		return ""
	}
	h := labelsFor(lang).RubricHeader
	var b strings.Builder
	b.WriteString("| " + strings.Join(h[:], " | ") + " |\n")
	b.WriteString("|---|---|---|---|")
	for _, r := range rows {
		b.WriteString("\n| " + r.Criterion + " | " + r.Excellent + " | " + r.Good + " | " + r.NeedsImprovement + " |")
	}
	return b.String()
}
