package surveys

import (
	"testing"

	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
)

func TestTemplateCatalog(t *testing.T) {
	templates := Templates()
	if len(templates) == 0 {
		t.Fatal("expected predefined templates")
	}

	seen := map[string]bool{}
	for _, template := range templates {
		if template.ID == "" || template.Title == "" || template.Category == "" {
			t.Fatalf("incomplete template %+v", template)
		}
		if seen[template.ID] {
			t.Fatalf("duplicate template id %q", template.ID)
		}
		seen[template.ID] = true

		if len(template.Questions) == 0 {
			t.Fatalf("template %q has no questions", template.ID)
		}
		for i, q := range template.Questions {
			if q.Type != enums.QuestionTypeRatingScale {
				t.Fatalf("template %q question %d has type %s", template.ID, i, q.Type)
			}
			if q.MinValue != 1 || q.MaxValue != 5 {
				t.Fatalf("template %q question %d has bounds [%d,%d]", template.ID, i, q.MinValue, q.MaxValue)
			}
			if q.Order != i+1 {
				t.Fatalf("template %q question %d out of order", template.ID, i)
			}
			if !q.Required {
				t.Fatalf("template %q question %d should be required", template.ID, i)
			}
		}
	}
}

func TestTemplateByID(t *testing.T) {
	template, ok := TemplateByID("employee_satisfaction")
	if !ok {
		t.Fatal("expected template")
	}
	if len(template.Questions) != 8 {
		t.Fatalf("expected 8 questions, got %d", len(template.Questions))
	}

	if _, ok := TemplateByID("nope"); ok {
		t.Fatal("unexpected template")
	}
}

func TestTemplatesByCategory(t *testing.T) {
	matches := TemplatesByCategory("Leadership")
	if len(matches) != 1 || matches[0].ID != "leadership_effectiveness" {
		t.Fatalf("unexpected matches %+v", matches)
	}
}
