package surveys

import "github.com/iscore-hr/helpdesk-backend/pkg/enums"

// TemplateQuestion is one predefined question inside a survey template.
type TemplateQuestion struct {
	Text     string             `json:"text"`
	Type     enums.QuestionType `json:"type"`
	Required bool               `json:"required"`
	MinValue int                `json:"min_value"`
	MaxValue int                `json:"max_value"`
	Order    int                `json:"order"`
}

// Template is a predefined survey HR can instantiate without authoring questions.
type Template struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Category      string             `json:"category"`
	EstimatedTime string             `json:"estimated_time"`
	Questions     []TemplateQuestion `json:"questions"`
}

func ratingQuestions(texts ...string) []TemplateQuestion {
	questions := make([]TemplateQuestion, 0, len(texts))
	for i, text := range texts {
		questions = append(questions, TemplateQuestion{
			Text:     text,
			Type:     enums.QuestionTypeRatingScale,
			Required: true,
			MinValue: 1,
			MaxValue: 5,
			Order:    i + 1,
		})
	}
	return questions
}

var surveyTemplates = []Template{
	{
		ID:            "employee_satisfaction",
		Title:         "Employee Satisfaction & Engagement Survey",
		Description:   "Comprehensive assessment of employee satisfaction, engagement, and workplace experience.",
		Category:      "Employee Engagement",
		EstimatedTime: "8-10 minutes",
		Questions: ratingQuestions(
			"How satisfied are you with your current role and responsibilities?",
			"How would you rate your work-life balance?",
			"How satisfied are you with your compensation and benefits package?",
			"How would you rate the communication within your team?",
			"How likely are you to recommend this company as a place to work?",
			"How satisfied are you with the recognition and appreciation you receive?",
			"How would you rate the overall workplace atmosphere?",
			"How satisfied are you with the opportunities for career growth?",
		),
	},
	{
		ID:            "workplace_culture",
		Title:         "Workplace Culture & Values Assessment",
		Description:   "Evaluation of company culture, values alignment, and workplace environment.",
		Category:      "Culture & Values",
		EstimatedTime: "6-8 minutes",
		Questions: ratingQuestions(
			"How well do the company values align with your personal values?",
			"How inclusive and diverse do you find the workplace environment?",
			"How would you rate the level of respect among colleagues?",
			"How comfortable do you feel expressing your opinions at work?",
			"How well does the company live up to its stated values?",
			"How would you rate the level of trust between employees and management?",
		),
	},
	{
		ID:            "leadership_effectiveness",
		Title:         "Leadership & Management Effectiveness Survey",
		Description:   "Assessment of leadership quality, management practices, and decision-making effectiveness.",
		Category:      "Leadership",
		EstimatedTime: "8-10 minutes",
		Questions: ratingQuestions(
			"How would you rate your direct supervisor's leadership skills?",
			"How effective is your supervisor at providing clear direction and goals?",
			"How would you rate the quality of feedback you receive from your supervisor?",
			"How transparent is upper management in their decision-making?",
			"How well does leadership communicate company goals and vision?",
			"How fairly are decisions made by management?",
			"How well does leadership recognize and appreciate employee contributions?",
			"How confident are you in the leadership team's ability to guide the company?",
		),
	},
	{
		ID:            "training_development",
		Title:         "Training & Professional Development Survey",
		Description:   "Evaluation of learning opportunities, skill development, and career growth support.",
		Category:      "Professional Development",
		EstimatedTime: "6-8 minutes",
		Questions: ratingQuestions(
			"How satisfied are you with the current training and learning opportunities?",
			"How clear are your career advancement opportunities?",
			"How relevant are the training programs to your current role?",
			"How satisfied are you with the mentoring and coaching available?",
			"How would you rate the support for your professional development goals?",
			"How effective are the learning resources and tools provided?",
		),
	},
	{
		ID:            "remote_work_experience",
		Title:         "Remote Work & Technology Experience Survey",
		Description:   "Assessment of remote work effectiveness, technology tools, and virtual collaboration.",
		Category:      "Work Environment",
		EstimatedTime: "6-8 minutes",
		Questions: ratingQuestions(
			"How satisfied are you with your current remote work setup and tools?",
			"How effective are the virtual communication tools for your work?",
			"How well can you collaborate with your team remotely?",
			"How would you rate your productivity while working remotely?",
			"How satisfied are you with the technical support for remote work?",
			"How well are you able to maintain work-life balance while working remotely?",
		),
	},
	{
		ID:            "team_collaboration",
		Title:         "Team Collaboration & Communication Survey",
		Description:   "Evaluation of team dynamics, collaboration effectiveness, and communication quality.",
		Category:      "Team Dynamics",
		EstimatedTime: "6-8 minutes",
		Questions: ratingQuestions(
			"How would you rate the sense of teamwork and collaboration in your team?",
			"How effective is the communication between team members?",
			"How well does your team work together to solve problems?",
			"How would you rate the level of support you receive from your colleagues?",
			"How effective are team meetings and discussions?",
			"How well does your team handle conflicts and disagreements?",
		),
	},
}

// Templates returns the full predefined catalog.
func Templates() []Template {
	out := make([]Template, len(surveyTemplates))
	copy(out, surveyTemplates)
	return out
}

// TemplateByID looks up one template; the second return reports existence.
func TemplateByID(id string) (Template, bool) {
	for _, template := range surveyTemplates {
		if template.ID == id {
			return template, true
		}
	}
	return Template{}, false
}

// TemplatesByCategory filters the catalog by category name.
func TemplatesByCategory(category string) []Template {
	var out []Template
	for _, template := range surveyTemplates {
		if template.Category == category {
			out = append(out, template)
		}
	}
	return out
}
