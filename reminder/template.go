package reminder

import (
	"bytes"
	"fmt"
	"text/template"
)

// MessageData is what templates can reference.
type MessageData struct {
	Name         string
	Plate        string
	LastService  string
	DueDate      string
	DaysUntilDue int
	DaysOverdue  int
}

// Template renders one tier's message.
type Template struct {
	Subject *template.Template
	Body    *template.Template
}

// Templates maps each notifiable tier to its message.
type Templates map[Tier]Template

// MustTemplate parses a subject/body pair, panicking on syntax errors.
func MustTemplate(tier Tier, subject, body string) Template {
	return Template{
		Subject: template.Must(template.New(string(tier) + "_subject").Parse(subject)),
		Body:    template.Must(template.New(string(tier) + "_body").Parse(body)),
	}
}

// DefaultTemplates are plain-text reminders in English.
func DefaultTemplates() Templates {
	return Templates{
		TierAdvance: MustTemplate(TierAdvance,
			"Service reminder: due on {{.DueDate}}",
			`Hello {{.Name}},

Your next service{{if .Plate}} for {{.Plate}}{{end}} is due on {{.DueDate}} ({{.DaysUntilDue}} day{{if ne .DaysUntilDue 1}}s{{end}} from now).
Reply to this message to book a visit.
`),
		TierDueToday: MustTemplate(TierDueToday,
			"Your service is due today",
			`Hello {{.Name}},

Your service{{if .Plate}} for {{.Plate}}{{end}} is due today ({{.DueDate}}).
Reply to this message to book a visit.
`),
		TierOverdue: MustTemplate(TierOverdue,
			"Your service is overdue",
			`Hello {{.Name}},

Your service{{if .Plate}} for {{.Plate}}{{end}} {{if .DueDate}}was due on {{.DueDate}}{{if .DaysOverdue}}, {{.DaysOverdue}} day{{if ne .DaysOverdue 1}}s{{end}} ago{{end}}{{else}}is overdue{{end}}.
Reply to this message to book a visit.
`),
	}
}

// Render produces the subject and body for tier.
func (ts Templates) Render(tier Tier, data MessageData) (string, string, error) {
	tpl, ok := ts[tier]
	if !ok {
		return "", "", fmt.Errorf("no template for tier %s", tier)
	}
	var subject, body bytes.Buffer
	if err := tpl.Subject.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", tier, err)
	}
	if err := tpl.Body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", tier, err)
	}
	return subject.String(), body.String(), nil
}
