package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Template names, also used as metric labels.
const (
	TemplateVisitorArrival   = "visitor_arrival"
	TemplateVisitorResponded = "visitor_responded"
	TemplateTicketCreated    = "ticket_created"
	TemplateTicketUpdated    = "ticket_updated"
	TemplateTicketMessage    = "ticket_message"
	TemplateMeetingScheduled = "meeting_scheduled"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = bluemonday.UGCPolicy()
)

// RenderMarkdown converts user written markdown to sanitized HTML.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil //nolint:gosec
}

const layout = `<!doctype html><html><body style="font-family:Arial,sans-serif;color:#111">
{{block "content" .}}{{end}}
<p style="color:#888;font-size:12px">{{.OrgName}} front desk</p>
</body></html>`

var templates = map[string]*template.Template{
	TemplateVisitorArrival: mustTemplate(`{{define "content"}}
<h2>{{.VisitorName}} is here to see you</h2>
<p>{{if .Company}}{{.Company}} · {{end}}{{.Purpose}}</p>
<p>
  <a href="{{.AcceptURL}}" style="padding:8px 16px;background:#16a34a;color:#fff;text-decoration:none">Accept</a>
  <a href="{{.DeclineURL}}" style="padding:8px 16px;background:#dc2626;color:#fff;text-decoration:none">Decline</a>
</p>
<p>These links expire in 24 hours.</p>
{{end}}`),
	TemplateVisitorResponded: mustTemplate(`{{define "content"}}
<h2>Your visit has been {{.Decision}}</h2>
<p>{{.HostName}} {{.Decision}} your visit{{if .Purpose}} for "{{.Purpose}}"{{end}}.</p>
{{end}}`),
	TemplateTicketCreated: mustTemplate(`{{define "content"}}
<h2>New ticket {{.Key}}: {{.Title}}</h2>
<p>Priority {{.Priority}} · {{.Category}}</p>
<div>{{.Body}}</div>
<p><a href="{{.Link}}">Open ticket</a></p>
{{end}}`),
	TemplateTicketUpdated: mustTemplate(`{{define "content"}}
<h2>Ticket {{.Key}} is now {{.Status}}</h2>
<p>{{.Title}}</p>
<p><a href="{{.Link}}">Open ticket</a></p>
{{end}}`),
	TemplateTicketMessage: mustTemplate(`{{define "content"}}
<h2>{{.Author}} replied on {{.Key}}</h2>
<div>{{.Body}}</div>
<p><a href="{{.Link}}">Open ticket</a></p>
{{end}}`),
	TemplateMeetingScheduled: mustTemplate(`{{define "content"}}
<h2>{{.Title}}</h2>
<p>{{.When}}{{if .Location}} · {{.Location}}{{end}}</p>
<p>Organised by {{.Organizer}}</p>
{{end}}`),
}

func mustTemplate(content string) *template.Template {
	return template.Must(template.Must(template.New("layout").Parse(layout)).Parse(content))
}

// Render executes the named template with data.
func Render(name string, data any) (string, error) {
	tpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("mail: unknown template %q", name)
	}
	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", name, err)
	}
	return buf.String(), nil
}
