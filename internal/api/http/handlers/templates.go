package handlers

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"
)

const pageLayout = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · {{.AppName}}</title>
<link rel="manifest" href="/manifest.json">
</head>
<body>
{{block "content" .}}{{end}}
</body>
</html>`

var (
	shellTemplate = mustPage(`{{define "content"}}
<div id="app" data-section="{{.Section}}" data-path="{{.Path}}"></div>
<noscript>{{.AppName}} needs JavaScript enabled.</noscript>
<script>if ("serviceWorker" in navigator) { navigator.serviceWorker.register("/sw.js"); }</script>
{{end}}`)

	responseFormTemplate = mustPage(`{{define "content"}}
<main>
<h1>Visitor request</h1>
{{if .Info}}<p><strong>{{.Info.Visitor.Name}}</strong>{{with .Info.Visitor.Company}} from {{.}}{{end}} is here for "{{.Info.Visitor.Purpose}}".</p>{{end}}
{{if .Message}}<p role="alert">{{.Message}}</p>{{end}}
{{if .Token}}
<form method="post" action="/visitor-response">
<input type="hidden" name="token" value="{{.Token}}">
<button type="submit" name="action" value="accept">Accept</button>
<button type="submit" name="action" value="decline">Decline</button>
</form>
{{end}}
</main>
{{end}}`)

	responseResultTemplate = mustPage(`{{define "content"}}
<main>
{{if .Message}}<h1>Something went wrong</h1><p role="alert">{{.Message}}</p>
{{else if .AlreadyResponded}}<h1>Already answered</h1><p>{{.VisitorName}} was already {{.Decision}}. Nothing changed.</p>
{{else}}<h1>Visitor {{.Decision}}</h1><p>{{.VisitorName}} has been {{.Decision}}. The front desk has been notified.</p>{{end}}
</main>
{{end}}`)
)

func mustPage(content string) *template.Template {
	return template.Must(template.Must(template.New("layout").Parse(pageLayout)).Parse(content))
}

func renderPage(c *fiber.Ctx, status int, t *template.Template, data any) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
