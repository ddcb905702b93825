package notify

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Message is a rendered e-mail.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Renderer turns notifications into messages.  Each template defines a
// "subject" and a "body" block.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: map[string]*template.Template{}}
	for _, name := range []string{service.TemplateInvitation, service.TemplateAccessCodeRedeemed} {
		t, err := template.New(name).Option("missingkey=error").ParseFS(templateFS, "templates/"+name+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render fills the named template with n.Vars.
func (r *Renderer) Render(n service.Notification) (Message, error) {
	t, ok := r.templates[n.Template]
	if !ok {
		return Message{}, fmt.Errorf("unknown template %q", n.Template)
	}
	var subject, body bytes.Buffer
	if err := t.ExecuteTemplate(&subject, "subject", n.Vars); err != nil {
		return Message{}, fmt.Errorf("render %s subject: %w", n.Template, err)
	}
	if err := t.ExecuteTemplate(&body, "body", n.Vars); err != nil {
		return Message{}, fmt.Errorf("render %s body: %w", n.Template, err)
	}
	return Message{
		To:      n.To,
		Subject: strings.TrimSpace(subject.String()),
		Text:    body.String(),
	}, nil
}
