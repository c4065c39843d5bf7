package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var files embed.FS

// Template names, one per notification kind.
const (
	VerifyEmail    = "verify_email"
	Welcome        = "welcome"
	ForgotPassword = "forgot_password"
	ResetSuccess   = "reset_success"
)

// EmailData defines standard fields for email templates.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	CompanyName string `json:"CompanyName"`
	AppName     string `json:"AppName"`
	SupportURL  string `json:"SupportURL"`

	ResetURL string `json:"ResetURL"`
	Code     string `json:"Code"`

	ExpiresAt     time.Time `json:"ExpiresAt"`
	ExpiresAtText string    `json:"ExpiresAtText"`
}

// ToMap flattens d into the map carried by EmailJob.Data.
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// Email is one rendered message.
type Email struct {
	Subject string
	Text    string
	HTML    string
}

// orDefault supports {{ .Name | default "there" }}. Job data arrives as
// decoded JSON, so only nil and blank strings count as empty.
func orDefault(fallback string, v any) any {
	switch x := v.(type) {
	case nil:
		return fallback
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
	}
	return v
}

var funcs = map[string]any{"default": orDefault}

type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var sets = mustParse(VerifyEmail, Welcome, ForgotPassword, ResetSuccess)

// mustParse loads <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl
// for every name. A broken embedded template is a build defect.
func mustParse(names ...string) map[string]set {
	out := make(map[string]set, len(names))
	for _, name := range names {
		out[name] = set{
			subject: texttpl.Must(texttpl.New(name+".subject.tmpl").Funcs(funcs).ParseFS(files, name+".subject.tmpl")),
			text:    texttpl.Must(texttpl.New(name+".text.tmpl").Funcs(funcs).ParseFS(files, name+".text.tmpl")),
			html:    htmpl.Must(htmpl.New(name+".html.tmpl").Funcs(funcs).ParseFS(files, name+".html.tmpl")),
		}
	}
	return out
}

// Known reports whether a template set exists for name.
func Known(name string) bool {
	_, ok := sets[name]
	return ok
}

// Render executes the template set for name against data.
func Render(name string, data any) (Email, error) {
	s, ok := sets[name]
	if !ok {
		return Email{}, fmt.Errorf("unknown template %q", name)
	}
	var subject, text, html bytes.Buffer
	if err := s.subject.Execute(&subject, data); err != nil {
		return Email{}, fmt.Errorf("exec %s subject: %w", name, err)
	}
	if err := s.text.Execute(&text, data); err != nil {
		return Email{}, fmt.Errorf("exec %s text: %w", name, err)
	}
	if err := s.html.Execute(&html, data); err != nil {
		return Email{}, fmt.Errorf("exec %s html: %w", name, err)
	}
	return Email{Subject: strings.TrimSpace(subject.String()), Text: text.String(), HTML: html.String()}, nil
}
