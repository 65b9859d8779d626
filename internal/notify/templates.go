// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package notify

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/samber/oops"
)

// Subjects of the messages this package renders.
const (
	ResetSubject = "Password Reset"
	TestSubject  = "Test Email from Thryve"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// RenderResetEmail builds the password reset body for the named user.
// Name and link are HTML-escaped.
func RenderResetEmail(name, link string) (string, error) {
	return render("reset_password.html", struct {
		Name      string
		Link      string
		ExpiresIn string
	}{Name: name, Link: link, ExpiresIn: "1 hour"})
}

// RenderTestEmail builds the body of the delivery check message.
func RenderTestEmail(sentAt time.Time) (string, error) {
	return render("test_email.html", struct{ SentAt string }{
		SentAt: sentAt.UTC().Format(time.RFC3339),
	})
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", oops.Code("MAIL_TEMPLATE_FAILED").With("template", name).Wrap(err)
	}
	return buf.String(), nil
}
