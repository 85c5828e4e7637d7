// Package notify delivers e-mail notifications to users and invitees.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

type Kind string

const (
	// Invitation is sent when an access grant creates a new user.
	Invitation Kind = "invitation"
)

// Sender delivers one notification. Callers treat delivery as best effort.
type Sender interface {
	Send(ctx context.Context, to string, kind Kind, params map[string]string) error
}

type templatePair struct {
	subject *template.Template
	body    *template.Template
}

var templates = map[Kind]templatePair{
	Invitation: {
		subject: template.Must(template.New("invitation-subject").Parse(
			`You've been granted access to medications on MedTrack`)),
		body: template.Must(template.New("invitation-body").Parse(`
{{- .inviter}} shared {{.groups}} with you on MedTrack.

Create your account with this e-mail address to view{{if eq .canEdit "true"}} and record{{end}} doses:
{{.signInURL}}
`)),
	},
}

// Render returns the subject and plain-text body of a notification.
func Render(kind Kind, params map[string]string) (subject, body string, err error) {
	tp, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notification kind %q", kind)
	}

	buf := &bytes.Buffer{}
	if err := tp.subject.Execute(buf, params); err != nil {
		return "", "", fmt.Errorf("while templating subject: %w", err)
	}
	subject = buf.String()

	buf.Reset()
	if err := tp.body.Execute(buf, params); err != nil {
		return "", "", fmt.Errorf("while templating body: %w", err)
	}
	return subject, buf.String(), nil
}
