package mail

import (
	"bytes"
	_ "embed"
	"html/template"
	"strings"
	"time"

	"formulate-backend/src/models"
	"formulate-backend/src/services/webhook"
)

//go:embed response_email.html
var responseEmailHTML string

var responseEmailTmpl = template.Must(
	template.New("response").
		Funcs(template.FuncMap{
			"formatTime": func(t time.Time) string {
				return t.UTC().Format("02 Jan 2006 15:04 MST")
			},
			"formatValue": func(v any) string {
				return strings.Join(models.AsStrings(v), ", ")
			},
		}).
		Parse(responseEmailHTML),
)

// RenderResponseEmail builds the subject and HTML body of a submission
// notice. Answers are labelled the same way as webhook payloads.
func RenderResponseEmail(form *models.Form, resp *models.Response) (string, string, error) {
	data := webhook.BuildPayload(form, resp)
	var buf bytes.Buffer
	if err := responseEmailTmpl.Execute(&buf, struct {
		webhook.Payload
		RespondentEmail string
	}{data, resp.RespondentEmail}); err != nil {
		return "", "", err
	}
	return "New response: " + form.Title, buf.String(), nil
}
