package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/pseudosapiens/phrase-api/internal/model"
)

var phraseTemplate = template.Must(template.New("phrase").Parse(`
<div style="font-family: -apple-system, Segoe UI, Roboto, Arial, sans-serif; line-height:1.6">
  <h2 style="margin:0 0 12px">Frase motivacional</h2>
  <blockquote style="margin:12px 0; padding:12px 16px; border-left:4px solid #4f46e5; background:#f6f6ff">
    <p style="margin:0; font-size:16px">{{.Text}}</p>
    <small style="opacity:.7">&mdash; {{.Author}}</small>
  </blockquote>
  <p style="font-size:12px; color:#666">
    Recibes este correo porque te suscribiste en pseudosapiens.com.
    <a href="{{.UnsubscribeURL}}">Cancelar suscripci&oacute;n</a>
  </p>
</div>
`))

type phraseEmailData struct {
	Text           string
	Author         string
	UnsubscribeURL string
}

// Subject composes the fixed subject line for a phrase email.
func Subject(phrase *model.Phrase) string {
	return fmt.Sprintf("Tu frase motivacional de %s", phrase.Author)
}

// RenderPhrase builds the HTML body for a phrase email. Body text is
// template-escaped; phrases are authored content, not trusted markup.
func RenderPhrase(phrase *model.Phrase, unsubscribeURL string) (string, error) {
	var buf bytes.Buffer
	err := phraseTemplate.Execute(&buf, phraseEmailData{
		Text:           phrase.Text,
		Author:         phrase.Author,
		UnsubscribeURL: unsubscribeURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render phrase email: %w", err)
	}
	return buf.String(), nil
}
