package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
	texttpl "text/template"
)

//go:embed *.tmpl
var FS embed.FS

var (
	htmlTemplates = htmpl.Must(htmpl.New("").ParseFS(FS, "*.html.tmpl"))
	textTemplates = texttpl.Must(texttpl.New("").ParseFS(FS, "*.text.tmpl"))
)

// Render produces subject, text and HTML bodies for a named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	switch name {
	case "otp":
		subject = fmt.Sprintf("Your OTP for %v Authentication", orDefault(data["AppName"], "Notely"))
	default:
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}

	var hb bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&hb, name+".html.tmpl", data); err != nil {
		return "", "", "", err
	}
	var tb bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&tb, name+".text.tmpl", data); err != nil {
		return "", "", "", err
	}
	return subject, tb.String(), hb.String(), nil
}

func orDefault(v any, def string) any {
	if v == nil || v == "" {
		return def
	}
	return v
}
