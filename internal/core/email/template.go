package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// Row is a label/value line in the template body
type Row struct {
	Label string
	Value string
}

// TemplateData fills the standard notification layout
type TemplateData struct {
	Title   string
	Message string
	Rows    []Row
	Footer  string
}

var layout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1f3a5f; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        table { width: 100%; border-collapse: collapse; }
        td { padding: 6px 0; border-bottom: 1px solid #e5e5e5; }
        td.label { color: #666; }
        .footer { padding: 10px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
        </div>
        <div class="content">
            {{if .Message}}<p>{{.Message}}</p>{{end}}
            {{if .Rows}}<table>
                {{range .Rows}}<tr><td class="label">{{.Label}}</td><td><strong>{{.Value}}</strong></td></tr>
                {{end}}
            </table>{{end}}
        </div>
        <div class="footer">
            <p>{{.Footer}}</p>
        </div>
    </div>
</body>
</html>`))

// RenderTemplate builds the HTML body for data
func RenderTemplate(data TemplateData) (string, error) {
	if data.Title == "" {
		data.Title = "Notification"
	}
	if data.Footer == "" {
		data.Footer = "Sent from the card ledger back-office"
	}

	var buf bytes.Buffer
	if err := layout.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}
