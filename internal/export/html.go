package export

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

// bubble is one rendered message in a transcript.
type bubble struct {
	Sent  bool // true when the exporting user is the sender
	Text  string
	Media []template.HTML
	Time  string
}

type transcriptData struct {
	ContactName string
	Bubbles     []bubble
}

var transcriptTemplate = template.Must(template.New("transcript").Parse(`<html>
<head>
  <meta charset="utf-8"/>
  <title>Chat with {{.ContactName}}</title>
  <style>
    body { font-family: sans-serif; background-color: #f9f9f9; padding: 20px; }
    .chat-container { display: flex; flex-direction: column; gap: 16px; }
    .chat-start, .chat-end { display: flex; }
    .chat-start { justify-content: flex-start; }
    .chat-end { justify-content: flex-end; }
    .bubble {
      max-width: 60%;
      padding: 10px 16px;
      border-radius: 16px;
      display: flex;
      flex-direction: column;
      background-color: #f1f5f9;
      box-shadow: 0 2px 4px rgba(0,0,0,0.1);
    }
    .bubble.sender { background-color: #cbd5e1; }
    .bubble.receiver { background-color: #f1f5f9; }
    .media { margin-top: 8px; max-width: 100%; border-radius: 8px; }
    time { font-size: 0.75rem; opacity: 0.6; margin-top: 4px; text-align: right; }
  </style>
</head>
<body>
  <h1>Chat with {{.ContactName}}</h1>
  <div class="chat-container">
{{- range .Bubbles}}
    <div class="{{if .Sent}}chat-end{{else}}chat-start{{end}}">
      <div class="bubble {{if .Sent}}sender{{else}}receiver{{end}}">
        {{- if .Text}}
        <p>{{.Text}}</p>
        {{- end}}
        {{- range .Media}}
        {{.}}
        {{- end}}
        <time>{{.Time}}</time>
      </div>
    </div>
{{- end}}
  </div>
</body>
</html>
`))

func renderTranscript(w io.Writer, contactName string, bubbles []bubble) error {
	return transcriptTemplate.Execute(w, transcriptData{
		ContactName: contactName,
		Bubbles:     bubbles,
	})
}

func formatBubbleTime(t time.Time) string {
	return t.Format("1/2/2006, 3:04:05 PM")
}

// mediaTag builds the inline element for a downloaded attachment. The
// filename is escaped through the template engine when rendered, so the
// tags here only need well-formed structure.
func mediaTag(kind, filename string) template.HTML {
	escaped := template.HTMLEscapeString(filename)
	switch kind {
	case "image":
		return template.HTML(fmt.Sprintf(`<img class="media" src="media/%s" />`, escaped))
	case "video":
		return template.HTML(fmt.Sprintf(`<video class="media" controls><source src="media/%s" type="video/mp4" /></video>`, escaped))
	case "voice":
		return template.HTML(fmt.Sprintf(`<audio class="media" controls><source src="media/%s" type="audio/mpeg" /></audio>`, escaped))
	default:
		return template.HTML(fmt.Sprintf(`<a class="media" href="media/%s" download>%s</a>`, escaped, escaped))
	}
}
