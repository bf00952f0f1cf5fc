package export

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{"href": hrefURL}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Hormozi AI Business Plan</title>
    <!-- Keep this file next to the 01_Core_Plan, 02_Money_Models, 03_Marketing_Materials and 04_Asset_Library folders from Hormozi_AI_Business_Plan.zip. -->
    <style>
        body { font-family: 'Inter', sans-serif; background-color: #111827; color: #E5E7EB; margin: 0; padding: 2rem; }
        .container { max-width: 900px; margin: auto; }
        header { text-align: center; border-bottom: 4px solid #FBBF24; padding-bottom: 1.5rem; margin-bottom: 2rem; }
        h1 { font-size: 3rem; font-weight: 900; margin: 0; color: white; }
        h1 span { color: #FBBF24; }
        header p { color: #9CA3AF; font-size: 1.25rem; margin-top: 0.5rem; }
        h2 { font-size: 2rem; font-weight: 900; color: #FBBF24; border-bottom: 2px solid #4B5563; padding-bottom: 0.5rem; margin-top: 3rem; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 1.5rem; }
        .card { background-color: #1F2937; border: 1px solid #374151; padding: 1.5rem; border-radius: 0.75rem; }
        .card h3 { font-size: 1.5rem; font-weight: 700; color: white; margin-top: 0; margin-bottom: 1rem; }
        ul { list-style: none; padding: 0; }
        li { margin-bottom: 0.75rem; }
        a { color: #60A5FA; text-decoration: none; font-weight: bold; background-color: #374151; padding: 0.5rem 1rem; border-radius: 0.375rem; display: block; }
        a:hover { background-color: #4B5563; color: white; }
        strong { color: #FBBF24; }
        .offer-group { margin-top: 1.5rem; background-color: #1a222e; padding: 1.5rem; border-radius: 0.5rem; border-left: 4px solid #FBBF24; }
        .offer-group h3 { margin-top: 0; font-size: 1.25rem; color: #FBBF24; }
        .offer-name { color: white; }
        footer { text-align: center; margin-top: 4rem; font-size: 0.875rem; color: #6B7280; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Your <span>Hormozi AI</span> Business Growth Kit</h1>
            <p>A complete, offline-ready package for your {{.BusinessType}}</p>
        </header>
        <main>
            <div class="grid">
{{- range .Cards}}
                <div class="card">
                    <h3>{{.Title}}</h3>
                    <ul>
{{- range .Entries}}
                        {{template "link" .}}
{{- end}}
                    </ul>
                </div>
{{- end}}
            </div>

            <h2>📚 Asset Library</h2>
            <div class="card">
{{- range .Offers}}
                <div class="offer-group">
                    <h3>{{.Title}}: <span class="offer-name">{{.Name}}</span></h3>
                    <ul>
                        {{template "link" .Bundle}}
{{- range .Assets}}
                        {{template "link" .}}
{{- end}}
                    </ul>
                </div>
{{- end}}
            </div>
        </main>
        <footer>
            <p>Generated by Hormozi AI. Good luck!</p>
        </footer>
    </div>
</body>
</html>
{{define "link"}}<li><a href="{{href .Path}}" download>{{if .Strong}}<strong>{{.Label}}</strong>{{else}}{{.Label}}{{end}}</a></li>{{end}}`))

// Href is the link the index uses for an archive path. Each segment is percent-encoded, so the
// link decodes to exactly the archive key.
func Href(path string) string {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return "./" + strings.Join(segs, "/")
}

func hrefURL(path string) template.URL { return template.URL(Href(path)) }

type indexView struct {
	BusinessType string
	Cards        []Card
	Offers       []OfferGroup
}

// RenderIndex produces the offline index page linking every document in m.
func RenderIndex(m Manifest, biz playbook.BusinessData) ([]byte, error) {
	var buf bytes.Buffer
	view := indexView{BusinessType: biz.BusinessType, Cards: m.Cards, Offers: m.Offers}
	if err := indexTmpl.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OfflinePage renders index.html on its own. It makes no network calls and does not take the
// coordinator's export slot.
func OfflinePage(pb *playbook.GeneratedPlaybook, biz *playbook.BusinessData) ([]byte, error) {
	if pb == nil || biz == nil || !pb.Complete() {
		return nil, precondition("Cannot generate HTML page: Missing playbook or business data.")
	}
	out, err := RenderIndex(BuildManifest(*pb), *biz)
	if err != nil {
		return nil, failure("offline_page", "HTML Generation Failed: ", err)
	}
	return out, nil
}
