// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"bytes"
	"html/template"
	"net/http"
)

var htmlPage = template.Must(template.New("engine-error").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:2em;color:#222}
h1{font-size:1.4em;color:#b00}
.link{margin:.6em 0;padding:.6em;border-left:4px solid #b00;background:#fafafa}
.type{font-family:monospace;color:#555}
pre{background:#f4f4f4;padding:1em;overflow:auto}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Request}}<p class="type">{{.Request}}</p>{{end}}
{{range .Chain}}<div class="link"><div class="type">{{.Type}}</div><div>{{.Message}}</div></div>
{{end}}{{if .Stack}}<h2>Stack</h2>
<pre>{{range .Stack}}{{.}}
{{end}}</pre>{{end}}
</body>
</html>
`))

var templateErrorPage = template.Must(template.New("template-error").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Template error</title>
<style>
body{font-family:sans-serif;margin:2em;color:#222}
h1{font-size:1.4em;color:#a60}
pre{background:#fff8e6;border:1px solid #a60;padding:1em;white-space:pre-wrap}
</style>
</head>
<body>
<h1>Template error</h1>
<pre>{{.Message}}</pre>
{{if .Request}}<p>while handling {{.Request}}</p>{{end}}
</body>
</html>
`))

// HTML renders a diagnostic page for humans.
type HTML struct {
	// Title is the page heading. Defaults to "Engine error".
	Title string
	// HideStack suppresses the stack section.
	HideStack bool
}

// NewHTML creates an HTML formatter.
func NewHTML() *HTML {
	return &HTML{Title: "Engine error"}
}

// Format implements Formatter.
func (f *HTML) Format(req *http.Request, err error) Response {
	var buf bytes.Buffer
	var reqLine string
	if req != nil {
		reqLine = req.Method + " " + req.URL.RequestURI()
	}

	var execErr error
	if IsTemplateSyntax(err) {
		execErr = templateErrorPage.Execute(&buf, map[string]any{
			"Message": err.Error(),
			"Request": reqLine,
		})
	} else {
		var stack []string
		if !f.HideStack {
			stack = Stack(err)
		}
		execErr = htmlPage.Execute(&buf, map[string]any{
			"Title":   f.Title,
			"Request": reqLine,
			"Chain":   Chain(err),
			"Stack":   stack,
		})
	}
	if execErr != nil {
		buf.Reset()
		buf.WriteString(template.HTMLEscapeString(err.Error()))
	}

	return Response{
		Status:      Status(err),
		ContentType: "text/html; charset=utf-8",
		Body:        buf.Bytes(),
	}
}
