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
	"encoding/xml"
	"net/http"
)

// XML renders the diagnostic information as an XML document.
type XML struct {
	// HideStack suppresses the stack frames.
	HideStack bool
}

// NewXML creates an XML formatter.
func NewXML() *XML {
	return &XML{}
}

type xmlDocument struct {
	XMLName  xml.Name `xml:"error"`
	Status   int      `xml:"status,attr"`
	Template bool     `xml:"template,attr,omitempty"`
	Request  string   `xml:"request,omitempty"`
	Chain    []Link   `xml:"chain>cause"`
	Stack    []string `xml:"stack>frame,omitempty"`
}

// Format implements Formatter.
func (f *XML) Format(req *http.Request, err error) Response {
	doc := xmlDocument{
		Status:   Status(err),
		Template: IsTemplateSyntax(err),
		Chain:    Chain(err),
	}
	if req != nil {
		doc.Request = req.Method + " " + req.URL.RequestURI()
	}
	if !f.HideStack {
		doc.Stack = Stack(err)
	}

	body, mErr := xml.MarshalIndent(doc, "", "  ")
	if mErr != nil {
		body = []byte("<error/>")
	}
	return Response{
		Status:      doc.Status,
		ContentType: "text/xml; charset=utf-8",
		Body:        append([]byte(xml.Header), body...),
	}
}
