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

package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"
	"golang.org/x/term"

	"rivaas.dev/engine/config"
	"rivaas.dev/engine/engine"
)

var methodColors = map[string]string{
	http.MethodGet:    "10",
	http.MethodPost:   "12",
	http.MethodPut:    "11",
	http.MethodDelete: "9",
	http.MethodPatch:  "13",
	http.MethodHead:   "14",
}

// colorWriter downsamples ANSI colors to what w supports and strips them
// when w is not a terminal.
func colorWriter(w io.Writer) *colorprofile.Writer {
	return colorprofile.NewWriter(w, os.Environ())
}

// PrintBanner writes the service name as ASCII art, followed by the
// listening address, the enabled components and the route table.
func (a *App) PrintBanner(w io.Writer, addr string) {
	cw := colorWriter(w)

	var art strings.Builder
	gradient := []string{"12", "14", "10", "11"}
	for _, line := range figure.NewFigure(a.serviceName(), "", false).Slicify() {
		if strings.TrimSpace(line) == "" {
			art.WriteString("\n")
			continue
		}
		for i, ch := range line {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[i%len(gradient)])).Bold(true)
			art.WriteString(style.Render(string(ch)))
		}
		art.WriteString("\n")
	}

	category := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(16).PaddingLeft(2)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	disabled := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	if strings.HasPrefix(addr, ":") || strings.HasPrefix(addr, "[::]") {
		addr = "0.0.0.0" + addr[strings.LastIndex(addr, ":"):]
	}
	line := func(b *strings.Builder, name, v string, on bool) {
		b.WriteString(label.Render(name + ":"))
		b.WriteString("  ")
		if on {
			b.WriteString(value.Render(v))
		} else {
			b.WriteString(disabled.Render(v))
		}
		b.WriteString("\n")
	}
	enabled := func(provider string) bool { return provider != config.ProviderNone }

	var out strings.Builder
	out.WriteString(category.Render("Service") + "\n")
	line(&out, "Version", a.serviceVersion, true)
	line(&out, "Address", "http://"+addr+a.cfg.Gate.URL, true)
	if a.cfg.Server.H2C {
		line(&out, "Protocol", "h2c", true)
	}

	out.WriteString("\n" + category.Render("Engine") + "\n")
	if a.manager != nil {
		line(&out, "Continuations", fmt.Sprintf("%s ttl, %d max", a.manager.Duration(), a.cfg.Continuations.MaxEntries), true)
	} else {
		line(&out, "Continuations", "Disabled", false)
	}
	line(&out, "Sessions", a.cfg.Session.Store, enabled(a.cfg.Session.Store))
	line(&out, "Compression", onOff(a.cfg.Compression.Enabled), a.cfg.Compression.Enabled)

	out.WriteString("\n" + category.Render("Observability") + "\n")
	metricsLine := a.cfg.Metrics.Provider
	if a.cfg.Metrics.Provider == "prometheus" {
		metricsLine = "http://" + addr + a.cfg.Metrics.Path + "  [prometheus]"
	}
	line(&out, "Metrics", metricsLine, enabled(a.cfg.Metrics.Provider))
	line(&out, "Tracing", a.cfg.Tracing.Provider, enabled(a.cfg.Tracing.Provider))

	fmt.Fprintln(cw)
	fmt.Fprint(cw, art.String())
	fmt.Fprintln(cw)
	fmt.Fprint(cw, out.String())
	if len(a.site.Routes()) > 0 {
		fmt.Fprintln(cw)
		renderRoutes(cw, w, a.site.Routes(), 80)
	}
	fmt.Fprintln(cw)
}

// PrintRoutes writes the deployed routes as a table.
func (a *App) PrintRoutes(w io.Writer) {
	PrintRoutes(w, a.site.Routes())
}

// PrintRoutes writes routes as a table.
func PrintRoutes(w io.Writer, routes []engine.RouteInfo) {
	if len(routes) == 0 {
		fmt.Fprintln(w, "No routes registered")
		return
	}
	renderRoutes(colorWriter(w), w, routes, 120)
}

func renderRoutes(cw io.Writer, target io.Writer, routes []engine.RouteInfo, width int) {
	rows := make([][]string, 0, len(routes))
	minWidth := 2 + 4 + 10
	cols := []int{len("Methods"), len("Path"), len("Path-info"), len("Element"), len("Strategy")}
	for _, r := range routes {
		methods := "ANY"
		if len(r.Methods) > 0 {
			styled := make([]string, len(r.Methods))
			for i, m := range r.Methods {
				styled[i] = m
				if c, ok := methodColors[m]; ok {
					styled[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(true).Render(m)
				}
			}
			methods = strings.Join(styled, ",")
		}
		pathInfo := r.PathInfo
		if pathInfo == "" {
			pathInfo = "-"
		}
		element := r.ElementID
		if r.Name != "" {
			element += " (" + r.Name + ")"
		}
		row := []string{methods, r.Path, pathInfo, element, r.Strategy}
		cols[0] = max(cols[0], len(strings.Join(r.Methods, ",")))
		for i := 1; i < len(row); i++ {
			cols[i] = max(cols[i], len(row[i]))
		}
		rows = append(rows, row)
	}
	for _, c := range cols {
		minWidth += c
	}

	tableWidth := max(minWidth, width)
	if f, ok := target.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			tableWidth = min(tableWidth, tw)
		}
	}
	tableWidth = max(60, tableWidth)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				style = style.Bold(true).Foreground(lipgloss.Color("230"))
			}
			return style
		}).
		Headers("Methods", "Path", "Path-info", "Element", "Strategy").
		Rows(rows...).
		Width(tableWidth)

	fmt.Fprintln(cw, t.Render())
}

func onOff(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
