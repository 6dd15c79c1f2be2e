/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package pdfsurface renders a recorded frame into a single-page PDF.
package pdfsurface

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"patchwire/internal/draw"
	"patchwire/internal/vector"
)

// Surface buffers a frame and writes it as a PDF page of the given size in
// points, one point per window pixel.
type Surface struct {
	draw.Recorder
	W, H       float64
	Title      string
	Background vector.Color
}

// New returns an empty surface.
func New(w, h float64) *Surface {
	return &Surface{W: w, H: h, Title: "patchwire graph", Background: vector.RGB(30, 32, 36)}
}

// WriteFile writes the recorded frame to path, creating the directory.
func (s *Surface) WriteFile(path string) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: s.W, Ht: s.H},
	})
	pdf.SetTitle(s.Title, false)
	pdf.SetAuthor("patchwire", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 9)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: s.W, Ht: s.H})

	setFillColor(pdf, s.Background)
	pdf.Rect(0, 0, s.W, s.H, "F")

	s.Replay(&painter{pdf: pdf})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// painter issues primitives straight into gofpdf.
type painter struct {
	pdf *gofpdf.Fpdf
}

func (p *painter) SetChannel(draw.Channel) {}

func (p *painter) stroke(s vector.Stroke) bool {
	if !s.Enabled {
		return false
	}
	setDrawColor(p.pdf, s.Color)
	p.pdf.SetLineWidth(float64(s.Width))
	return true
}

func (p *painter) fill(f vector.Fill) bool {
	if !f.Enabled {
		return false
	}
	setFillColor(p.pdf, f.Color)
	return true
}

func style(fill, stroke bool) string {
	switch {
	case fill && stroke:
		return "FD"
	case fill:
		return "F"
	case stroke:
		return "D"
	}
	return ""
}

func (p *painter) Line(a, b vector.Pt, s vector.Stroke) {
	if p.stroke(s) {
		p.pdf.Line(float64(a.X), float64(a.Y), float64(b.X), float64(b.Y))
	}
}

func (p *painter) Rect(r vector.Rect, s vector.Stroke) {
	if p.stroke(s) {
		p.pdf.Rect(float64(r.X), float64(r.Y), float64(r.W), float64(r.H), "D")
	}
}

func (p *painter) FillRect(r vector.Rect, f vector.Fill) {
	if p.fill(f) {
		p.withAlpha(f.Color.A, func() {
			p.pdf.Rect(float64(r.X), float64(r.Y), float64(r.W), float64(r.H), "F")
		})
	}
}

func (p *painter) Circle(c vector.Pt, radius float32, f vector.Fill, s vector.Stroke) {
	if st := style(p.fill(f), p.stroke(s)); st != "" {
		p.pdf.Circle(float64(c.X), float64(c.Y), float64(radius), st)
	}
}

func (p *painter) Bezier(c vector.Cubic, s vector.Stroke) {
	if p.stroke(s) {
		p.pdf.CurveBezierCubic(
			float64(c.P0.X), float64(c.P0.Y),
			float64(c.P1.X), float64(c.P1.Y),
			float64(c.P2.X), float64(c.P2.Y),
			float64(c.P3.X), float64(c.P3.Y), "D")
	}
}

func (p *painter) Text(at vector.Pt, s string, c vector.Color) {
	p.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	p.pdf.Text(float64(at.X), float64(at.Y), s)
}

func (p *painter) withAlpha(a uint8, fn func()) {
	if a == 255 {
		fn()
		return
	}
	p.pdf.SetAlpha(float64(a)/255, "Normal")
	fn()
	p.pdf.SetAlpha(1, "Normal")
}

func setDrawColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
