package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/experiment"
)

const background = "#0a0a0a"

// FrameToSVG renders one particle snapshot of a world centred on the
// origin. Each particle is filled with its tag at its opacity.
func FrameToSVG(particles []body.Particle, width, height float64) string {
	var sb strings.Builder
	writeHeader(&sb, width, height)
	writeParticles(&sb, particles)
	sb.WriteString("</svg>\n")
	return sb.String()
}

// TrailsToSVG renders the path of every particle across frames, with the
// last frame drawn on top. Particles are matched by position in the
// snapshot, which follows entity order.
func TrailsToSVG(frames []experiment.Frame, width, height float64) string {
	var sb strings.Builder
	writeHeader(&sb, width, height)

	if len(frames) > 1 {
		sb.WriteString(`<g fill="none" stroke-width="1" stroke-opacity="0.35">` + "\n")
		for i := range frames[0].Particles {
			stroke := frames[0].Particles[i].Tag
			if stroke == "" {
				stroke = "#ffffff"
			}
			sb.WriteString(fmt.Sprintf(`<path stroke="%s" d="M`, stroke))
			for j, f := range frames {
				if i >= len(f.Particles) {
					break
				}
				p := f.Particles[i].Position
				if j == 0 {
					sb.WriteString(fmt.Sprintf("%.1f,%.1f", p.X, p.Y))
				} else {
					sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", p.X, p.Y))
				}
			}
			sb.WriteString(`"/>` + "\n")
		}
		sb.WriteString("</g>\n")
	}

	if len(frames) > 0 {
		writeParticles(&sb, frames[len(frames)-1].Particles)
	}
	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteTrails writes TrailsToSVG to w.
func WriteTrails(w io.Writer, frames []experiment.Frame, width, height float64) error {
	_, err := io.WriteString(w, TrailsToSVG(frames, width, height))
	return err
}

func writeHeader(sb *strings.Builder, width, height float64) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="%.1f %.1f %.1f %.1f">
<rect x="%.1f" y="%.1f" width="100%%" height="100%%" fill="%s"/>
`, width, height, -width/2, -height/2, width, height, -width/2, -height/2, background))
}

func writeParticles(sb *strings.Builder, particles []body.Particle) {
	sb.WriteString("<g>\n")
	for _, p := range particles {
		fill := p.Tag
		if fill == "" {
			fill = "#ffffff"
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.2f" fill="%s" fill-opacity="%.2f"/>
`, p.Position.X, p.Position.Y, p.Radius, fill, p.Opacity))
	}
	sb.WriteString("</g>\n")
}
