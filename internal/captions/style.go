package captions

import (
	"strconv"
	"strings"

	"gymcut/internal/config"
)

// Style is an ASS V4+ style. Colours use the &HAABBGGRR notation.
type Style struct {
	Name            string
	Fontname        string
	Fontsize        float64
	PrimaryColour   string
	SecondaryColour string
	OutlineColour   string
	BackColour      string
	Bold            bool
	Italic          bool
	Underline       bool
	StrikeOut       bool
	ScaleX          float64
	ScaleY          float64
	Spacing         float64
	Angle           float64
	BorderStyle     int
	Outline         float64
	Shadow          float64
	Alignment       int
	MarginL         int
	MarginR         int
	MarginV         int
	Encoding        int
}

const styleFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"

// DefaultStyle is white Arial 48 with a thin black outline, bottom centred.
func DefaultStyle() Style {
	return Style{
		Name:            "Default",
		Fontname:        "Arial",
		Fontsize:        48,
		PrimaryColour:   "&H00FFFFFF",
		SecondaryColour: "&H0000FFFF",
		OutlineColour:   "&H00000000",
		BackColour:      "&H64000000",
		ScaleX:          100,
		ScaleY:          100,
		BorderStyle:     1,
		Outline:         2,
		Shadow:          0,
		Alignment:       2,
		MarginL:         30,
		MarginR:         30,
		MarginV:         60,
		Encoding:        1,
	}
}

// StyleFromConfig overlays the configured caption style on DefaultStyle.
func StyleFromConfig(c config.Captions) Style {
	style := DefaultStyle()
	if c.FontName != "" {
		style.Fontname = c.FontName
	}
	if c.FontSize > 0 {
		style.Fontsize = float64(c.FontSize)
	}
	if c.PrimaryColour != "" {
		style.PrimaryColour = c.PrimaryColour
	}
	if c.SecondaryColour != "" {
		style.SecondaryColour = c.SecondaryColour
	}
	if c.OutlineColour != "" {
		style.OutlineColour = c.OutlineColour
	}
	if c.BackColour != "" {
		style.BackColour = c.BackColour
	}
	style.Bold = c.Bold
	style.Italic = c.Italic
	style.Outline = c.Outline
	style.Shadow = c.Shadow
	if c.Alignment > 0 {
		style.Alignment = c.Alignment
	}
	style.MarginL = c.MarginL
	style.MarginR = c.MarginR
	style.MarginV = c.MarginV
	return style
}

// Line renders the "Style:" line.
func (s Style) Line() string {
	fields := []string{
		s.Name,
		s.Fontname,
		num(s.Fontsize),
		s.PrimaryColour,
		s.SecondaryColour,
		s.OutlineColour,
		s.BackColour,
		flag(s.Bold),
		flag(s.Italic),
		flag(s.Underline),
		flag(s.StrikeOut),
		num(s.ScaleX),
		num(s.ScaleY),
		num(s.Spacing),
		num(s.Angle),
		strconv.Itoa(s.BorderStyle),
		num(s.Outline),
		num(s.Shadow),
		strconv.Itoa(s.Alignment),
		strconv.Itoa(s.MarginL),
		strconv.Itoa(s.MarginR),
		strconv.Itoa(s.MarginV),
		strconv.Itoa(s.Encoding),
	}
	return "Style: " + strings.Join(fields, ",")
}

// ASS uses -1 for true.
func flag(v bool) string {
	if v {
		return "-1"
	}
	return "0"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
