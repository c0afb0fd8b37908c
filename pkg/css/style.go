package css

import (
	"strconv"
	"strings"
)

// DefaultFontSize is the fallback font size in pixels.
const DefaultFontSize = 16

// Style is the computed property set for one element after cascading.
type Style struct {
	Properties map[string]string
}

func NewStyle() *Style {
	return &Style{Properties: map[string]string{}}
}

// Set stores a property value, expanding the margin and padding shorthands
// into their per-side properties.
func (s *Style) Set(property, value string) {
	switch property {
	case "margin", "padding":
		top, right, bottom, left, ok := expandShorthand(value)
		if !ok {
			return
		}
		s.Properties[property+"-top"] = top
		s.Properties[property+"-right"] = right
		s.Properties[property+"-bottom"] = bottom
		s.Properties[property+"-left"] = left
	default:
		s.Properties[property] = value
	}
}

// Get returns the raw property value.
func (s *Style) Get(property string) (string, bool) {
	v, ok := s.Properties[property]
	return v, ok
}

// expandShorthand applies the 1-4 value box shorthand rules.
func expandShorthand(value string) (top, right, bottom, left string, ok bool) {
	parts := strings.Fields(value)
	switch len(parts) {
	case 1:
		return parts[0], parts[0], parts[0], parts[0], true
	case 2:
		return parts[0], parts[1], parts[0], parts[1], true
	case 3:
		return parts[0], parts[1], parts[2], parts[1], true
	case 4:
		return parts[0], parts[1], parts[2], parts[3], true
	}
	return "", "", "", "", false
}

// Edge holds per-side lengths in pixels.
type Edge struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// lengthPx parses a length value into pixels. vh units resolve against the
// viewport height; unknown units and keywords yield zero.
func lengthPx(value string, viewportHeight float64) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "auto" {
		return 0
	}
	if strings.HasSuffix(value, "px") {
		n, _ := strconv.ParseFloat(strings.TrimSuffix(value, "px"), 64)
		return n
	}
	if strings.HasSuffix(value, "vh") {
		n, _ := strconv.ParseFloat(strings.TrimSuffix(value, "vh"), 64)
		return n / 100 * viewportHeight
	}
	n, _ := strconv.ParseFloat(value, 64)
	return n
}

// Padding returns the four padding widths in pixels.
func (s *Style) Padding() Edge {
	return Edge{
		Top:    lengthPx(s.Properties["padding-top"], 0),
		Right:  lengthPx(s.Properties["padding-right"], 0),
		Bottom: lengthPx(s.Properties["padding-bottom"], 0),
		Left:   lengthPx(s.Properties["padding-left"], 0),
	}
}

// Margin returns the four margin widths in pixels, resolving vh units
// against the given viewport height. Auto margins contribute zero here;
// see HasAutoHorizontalMargin.
func (s *Style) Margin(viewportHeight float64) Edge {
	return Edge{
		Top:    lengthPx(s.Properties["margin-top"], viewportHeight),
		Right:  lengthPx(s.Properties["margin-right"], viewportHeight),
		Bottom: lengthPx(s.Properties["margin-bottom"], viewportHeight),
		Left:   lengthPx(s.Properties["margin-left"], viewportHeight),
	}
}

// HasAutoHorizontalMargin reports whether both horizontal margins are
// auto, which centers the box in its containing block.
func (s *Style) HasAutoHorizontalMargin() bool {
	return s.Properties["margin-left"] == "auto" && s.Properties["margin-right"] == "auto"
}

// WidthPx returns the explicit width in pixels if one was declared.
// Percentage widths resolve against the viewport width, vw units likewise.
func (s *Style) WidthPx(viewportWidth float64) (float64, bool) {
	v, ok := s.Properties["width"]
	if !ok || v == "auto" {
		return 0, false
	}
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "%") {
		n, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		if err != nil {
			return 0, false
		}
		return n / 100 * viewportWidth, true
	}
	if strings.HasSuffix(v, "vw") {
		n, err := strconv.ParseFloat(strings.TrimSuffix(v, "vw"), 64)
		if err != nil {
			return 0, false
		}
		return n / 100 * viewportWidth, true
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FontSize returns the font size in pixels, defaulting to 16.
func (s *Style) FontSize() float64 {
	v, ok := s.Properties["font-size"]
	if !ok {
		return DefaultFontSize
	}
	if n := lengthPx(v, 0); n > 0 {
		return n
	}
	return DefaultFontSize
}

// FontFamily returns the first family in the font-family list, stripped of
// quotes, defaulting to sans-serif.
func (s *Style) FontFamily() string {
	v, ok := s.Properties["font-family"]
	if !ok {
		return "sans-serif"
	}
	first := strings.TrimSpace(strings.SplitN(v, ",", 2)[0])
	first = strings.Trim(first, `"'`)
	if first == "" {
		return "sans-serif"
	}
	return first
}

// Bold reports whether the font weight is bold (keyword or >= 600).
func (s *Style) Bold() bool {
	v, ok := s.Properties["font-weight"]
	if !ok {
		return false
	}
	if v == "bold" || v == "bolder" {
		return true
	}
	n, err := strconv.ParseFloat(v, 64)
	return err == nil && n >= 600
}

// Italic reports whether the font style is italic or oblique.
func (s *Style) Italic() bool {
	v := s.Properties["font-style"]
	return v == "italic" || v == "oblique"
}

// Color returns the text color value, defaulting to black.
func (s *Style) Color() string {
	if v, ok := s.Properties["color"]; ok {
		return v
	}
	return "black"
}

// BackgroundColor returns the background color value, defaulting to
// transparent.
func (s *Style) BackgroundColor() string {
	if v, ok := s.Properties["background-color"]; ok {
		return v
	}
	return "transparent"
}

// Underline reports whether text-decoration includes underline.
func (s *Style) Underline() bool {
	return strings.Contains(s.Properties["text-decoration"], "underline")
}
