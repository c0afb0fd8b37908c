package text

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/fogleman/gg"
)

// Measurer reports the advance width of a text run in pixels for the given
// font parameters.
type Measurer interface {
	Measure(text, family string, size float64, bold, italic bool) float64
}

// FontConfig holds paths to the font files used for measurement.
type FontConfig struct {
	Regular    string
	Bold       string
	Italic     string
	BoldItalic string
	Monospace  string
}

// defaultFontsDir returns the fonts directory relative to the executable,
// falling back to the compile-time source location.
func defaultFontsDir() string {
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Join(filepath.Dir(exe), "..", "fonts")
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "fonts")
}

// DefaultFontConfig returns a FontConfig using the bundled fonts.
func DefaultFontConfig() FontConfig {
	dir := defaultFontsDir()
	return FontConfig{
		Regular:    filepath.Join(dir, "AtkinsonHyperlegible-Regular.ttf"),
		Bold:       filepath.Join(dir, "AtkinsonHyperlegible-Bold.ttf"),
		Italic:     filepath.Join(dir, "AtkinsonHyperlegible-Italic.ttf"),
		BoldItalic: filepath.Join(dir, "AtkinsonHyperlegible-BoldItalic.ttf"),
		Monospace:  filepath.Join(dir, "AtkinsonHyperlegibleMono-Regular.otf"),
	}
}

// FontPath returns the font path for the given style combination.
func (fc FontConfig) FontPath(family string, bold, italic bool) string {
	if isMonospaceFamily(family) && fc.Monospace != "" {
		return fc.Monospace
	}
	if bold && italic && fc.BoldItalic != "" {
		return fc.BoldItalic
	}
	if bold && fc.Bold != "" {
		return fc.Bold
	}
	if italic && fc.Italic != "" {
		return fc.Italic
	}
	return fc.Regular
}

func isMonospaceFamily(family string) bool {
	switch strings.ToLower(family) {
	case "monospace", "courier", "courier new", "consolas", "menlo":
		return true
	}
	return false
}

// GGMeasurer measures text by rendering with loaded font faces. Contexts
// are cached per font path and size. When a font cannot be loaded the
// width falls back to a rough per-character estimate.
type GGMeasurer struct {
	Fonts FontConfig

	mu    sync.Mutex
	cache map[string]*gg.Context
}

func NewGGMeasurer() *GGMeasurer {
	return &GGMeasurer{Fonts: DefaultFontConfig()}
}

func (m *GGMeasurer) Measure(text, family string, size float64, bold, italic bool) float64 {
	path := m.Fonts.FontPath(family, bold, italic)
	dc := m.context(path, size)
	if dc == nil {
		return estimateWidth(text, size)
	}
	w, _ := dc.MeasureString(text)
	return w
}

func (m *GGMeasurer) context(path string, size float64) *gg.Context {
	key := fmt.Sprintf("%s@%g", path, size)
	m.mu.Lock()
	defer m.mu.Unlock()
	if dc, ok := m.cache[key]; ok {
		return dc
	}
	if m.cache == nil {
		m.cache = map[string]*gg.Context{}
	}
	dc := gg.NewContext(1, 1)
	if err := dc.LoadFontFace(path, size); err != nil {
		m.cache[key] = nil
		return nil
	}
	m.cache[key] = dc
	return dc
}

// estimateWidth is the fallback when no font face is available.
func estimateWidth(text string, size float64) float64 {
	return float64(len(text)) * size * 0.6
}

// FixedMeasurer gives every rune the same advance width. Useful in tests
// where exact wrap positions must be predictable.
type FixedMeasurer struct {
	Advance float64
}

func (m FixedMeasurer) Measure(text, family string, size float64, bold, italic bool) float64 {
	return float64(len([]rune(text))) * m.Advance
}
