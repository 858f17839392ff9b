package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFontName selects the Go font family embedded in the binary.
const DefaultFontName = "Go"

// fontStyles maps fpdf style strings to the file name suffixes tried for
// each style.
var fontStyles = []struct {
	style    string
	suffixes []string
}{
	{"", []string{"", "-Regular", "-Book", "-Roman"}},
	{"B", []string{"-Bold", "Bold", "-bold"}},
	{"I", []string{"-Oblique", "-Italic", "Italic", "-italic"}},
	{"BI", []string{"-BoldOblique", "-BoldItalic", "BoldItalic"}},
}

// registerFonts makes name available in all styles and returns the
// family to pass to SetFont. Styles missing on disk fall back to the
// regular face.
func registerFonts(f *fpdf.Fpdf, name string, dirs []string) (string, error) {
	if name == "" || strings.EqualFold(name, DefaultFontName) {
		f.AddUTF8FontFromBytes("go", "", goregular.TTF)
		f.AddUTF8FontFromBytes("go", "B", gobold.TTF)
		f.AddUTF8FontFromBytes("go", "I", goitalic.TTF)
		f.AddUTF8FontFromBytes("go", "BI", gobolditalic.TTF)
		return "go", f.Error()
	}

	family := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	var regular []byte
	for _, st := range fontStyles {
		data := findFont(name, st.suffixes, dirs)
		if st.style == "" {
			if data == nil {
				return "", fmt.Errorf("font %q not found in %v", name, dirs)
			}
			regular = data
		}
		if data == nil {
			data = regular
		}
		f.AddUTF8FontFromBytes(family, st.style, data)
	}
	return family, f.Error()
}

func findFont(name string, suffixes, dirs []string) []byte {
	bases := []string{name, strings.ReplaceAll(name, " ", ""), strings.ReplaceAll(name, " ", "-")}
	for _, dir := range dirs {
		for _, base := range bases {
			for _, suffix := range suffixes {
				for _, ext := range []string{".ttf", ".TTF", ".otf"} {
					data, err := os.ReadFile(filepath.Join(dir, base+suffix+ext))
					if err == nil {
						return data
					}
				}
			}
		}
	}
	return nil
}
