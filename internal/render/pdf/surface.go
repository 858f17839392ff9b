// Package pdf implements a vector drawing surface that writes PDF through
// fpdf. Coordinates are PDF points with the origin at the top left corner
// of the page and Y growing downwards. The current transformation matrix,
// colors and line settings are tracked on the Go side so that drawing code
// can save and restore state freely; only clipping emits PDF q/Q pairs.
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"

	"codeberg.org/go-pdf/fpdf"
	"github.com/charmbracelet/log"
	"seehuhn.de/go/geom/matrix"

	"github.com/mapprint/mapprint/internal/raster"
)

// Options configures a Surface.
type Options struct {
	// FontName selects the text font. DefaultFontName uses the embedded
	// Go fonts, anything else is looked up in FontDirs.
	FontName string
	FontDirs []string

	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string

	// NoCompression writes content streams uncompressed.
	NoCompression bool

	Logger *log.Logger
}

// FontStyle selects a face of the surface font.
type FontStyle string

const (
	Regular    FontStyle = ""
	Bold       FontStyle = "B"
	Italic     FontStyle = "I"
	BoldItalic FontStyle = "BI"
)

type segment struct {
	op  byte // m, l, c or h
	pts [3][2]float64
}

type gstate struct {
	ctm       matrix.Matrix
	r, g, b   float64
	alpha     float64
	lineWidth float64
	dash      []float64
	fontStyle FontStyle
	// clips added at this level, in device coordinates
	clips [][]fpdf.PointType
}

// Surface is a multi page PDF drawing surface.
type Surface struct {
	pdf    *fpdf.Fpdf
	width  float64
	height float64
	family string
	logger *log.Logger

	gs    gstate
	stack []gstate

	path   []segment
	hasCur bool
	curX   float64
	curY   float64
	startX float64
	startY float64
	pageOn bool
	pages  int
	images map[image.Image]string
	closed bool
}

// New creates a surface with pages of width x height points.
func New(width, height float64, opts Options) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid page size %gx%g", width, height)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	f := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	f.SetMargins(0, 0, 0)
	f.SetAutoPageBreak(false, 0)
	f.SetCompression(!opts.NoCompression)
	f.SetTitle(opts.Title, true)
	f.SetAuthor(opts.Author, true)
	f.SetSubject(opts.Subject, true)
	f.SetKeywords(opts.Keywords, true)
	f.SetCreator(opts.Creator, true)
	f.SetProducer(opts.Producer, true)

	family, err := registerFonts(f, opts.FontName, opts.FontDirs)
	if err != nil {
		logger.Warn("falling back to default font", "font", opts.FontName, "err", err)
		f.ClearError()
		if family, err = registerFonts(f, DefaultFontName, nil); err != nil {
			return nil, fmt.Errorf("register fonts: %w", err)
		}
	}

	s := &Surface{
		pdf:    f,
		width:  width,
		height: height,
		family: family,
		logger: logger,
		images: map[image.Image]string{},
	}
	s.gs = gstate{ctm: matrix.Identity, alpha: 1, lineWidth: 1}
	return s, nil
}

// Width returns the page width in points.
func (s *Surface) Width() float64 { return s.width }

// Height returns the page height in points.
func (s *Surface) Height() float64 { return s.height }

// PageCount returns the number of pages started so far.
func (s *Surface) PageCount() int { return s.pages }

// Err returns the first error recorded by the PDF writer.
func (s *Surface) Err() error { return s.pdf.Error() }

// Save pushes the graphics state.
func (s *Surface) Save() {
	saved := s.gs
	saved.dash = append([]float64(nil), s.gs.dash...)
	s.stack = append(s.stack, saved)
	s.gs.clips = nil
}

// Restore pops the graphics state pushed by the matching Save.
func (s *Surface) Restore() {
	if len(s.stack) == 0 {
		return
	}
	if s.pageOn {
		for range s.gs.clips {
			s.pdf.ClipEnd()
		}
	}
	s.gs = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}

// Translate moves the user space origin.
func (s *Surface) Translate(tx, ty float64) {
	s.transform(matrix.Translate(tx, ty))
}

// Scale scales user space.
func (s *Surface) Scale(sx, sy float64) {
	s.transform(matrix.Scale(sx, sy))
}

// Rotate rotates user space by rad radians. Positive angles turn the x
// axis towards the y axis, clockwise on the page.
func (s *Surface) Rotate(rad float64) {
	s.transform(rotation(rad))
}

func (s *Surface) transform(m matrix.Matrix) {
	s.gs.ctm = then(m, s.gs.ctm)
}

// SetSourceRGB sets an opaque drawing color with components in [0, 1].
func (s *Surface) SetSourceRGB(r, g, b float64) {
	s.SetSourceRGBA(r, g, b, 1)
}

// SetSourceRGBA sets the drawing color with components in [0, 1].
func (s *Surface) SetSourceRGBA(r, g, b, a float64) {
	s.gs.r, s.gs.g, s.gs.b, s.gs.alpha = clamp01(r), clamp01(g), clamp01(b), clamp01(a)
}

// SetLineWidth sets the stroke width in user units.
func (s *Surface) SetLineWidth(w float64) {
	s.gs.lineWidth = w
}

// SetDash sets the dash pattern in user units. An empty pattern draws
// solid lines.
func (s *Surface) SetDash(pattern []float64) {
	s.gs.dash = append(s.gs.dash[:0:0], pattern...)
}

// SetFontStyle selects the face used by ShowText and TextWidth.
func (s *Surface) SetFontStyle(style FontStyle) {
	s.gs.fontStyle = style
}

// NewPath discards the current path.
func (s *Surface) NewPath() {
	s.path = s.path[:0]
	s.hasCur = false
}

// MoveTo starts a new sub-path at (x, y).
func (s *Surface) MoveTo(x, y float64) {
	dx, dy := apply(s.gs.ctm, x, y)
	seg := segment{op: 'm', pts: [3][2]float64{{dx, dy}}}
	if n := len(s.path); n > 0 && s.path[n-1].op == 'm' {
		// consecutive moves collapse into one
		s.path[n-1] = seg
	} else {
		s.path = append(s.path, seg)
	}
	s.setCurrent(dx, dy)
	s.startX, s.startY = dx, dy
}

// RelMoveTo moves the current point by (dx, dy) in user units.
func (s *Surface) RelMoveTo(dx, dy float64) {
	x, y := s.CurrentPoint()
	s.MoveTo(x+dx, y+dy)
}

// LineTo adds a straight segment to (x, y).
func (s *Surface) LineTo(x, y float64) {
	if !s.hasCur {
		s.MoveTo(x, y)
		return
	}
	dx, dy := apply(s.gs.ctm, x, y)
	s.path = append(s.path, segment{op: 'l', pts: [3][2]float64{{dx, dy}}})
	s.setCurrent(dx, dy)
}

// CurveTo adds a cubic Bézier segment.
func (s *Surface) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	if !s.hasCur {
		s.MoveTo(x1, y1)
	}
	var seg segment
	seg.op = 'c'
	seg.pts[0][0], seg.pts[0][1] = apply(s.gs.ctm, x1, y1)
	seg.pts[1][0], seg.pts[1][1] = apply(s.gs.ctm, x2, y2)
	seg.pts[2][0], seg.pts[2][1] = apply(s.gs.ctm, x3, y3)
	s.path = append(s.path, seg)
	s.setCurrent(seg.pts[2][0], seg.pts[2][1])
}

// ClosePath closes the current sub-path.
func (s *Surface) ClosePath() {
	if !s.hasCur {
		return
	}
	s.path = append(s.path, segment{op: 'h'})
	s.setCurrent(s.startX, s.startY)
}

// Rectangle adds a closed rectangular sub-path.
func (s *Surface) Rectangle(x, y, w, h float64) {
	s.MoveTo(x, y)
	s.LineTo(x+w, y)
	s.LineTo(x+w, y+h)
	s.LineTo(x, y+h)
	s.ClosePath()
}

// Arc adds a full circle as a new sub-path.
func (s *Surface) Arc(xc, yc, r float64) {
	// control point distance for a quarter circle
	k := r * 4 * (math.Sqrt2 - 1) / 3
	s.MoveTo(xc+r, yc)
	s.CurveTo(xc+r, yc+k, xc+k, yc+r, xc, yc+r)
	s.CurveTo(xc-k, yc+r, xc-r, yc+k, xc-r, yc)
	s.CurveTo(xc-r, yc-k, xc-k, yc-r, xc, yc-r)
	s.CurveTo(xc+k, yc-r, xc+r, yc-k, xc+r, yc)
	s.ClosePath()
}

// CurrentPoint returns the current point in user units.
func (s *Surface) CurrentPoint() (x, y float64) {
	if !s.hasCur {
		return 0, 0
	}
	inv, ok := invert(s.gs.ctm)
	if !ok {
		return 0, 0
	}
	return apply(inv, s.curX, s.curY)
}

// HasCurrentPoint reports whether a current point is set.
func (s *Surface) HasCurrentPoint() bool { return s.hasCur }

func (s *Surface) setCurrent(dx, dy float64) {
	s.curX, s.curY, s.hasCur = dx, dy, true
}

// Fill fills the current path with the nonzero winding rule and clears it.
func (s *Surface) Fill() {
	s.paint("f", true)
}

// FillEvenOdd fills the current path with the even-odd rule and clears it.
func (s *Surface) FillEvenOdd() {
	s.paint("f*", true)
}

// FillPreserve fills the current path and keeps it.
func (s *Surface) FillPreserve() {
	s.paint("f", false)
}

// Stroke strokes the current path and clears it.
func (s *Surface) Stroke() {
	s.paint("S", true)
}

func (s *Surface) paint(op string, clear bool) {
	if len(s.path) == 0 {
		return
	}
	s.ensurePage()
	r, g, b := s.rgb255()
	switch op {
	case "S":
		scale := lengthScale(s.gs.ctm)
		s.pdf.SetDrawColor(r, g, b)
		s.pdf.SetLineWidth(s.gs.lineWidth * scale)
		dash := make([]float64, len(s.gs.dash))
		for i, d := range s.gs.dash {
			dash[i] = d * scale
		}
		s.pdf.SetDashPattern(dash, 0)
	default:
		s.pdf.SetFillColor(r, g, b)
	}
	s.withAlpha(func() {
		s.emitPath()
		s.pdf.DrawPath(op)
	})
	if clear {
		s.NewPath()
	}
}

func (s *Surface) emitPath() {
	for _, seg := range s.path {
		switch seg.op {
		case 'm':
			s.pdf.MoveTo(seg.pts[0][0], seg.pts[0][1])
		case 'l':
			s.pdf.LineTo(seg.pts[0][0], seg.pts[0][1])
		case 'c':
			s.pdf.CurveBezierCubicTo(seg.pts[0][0], seg.pts[0][1], seg.pts[1][0], seg.pts[1][1], seg.pts[2][0], seg.pts[2][1])
		case 'h':
			s.pdf.ClosePath()
		}
	}
}

func (s *Surface) withAlpha(draw func()) {
	if s.gs.alpha >= 1 {
		draw()
		return
	}
	s.pdf.SetAlpha(s.gs.alpha, "Normal")
	draw()
	s.pdf.SetAlpha(1, "Normal")
}

// Clip intersects the clip region with the first sub-path of the current
// path, flattened to a polygon, and clears the path. The clip lasts until
// the matching Restore.
func (s *Surface) Clip() {
	var poly []fpdf.PointType
	subpaths := 0
	for _, seg := range s.path {
		if seg.op == 'm' {
			subpaths++
		}
		if subpaths > 1 {
			break
		}
		switch seg.op {
		case 'm':
			poly = append(poly, fpdf.PointType{X: seg.pts[0][0], Y: seg.pts[0][1]})
		case 'l':
			poly = append(poly, fpdf.PointType{X: seg.pts[0][0], Y: seg.pts[0][1]})
		case 'c':
			poly = append(poly, fpdf.PointType{X: seg.pts[2][0], Y: seg.pts[2][1]})
		}
	}
	s.NewPath()
	if len(poly) < 3 {
		return
	}
	s.gs.clips = append(s.gs.clips, poly)
	if s.pageOn {
		s.pdf.ClipPolygon(poly, false)
	}
}

// ShowText draws text with its baseline starting at (x, y) in the current
// color, font style and transformation.
func (s *Surface) ShowText(x, y float64, text string, size float64) {
	if text == "" || size <= 0 {
		return
	}
	s.ensurePage()
	px, py := apply(s.gs.ctm, x, y)
	devSize := size * lengthScale(s.gs.ctm)
	r, g, b := s.rgb255()

	s.pdf.SetFont(s.family, string(s.gs.fontStyle), devSize)
	s.pdf.SetFillColor(r, g, b)
	s.pdf.SetTextColor(r, g, b)

	s.withAlpha(func() {
		rot := angle(s.gs.ctm)
		if math.Abs(rot) < 1e-9 {
			s.pdf.Text(px, py, text)
			return
		}
		s.pdf.TransformBegin()
		s.pdf.TransformRotate(-rot*180/math.Pi, px, py)
		s.pdf.Text(px, py, text)
		s.pdf.TransformEnd()
	})
}

// TextWidth returns the advance width of text at size in user units.
func (s *Surface) TextWidth(text string, size float64) float64 {
	return s.TextWidthStyle(text, size, s.gs.fontStyle)
}

// TextWidthStyle is TextWidth for an explicit font style.
func (s *Surface) TextWidthStyle(text string, size float64, style FontStyle) float64 {
	if text == "" || size <= 0 {
		return 0
	}
	s.pdf.SetFont(s.family, string(style), size)
	return s.pdf.GetStringWidth(text)
}

// DrawImage draws img stretched over the user space rectangle. Rotation in
// the current transformation is ignored.
func (s *Surface) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil || w == 0 || h == 0 {
		return
	}
	s.ensurePage()
	name, ok := s.images[img]
	if !ok {
		data, err := raster.EncodePNG(img)
		if err != nil {
			s.pdf.SetError(err)
			return
		}
		name = fmt.Sprintf("img%d", len(s.images)+1)
		s.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
		s.images[img] = name
	}
	x0, y0 := apply(s.gs.ctm, x, y)
	x1, y1 := apply(s.gs.ctm, x+w, y+h)
	s.withAlpha(func() {
		s.pdf.ImageOptions(name, math.Min(x0, x1), math.Min(y0, y1), math.Abs(x1-x0), math.Abs(y1-y0),
			false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	})
}

// ShowPage ends the current page. The next page is started by the next
// drawing operation, so a trailing ShowPage leaves no empty page behind.
func (s *Surface) ShowPage() {
	s.ensurePage()
	for range s.activeClips() {
		s.pdf.ClipEnd()
	}
	s.pageOn = false
}

// BeginPage starts a page unless one is already open, so that an
// otherwise empty page still ends up in the document.
func (s *Surface) BeginPage() { s.ensurePage() }

func (s *Surface) activeClips() [][]fpdf.PointType {
	var all [][]fpdf.PointType
	for _, st := range s.stack {
		all = append(all, st.clips...)
	}
	return append(all, s.gs.clips...)
}

func (s *Surface) ensurePage() {
	if s.pageOn {
		return
	}
	s.pdf.AddPage()
	s.pages++
	s.pageOn = true
	for _, poly := range s.activeClips() {
		s.pdf.ClipPolygon(poly, false)
	}
}

// Close finishes the document and writes it to w.
func (s *Surface) Close(w io.Writer) error {
	if s.closed {
		return fmt.Errorf("surface already closed")
	}
	s.closed = true
	s.endClips()
	if err := s.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// CloseFile finishes the document and writes it to path, creating the
// parent directory when needed.
func (s *Surface) CloseFile(path string) error {
	if s.closed {
		return fmt.Errorf("surface already closed")
	}
	s.closed = true
	s.endClips()

	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := s.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (s *Surface) endClips() {
	if s.pageOn {
		for range s.activeClips() {
			s.pdf.ClipEnd()
		}
	}
	s.stack = nil
	s.gs.clips = nil
}

func (s *Surface) rgb255() (int, int, int) {
	return int(s.gs.r*255 + 0.5), int(s.gs.g*255 + 0.5), int(s.gs.b*255 + 0.5)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
