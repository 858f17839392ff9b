// Package pdfedit rewrites finished PDF files in place through the pdfcpu
// object model.
package pdfedit

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	// pdfcpu would otherwise create a configuration directory on first use
	api.DisableConfigDir()
}

// Page is a leaf of the page tree with its inherited attributes resolved.
type Page struct {
	Ref       types.IndirectRef
	Dict      types.Dict
	MediaBox  types.Array
	Resources types.Dict
}

// Read loads and validates the PDF at path.
func Read(path string) (*model.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return ctx, nil
}

// Edit reads the PDF at path, lets fn modify its objects and writes the
// result back over the file. The file is replaced only when fn and the
// serialization succeed.
//
// pdfcpu only follows references from entries it knows about when writing.
// An indirect object reachable solely through a custom key, say a private
// catalog entry, is dropped and the key left dangling. Store such data as
// direct objects or under standard keys.
func Edit(path string, fn func(ctx *model.Context) error) error {
	ctx, err := Read(path)
	if err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdfedit-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Pages returns the leaves of the page tree in document order.
func Pages(ctx *model.Context) ([]Page, error) {
	root, err := ctx.Catalog()
	if err != nil {
		return nil, err
	}
	ref, ok := root["Pages"].(types.IndirectRef)
	if !ok {
		return nil, errors.New("catalog has no page tree")
	}
	var pages []Page
	err = walkPages(ctx, ref, nil, nil, &pages, map[int]bool{})
	return pages, err
}

func walkPages(ctx *model.Context, ref types.IndirectRef, box types.Array, res types.Dict, out *[]Page, seen map[int]bool) error {
	if seen[ref.ObjectNumber.Value()] {
		return fmt.Errorf("page tree cycle at object %d", ref.ObjectNumber.Value())
	}
	seen[ref.ObjectNumber.Value()] = true

	d, err := ctx.DereferenceDict(ref)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("page tree node %d is not a dictionary", ref.ObjectNumber.Value())
	}
	if o, ok := d["MediaBox"]; ok {
		if a, err := ctx.DereferenceArray(o); err == nil && a != nil {
			box = a
		}
	}
	if o, ok := d["Resources"]; ok {
		if r, err := ctx.DereferenceDict(o); err == nil && r != nil {
			res = r
		}
	}

	kids, ok := d["Kids"]
	if !ok {
		*out = append(*out, Page{Ref: ref, Dict: d, MediaBox: box, Resources: res})
		return nil
	}
	arr, err := ctx.DereferenceArray(kids)
	if err != nil {
		return err
	}
	for _, k := range arr {
		kr, ok := k.(types.IndirectRef)
		if !ok {
			return errors.New("page tree kid is not a reference")
		}
		if err := walkPages(ctx, kr, box, res, out, seen); err != nil {
			return err
		}
	}
	return nil
}

// NewObject stores obj as a new indirect object.
func NewObject(ctx *model.Context, obj types.Object) (types.IndirectRef, error) {
	ref, err := ctx.IndRefForNewObject(obj)
	if err != nil {
		return types.IndirectRef{}, err
	}
	return *ref, nil
}

// NewStream stores data as a new unfiltered stream object.
func NewStream(ctx *model.Context, data []byte) (types.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf(data)
	if err != nil {
		return types.IndirectRef{}, err
	}
	sd.FilterPipeline = nil
	delete(sd.Dict, "Filter")
	if err := sd.Encode(); err != nil {
		return types.IndirectRef{}, err
	}
	return NewObject(ctx, *sd)
}

// Floats returns a PDF array of reals.
func Floats(vs ...float64) types.Array {
	a := make(types.Array, len(vs))
	for i, v := range vs {
		a[i] = types.Float(v)
	}
	return a
}

// Numbers converts a dereferenced array of integers and reals.
func Numbers(ctx *model.Context, o types.Object) ([]float64, error) {
	a, err := ctx.DereferenceArray(o)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(a))
	for _, o := range a {
		v, err := ctx.Dereference(o)
		if err != nil {
			return nil, err
		}
		switch n := v.(type) {
		case types.Integer:
			out = append(out, float64(n.Value()))
		case types.Float:
			out = append(out, n.Value())
		default:
			return nil, fmt.Errorf("%v is not a number", v)
		}
	}
	return out, nil
}

// TextString encodes s as a PDF text string: a literal for ASCII, UTF-16BE
// with a byte order mark otherwise.
func TextString(s string) types.Object {
	ascii := true
	for _, r := range s {
		if r > 0x7e || r < 0x20 {
			ascii = false
			break
		}
	}
	if ascii {
		r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
		return types.StringLiteral(r.Replace(s))
	}
	var sb strings.Builder
	sb.WriteString("FEFF")
	for _, u := range utf16.Encode([]rune(s)) {
		fmt.Fprintf(&sb, "%04X", u)
	}
	return types.HexLiteral(sb.String())
}

// RequireVersion raises the document version declared in the catalog to
// at least v, a "major.minor" string.
func RequireVersion(ctx *model.Context, v string) error {
	root, err := ctx.Catalog()
	if err != nil {
		return err
	}
	if cur, ok := root["Version"].(types.Name); ok && string(cur) >= v {
		return nil
	}
	root["Version"] = types.Name(v)
	return nil
}
