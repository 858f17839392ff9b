// Package ocg turns the pages of a PDF into optional content groups on a
// single page, so that each page becomes a layer a viewer can toggle.
package ocg

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/mapprint/mapprint/internal/pdfedit"
)

var (
	// ErrUnexpectedContents is returned for pages whose /Contents is
	// neither a stream nor an array of streams.
	ErrUnexpectedContents = errors.New("unexpected page contents")
	// ErrNoPages is returned for documents without pages.
	ErrNoPages = errors.New("document has no pages")
)

// DefaultName returns the name of the i-th layer (zero based) when no name
// was supplied.
func DefaultName(i int) string {
	return fmt.Sprintf("Layer %d", i+1)
}

// DefaultOrder returns the z-order of n layers as page indices. With
// reverseAllButLast all pages but the last are listed in reverse order and
// the last page stays at the end; otherwise all pages are reversed.
func DefaultOrder(n int, reverseAllButLast bool) []int {
	if n <= 0 {
		return nil
	}
	order := make([]int, 0, n)
	last := n
	if reverseAllButLast {
		last = n - 1
	}
	for i := last - 1; i >= 0; i-- {
		order = append(order, i)
	}
	if reverseAllButLast {
		order = append(order, n-1)
	}
	return order
}

// Convert rewrites the PDF at path so that its pages become layers of the
// first page. Layer i is named names[i], or "Layer i+1" when names is
// shorter. All pages must share the media box of the first page.
func Convert(path string, names []string, reverseAllButLast bool) error {
	return pdfedit.Edit(path, func(ctx *model.Context) error {
		return convert(ctx, names, reverseAllButLast)
	})
}

func convert(ctx *model.Context, names []string, reverseAllButLast bool) error {
	pages, err := pdfedit.Pages(ctx)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return ErrNoPages
	}
	box, err := pdfedit.Numbers(ctx, pages[0].MediaBox)
	if err != nil {
		return fmt.Errorf("media box: %w", err)
	}

	var (
		contents   types.Array
		resources  = types.Dict{}
		properties = types.Dict{}
		ocgs       = make(types.Array, 0, len(pages))
	)
	for i, p := range pages {
		if i > 0 {
			b, err := pdfedit.Numbers(ctx, p.MediaBox)
			if err != nil {
				return fmt.Errorf("page %d media box: %w", i+1, err)
			}
			if !sameBox(box, b) {
				return fmt.Errorf("page %d: media box %v differs from %v", i+1, b, box)
			}
		}

		tag := fmt.Sprintf("oc%d", i)
		wrapped, err := wrapContents(ctx, p.Dict["Contents"], tag)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		contents = append(contents, wrapped...)
		if err := mergeResources(ctx, resources, p.Resources); err != nil {
			return fmt.Errorf("page %d resources: %w", i+1, err)
		}

		name := DefaultName(i)
		if i < len(names) {
			name = names[i]
		}
		ref, err := pdfedit.NewObject(ctx, types.Dict{
			"Type": types.Name("OCG"),
			"Name": pdfedit.TextString(name),
		})
		if err != nil {
			return err
		}
		properties[tag] = ref
		ocgs = append(ocgs, ref)
	}

	propRef, err := pdfedit.NewObject(ctx, properties)
	if err != nil {
		return err
	}
	resources["Properties"] = propRef

	first := pages[0]
	first.Dict["Contents"] = contents
	first.Dict["Resources"] = resources
	first.Dict["MediaBox"] = pdfedit.Floats(box...)

	if err := keepOnlyPage(ctx, first.Ref, first.Dict); err != nil {
		return err
	}

	order := make(types.Array, 0, len(ocgs))
	for _, i := range DefaultOrder(len(ocgs), reverseAllButLast) {
		order = append(order, ocgs[i])
	}
	view, err := pdfedit.NewObject(ctx, types.Dict{
		"Name":      pdfedit.TextString("Default"),
		"BaseState": types.Name("ON"),
		"ON":        append(types.Array{}, ocgs...),
		"OFF":       types.Array{},
		"Order":     order,
	})
	if err != nil {
		return err
	}
	ocprops, err := pdfedit.NewObject(ctx, types.Dict{
		"OCGs": ocgs,
		"D":    view,
	})
	if err != nil {
		return err
	}
	root, err := ctx.Catalog()
	if err != nil {
		return err
	}
	root["OCProperties"] = ocprops
	return pdfedit.RequireVersion(ctx, "1.5")
}

// wrapContents returns the content streams of a page enclosed in a marked
// content sequence bound to the property tag.
func wrapContents(ctx *model.Context, contents types.Object, tag string) (types.Array, error) {
	begin, err := pdfedit.NewStream(ctx, []byte(fmt.Sprintf("/OC /%s BDC\n", tag)))
	if err != nil {
		return nil, err
	}
	end, err := pdfedit.NewStream(ctx, []byte("EMC\n"))
	if err != nil {
		return nil, err
	}

	var streams types.Array
	switch c := contents.(type) {
	case nil:
	case types.Array:
		streams = c
	case types.IndirectRef:
		o, err := ctx.Dereference(c)
		if err != nil {
			return nil, err
		}
		switch v := o.(type) {
		case types.StreamDict, *types.StreamDict:
			streams = types.Array{c}
		case types.Array:
			streams = v
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnexpectedContents, o)
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedContents, contents)
	}

	out := make(types.Array, 0, len(streams)+2)
	out = append(out, begin)
	out = append(out, streams...)
	return append(out, end), nil
}

// mergeResources copies the resource entries of src into dst. Entries of
// the same category are merged by name; the first definition of a name
// wins.
func mergeResources(ctx *model.Context, dst, src types.Dict) error {
	for cat, o := range src {
		v, err := ctx.Dereference(o)
		if err != nil {
			return err
		}
		sub, ok := v.(types.Dict)
		if !ok {
			// ProcSet and friends
			if _, exists := dst[cat]; !exists {
				dst[cat] = o
			}
			continue
		}
		merged, _ := dst[cat].(types.Dict)
		if merged == nil {
			merged = types.Dict{}
			dst[cat] = merged
		}
		for name, ref := range sub {
			if _, exists := merged[name]; !exists {
				merged[name] = ref
			}
		}
	}
	return nil
}

// keepOnlyPage makes page the single leaf of the page tree.
func keepOnlyPage(ctx *model.Context, page types.IndirectRef, d types.Dict) error {
	root, err := ctx.Catalog()
	if err != nil {
		return err
	}
	pagesRef, ok := root["Pages"].(types.IndirectRef)
	if !ok {
		return errors.New("catalog has no page tree")
	}
	tree, err := ctx.DereferenceDict(pagesRef)
	if err != nil {
		return err
	}
	tree["Kids"] = types.Array{page}
	tree["Count"] = types.Integer(1)
	d["Parent"] = pagesRef
	ctx.PageCount = 1
	return nil
}

func sameBox(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if d := a[i] - b[i]; d > 1e-6 || d < -1e-6 {
			return false
		}
	}
	return true
}
