package source

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzSource renders the pages of a PDF deck as pool images via go-fitz.
// Useful when the story visuals already exist as a slide deck.
type FitzSource struct {
	doc  *fitz.Document
	path string
	dpi  int
}

func NewFitzSource(path string, dpi int) (*FitzSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	if dpi <= 0 {
		dpi = 150
	}
	return &FitzSource{doc: doc, path: path, dpi: dpi}, nil
}

func (f *FitzSource) Count() int {
	return f.doc.NumPage()
}

func (f *FitzSource) Label(i int) string {
	return fmt.Sprintf("%s#%d", f.path, i+1)
}

func (f *FitzSource) Load(i int) (image.Image, error) {
	// go-fitz documents are not safe for concurrent page renders;
	// opening per load keeps this usable from parallel loaders
	doc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return doc.ImageDPI(i, float64(f.dpi))
}

func (f *FitzSource) Close() error {
	return f.doc.Close()
}
