//go:build nopdf

package export

import "io"

type noPDFRenderer struct{}

func NewPDFRenderer() Renderer {
	return noPDFRenderer{}
}

func (noPDFRenderer) Available() bool {
	return false
}

func (noPDFRenderer) Render(io.Writer, Layout) error {
	return RendererUnavailableError()
}
