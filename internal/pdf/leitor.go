// Package pdf lê dimensões de páginas e grava a imagem de assinatura no
// documento por atualização incremental, sem tocar nos bytes originais.
package pdf

import (
	"bytes"
	"errors"
	"fmt"

	dpdf "github.com/digitorus/pdf"
)

// ErrPDFInvalido indica bytes que não abrem como PDF.
var ErrPDFInvalido = errors.New("pdf: documento inválido")

// Validar confere o cabeçalho mágico e tenta abrir o documento, devolvendo o
// número de páginas. Usado também para revalidar bytes assinados vindos do
// cliente, que nunca são confiáveis.
func Validar(original []byte) (int, error) {
	rdr, err := abrir(original)
	if err != nil {
		return 0, err
	}

	n := rdr.NumPage()
	if n < 1 {
		return 0, ErrPDFInvalido
	}
	return n, nil
}

// Stamper implementa o colaborador de mutação do documento.
type Stamper struct{}

// NewStamper cria o carimbador.
func NewStamper() *Stamper {
	return &Stamper{}
}

// NumPaginas devolve o total de páginas do documento.
func (s *Stamper) NumPaginas(original []byte) (int, error) {
	return Validar(original)
}

// TamanhoPagina devolve largura e altura do MediaBox da página (1-based).
func (s *Stamper) TamanhoPagina(original []byte, pagina int) (float64, float64, error) {
	rdr, err := abrir(original)
	if err != nil {
		return 0, 0, err
	}
	if pagina < 1 || pagina > rdr.NumPage() {
		return 0, 0, fmt.Errorf("pdf: página %d inexistente", pagina)
	}

	mb := rdr.Page(pagina).V.Key("MediaBox")
	if mb.IsNull() || mb.Len() != 4 {
		return 0, 0, ErrPDFInvalido
	}

	largura := mb.Index(2).Float64() - mb.Index(0).Float64()
	altura := mb.Index(3).Float64() - mb.Index(1).Float64()
	if largura <= 0 || altura <= 0 {
		return 0, 0, ErrPDFInvalido
	}
	return largura, altura, nil
}

func abrir(original []byte) (*dpdf.Reader, error) {
	if !bytes.HasPrefix(original, []byte("%PDF-")) {
		return nil, ErrPDFInvalido
	}
	rdr, err := dpdf.NewReader(bytes.NewReader(original), int64(len(original)))
	if err != nil {
		return nil, ErrPDFInvalido
	}
	return rdr, nil
}
