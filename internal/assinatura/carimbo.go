package assinatura

import (
	"bytes"
	"context"
)

// Marca é uma posição já convertida para o espaço do documento, com a área
// que a imagem ocupará na página.
type Marca struct {
	Pagina  int
	X       float64
	Y       float64
	Largura float64
	Altura  float64
}

// Carimbador é o colaborador que muta o binário do documento. A engine só
// decide onde carimbar; o como fica com a implementação (internal/pdf).
type Carimbador interface {
	NumPaginas(original []byte) (int, error)
	TamanhoPagina(original []byte, pagina int) (largura, altura float64, err error)
	Estampar(ctx context.Context, original []byte, imagem []byte, marcas []Marca) ([]byte, error)
}

// Dimensão visual fixa do carimbo, em pontos do documento.
const (
	LarguraCarimbo = 150.0
	AlturaCarimbo  = 50.0
)

// Engine produz um novo fluxo de bytes com a imagem de assinatura gravada em
// cada página marcada. O original nunca é alterado.
type Engine struct {
	carimbador Carimbador
}

// NewEngine cria a engine sobre o carimbador informado.
func NewEngine(c Carimbador) *Engine {
	return &Engine{carimbador: c}
}

// Aplicar valida entradas, converte cada posição percentual para o espaço da
// página correspondente, confina o carimbo aos limites da página e delega a
// gravação.
func (e *Engine) Aplicar(ctx context.Context, original []byte, imagem []byte, posicoes []Posicao) ([]byte, error) {
	if !bytes.HasPrefix(original, []byte("%PDF-")) {
		return nil, ErrDocumentoInvalido
	}
	if len(posicoes) == 0 {
		return nil, ErrSemPosicoes
	}

	// a engine embute apenas rasters; SVG precisa chegar já rasterizado
	tipo, err := ValidarImagem(imagem)
	if err != nil {
		return nil, err
	}
	if tipo == TipoSVG {
		return nil, ErrImagemInvalida
	}

	total, err := e.carimbador.NumPaginas(original)
	if err != nil {
		return nil, ErrDocumentoInvalido
	}

	marcas := make([]Marca, 0, len(posicoes))
	for _, p := range posicoes {
		if p.Pagina < 1 || p.Pagina > total {
			return nil, ErrPosicaoInvalida
		}

		largura, altura, err := e.carimbador.TamanhoPagina(original, p.Pagina)
		if err != nil {
			return nil, ErrDocumentoInvalido
		}

		x, y := NormalizadoParaDocumento(PontoNormalizado{XPct: p.XPct, YPct: p.YPct}, largura, altura)

		// o clique é o centro visual do carimbo
		x -= LarguraCarimbo / 2
		y -= AlturaCarimbo / 2

		cx, cy, cw, ch := ClampRetangulo(x, y, LarguraCarimbo, AlturaCarimbo, largura, altura)
		marcas = append(marcas, Marca{Pagina: p.Pagina, X: cx, Y: cy, Largura: cw, Altura: ch})
	}

	return e.carimbador.Estampar(ctx, original, imagem, marcas)
}
