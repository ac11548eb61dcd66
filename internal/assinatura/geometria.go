package assinatura

// Conversões entre os três espaços de coordenadas envolvidos no
// posicionamento: clique sobre a página renderizada, posição normalizada em
// percentual (independente de zoom) e espaço nativo do documento, cuja
// origem fica no canto inferior esquerdo.

// PontoNormalizado guarda a posição em percentuais [0,100] da página.
type PontoNormalizado struct {
	XPct float64 `json:"x_pct"`
	YPct float64 `json:"y_pct"`
}

// RetanguloTela é a área da página renderizada, em pixels de tela.
type RetanguloTela struct {
	Largura float64 `json:"largura"`
	Altura  float64 `json:"altura"`
}

// ParaNormalizado converte um clique em posição percentual, limitada a [0,100].
func ParaNormalizado(clienteX, clienteY float64, ret RetanguloTela) PontoNormalizado {
	var p PontoNormalizado
	if ret.Largura > 0 {
		p.XPct = clamp(clienteX/ret.Largura*100, 0, 100)
	}
	if ret.Altura > 0 {
		p.YPct = clamp(clienteY/ret.Altura*100, 0, 100)
	}
	return p
}

// NormalizadoParaDocumento converte percentuais para o espaço do documento.
// A tela cresce para baixo e o documento para cima: o eixo y é invertido.
func NormalizadoParaDocumento(p PontoNormalizado, larguraPagina, alturaPagina float64) (x, y float64) {
	x = p.XPct / 100 * larguraPagina
	y = alturaPagina - (p.YPct / 100 * alturaPagina)
	return x, y
}

// DocumentoParaNormalizado é a inversa de NormalizadoParaDocumento.
func DocumentoParaNormalizado(x, y, larguraPagina, alturaPagina float64) PontoNormalizado {
	var p PontoNormalizado
	if larguraPagina > 0 {
		p.XPct = x / larguraPagina * 100
	}
	if alturaPagina > 0 {
		p.YPct = (alturaPagina - y) / alturaPagina * 100
	}
	return p
}

// NormalizadoParaTela reprojeta a posição após mudança de zoom, sem passar
// pelas coordenadas do documento.
func NormalizadoParaTela(p PontoNormalizado, ret RetanguloTela) (x, y float64) {
	return p.XPct / 100 * ret.Largura, p.YPct / 100 * ret.Altura
}

// ClampRetangulo empurra um retângulo w×h ancorado em (x,y) para dentro da
// página, encolhendo apenas se ele for maior que a própria página.
func ClampRetangulo(x, y, w, h, larguraPagina, alturaPagina float64) (cx, cy, cw, ch float64) {
	cw, ch = w, h
	if cw > larguraPagina {
		cw = larguraPagina
	}
	if ch > alturaPagina {
		ch = alturaPagina
	}

	cx = clamp(x, 0, larguraPagina-cw)
	cy = clamp(y, 0, alturaPagina-ch)
	return cx, cy, cw, ch
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
