package assinatura

import (
	"context"
	"errors"
	"testing"
)

type stubCarimbador struct {
	paginas int
	largura float64
	altura  float64
	marcas  []Marca
	saida   []byte
}

func (s *stubCarimbador) NumPaginas(original []byte) (int, error) {
	return s.paginas, nil
}

func (s *stubCarimbador) TamanhoPagina(original []byte, pagina int) (float64, float64, error) {
	return s.largura, s.altura, nil
}

func (s *stubCarimbador) Estampar(ctx context.Context, original, imagem []byte, marcas []Marca) ([]byte, error) {
	s.marcas = marcas
	if s.saida != nil {
		return s.saida, nil
	}
	return original, nil
}

func novaEngine() (*Engine, *stubCarimbador) {
	stub := &stubCarimbador{paginas: 2, largura: 612, altura: 792}
	return NewEngine(stub), stub
}

func TestAplicarRecusaEntradasInvalidas(t *testing.T) {
	engine, _ := novaEngine()
	ctx := context.Background()
	imagem := pngPequeno(t)
	doc := []byte("%PDF-1.7 doc")

	if _, err := engine.Aplicar(ctx, []byte("nao é pdf"), imagem, []Posicao{{Pagina: 1}}); !errors.Is(err, ErrDocumentoInvalido) {
		t.Fatalf("documento inválido aceito: %v", err)
	}
	if _, err := engine.Aplicar(ctx, doc, imagem, nil); !errors.Is(err, ErrSemPosicoes) {
		t.Fatalf("sem posições aceito: %v", err)
	}
	if _, err := engine.Aplicar(ctx, doc, []byte("%PDF-1.7"), []Posicao{{Pagina: 1}}); !errors.Is(err, ErrImagemInvalida) {
		t.Fatalf("pdf como imagem aceito: %v", err)
	}
	if _, err := engine.Aplicar(ctx, doc, []byte(`<svg xmlns="x"></svg>`), []Posicao{{Pagina: 1}}); !errors.Is(err, ErrImagemInvalida) {
		t.Fatalf("svg direto na engine aceito: %v", err)
	}
	if _, err := engine.Aplicar(ctx, doc, imagem, []Posicao{{Pagina: 3, XPct: 10, YPct: 10}}); !errors.Is(err, ErrPosicaoInvalida) {
		t.Fatalf("página inexistente aceita: %v", err)
	}
}

func TestAplicarCentralizaECorrigeBordas(t *testing.T) {
	engine, stub := novaEngine()
	ctx := context.Background()
	imagem := pngPequeno(t)
	doc := []byte("%PDF-1.7 doc")

	_, err := engine.Aplicar(ctx, doc, imagem, []Posicao{
		{Pagina: 1, XPct: 50, YPct: 50}, // centro da página
		{Pagina: 2, XPct: 0, YPct: 0},   // canto: precisa de clamp
	})
	if err != nil {
		t.Fatalf("aplicar: %v", err)
	}
	if len(stub.marcas) != 2 {
		t.Fatalf("marcas = %d", len(stub.marcas))
	}

	centro := stub.marcas[0]
	if centro.X != 612/2.0-LarguraCarimbo/2 || centro.Y != 792/2.0-AlturaCarimbo/2 {
		t.Fatalf("clique central não virou centro do carimbo: %+v", centro)
	}
	if centro.Largura != LarguraCarimbo || centro.Altura != AlturaCarimbo {
		t.Fatalf("dimensões alteradas sem necessidade: %+v", centro)
	}

	// canto superior esquerdo da tela é o topo do documento; o carimbo fica
	// colado nas bordas em vez de vazar
	canto := stub.marcas[1]
	if canto.X != 0 || canto.Y != 792-AlturaCarimbo {
		t.Fatalf("clamp do canto falhou: %+v", canto)
	}
}

func TestAplicarNaoMutaOriginal(t *testing.T) {
	engine, stub := novaEngine()
	stub.saida = []byte("%PDF-1.7 doc assinado")
	original := []byte("%PDF-1.7 doc")
	guardado := append([]byte(nil), original...)

	novo, err := engine.Aplicar(context.Background(), original, pngPequeno(t), []Posicao{{Pagina: 1, XPct: 10, YPct: 10}})
	if err != nil {
		t.Fatalf("aplicar: %v", err)
	}
	if string(original) != string(guardado) {
		t.Fatal("original mutado")
	}
	if string(novo) == string(original) {
		t.Fatal("saída deveria ser um novo fluxo de bytes")
	}
}
