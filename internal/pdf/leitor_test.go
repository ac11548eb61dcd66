package pdf

import (
	"errors"
	"strings"
	"testing"
)

func TestValidarRecusaBytesQueNaoSaoPDF(t *testing.T) {
	casos := map[string][]byte{
		"vazio":             nil,
		"texto":             []byte("isto não é um pdf"),
		"png":               {0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a},
		"magico truncado":   []byte("%PD"),
		"cabecalho semfim":  []byte("%PDF-1.7\n"),
		"corpo corrompido":  []byte("%PDF-1.7\n" + strings.Repeat("x", 64)),
		"trailer inventado": []byte("%PDF-1.4\n1 0 obj\nendobj\ntrailer\n<<>>\n%%EOF"),
	}
	for nome, corpo := range casos {
		if _, err := Validar(corpo); !errors.Is(err, ErrPDFInvalido) {
			t.Errorf("%s: esperava ErrPDFInvalido, veio %v", nome, err)
		}
	}
}

func TestStamperPropagaInvalido(t *testing.T) {
	s := NewStamper()
	if _, err := s.NumPaginas([]byte("lixo")); !errors.Is(err, ErrPDFInvalido) {
		t.Fatalf("num páginas: %v", err)
	}
	if _, _, err := s.TamanhoPagina([]byte("lixo"), 1); !errors.Is(err, ErrPDFInvalido) {
		t.Fatalf("tamanho: %v", err)
	}
}
