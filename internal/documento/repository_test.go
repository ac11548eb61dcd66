package documento

import (
	"strings"
	"testing"
)

// A listagem de pendentes faz join com documento_assinantes, onde "id" também
// existe; toda coluna selecionada precisa sair qualificada pelo alias para o
// Postgres não recusar a consulta como ambígua.
func TestColsComAliasQualificaTodasAsColunas(t *testing.T) {
	qualificadas := colsComAlias("d")

	cols := strings.Split(qualificadas, ",")
	if len(cols) != len(strings.Split(documentoCols, ",")) {
		t.Fatalf("lista qualificada perdeu colunas: %d", len(cols))
	}
	for _, c := range cols {
		c = strings.TrimSpace(c)
		if !strings.HasPrefix(c, "d.") {
			t.Errorf("coluna sem alias: %q", c)
		}
		if strings.Count(c, ".") != 1 {
			t.Errorf("coluna qualificada duas vezes: %q", c)
		}
	}
	if cols[0] != "d.id" {
		t.Fatalf("primeira coluna = %q, esperava d.id", cols[0])
	}
}
