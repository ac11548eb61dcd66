package usuario

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("usuário não encontrado")
	ErrLoginEmUso    = errors.New("login já cadastrado")
	ErrPapelInvalido = errors.New("papel inválido")
)

// Papéis reconhecidos pela cadeia de aprovação. Cada etapa de revisão exige
// o papel homônimo; admin administra usuários e enxerga todo documento.
const (
	PapelContabilidade = "contabilidade"
	PapelFinanceiro    = "financeiro"
	PapelDiretoria     = "diretoria"
	PapelPagamento     = "pagamento"
	PapelAdmin         = "admin"
)

var validPapeis = map[string]struct{}{
	PapelContabilidade: {},
	PapelFinanceiro:    {},
	PapelDiretoria:     {},
	PapelPagamento:     {},
	PapelAdmin:         {},
}

// Usuario representa um ator do fluxo de aprovação.
type Usuario struct {
	ID        uuid.UUID `json:"id"`
	Nome      string    `json:"nome"`
	Login     string    `json:"login"`
	SenhaHash string    `json:"-"`
	Papel     string    `json:"papel"`
	Setor     string    `json:"setor"`
	CriadoEm  time.Time `json:"criado_em"`
}

// CreateInput encapsula campos para cadastro de usuário.
type CreateInput struct {
	Nome  string
	Login string
	Senha string
	Papel string
	Setor string
}

// NormalizePapel padroniza papel em minúsculas.
func NormalizePapel(papel string) string {
	return strings.ToLower(strings.TrimSpace(papel))
}

// IsValidPapel indica se o papel é reconhecido.
func IsValidPapel(papel string) bool {
	_, ok := validPapeis[NormalizePapel(papel)]
	return ok
}
