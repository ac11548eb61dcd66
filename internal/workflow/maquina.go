package workflow

import (
	"errors"

	"github.com/google/uuid"

	"github.com/fluxodoc/aprovacao/internal/documento"
)

var (
	// ErrForbidden indica que o ator não pode agir sobre o documento na etapa atual.
	ErrForbidden = errors.New("ator não autorizado para esta etapa")

	// ErrEtapaDesatualizada indica que a etapa mudou entre a leitura e a gravação.
	ErrEtapaDesatualizada = errors.New("etapa do documento desatualizada, recarregue")

	// ErrDocumentoEncerrado indica tentativa de agir sobre documento em etapa terminal.
	ErrDocumentoEncerrado = errors.New("documento já encerrado")

	// ErrAtestadoObrigatorio indica aprovação da diretoria sem referência de atestado.
	ErrAtestadoObrigatorio = errors.New("referência de atestado obrigatória na diretoria")

	// ErrPagamentoIncompleto indica conclusão de pagamento sem data ou comprovante.
	ErrPagamentoIncompleto = errors.New("data e comprovante de pagamento obrigatórios")

	// ErrEtapaIncorreta indica operação aplicável apenas a outra etapa.
	ErrEtapaIncorreta = errors.New("operação não aplicável à etapa atual")

	// ErrCadeiaInvalida indica cadeia de assinantes fora da ordem fixa.
	ErrCadeiaInvalida = errors.New("cadeia de assinantes inválida")
)

// Ator é quem executa uma operação do fluxo, extraído do token autenticado.
type Ator struct {
	ID    uuid.UUID
	Papel string
}

// ProximaEtapa devolve a etapa seguinte da cadeia fixa de aprovação.
// O segundo retorno é falso quando a etapa atual não admite avanço.
func ProximaEtapa(e documento.Etapa) (documento.Etapa, bool) {
	switch e {
	case documento.EtapaContabilidade:
		return documento.EtapaFinanceiro, true
	case documento.EtapaFinanceiro:
		return documento.EtapaDiretoria, true
	case documento.EtapaDiretoria:
		return documento.EtapaPagamento, true
	case documento.EtapaPagamento:
		return documento.EtapaConcluido, true
	default:
		return "", false
	}
}

// PoliticaAprovacao decide se um ator pode executar a ação da etapa atual.
type PoliticaAprovacao interface {
	Autorizar(doc *documento.Documento, assinantes []documento.Assinante, ator Ator) error
}

// PoliticaAssinanteDesignado exige papel compatível com a etapa e que o ator
// seja o assinante pendente de menor ordem da cadeia do documento.
type PoliticaAssinanteDesignado struct{}

// Autorizar implementa PoliticaAprovacao.
func (PoliticaAssinanteDesignado) Autorizar(doc *documento.Documento, assinantes []documento.Assinante, ator Ator) error {
	if ator.Papel != doc.Etapa.PapelExigido() {
		return ErrForbidden
	}
	prox := proximoAssinante(assinantes)
	if prox == nil || prox.UsuarioID != ator.ID {
		return ErrForbidden
	}
	return nil
}

// PoliticaPorPapel exige apenas papel compatível com a etapa, sem amarrar a
// operação a um assinante específico da cadeia.
type PoliticaPorPapel struct{}

// Autorizar implementa PoliticaAprovacao.
func (PoliticaPorPapel) Autorizar(doc *documento.Documento, _ []documento.Assinante, ator Ator) error {
	if ator.Papel != doc.Etapa.PapelExigido() {
		return ErrForbidden
	}
	return nil
}

func proximoAssinante(assinantes []documento.Assinante) *documento.Assinante {
	var melhor *documento.Assinante
	for i := range assinantes {
		a := &assinantes[i]
		if a.Situacao != documento.AssinantePendente {
			continue
		}
		if melhor == nil || a.Ordem < melhor.Ordem {
			melhor = a
		}
	}
	return melhor
}
