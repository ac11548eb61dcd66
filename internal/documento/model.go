package documento

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fluxodoc/aprovacao/internal/usuario"
)

var (
	ErrNotFound          = errors.New("documento não encontrado")
	ErrAssinanteNotFound = errors.New("assinante não encontrado")
)

// Etapa é o único campo autoritativo do ciclo de vida: o status visível é
// derivado dela, nunca gravado em separado.
type Etapa string

const (
	EtapaContabilidade Etapa = "contabilidade"
	EtapaFinanceiro    Etapa = "financeiro"
	EtapaDiretoria     Etapa = "diretoria"
	EtapaPagamento     Etapa = "pagamento"
	EtapaConcluido     Etapa = "concluido"
	EtapaRejeitado     Etapa = "rejeitado"
)

// IsValid indica se a etapa é reconhecida.
func (e Etapa) IsValid() bool {
	switch e {
	case EtapaContabilidade, EtapaFinanceiro, EtapaDiretoria, EtapaPagamento, EtapaConcluido, EtapaRejeitado:
		return true
	}
	return false
}

// Terminal indica etapa absorvente (sem transições de saída).
func (e Etapa) Terminal() bool {
	return e == EtapaConcluido || e == EtapaRejeitado
}

// Status deriva o status exibido a partir da etapa corrente.
func (e Etapa) Status() string {
	switch e {
	case EtapaContabilidade:
		return "pendente"
	case EtapaFinanceiro:
		return "contabilidade_aprovado"
	case EtapaDiretoria:
		return "financeiro_aprovado"
	case EtapaPagamento:
		return "diretoria_aprovado"
	case EtapaConcluido:
		return "concluido"
	case EtapaRejeitado:
		return "rejeitado"
	}
	return ""
}

// PapelExigido devolve o papel autorizado a agir na etapa.
func (e Etapa) PapelExigido() string {
	switch e {
	case EtapaContabilidade:
		return usuario.PapelContabilidade
	case EtapaFinanceiro:
		return usuario.PapelFinanceiro
	case EtapaDiretoria:
		return usuario.PapelDiretoria
	case EtapaPagamento:
		return usuario.PapelPagamento
	}
	return ""
}

// Situações de um assinante na cadeia do documento.
const (
	AssinantePendente = "pendente"
	AssinanteAssinado = "assinado"
)

// Documento representa uma nota fiscal em tramitação.
type Documento struct {
	ID               uuid.UUID  `json:"id"`
	Titulo           string     `json:"titulo"`
	ArquivoNome      string     `json:"arquivo_nome"`
	Tamanho          int64      `json:"tamanho"`
	MediaType        string     `json:"media_type"`
	Valor            float64    `json:"valor"`
	Setor            string     `json:"setor"`
	CriadoPor        uuid.UUID  `json:"criado_por"`
	Etapa            Etapa      `json:"etapa"`
	ChaveOriginal    string     `json:"chave_original"`
	ChaveAssinado    *string    `json:"chave_assinado,omitempty"`
	DataPagamento    *time.Time `json:"data_pagamento,omitempty"`
	ChaveComprovante *string    `json:"chave_comprovante,omitempty"`
	ConcluidoEm      *time.Time `json:"concluido_em,omitempty"`
	ExcluidoEm       *time.Time `json:"-"`
	CriadoEm         time.Time  `json:"criado_em"`
	AtualizadoEm     time.Time  `json:"atualizado_em"`
}

// Status expõe o status derivado no JSON de resposta.
func (d *Documento) Status() string {
	return d.Etapa.Status()
}

// Assinante é uma posição ordenada na cadeia fixa de aprovação.
type Assinante struct {
	ID          uuid.UUID  `json:"id"`
	DocumentoID uuid.UUID  `json:"documento_id"`
	UsuarioID   uuid.UUID  `json:"usuario_id"`
	Papel       string     `json:"papel"`
	Ordem       int        `json:"ordem"`
	Situacao    string     `json:"situacao"`
	AssinadoEm  *time.Time `json:"assinado_em,omitempty"`
}

// AssinanteInput descreve um elo da cadeia no momento do upload.
type AssinanteInput struct {
	Papel     string    `json:"papel"`
	UsuarioID uuid.UUID `json:"usuario_id"`
}

// CreateInput encapsula os campos de criação de documento.
type CreateInput struct {
	Titulo        string
	ArquivoNome   string
	Tamanho       int64
	MediaType     string
	Valor         float64
	Setor         string
	CriadoPor     uuid.UUID
	ChaveOriginal string
	Assinantes    []AssinanteInput
}
