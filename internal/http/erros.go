package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fluxodoc/aprovacao/internal/assinatura"
	"github.com/fluxodoc/aprovacao/internal/diretorio"
	"github.com/fluxodoc/aprovacao/internal/documento"
	"github.com/fluxodoc/aprovacao/internal/pdf"
	"github.com/fluxodoc/aprovacao/internal/storage"
	"github.com/fluxodoc/aprovacao/internal/usuario"
	"github.com/fluxodoc/aprovacao/internal/util"
	"github.com/fluxodoc/aprovacao/internal/workflow"
)

// writeFluxoError contabiliza corridas de etapa perdidas antes de traduzir
// o erro; usado pelos handlers que disputam transição.
func (h *Handler) writeFluxoError(w http.ResponseWriter, err error) {
	if errors.Is(err, workflow.ErrEtapaDesatualizada) {
		h.metrics.RecordConflitoEtapa()
	}
	writeDomainError(w, err)
}

// writeDomainError traduz erros de domínio para o envelope HTTP. Erros não
// mapeados viram 500 genérico com log do detalhe.
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *util.ValidationError
	if errors.As(err, &vErr) {
		WriteError(w, http.StatusUnprocessableEntity, "VALIDATION", vErr.Message, map[string]string{"campo": vErr.Field})
		return
	}

	switch {
	case errors.Is(err, documento.ErrNotFound),
		errors.Is(err, documento.ErrAssinanteNotFound),
		errors.Is(err, usuario.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "recurso não encontrado", nil)

	case errors.Is(err, workflow.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "ator não autorizado para esta etapa", nil)

	case errors.Is(err, workflow.ErrEtapaDesatualizada):
		WriteError(w, http.StatusConflict, "ETAPA_DESATUALIZADA", "a etapa do documento mudou, recarregue e tente de novo", nil)

	case errors.Is(err, workflow.ErrDocumentoEncerrado):
		WriteError(w, http.StatusConflict, "ENCERRADO", "documento já encerrado", nil)

	case errors.Is(err, workflow.ErrEtapaIncorreta):
		WriteError(w, http.StatusConflict, "ETAPA_INCORRETA", "operação não aplicável à etapa atual", nil)

	case errors.Is(err, workflow.ErrAtestadoObrigatorio):
		WriteError(w, http.StatusUnprocessableEntity, "ATESTADO_OBRIGATORIO", "aprovação da diretoria exige referência de atestado", nil)

	case errors.Is(err, workflow.ErrPagamentoIncompleto):
		WriteError(w, http.StatusUnprocessableEntity, "PAGAMENTO_INCOMPLETO", "conclusão exige data e comprovante de pagamento", nil)

	case errors.Is(err, workflow.ErrCadeiaInvalida):
		WriteError(w, http.StatusUnprocessableEntity, "CADEIA_INVALIDA", "cadeia de assinantes deve seguir a ordem contabilidade, financeiro, diretoria, pagamento", nil)

	case errors.Is(err, assinatura.ErrSessaoNaoEncontrada):
		WriteError(w, http.StatusNotFound, "SESSAO_NAO_ENCONTRADA", "sessão de assinatura expirada ou inexistente", nil)

	case errors.Is(err, assinatura.ErrPosicaoInvalida):
		WriteError(w, http.StatusUnprocessableEntity, "POSICAO_INVALIDA", "posição de assinatura fora dos limites", nil)

	case errors.Is(err, assinatura.ErrSemPosicoes):
		WriteError(w, http.StatusUnprocessableEntity, "SEM_POSICOES", "nenhuma página marcada na sessão", nil)

	case errors.Is(err, assinatura.ErrImagemInvalida):
		WriteError(w, http.StatusUnprocessableEntity, "IMAGEM_INVALIDA", "imagem de assinatura inválida", nil)

	case errors.Is(err, assinatura.ErrSemAssinatura):
		WriteError(w, http.StatusUnprocessableEntity, "SEM_ASSINATURA", "usuário não possui imagem de assinatura cadastrada", nil)

	case errors.Is(err, assinatura.ErrDocumentoInvalido),
		errors.Is(err, pdf.ErrPDFInvalido):
		WriteError(w, http.StatusUnprocessableEntity, "PDF_INVALIDO", "documento não é um PDF válido", nil)

	case errors.Is(err, usuario.ErrCredenciais):
		WriteError(w, http.StatusUnauthorized, "CREDENCIAIS", "credenciais inválidas", nil)

	case errors.Is(err, usuario.ErrRefreshInvalido):
		WriteError(w, http.StatusUnauthorized, "REFRESH", "refresh token inválido", nil)

	case errors.Is(err, usuario.ErrLoginEmUso):
		WriteError(w, http.StatusConflict, "LOGIN_EM_USO", "login já cadastrado", nil)

	case errors.Is(err, usuario.ErrPapelInvalido):
		WriteError(w, http.StatusUnprocessableEntity, "PAPEL_INVALIDO", "papel desconhecido", nil)

	case errors.Is(err, storage.ErrIndisponivel),
		errors.Is(err, diretorio.ErrIndisponivel):
		log.Warn().Err(err).Msg("dependência externa indisponível")
		WriteError(w, http.StatusBadGateway, "UPSTREAM", "serviço externo indisponível, tente novamente", nil)

	default:
		log.Error().Err(err).Msg("erro não mapeado na camada http")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}
