package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fluxodoc/aprovacao/internal/assinatura"
	"github.com/fluxodoc/aprovacao/internal/workflow"
)

// IniciarSessao abre uma sessão de posicionamento para o documento.
func (h *Handler) IniciarSessao(w http.ResponseWriter, r *http.Request) {
	ator, docID, ok := h.atorEDocumento(w, r)
	if !ok {
		return
	}

	// quem não pode ver o documento também não posiciona assinatura nele
	if _, _, err := h.fluxo.Consultar(r.Context(), docID, ator); err != nil {
		writeDomainError(w, err)
		return
	}

	sessao, err := h.sessoes.Iniciar(r.Context(), docID, ator.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sessao)
}

// AlternarPosicao aplica a semântica de clique sobre uma página: marca se a
// página está livre, desmarca se já havia marca nela.
func (h *Handler) AlternarPosicao(w http.ResponseWriter, r *http.Request) {
	ator, docID, ok := h.atorEDocumento(w, r)
	if !ok {
		return
	}

	var payload assinatura.Posicao
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	sessaoID := chi.URLParam(r, "sessaoID")
	sessao, adicionada, err := h.sessoes.Alternar(r.Context(), sessaoID, payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sessao.DocumentoID != docID || sessao.UsuarioID != ator.ID {
		writeDomainError(w, assinatura.ErrSessaoNaoEncontrada)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"sessao":     sessao,
		"adicionada": adicionada,
	})
}

// GetSessao devolve o estado corrente da sessão.
func (h *Handler) GetSessao(w http.ResponseWriter, r *http.Request) {
	ator, docID, ok := h.atorEDocumento(w, r)
	if !ok {
		return
	}

	sessao, err := h.sessoes.Get(r.Context(), chi.URLParam(r, "sessaoID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sessao.DocumentoID != docID || sessao.UsuarioID != ator.ID {
		writeDomainError(w, assinatura.ErrSessaoNaoEncontrada)
		return
	}
	WriteJSON(w, http.StatusOK, sessao)
}

// CancelarSessao descarta a sessão sem qualquer efeito no documento.
func (h *Handler) CancelarSessao(w http.ResponseWriter, r *http.Request) {
	ator, docID, ok := h.atorEDocumento(w, r)
	if !ok {
		return
	}

	sessaoID := chi.URLParam(r, "sessaoID")
	sessao, err := h.sessoes.Get(r.Context(), sessaoID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sessao.DocumentoID != docID || sessao.UsuarioID != ator.ID {
		writeDomainError(w, assinatura.ErrSessaoNaoEncontrada)
		return
	}

	if err := h.sessoes.Cancelar(r.Context(), sessaoID); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// AplicarSessao consome a sessão, embute a assinatura e avança a etapa.
func (h *Handler) AplicarSessao(w http.ResponseWriter, r *http.Request) {
	ator, docID, ok := h.atorEDocumento(w, r)
	if !ok {
		return
	}

	var payload struct {
		AtestadoRef string `json:"atestado_ref"`
	}
	if r.Body != nil {
		// corpo é opcional fora da diretoria
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	start := time.Now()
	doc, err := h.fluxo.AssinarComSessao(r.Context(), docID, chi.URLParam(r, "sessaoID"), ator, workflow.AssinaturaInput{
		AtestadoRef: payload.AtestadoRef,
		Origem:      origemDe(r),
	})
	if err != nil {
		h.writeFluxoError(w, err)
		return
	}

	h.metrics.RecordEstampa(time.Since(start))
	h.metrics.RecordAssinatura(h.serviceName, "servidor")
	h.metrics.RecordTransicao(h.serviceName, string(doc.Etapa))
	WriteJSON(w, http.StatusOK, respostaDocumento(doc, nil))
}
