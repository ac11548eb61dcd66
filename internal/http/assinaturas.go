package http

import (
	"net/http"

	"github.com/fluxodoc/aprovacao/internal/assinatura"
)

// CadastrarAssinatura grava ou substitui a imagem de assinatura do usuário.
func (h *Handler) CadastrarAssinatura(w http.ResponseWriter, r *http.Request) {
	ator, err := h.ator(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMax)
	if err := r.ParseMultipartForm(h.uploadMax); err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "VALIDATION", "imagem excede o limite de upload", nil)
		return
	}

	conteudo, _, err := lerArquivoForm(r, "imagem")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "imagem é obrigatória", nil)
		return
	}

	tipo, err := assinatura.ValidarImagem(conteudo)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	img, err := h.imagens.Upsert(r.Context(), ator.ID, conteudo, tipo)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"media_type":    img.MediaType,
		"atualizado_em": img.AtualizadoEm,
	})
}

// ObterAssinatura serve a imagem de assinatura cadastrada do usuário.
func (h *Handler) ObterAssinatura(w http.ResponseWriter, r *http.Request) {
	ator, err := h.ator(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	img, err := h.imagens.Get(r.Context(), ator.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", img.MediaType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Conteudo)
}

// RemoverAssinatura apaga a imagem de assinatura cadastrada.
func (h *Handler) RemoverAssinatura(w http.ResponseWriter, r *http.Request) {
	ator, err := h.ator(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	if err := h.imagens.Delete(r.Context(), ator.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
