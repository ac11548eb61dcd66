package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ListAuditoria devolve a trilha do documento, mais recentes primeiro.
// Só quem pode ver o documento consulta sua trilha.
func (h *Handler) ListAuditoria(w http.ResponseWriter, r *http.Request) {
	ator, err := h.ator(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	docID, err := uuid.Parse(chi.URLParam(r, "documentoID"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id de documento inválido", nil)
		return
	}

	if _, _, err := h.fluxo.Consultar(r.Context(), docID, ator); err != nil {
		writeDomainError(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entradas, err := h.auditoria.ListByDocumento(r.Context(), docID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, entradas)
}
