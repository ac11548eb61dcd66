package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	httpmiddleware "github.com/fluxodoc/aprovacao/internal/http/middleware"
	"github.com/fluxodoc/aprovacao/internal/usuario"
	"github.com/fluxodoc/aprovacao/internal/workflow"
)

// Login autentica por login e senha, consultando o diretório quando ativo.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Login string `json:"login"`
		Senha string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Login) == "" || strings.TrimSpace(payload.Senha) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "login e senha são obrigatórios", nil)
		return
	}

	result, err := h.usuarios.Autenticar(r.Context(), payload.Login, payload.Senha)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// Refresh troca um refresh token válido por novos tokens.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RefreshToken == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "refresh_token obrigatório", nil)
		return
	}

	result, err := h.usuarios.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// Logout invalida o refresh token informado.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RefreshToken == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "refresh_token obrigatório", nil)
		return
	}

	if err := h.usuarios.Logout(r.Context(), payload.RefreshToken); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me devolve o usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ator, err := h.ator(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	u, err := h.usuarios.GetByID(r.Context(), ator.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

// CriarUsuario cadastra usuário local. Restrita a administradores via rota.
func (h *Handler) CriarUsuario(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome  string `json:"nome"`
		Login string `json:"login"`
		Senha string `json:"senha"`
		Papel string `json:"papel"`
		Setor string `json:"setor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	u, err := h.usuarios.Criar(r.Context(), usuario.CreateInput{
		Nome:  payload.Nome,
		Login: payload.Login,
		Senha: payload.Senha,
		Papel: payload.Papel,
		Setor: payload.Setor,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, u)
}

// ListUsuarios lista usuários por papel, para a montagem da cadeia de
// assinantes no upload.
func (h *Handler) ListUsuarios(w http.ResponseWriter, r *http.Request) {
	papel := r.URL.Query().Get("papel")
	if strings.TrimSpace(papel) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "papel é obrigatório", nil)
		return
	}

	usuarios, err := h.usuarios.ListByPapel(r.Context(), papel)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, usuarios)
}

// ator monta o ator das claims do contexto.
func (h *Handler) ator(r *http.Request) (workflow.Ator, error) {
	subject := httpmiddleware.GetSubject(r.Context())
	id, err := uuid.Parse(subject)
	if err != nil {
		return workflow.Ator{}, err
	}
	return workflow.Ator{
		ID:    id,
		Papel: strings.ToLower(httpmiddleware.GetPapel(r.Context())),
	}, nil
}
