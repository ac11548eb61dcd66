package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	httpmiddleware "github.com/fluxodoc/aprovacao/internal/http/middleware"
	"github.com/fluxodoc/aprovacao/internal/usuario"
)

type stubUsuarios struct {
	resultado *usuario.LoginResult
	erro      error
	usuarios  map[uuid.UUID]*usuario.Usuario
	logouts   []string
}

func (s *stubUsuarios) Autenticar(ctx context.Context, login, senha string) (*usuario.LoginResult, error) {
	if s.erro != nil {
		return nil, s.erro
	}
	return s.resultado, nil
}

func (s *stubUsuarios) Refresh(ctx context.Context, rawToken string) (*usuario.LoginResult, error) {
	if s.erro != nil {
		return nil, s.erro
	}
	return s.resultado, nil
}

func (s *stubUsuarios) Logout(ctx context.Context, rawToken string) error {
	s.logouts = append(s.logouts, rawToken)
	return nil
}

func (s *stubUsuarios) GetByID(ctx context.Context, id uuid.UUID) (*usuario.Usuario, error) {
	u, ok := s.usuarios[id]
	if !ok {
		return nil, usuario.ErrNotFound
	}
	return u, nil
}

func (s *stubUsuarios) Criar(ctx context.Context, input usuario.CreateInput) (*usuario.Usuario, error) {
	if s.erro != nil {
		return nil, s.erro
	}
	u := &usuario.Usuario{ID: uuid.New(), Nome: input.Nome, Login: input.Login, Papel: input.Papel, Setor: input.Setor}
	return u, nil
}

func (s *stubUsuarios) ListByPapel(ctx context.Context, papel string) ([]usuario.Usuario, error) {
	if s.erro != nil {
		return nil, s.erro
	}
	var lista []usuario.Usuario
	for _, u := range s.usuarios {
		if u.Papel == papel {
			lista = append(lista, *u)
		}
	}
	return lista, nil
}

func TestLoginValidaPayload(t *testing.T) {
	h := &Handler{usuarios: &stubUsuarios{}}

	casos := []string{
		`nao é json`,
		`{"login":"","senha":"x"}`,
		`{"login":"maria","senha":""}`,
	}
	for _, corpo := range casos {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(corpo))
		h.Login(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("corpo %q: status = %d", corpo, rec.Code)
		}
	}
}

func TestLoginDevolveTokensNoEnvelope(t *testing.T) {
	u := &usuario.Usuario{ID: uuid.New(), Login: "maria", Papel: usuario.PapelFinanceiro}
	stub := &stubUsuarios{resultado: &usuario.LoginResult{
		Usuario:       u,
		AccessToken:   "access-abc",
		RefreshToken:  "refresh-def",
		RefreshExpiry: time.Now().Add(time.Hour),
	}}
	h := &Handler{usuarios: stub}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"login":"maria","senha":"senha-forte-123"}`))
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d corpo=%s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data usuario.LoginResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decodificar: %v", err)
	}
	if env.Data.AccessToken != "access-abc" || env.Data.RefreshToken != "refresh-def" {
		t.Fatalf("tokens divergentes: %+v", env.Data)
	}
}

func TestLoginTraduzCredenciaisInvalidas(t *testing.T) {
	h := &Handler{usuarios: &stubUsuarios{erro: usuario.ErrCredenciais}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"login":"maria","senha":"errada"}`))
	h.Login(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodificarErro(t, rec); body.Code != "CREDENCIAIS" {
		t.Fatalf("code = %q", body.Code)
	}
}

func TestLogoutExigeRefreshToken(t *testing.T) {
	stub := &stubUsuarios{}
	h := &Handler{usuarios: stub}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", strings.NewReader(`{}`))
	h.Logout(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/logout", strings.NewReader(`{"refresh_token":"abc"}`))
	h.Logout(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(stub.logouts) != 1 || stub.logouts[0] != "abc" {
		t.Fatalf("logout não repassado: %v", stub.logouts)
	}
}

func TestMeUsaClaimsDoContexto(t *testing.T) {
	u := &usuario.Usuario{ID: uuid.New(), Login: "maria", Papel: usuario.PapelDiretoria}
	stub := &stubUsuarios{usuarios: map[uuid.UUID]*usuario.Usuario{u.ID: u}}
	h := &Handler{usuarios: stub}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	ctx := context.WithValue(req.Context(), httpmiddleware.ContextKeySubject, u.ID.String())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyPapel, u.Papel)
	h.Me(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d corpo=%s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data usuario.Usuario `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decodificar: %v", err)
	}
	if env.Data.ID != u.ID || env.Data.Login != "maria" {
		t.Fatalf("usuário divergente: %+v", env.Data)
	}

	// subject que não é uuid não passa do handler
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	ctx = context.WithValue(req.Context(), httpmiddleware.ContextKeySubject, "nao-uuid")
	h.Me(rec, req.WithContext(ctx))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("subject inválido: status = %d", rec.Code)
	}
}

func TestListUsuariosExigeEFiltraPorPapel(t *testing.T) {
	u := &usuario.Usuario{ID: uuid.New(), Login: "maria", Papel: usuario.PapelFinanceiro}
	h := &Handler{usuarios: &stubUsuarios{usuarios: map[uuid.UUID]*usuario.Usuario{u.ID: u}}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/usuarios", nil)
	h.ListUsuarios(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("sem papel: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/usuarios?papel=financeiro", nil)
	h.ListUsuarios(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d corpo=%s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data []usuario.Usuario `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decodificar: %v", err)
	}
	if len(env.Data) != 1 || env.Data[0].Login != "maria" {
		t.Fatalf("lista inesperada: %+v", env.Data)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/usuarios?papel=gerente", nil)
	(&Handler{usuarios: &stubUsuarios{erro: usuario.ErrPapelInvalido}}).ListUsuarios(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("papel inválido: status = %d", rec.Code)
	}
}

func TestCriarUsuarioTraduzErros(t *testing.T) {
	h := &Handler{usuarios: &stubUsuarios{erro: usuario.ErrLoginEmUso}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/usuarios", strings.NewReader(`{"nome":"João","login":"joao","senha":"senha-forte-123","papel":"contabilidade"}`))
	h.CriarUsuario(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}

	h = &Handler{usuarios: &stubUsuarios{}}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/usuarios", strings.NewReader(`{"nome":"João","login":"joao","senha":"senha-forte-123","papel":"contabilidade"}`))
	h.CriarUsuario(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d corpo=%s", rec.Code, rec.Body.String())
	}
}
