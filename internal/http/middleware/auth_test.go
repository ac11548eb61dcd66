package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fluxodoc/aprovacao/internal/auth"
)

func TestAuthRejeitaSemToken(t *testing.T) {
	mgr := auth.NewJWTManager("segredo-de-teste", time.Minute)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler não deveria rodar")
	})
	h := Auth(mgr)(next)

	casos := map[string]string{
		"sem header":      "",
		"esquema errado":  "Basic abc",
		"token inventado": "Bearer nao-e-jwt",
	}
	for nome, header := range casos {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d", nome, rec.Code)
		}
	}
}

func TestAuthInjetaClaimsNoContexto(t *testing.T) {
	mgr := auth.NewJWTManager("segredo-de-teste", time.Minute)
	token, _, err := mgr.GenerateAccessToken("usuario-1", "financeiro", "compras")
	if err != nil {
		t.Fatalf("gerar: %v", err)
	}

	var subject, papel, setor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = GetSubject(r.Context())
		papel = GetPapel(r.Context())
		setor = GetSetor(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	Auth(mgr)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if subject != "usuario-1" || papel != "financeiro" || setor != "compras" {
		t.Fatalf("claims no contexto: subject=%q papel=%q setor=%q", subject, papel, setor)
	}
}

func TestAuthRejeitaSegredoDiferente(t *testing.T) {
	emissor := auth.NewJWTManager("segredo-a", time.Minute)
	validador := auth.NewJWTManager("segredo-b", time.Minute)
	token, _, err := emissor.GenerateAccessToken("usuario-1", "admin", "")
	if err != nil {
		t.Fatalf("gerar: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	Auth(validador)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler não deveria rodar")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequirePapelFiltraPorPapel(t *testing.T) {
	mgr := auth.NewJWTManager("segredo-de-teste", time.Minute)
	chamado := false
	rota := Auth(mgr)(RequirePapel("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chamado = true
	})))

	token, _, err := mgr.GenerateAccessToken("usuario-1", "financeiro", "")
	if err != nil {
		t.Fatalf("gerar: %v", err)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/usuarios", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rota.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden || chamado {
		t.Fatalf("financeiro em rota de admin: status = %d chamado=%v", rec.Code, chamado)
	}

	token, _, err = mgr.GenerateAccessToken("usuario-2", "ADMIN", "")
	if err != nil {
		t.Fatalf("gerar: %v", err)
	}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/usuarios", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rota.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !chamado {
		t.Fatalf("admin recusado: status = %d", rec.Code)
	}
}
