package auth

import (
	"testing"
	"time"
)

func TestJWTGeraEValida(t *testing.T) {
	m := NewJWTManager("segredo-de-teste", time.Minute)

	token, jti, err := m.GenerateAccessToken("usuario-1", "financeiro", "compras")
	if err != nil {
		t.Fatalf("gerar: %v", err)
	}
	if jti == "" {
		t.Fatal("jti vazio")
	}

	claims, err := m.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("validar: %v", err)
	}
	if claims.Subject != "usuario-1" || claims.Papel != "financeiro" || claims.Setor != "compras" {
		t.Fatalf("claims divergentes: %+v", claims)
	}
	if claims.ID != jti {
		t.Fatalf("jti do token %q difere do gerado %q", claims.ID, jti)
	}
}

func TestJWTRejeitaSegredoErrado(t *testing.T) {
	emissor := NewJWTManager("segredo-a", time.Minute)
	outro := NewJWTManager("segredo-b", time.Minute)

	token, _, err := emissor.GenerateAccessToken("usuario-1", "diretoria", "")
	if err != nil {
		t.Fatalf("gerar: %v", err)
	}
	if _, err := outro.ParseAndValidate(token); err == nil {
		t.Fatal("token assinado com outro segredo foi aceito")
	}
}

func TestJWTRejeitaExpirado(t *testing.T) {
	m := NewJWTManager("segredo-de-teste", -time.Minute)
	token, _, err := m.GenerateAccessToken("usuario-1", "contabilidade", "")
	if err != nil {
		t.Fatalf("gerar: %v", err)
	}
	if _, err := m.ParseAndValidate(token); err == nil {
		t.Fatal("token expirado foi aceito")
	}
}

func TestRefreshTokenHashEstavel(t *testing.T) {
	raw, hashed, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("gerar refresh: %v", err)
	}
	if raw == "" || hashed == "" {
		t.Fatal("refresh vazio")
	}
	if raw == hashed {
		t.Fatal("hash igual ao token cru")
	}
	if HashRefreshToken(raw) != hashed {
		t.Fatal("hash não determinístico")
	}

	outro, _, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("gerar segundo refresh: %v", err)
	}
	if outro == raw {
		t.Fatal("tokens repetidos")
	}
}

func TestSenhaHashEVerificacao(t *testing.T) {
	hash, err := Hash("senha-forte-123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := Verify("senha-forte-123", hash)
	if err != nil || !ok {
		t.Fatalf("senha correta recusada: ok=%v err=%v", ok, err)
	}
	ok, err = Verify("senha-errada", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("senha errada aceita")
	}
}
