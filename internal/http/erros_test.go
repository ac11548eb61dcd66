package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fluxodoc/aprovacao/internal/assinatura"
	"github.com/fluxodoc/aprovacao/internal/diretorio"
	"github.com/fluxodoc/aprovacao/internal/documento"
	"github.com/fluxodoc/aprovacao/internal/pdf"
	"github.com/fluxodoc/aprovacao/internal/storage"
	"github.com/fluxodoc/aprovacao/internal/usuario"
	"github.com/fluxodoc/aprovacao/internal/util"
	"github.com/fluxodoc/aprovacao/internal/workflow"
)

func decodificarErro(t *testing.T, rec *httptest.ResponseRecorder) *ErrorBody {
	t.Helper()
	var env ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decodificar envelope: %v", err)
	}
	if env.Error == nil {
		t.Fatal("envelope sem erro")
	}
	return env.Error
}

func TestWriteDomainErrorMapeiaStatusECodigo(t *testing.T) {
	casos := []struct {
		err    error
		status int
		codigo string
	}{
		{documento.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{usuario.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{workflow.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{workflow.ErrEtapaDesatualizada, http.StatusConflict, "ETAPA_DESATUALIZADA"},
		{workflow.ErrDocumentoEncerrado, http.StatusConflict, "ENCERRADO"},
		{workflow.ErrEtapaIncorreta, http.StatusConflict, "ETAPA_INCORRETA"},
		{workflow.ErrAtestadoObrigatorio, http.StatusUnprocessableEntity, "ATESTADO_OBRIGATORIO"},
		{workflow.ErrPagamentoIncompleto, http.StatusUnprocessableEntity, "PAGAMENTO_INCOMPLETO"},
		{workflow.ErrCadeiaInvalida, http.StatusUnprocessableEntity, "CADEIA_INVALIDA"},
		{assinatura.ErrSessaoNaoEncontrada, http.StatusNotFound, "SESSAO_NAO_ENCONTRADA"},
		{assinatura.ErrPosicaoInvalida, http.StatusUnprocessableEntity, "POSICAO_INVALIDA"},
		{assinatura.ErrSemAssinatura, http.StatusUnprocessableEntity, "SEM_ASSINATURA"},
		{assinatura.ErrDocumentoInvalido, http.StatusUnprocessableEntity, "PDF_INVALIDO"},
		{pdf.ErrPDFInvalido, http.StatusUnprocessableEntity, "PDF_INVALIDO"},
		{usuario.ErrCredenciais, http.StatusUnauthorized, "CREDENCIAIS"},
		{usuario.ErrLoginEmUso, http.StatusConflict, "LOGIN_EM_USO"},
		{storage.ErrIndisponivel, http.StatusBadGateway, "UPSTREAM"},
		{diretorio.ErrIndisponivel, http.StatusBadGateway, "UPSTREAM"},
		{errors.New("qualquer outra coisa"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, c := range casos {
		rec := httptest.NewRecorder()
		writeDomainError(rec, c.err)
		if rec.Code != c.status {
			t.Errorf("%v: status = %d, esperava %d", c.err, rec.Code, c.status)
			continue
		}
		if body := decodificarErro(t, rec); body.Code != c.codigo {
			t.Errorf("%v: code = %q, esperava %q", c.err, body.Code, c.codigo)
		}
	}
}

func TestWriteDomainErrorPreservaErrosEmbrulhados(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, fmt.Errorf("carregando documento: %w", workflow.ErrEtapaDesatualizada))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestWriteDomainErrorValidacaoIncluiCampo(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, util.NewValidationError("titulo", "título é obrigatório"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}

	var env struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decodificar: %v", err)
	}
	if env.Error.Code != "VALIDATION" || env.Error.Details["campo"] != "titulo" {
		t.Fatalf("envelope de validação inesperado: %+v", env.Error)
	}
}
