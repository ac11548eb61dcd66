package http

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fluxodoc/aprovacao/internal/documento"
	"github.com/fluxodoc/aprovacao/internal/workflow"
)

type documentoResposta struct {
	*documento.Documento
	Status     string                `json:"status"`
	Assinantes []documento.Assinante `json:"assinantes,omitempty"`
}

func respostaDocumento(doc *documento.Documento, assinantes []documento.Assinante) documentoResposta {
	return documentoResposta{Documento: doc, Status: doc.Status(), Assinantes: assinantes}
}

// UploadDocumento recebe o PDF original e a cadeia de assinantes.
func (h *Handler) UploadDocumento(w http.ResponseWriter, r *http.Request) {
	ator, err := h.ator(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMax)
	if err := r.ParseMultipartForm(h.uploadMax); err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "VALIDATION", "arquivo excede o limite de upload", nil)
		return
	}

	titulo := strings.TrimSpace(r.FormValue("titulo"))
	if titulo == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "titulo é obrigatório", nil)
		return
	}

	valor, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("valor")), 64)
	if err != nil || valor < 0 {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "valor inválido", nil)
		return
	}

	var assinantes []documento.AssinanteInput
	if raw := r.FormValue("assinantes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &assinantes); err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "assinantes inválidos", nil)
			return
		}
	}

	conteudo, nome, err := lerArquivoForm(r, "arquivo")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "arquivo é obrigatório", nil)
		return
	}

	doc, err := h.fluxo.Upload(r.Context(), workflow.UploadInput{
		Titulo:      titulo,
		ArquivoNome: nome,
		Valor:       valor,
		Setor:       strings.TrimSpace(r.FormValue("setor")),
		CriadoPor:   ator.ID,
		Assinantes:  assinantes,
		Conteudo:    conteudo,
		Origem:      origemDe(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, respostaDocumento(doc, nil))
}

// ListPendentes devolve os documentos em que o ator é o próximo a agir.
func (h *Handler) ListPendentes(w http.ResponseWriter, r *http.Request) {
	ator, err := h.ator(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	docs, err := h.fluxo.Pendentes(r.Context(), ator)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, listaDocumentos(docs))
}

// ListEnviados devolve os documentos criados pelo ator.
func (h *Handler) ListEnviados(w http.ResponseWriter, r *http.Request) {
	ator, err := h.ator(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	docs, err := h.fluxo.Enviados(r.Context(), ator)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, listaDocumentos(docs))
}

// GetDocumento devolve documento e cadeia de assinantes.
func (h *Handler) GetDocumento(w http.ResponseWriter, r *http.Request) {
	ator, docID, ok := h.atorEDocumento(w, r)
	if !ok {
		return
	}

	doc, assinantes, err := h.fluxo.Consultar(r.Context(), docID, ator)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, respostaDocumento(doc, assinantes))
}

// VisualizarDocumento serve o artefato corrente inline, sem auditoria.
func (h *Handler) VisualizarDocumento(w http.ResponseWriter, r *http.Request) {
	h.servirArtefato(w, r, false)
}

// DownloadDocumento serve o artefato corrente como anexo e audita o acesso.
func (h *Handler) DownloadDocumento(w http.ResponseWriter, r *http.Request) {
	h.servirArtefato(w, r, true)
}

func (h *Handler) servirArtefato(w http.ResponseWriter, r *http.Request, download bool) {
	ator, docID, ok := h.atorEDocumento(w, r)
	if !ok {
		return
	}

	conteudo, mediaType, nome, err := h.fluxo.Baixar(r.Context(), docID, ator, origemDe(r), download)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	disposicao := "inline"
	if download {
		disposicao = "attachment"
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposicao, nome))
	w.Header().Set("Content-Length", strconv.Itoa(len(conteudo)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(conteudo)
}

// AprovarDocumento avança ou rejeita a etapa corrente sem embutir assinatura.
func (h *Handler) AprovarDocumento(w http.ResponseWriter, r *http.Request) {
	ator, docID, ok := h.atorEDocumento(w, r)
	if !ok {
		return
	}

	var payload struct {
		Acao        string `json:"acao"`
		Comentarios string `json:"comentarios"`
		AtestadoRef string `json:"atestado_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if payload.Acao != workflow.AcaoAprovar && payload.Acao != workflow.AcaoRejeitar {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "acao deve ser aprovar ou rejeitar", nil)
		return
	}

	doc, err := h.fluxo.Aprovar(r.Context(), docID, ator, workflow.AprovacaoInput{
		Acao:        payload.Acao,
		Comentarios: payload.Comentarios,
		AtestadoRef: payload.AtestadoRef,
		Origem:      origemDe(r),
	})
	if err != nil {
		h.writeFluxoError(w, err)
		return
	}

	h.metrics.RecordTransicao(h.serviceName, string(doc.Etapa))
	WriteJSON(w, http.StatusOK, respostaDocumento(doc, nil))
}

// ReceberAssinado aceita o binário assinado pelo cliente e avança a etapa.
func (h *Handler) ReceberAssinado(w http.ResponseWriter, r *http.Request) {
	ator, docID, ok := h.atorEDocumento(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMax)
	if err := r.ParseMultipartForm(h.uploadMax); err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "VALIDATION", "arquivo excede o limite de upload", nil)
		return
	}

	conteudo, _, err := lerArquivoForm(r, "arquivo")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "arquivo é obrigatório", nil)
		return
	}

	doc, err := h.fluxo.AceitarAssinadoExterno(r.Context(), docID, ator, conteudo, workflow.AssinaturaInput{
		AtestadoRef: r.FormValue("atestado_ref"),
		Origem:      origemDe(r),
	})
	if err != nil {
		h.writeFluxoError(w, err)
		return
	}

	h.metrics.RecordAssinatura(h.serviceName, "cliente")
	h.metrics.RecordTransicao(h.serviceName, string(doc.Etapa))
	WriteJSON(w, http.StatusOK, respostaDocumento(doc, nil))
}

// RegistrarPagamento conclui o documento com data e comprovante.
func (h *Handler) RegistrarPagamento(w http.ResponseWriter, r *http.Request) {
	ator, docID, ok := h.atorEDocumento(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMax)
	if err := r.ParseMultipartForm(h.uploadMax); err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "VALIDATION", "comprovante excede o limite de upload", nil)
		return
	}

	data, err := time.Parse("2006-01-02", strings.TrimSpace(r.FormValue("data_pagamento")))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "data_pagamento deve usar o formato AAAA-MM-DD", nil)
		return
	}

	comprovante, nome, err := lerArquivoForm(r, "comprovante")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "comprovante é obrigatório", nil)
		return
	}

	doc, err := h.fluxo.RegistrarPagamento(r.Context(), docID, ator, workflow.PagamentoInput{
		Data:            data,
		Comprovante:     comprovante,
		ComprovanteNome: nome,
		MediaType:       tipoArquivoForm(r, "comprovante"),
		Origem:          origemDe(r),
	})
	if err != nil {
		h.writeFluxoError(w, err)
		return
	}

	h.metrics.RecordTransicao(h.serviceName, string(doc.Etapa))
	WriteJSON(w, http.StatusOK, respostaDocumento(doc, nil))
}

// ExcluirDocumento marca o documento do criador como excluído.
func (h *Handler) ExcluirDocumento(w http.ResponseWriter, r *http.Request) {
	ator, docID, ok := h.atorEDocumento(w, r)
	if !ok {
		return
	}

	if err := h.fluxo.Excluir(r.Context(), docID, ator, origemDe(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) atorEDocumento(w http.ResponseWriter, r *http.Request) (workflow.Ator, uuid.UUID, bool) {
	ator, err := h.ator(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return workflow.Ator{}, uuid.Nil, false
	}

	docID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id de documento inválido", nil)
		return workflow.Ator{}, uuid.Nil, false
	}
	return ator, docID, true
}

func listaDocumentos(docs []documento.Documento) []documentoResposta {
	out := make([]documentoResposta, 0, len(docs))
	for i := range docs {
		out = append(out, respostaDocumento(&docs[i], nil))
	}
	return out
}

func lerArquivoForm(r *http.Request, campo string) ([]byte, string, error) {
	file, header, err := r.FormFile(campo)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	conteudo, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return conteudo, header.Filename, nil
}

func tipoArquivoForm(r *http.Request, campo string) string {
	if r.MultipartForm == nil {
		return ""
	}
	files := r.MultipartForm.File[campo]
	if len(files) == 0 {
		return ""
	}
	return cabecalhoTipo(files[0])
}

func cabecalhoTipo(h *multipart.FileHeader) string {
	return h.Header.Get("Content-Type")
}

func origemDe(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
