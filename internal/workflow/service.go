// Package workflow implementa a cadeia fixa de aprovação de notas fiscais:
// contabilidade, financeiro, diretoria e pagamento, com rejeição absorvente.
// Toda mutação de etapa grava a entrada de auditoria na mesma transação e
// protege-se de corrida com comparação da etapa lida no momento da gravação.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/fluxodoc/aprovacao/internal/assinatura"
	"github.com/fluxodoc/aprovacao/internal/auditoria"
	"github.com/fluxodoc/aprovacao/internal/db"
	"github.com/fluxodoc/aprovacao/internal/documento"
	"github.com/fluxodoc/aprovacao/internal/notify"
	"github.com/fluxodoc/aprovacao/internal/storage"
	"github.com/fluxodoc/aprovacao/internal/usuario"
)

// DocumentoStore é o subconjunto do repositório de documentos usado pelo fluxo.
type DocumentoStore interface {
	CreateTx(ctx context.Context, q db.Querier, input documento.CreateInput) (*documento.Documento, error)
	GetByID(ctx context.Context, id uuid.UUID) (*documento.Documento, error)
	ListAssinantes(ctx context.Context, documentoID uuid.UUID) ([]documento.Assinante, error)
	ListPendentesPara(ctx context.Context, usuarioID uuid.UUID) ([]documento.Documento, error)
	ListDoCriador(ctx context.Context, criadoPor uuid.UUID) ([]documento.Documento, error)
	EtapaCAS(ctx context.Context, q db.Querier, id uuid.UUID, de, para documento.Etapa) (bool, error)
	MarcarAssinanteAssinado(ctx context.Context, q db.Querier, documentoID, usuarioID uuid.UUID) error
	SetChaveAssinado(ctx context.Context, q db.Querier, id uuid.UUID, chave string) error
	SetPagamento(ctx context.Context, q db.Querier, id uuid.UUID, data time.Time, chaveComprovante string) error
	SoftDelete(ctx context.Context, q db.Querier, id, criadoPor uuid.UUID) error
}

// AuditoriaStore grava a trilha de eventos.
type AuditoriaStore interface {
	Registrar(ctx context.Context, q db.Querier, reg auditoria.Registro) error
	RegistrarDireto(ctx context.Context, reg auditoria.Registro) error
}

// ImagemStore carrega a imagem de assinatura cadastrada do usuário.
type ImagemStore interface {
	Get(ctx context.Context, usuarioID uuid.UUID) (*assinatura.Imagem, error)
}

// SessaoConsumidora entrega e descarta sessões de posicionamento no "aplicar".
type SessaoConsumidora interface {
	Consumir(ctx context.Context, sessaoID string) (*assinatura.Sessao, error)
}

// Embutidor grava a imagem de assinatura nas páginas marcadas.
type Embutidor interface {
	Aplicar(ctx context.Context, original []byte, imagem []byte, posicoes []assinatura.Posicao) ([]byte, error)
}

// ValidadorPDF confere o binário enviado e devolve o total de páginas.
type ValidadorPDF func(conteudo []byte) (int, error)

// Transator abre a transação em que estado e auditoria confirmam juntos.
type Transator interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, q db.Querier) error) error
}

// PoolTransator implementa Transator sobre o pool do Postgres.
type PoolTransator struct {
	Pool *pgxpool.Pool
}

// WithTx delega para o helper transacional do pacote db.
func (t PoolTransator) WithTx(ctx context.Context, fn func(ctx context.Context, q db.Querier) error) error {
	return db.WithTx(ctx, t.Pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, tx)
	})
}

// Deps agrupa os colaboradores do serviço.
type Deps struct {
	Documentos  DocumentoStore
	Auditoria   AuditoriaStore
	Imagens     ImagemStore
	Sessoes     SessaoConsumidora
	Embutidor   Embutidor
	Validador   ValidadorPDF
	Store       storage.ObjectStore
	Notificador notify.Notificador
	Tx          Transator
	Politica    PoliticaAprovacao
	FinalPrefix string
	Logger      zerolog.Logger
}

// Service orquestra upload, tramitação, assinatura, pagamento e consulta.
type Service struct {
	docs        DocumentoStore
	audit       AuditoriaStore
	imagens     ImagemStore
	sessoes     SessaoConsumidora
	embutidor   Embutidor
	validar     ValidadorPDF
	store       storage.ObjectStore
	notificador notify.Notificador
	tx          Transator
	politica    PoliticaAprovacao
	finalPrefix string
	log         zerolog.Logger
}

// NewService cria o serviço de fluxo.
func NewService(d Deps) *Service {
	if d.Politica == nil {
		d.Politica = PoliticaAssinanteDesignado{}
	}
	if d.FinalPrefix == "" {
		d.FinalPrefix = "finalizados"
	}
	return &Service{
		docs:        d.Documentos,
		audit:       d.Auditoria,
		imagens:     d.Imagens,
		sessoes:     d.Sessoes,
		embutidor:   d.Embutidor,
		validar:     d.Validador,
		store:       d.Store,
		notificador: d.Notificador,
		tx:          d.Tx,
		politica:    d.Politica,
		finalPrefix: d.FinalPrefix,
		log:         d.Logger,
	}
}

// UploadInput descreve um novo documento com sua cadeia de assinantes.
type UploadInput struct {
	Titulo      string
	ArquivoNome string
	MediaType   string
	Valor       float64
	Setor       string
	CriadoPor   uuid.UUID
	Assinantes  []documento.AssinanteInput
	Conteudo    []byte
	Origem      string
}

// cadeiaEsperada é a ordem fixa de papéis que todo documento percorre.
var cadeiaEsperada = []string{
	usuario.PapelContabilidade,
	usuario.PapelFinanceiro,
	usuario.PapelDiretoria,
	usuario.PapelPagamento,
}

// Upload valida o binário, persiste o original e cria documento, cadeia e
// entrada de auditoria na mesma transação.
func (s *Service) Upload(ctx context.Context, input UploadInput) (*documento.Documento, error) {
	if _, err := s.validar(input.Conteudo); err != nil {
		return nil, err
	}
	if err := validarCadeia(input.Assinantes); err != nil {
		return nil, err
	}

	chave := fmt.Sprintf("originais/%s/%s", uuid.NewString(), sanitizarNome(input.ArquivoNome))
	if _, err := s.store.Upload(ctx, storage.UploadInput{
		Key:         chave,
		Body:        input.Conteudo,
		ContentType: "application/pdf",
	}); err != nil {
		return nil, fmt.Errorf("workflow: upload do original: %w", err)
	}

	var doc *documento.Documento
	err := s.tx.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		d, err := s.docs.CreateTx(ctx, q, documento.CreateInput{
			Titulo:        input.Titulo,
			ArquivoNome:   input.ArquivoNome,
			Tamanho:       int64(len(input.Conteudo)),
			MediaType:     "application/pdf",
			Valor:         input.Valor,
			Setor:         input.Setor,
			CriadoPor:     input.CriadoPor,
			ChaveOriginal: chave,
			Assinantes:    input.Assinantes,
		})
		if err != nil {
			return err
		}
		doc = d
		criador := input.CriadoPor
		return s.audit.Registrar(ctx, q, auditoria.Registro{
			DocumentoID: d.ID,
			UsuarioID:   &criador,
			Acao:        auditoria.AcaoUpload,
			Detalhes:    fmt.Sprintf("arquivo %q (%d bytes)", input.ArquivoNome, len(input.Conteudo)),
			Origem:      input.Origem,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notificarProximo(ctx, doc, doc.CriadoPor)
	return doc, nil
}

func validarCadeia(assinantes []documento.AssinanteInput) error {
	if len(assinantes) != len(cadeiaEsperada) {
		return ErrCadeiaInvalida
	}
	for i, a := range assinantes {
		if strings.ToLower(strings.TrimSpace(a.Papel)) != cadeiaEsperada[i] {
			return ErrCadeiaInvalida
		}
		if a.UsuarioID == uuid.Nil {
			return ErrCadeiaInvalida
		}
	}
	return nil
}

// AprovacaoInput descreve a decisão de um aprovador sobre a etapa corrente.
type AprovacaoInput struct {
	Acao        string
	Comentarios string
	AtestadoRef string
	Origem      string
}

// Ações aceitas em AprovacaoInput.
const (
	AcaoAprovar  = "aprovar"
	AcaoRejeitar = "rejeitar"
)

// Aprovar avança ou rejeita o documento na etapa corrente, sem embutir
// assinatura no binário.
func (s *Service) Aprovar(ctx context.Context, documentoID uuid.UUID, ator Ator, input AprovacaoInput) (*documento.Documento, error) {
	doc, _, err := s.carregarParaAcao(ctx, documentoID, ator)
	if err != nil {
		return nil, err
	}

	switch input.Acao {
	case AcaoRejeitar:
		// rejeição só existe nas etapas de revisão; na etapa de pagamento a
		// única saída é a conclusão com data e comprovante
		switch doc.Etapa {
		case documento.EtapaContabilidade, documento.EtapaFinanceiro, documento.EtapaDiretoria:
		default:
			return nil, ErrEtapaIncorreta
		}
		detalhes := input.Comentarios
		if detalhes == "" {
			detalhes = "rejeitado sem comentários"
		}
		err = s.transicionar(ctx, doc, ator, documento.EtapaRejeitado, false, auditoria.Registro{
			DocumentoID: doc.ID,
			UsuarioID:   &ator.ID,
			Acao:        auditoria.AcaoRejeicao,
			Detalhes:    detalhes,
			Origem:      input.Origem,
		}, nil)
		if err != nil {
			return nil, err
		}
		return doc, nil

	case AcaoAprovar:
		if doc.Etapa == documento.EtapaPagamento {
			return nil, ErrPagamentoIncompleto
		}
		if doc.Etapa == documento.EtapaDiretoria && strings.TrimSpace(input.AtestadoRef) == "" {
			return nil, ErrAtestadoObrigatorio
		}
		para, ok := ProximaEtapa(doc.Etapa)
		if !ok {
			return nil, ErrDocumentoEncerrado
		}

		detalhes := input.Comentarios
		if ref := strings.TrimSpace(input.AtestadoRef); ref != "" {
			detalhes = strings.TrimSpace("atestado=" + ref + " " + detalhes)
		}
		err = s.transicionar(ctx, doc, ator, para, true, auditoria.Registro{
			DocumentoID: doc.ID,
			UsuarioID:   &ator.ID,
			Acao:        auditoria.AcaoAprovacao,
			Detalhes:    detalhes,
			Origem:      input.Origem,
		}, nil)
		if err != nil {
			return nil, err
		}
		s.notificarProximo(ctx, doc, ator.ID)
		return doc, nil

	default:
		return nil, fmt.Errorf("workflow: ação %q desconhecida: %w", input.Acao, ErrEtapaIncorreta)
	}
}

// AssinaturaInput acompanha as operações que anexam um binário assinado.
type AssinaturaInput struct {
	AtestadoRef string
	Origem      string
}

// AssinarComSessao consome a sessão de posicionamento, embute a imagem de
// assinatura do ator no artefato corrente e avança a etapa. A partir do
// consumo da sessão a operação não é mais cancelável.
func (s *Service) AssinarComSessao(ctx context.Context, documentoID uuid.UUID, sessaoID string, ator Ator, input AssinaturaInput) (*documento.Documento, error) {
	doc, _, err := s.carregarParaAcao(ctx, documentoID, ator)
	if err != nil {
		return nil, err
	}
	if err := s.validarEtapaDeAssinatura(doc, input.AtestadoRef); err != nil {
		return nil, err
	}

	img, err := s.imagens.Get(ctx, ator.ID)
	if err != nil {
		return nil, err
	}

	sessao, err := s.sessoes.Consumir(ctx, sessaoID)
	if err != nil {
		return nil, err
	}
	if sessao.DocumentoID != doc.ID || sessao.UsuarioID != ator.ID {
		return nil, assinatura.ErrSessaoNaoEncontrada
	}
	if len(sessao.Posicoes) == 0 {
		return nil, assinatura.ErrSemPosicoes
	}

	base, _, err := s.artefatoAtual(ctx, doc)
	if err != nil {
		return nil, err
	}

	assinado, err := s.embutidor.Aplicar(ctx, base, img.Conteudo, sessao.Posicoes)
	if err != nil {
		return nil, err
	}

	paginas := make([]string, 0, len(sessao.Posicoes))
	for _, p := range sessao.Posicoes {
		paginas = append(paginas, fmt.Sprintf("%d", p.Pagina))
	}
	detalhes := fmt.Sprintf("assinatura embutida nas páginas %s", strings.Join(paginas, ","))
	if ref := strings.TrimSpace(input.AtestadoRef); ref != "" {
		detalhes = "atestado=" + ref + " " + detalhes
	}

	return s.anexarAssinado(ctx, doc, ator, assinado, detalhes, input.Origem)
}

// AceitarAssinadoExterno recebe um binário já assinado fora do servidor,
// revalida o formato e avança a etapa.
func (s *Service) AceitarAssinadoExterno(ctx context.Context, documentoID uuid.UUID, ator Ator, conteudo []byte, input AssinaturaInput) (*documento.Documento, error) {
	doc, _, err := s.carregarParaAcao(ctx, documentoID, ator)
	if err != nil {
		return nil, err
	}
	if err := s.validarEtapaDeAssinatura(doc, input.AtestadoRef); err != nil {
		return nil, err
	}
	if _, err := s.validar(conteudo); err != nil {
		return nil, err
	}

	detalhes := "arquivo assinado enviado pelo cliente"
	if ref := strings.TrimSpace(input.AtestadoRef); ref != "" {
		detalhes = "atestado=" + ref + " " + detalhes
	}
	return s.anexarAssinado(ctx, doc, ator, conteudo, detalhes, input.Origem)
}

func (s *Service) validarEtapaDeAssinatura(doc *documento.Documento, atestadoRef string) error {
	switch doc.Etapa {
	case documento.EtapaContabilidade, documento.EtapaFinanceiro, documento.EtapaDiretoria:
	default:
		return ErrEtapaIncorreta
	}
	if doc.Etapa == documento.EtapaDiretoria && strings.TrimSpace(atestadoRef) == "" {
		return ErrAtestadoObrigatorio
	}
	return nil
}

func (s *Service) anexarAssinado(ctx context.Context, doc *documento.Documento, ator Ator, assinado []byte, detalhes, origem string) (*documento.Documento, error) {
	chave := fmt.Sprintf("assinados/%s/%d.pdf", doc.ID, time.Now().UTC().UnixNano())
	if _, err := s.store.Upload(ctx, storage.UploadInput{
		Key:         chave,
		Body:        assinado,
		ContentType: "application/pdf",
	}); err != nil {
		return nil, fmt.Errorf("workflow: upload do assinado: %w", err)
	}

	para, ok := ProximaEtapa(doc.Etapa)
	if !ok {
		return nil, ErrDocumentoEncerrado
	}

	err := s.transicionar(ctx, doc, ator, para, true, auditoria.Registro{
		DocumentoID: doc.ID,
		UsuarioID:   &ator.ID,
		Acao:        auditoria.AcaoAssinatura,
		Detalhes:    detalhes,
		Origem:      origem,
	}, func(ctx context.Context, q db.Querier) error {
		return s.docs.SetChaveAssinado(ctx, q, doc.ID, chave)
	})
	if err != nil {
		return nil, err
	}

	doc.ChaveAssinado = &chave
	s.notificarProximo(ctx, doc, ator.ID)
	return doc, nil
}

// PagamentoInput carrega os dados obrigatórios da conclusão.
type PagamentoInput struct {
	Data            time.Time
	Comprovante     []byte
	ComprovanteNome string
	MediaType       string
	Origem          string
}

// RegistrarPagamento conclui o documento: exige data e comprovante, grava
// ambos junto com a transição e depois realoca o artefato final.
func (s *Service) RegistrarPagamento(ctx context.Context, documentoID uuid.UUID, ator Ator, input PagamentoInput) (*documento.Documento, error) {
	doc, _, err := s.carregarParaAcao(ctx, documentoID, ator)
	if err != nil {
		return nil, err
	}
	if doc.Etapa != documento.EtapaPagamento {
		return nil, ErrEtapaIncorreta
	}
	if input.Data.IsZero() || len(input.Comprovante) == 0 {
		return nil, ErrPagamentoIncompleto
	}

	mediaType := input.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	chaveComprovante := fmt.Sprintf("comprovantes/%s/%s", doc.ID, sanitizarNome(input.ComprovanteNome))
	if _, err := s.store.Upload(ctx, storage.UploadInput{
		Key:         chaveComprovante,
		Body:        input.Comprovante,
		ContentType: mediaType,
	}); err != nil {
		return nil, fmt.Errorf("workflow: upload do comprovante: %w", err)
	}

	err = s.transicionar(ctx, doc, ator, documento.EtapaConcluido, true, auditoria.Registro{
		DocumentoID: doc.ID,
		UsuarioID:   &ator.ID,
		Acao:        auditoria.AcaoPagamento,
		Detalhes:    fmt.Sprintf("pagamento em %s, comprovante %q", input.Data.Format("2006-01-02"), input.ComprovanteNome),
		Origem:      input.Origem,
	}, func(ctx context.Context, q db.Querier) error {
		return s.docs.SetPagamento(ctx, q, doc.ID, input.Data, chaveComprovante)
	})
	if err != nil {
		return nil, err
	}

	doc.DataPagamento = &input.Data
	doc.ChaveComprovante = &chaveComprovante
	s.realocarFinal(ctx, doc)
	s.notificarConclusao(ctx, doc)
	return doc, nil
}

// Excluir marca o documento do criador como excluído, preservando a trilha.
func (s *Service) Excluir(ctx context.Context, documentoID uuid.UUID, ator Ator, origem string) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		if err := s.docs.SoftDelete(ctx, q, documentoID, ator.ID); err != nil {
			return err
		}
		return s.audit.Registrar(ctx, q, auditoria.Registro{
			DocumentoID: documentoID,
			UsuarioID:   &ator.ID,
			Acao:        auditoria.AcaoExclusao,
			Detalhes:    "documento excluído pelo criador",
			Origem:      origem,
		})
	})
}

// Baixar devolve o artefato corrente do documento para quem pode vê-lo.
// Downloads geram entrada de auditoria; visualizações não.
func (s *Service) Baixar(ctx context.Context, documentoID uuid.UUID, ator Ator, origem string, registrar bool) ([]byte, string, string, error) {
	doc, err := s.docs.GetByID(ctx, documentoID)
	if err != nil {
		return nil, "", "", err
	}
	assinantes, err := s.docs.ListAssinantes(ctx, doc.ID)
	if err != nil {
		return nil, "", "", err
	}
	if !podeVer(doc, assinantes, ator) {
		return nil, "", "", ErrForbidden
	}

	conteudo, mediaType, err := s.artefatoAtualTipado(ctx, doc)
	if err != nil {
		return nil, "", "", err
	}

	// a trilha é parte da operação: download sem registro não é servido
	if registrar {
		if err := s.audit.RegistrarDireto(ctx, auditoria.Registro{
			DocumentoID: doc.ID,
			UsuarioID:   &ator.ID,
			Acao:        auditoria.AcaoDownload,
			Detalhes:    fmt.Sprintf("download de %q", doc.ArquivoNome),
			Origem:      origem,
		}); err != nil {
			return nil, "", "", fmt.Errorf("workflow: auditoria de download: %w", err)
		}
	}
	return conteudo, mediaType, doc.ArquivoNome, nil
}

// Consultar devolve documento e cadeia para quem pode vê-lo.
func (s *Service) Consultar(ctx context.Context, documentoID uuid.UUID, ator Ator) (*documento.Documento, []documento.Assinante, error) {
	doc, err := s.docs.GetByID(ctx, documentoID)
	if err != nil {
		return nil, nil, err
	}
	assinantes, err := s.docs.ListAssinantes(ctx, doc.ID)
	if err != nil {
		return nil, nil, err
	}
	if !podeVer(doc, assinantes, ator) {
		return nil, nil, ErrForbidden
	}
	return doc, assinantes, nil
}

// Pendentes lista os documentos em que o ator é o próximo a agir.
func (s *Service) Pendentes(ctx context.Context, ator Ator) ([]documento.Documento, error) {
	return s.docs.ListPendentesPara(ctx, ator.ID)
}

// Enviados lista os documentos criados pelo ator.
func (s *Service) Enviados(ctx context.Context, ator Ator) ([]documento.Documento, error) {
	return s.docs.ListDoCriador(ctx, ator.ID)
}

func (s *Service) carregarParaAcao(ctx context.Context, documentoID uuid.UUID, ator Ator) (*documento.Documento, []documento.Assinante, error) {
	doc, err := s.docs.GetByID(ctx, documentoID)
	if err != nil {
		return nil, nil, err
	}
	if doc.Etapa.Terminal() {
		return nil, nil, ErrDocumentoEncerrado
	}
	assinantes, err := s.docs.ListAssinantes(ctx, doc.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.politica.Autorizar(doc, assinantes, ator); err != nil {
		return nil, nil, err
	}
	return doc, assinantes, nil
}

// transicionar é o núcleo de toda mutação de etapa: a troca só acontece se a
// etapa no banco ainda for a que o chamador leu, e a auditoria confirma na
// mesma transação.
func (s *Service) transicionar(ctx context.Context, doc *documento.Documento, ator Ator, para documento.Etapa, marcarAssinado bool, reg auditoria.Registro, extra func(ctx context.Context, q db.Querier) error) error {
	de := doc.Etapa
	err := s.tx.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		trocou, err := s.docs.EtapaCAS(ctx, q, doc.ID, de, para)
		if err != nil {
			return err
		}
		if !trocou {
			return ErrEtapaDesatualizada
		}
		if marcarAssinado {
			if err := s.docs.MarcarAssinanteAssinado(ctx, q, doc.ID, ator.ID); err != nil {
				return err
			}
		}
		if extra != nil {
			if err := extra(ctx, q); err != nil {
				return err
			}
		}
		return s.audit.Registrar(ctx, q, reg)
	})
	if err != nil {
		return err
	}
	doc.Etapa = para
	return nil
}

func (s *Service) artefatoAtual(ctx context.Context, doc *documento.Documento) ([]byte, string, error) {
	chave := doc.ChaveOriginal
	if doc.ChaveAssinado != nil && *doc.ChaveAssinado != "" {
		chave = *doc.ChaveAssinado
	}
	conteudo, mediaType, err := s.store.Fetch(ctx, chave)
	if err != nil {
		return nil, "", fmt.Errorf("workflow: artefato %s: %w", chave, err)
	}
	return conteudo, mediaType, nil
}

func (s *Service) artefatoAtualTipado(ctx context.Context, doc *documento.Documento) ([]byte, string, error) {
	conteudo, mediaType, err := s.artefatoAtual(ctx, doc)
	if err != nil {
		return nil, "", err
	}
	if mediaType == "" {
		mediaType = doc.MediaType
	}
	return conteudo, mediaType, nil
}

// realocarFinal copia o artefato assinado para o prefixo de finalizados.
// A conclusão já confirmou; falha aqui só gera log.
func (s *Service) realocarFinal(ctx context.Context, doc *documento.Documento) {
	conteudo, mediaType, err := s.artefatoAtual(ctx, doc)
	if err != nil {
		s.log.Warn().Err(err).Str("documento", doc.ID.String()).Msg("realocação final: leitura falhou")
		return
	}
	chave := fmt.Sprintf("%s/%s.pdf", strings.TrimSuffix(s.finalPrefix, "/"), doc.ID)
	if _, err := s.store.Upload(ctx, storage.UploadInput{Key: chave, Body: conteudo, ContentType: mediaType}); err != nil {
		s.log.Warn().Err(err).Str("documento", doc.ID.String()).Msg("realocação final: gravação falhou")
	}
}

func (s *Service) notificarProximo(ctx context.Context, doc *documento.Documento, atorID uuid.UUID) {
	if s.notificador == nil || doc.Etapa.Terminal() {
		return
	}
	assinantes, err := s.docs.ListAssinantes(ctx, doc.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("documento", doc.ID.String()).Msg("notificação: cadeia indisponível")
		return
	}
	prox := proximoAssinante(assinantes)
	if prox == nil || prox.UsuarioID == atorID {
		return
	}
	if err := s.notificador.Notificar(ctx, notify.Aviso{
		DocumentoID: doc.ID,
		Titulo:      doc.Titulo,
		Etapa:       string(doc.Etapa),
		Usuario:     prox.UsuarioID,
	}); err != nil {
		s.log.Warn().Err(err).Str("documento", doc.ID.String()).Msg("notificação do próximo aprovador falhou")
	}
}

func (s *Service) notificarConclusao(ctx context.Context, doc *documento.Documento) {
	if s.notificador == nil {
		return
	}
	if err := s.notificador.Notificar(ctx, notify.Aviso{
		DocumentoID: doc.ID,
		Titulo:      doc.Titulo,
		Etapa:       string(doc.Etapa),
		Usuario:     doc.CriadoPor,
		Mensagem:    fmt.Sprintf("Documento %q concluído", doc.Titulo),
	}); err != nil {
		s.log.Warn().Err(err).Str("documento", doc.ID.String()).Msg("notificação de conclusão falhou")
	}
}

func podeVer(doc *documento.Documento, assinantes []documento.Assinante, ator Ator) bool {
	if doc.CriadoPor == ator.ID || ator.Papel == usuario.PapelAdmin {
		return true
	}
	for _, a := range assinantes {
		if a.UsuarioID == ator.ID {
			return true
		}
	}
	return false
}

func sanitizarNome(nome string) string {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return "arquivo.pdf"
	}
	nome = strings.ReplaceAll(nome, "/", "_")
	return strings.ReplaceAll(nome, "\\", "_")
}
