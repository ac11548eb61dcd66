package documento

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fluxodoc/aprovacao/internal/db"
)

const documentoCols = `id, titulo, arquivo_nome, tamanho, media_type, valor, setor, criado_por,
        etapa, chave_original, chave_assinado, data_pagamento, chave_comprovante,
        concluido_em, excluido_em, criado_em, atualizado_em`

// colsComAlias qualifica a lista de colunas para consultas com join, onde
// "id" existiria em mais de uma relação.
func colsComAlias(alias string) string {
	cols := strings.Split(documentoCols, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// Repository provê acesso às tabelas de documentos e assinantes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateTx insere documento e cadeia de assinantes usando o executor do
// chamador, para que a entrada de auditoria do upload participe da mesma
// transação.
func (r *Repository) CreateTx(ctx context.Context, q db.Querier, input CreateInput) (*Documento, error) {
	const query = `
        INSERT INTO documentos (titulo, arquivo_nome, tamanho, media_type, valor, setor, criado_por, etapa, chave_original)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + documentoCols

	row := q.QueryRow(ctx, query,
		strings.TrimSpace(input.Titulo),
		strings.TrimSpace(input.ArquivoNome),
		input.Tamanho,
		input.MediaType,
		input.Valor,
		strings.TrimSpace(input.Setor),
		input.CriadoPor,
		string(EtapaContabilidade),
		input.ChaveOriginal,
	)

	d, err := scanDocumento(row)
	if err != nil {
		return nil, err
	}

	const insAssinante = `
        INSERT INTO documento_assinantes (documento_id, usuario_id, papel, ordem)
        VALUES ($1, $2, $3, $4)
    `
	for i, a := range input.Assinantes {
		if _, err := q.Exec(ctx, insAssinante, d.ID, a.UsuarioID, strings.ToLower(strings.TrimSpace(a.Papel)), i); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// GetByID busca documento não excluído.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Documento, error) {
	const query = `
        SELECT ` + documentoCols + `
        FROM documentos
        WHERE id = $1 AND excluido_em IS NULL
    `
	row := r.pool.QueryRow(ctx, query, id)
	return scanDocumento(row)
}

// ListAssinantes devolve a cadeia ordenada do documento.
func (r *Repository) ListAssinantes(ctx context.Context, documentoID uuid.UUID) ([]Assinante, error) {
	const query = `
        SELECT id, documento_id, usuario_id, papel, ordem, situacao, assinado_em
        FROM documento_assinantes
        WHERE documento_id = $1
        ORDER BY ordem
    `
	rows, err := r.pool.Query(ctx, query, documentoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assinantes []Assinante
	for rows.Next() {
		var a Assinante
		if err := rows.Scan(&a.ID, &a.DocumentoID, &a.UsuarioID, &a.Papel, &a.Ordem, &a.Situacao, &a.AssinadoEm); err != nil {
			return nil, err
		}
		assinantes = append(assinantes, a)
	}
	return assinantes, rows.Err()
}

// ListPendentesPara lista documentos cuja vez é do usuário informado:
// ele é o assinante pendente de menor ordem e o documento segue em revisão.
func (r *Repository) ListPendentesPara(ctx context.Context, usuarioID uuid.UUID) ([]Documento, error) {
	query := `
        SELECT ` + colsComAlias("d") + `
        FROM documentos d
        JOIN documento_assinantes a ON a.documento_id = d.id
        WHERE a.usuario_id = $1
          AND a.situacao = 'pendente'
          AND d.excluido_em IS NULL
          AND d.etapa NOT IN ('concluido', 'rejeitado')
          AND a.ordem = (
              SELECT MIN(ordem) FROM documento_assinantes
              WHERE documento_id = d.id AND situacao = 'pendente'
          )
        ORDER BY d.criado_em DESC
    `
	rows, err := r.pool.Query(ctx, query, usuarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Documento
	for rows.Next() {
		d, err := scanDocumento(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// ListDoCriador lista documentos criados pelo usuário.
func (r *Repository) ListDoCriador(ctx context.Context, criadoPor uuid.UUID) ([]Documento, error) {
	const query = `
        SELECT ` + documentoCols + `
        FROM documentos
        WHERE criado_por = $1 AND excluido_em IS NULL
        ORDER BY criado_em DESC
    `
	rows, err := r.pool.Query(ctx, query, criadoPor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Documento
	for rows.Next() {
		d, err := scanDocumento(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// EtapaCAS avança a etapa somente se ela ainda for a esperada; zero linhas
// atualizadas significa que outra transição ganhou a corrida.
func (r *Repository) EtapaCAS(ctx context.Context, q db.Querier, id uuid.UUID, de, para Etapa) (bool, error) {
	const query = `
        UPDATE documentos
        SET etapa = $3, atualizado_em = NOW(),
            concluido_em = CASE WHEN $3 = 'concluido' THEN NOW() ELSE concluido_em END
        WHERE id = $1 AND etapa = $2 AND excluido_em IS NULL
    `
	tag, err := q.Exec(ctx, query, id, string(de), string(para))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarcarAssinanteAssinado registra a assinatura do elo pendente do usuário.
func (r *Repository) MarcarAssinanteAssinado(ctx context.Context, q db.Querier, documentoID, usuarioID uuid.UUID) error {
	const query = `
        UPDATE documento_assinantes
        SET situacao = 'assinado', assinado_em = NOW()
        WHERE documento_id = $1 AND usuario_id = $2 AND situacao = 'pendente'
    `
	tag, err := q.Exec(ctx, query, documentoID, usuarioID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAssinanteNotFound
	}
	return nil
}

// SetChaveAssinado grava a chave do artefato assinado.
func (r *Repository) SetChaveAssinado(ctx context.Context, q db.Querier, id uuid.UUID, chave string) error {
	const query = `
        UPDATE documentos SET chave_assinado = $2, atualizado_em = NOW()
        WHERE id = $1 AND excluido_em IS NULL
    `
	tag, err := q.Exec(ctx, query, id, chave)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPagamento grava data e comprovante; só faz sentido na etapa de pagamento,
// o que o serviço de workflow garante antes de chamar.
func (r *Repository) SetPagamento(ctx context.Context, q db.Querier, id uuid.UUID, data time.Time, chaveComprovante string) error {
	const query = `
        UPDATE documentos SET data_pagamento = $2, chave_comprovante = $3, atualizado_em = NOW()
        WHERE id = $1 AND excluido_em IS NULL
    `
	tag, err := q.Exec(ctx, query, id, data, chaveComprovante)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marca o documento como excluído preservando a auditoria.
func (r *Repository) SoftDelete(ctx context.Context, q db.Querier, id, criadoPor uuid.UUID) error {
	const query = `
        UPDATE documentos SET excluido_em = NOW(), atualizado_em = NOW()
        WHERE id = $1 AND criado_por = $2 AND excluido_em IS NULL
    `
	tag, err := q.Exec(ctx, query, id, criadoPor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocumento(row pgx.Row) (*Documento, error) {
	var d Documento
	var etapa string
	if err := row.Scan(
		&d.ID, &d.Titulo, &d.ArquivoNome, &d.Tamanho, &d.MediaType, &d.Valor, &d.Setor, &d.CriadoPor,
		&etapa, &d.ChaveOriginal, &d.ChaveAssinado, &d.DataPagamento, &d.ChaveComprovante,
		&d.ConcluidoEm, &d.ExcluidoEm, &d.CriadoEm, &d.AtualizadoEm,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.Etapa = Etapa(etapa)
	return &d, nil
}
