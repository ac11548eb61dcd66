// Package auditoria mantém a trilha imutável de ações sobre documentos.
// Registros são somente-apêndice: não existe caminho de atualização ou
// remoção, e a escrita participa da transação da operação que a originou.
package auditoria

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fluxodoc/aprovacao/internal/db"
)

// Ações registradas na trilha.
const (
	AcaoUpload     = "upload"
	AcaoAprovacao  = "aprovacao"
	AcaoRejeicao   = "rejeicao"
	AcaoAssinatura = "assinatura"
	AcaoPagamento  = "pagamento"
	AcaoDownload   = "download"
	AcaoExclusao   = "exclusao"
)

// Entrada é um evento imutável da trilha.
type Entrada struct {
	ID          int64      `json:"id"`
	DocumentoID uuid.UUID  `json:"documento_id"`
	UsuarioID   *uuid.UUID `json:"usuario_id,omitempty"`
	Acao        string     `json:"acao"`
	Detalhes    string     `json:"detalhes"`
	Origem      string     `json:"origem"`
	CriadoEm    time.Time  `json:"criado_em"`
}

// Registro descreve um evento a gravar.
type Registro struct {
	DocumentoID uuid.UUID
	UsuarioID   *uuid.UUID
	Acao        string
	Detalhes    string
	Origem      string
}

// Repository escreve e consulta a trilha.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Registrar grava uma entrada usando o executor informado; passando a
// transação da operação, estado e trilha confirmam juntos ou nenhum.
func (r *Repository) Registrar(ctx context.Context, q db.Querier, reg Registro) error {
	const query = `
        INSERT INTO auditoria (documento_id, usuario_id, acao, detalhes, origem)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := q.Exec(ctx, query,
		reg.DocumentoID,
		reg.UsuarioID,
		strings.TrimSpace(reg.Acao),
		reg.Detalhes,
		strings.TrimSpace(reg.Origem),
	)
	return err
}

// RegistrarDireto grava fora de transação (ações sem mutação de estado,
// como download).
func (r *Repository) RegistrarDireto(ctx context.Context, reg Registro) error {
	return r.Registrar(ctx, r.pool, reg)
}

// ListByDocumento devolve as entradas do documento, mais recentes primeiro.
func (r *Repository) ListByDocumento(ctx context.Context, documentoID uuid.UUID, limit, offset int) ([]Entrada, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
        SELECT id, documento_id, usuario_id, acao, detalhes, origem, criado_em
        FROM auditoria
        WHERE documento_id = $1
        ORDER BY criado_em DESC, id DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, query, documentoID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entradas []Entrada
	for rows.Next() {
		var e Entrada
		if err := rows.Scan(&e.ID, &e.DocumentoID, &e.UsuarioID, &e.Acao, &e.Detalhes, &e.Origem, &e.CriadoEm); err != nil {
			return nil, err
		}
		entradas = append(entradas, e)
	}
	return entradas, rows.Err()
}
