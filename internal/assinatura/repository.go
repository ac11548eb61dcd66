package assinatura

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSemAssinatura indica usuário sem imagem de assinatura cadastrada.
var ErrSemAssinatura = errors.New("assinatura não cadastrada")

// Imagem é a imagem de assinatura de um usuário: uma por ator, substituível.
type Imagem struct {
	UsuarioID    uuid.UUID `json:"usuario_id"`
	Conteudo     []byte    `json:"-"`
	MediaType    string    `json:"media_type"`
	AtualizadoEm time.Time `json:"atualizado_em"`
}

// Repository guarda imagens de assinatura.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert grava ou substitui a imagem do usuário.
func (r *Repository) Upsert(ctx context.Context, usuarioID uuid.UUID, conteudo []byte, mediaType string) (*Imagem, error) {
	const query = `
        INSERT INTO assinaturas_imagem (usuario_id, conteudo, media_type, atualizado_em)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (usuario_id)
        DO UPDATE SET conteudo = EXCLUDED.conteudo, media_type = EXCLUDED.media_type, atualizado_em = NOW()
        RETURNING usuario_id, conteudo, media_type, atualizado_em
    `
	row := r.pool.QueryRow(ctx, query, usuarioID, conteudo, mediaType)
	return scanImagem(row)
}

// Get devolve a imagem cadastrada do usuário.
func (r *Repository) Get(ctx context.Context, usuarioID uuid.UUID) (*Imagem, error) {
	const query = `
        SELECT usuario_id, conteudo, media_type, atualizado_em
        FROM assinaturas_imagem
        WHERE usuario_id = $1
    `
	row := r.pool.QueryRow(ctx, query, usuarioID)
	return scanImagem(row)
}

// Delete remove a imagem do usuário.
func (r *Repository) Delete(ctx context.Context, usuarioID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assinaturas_imagem WHERE usuario_id = $1`, usuarioID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSemAssinatura
	}
	return nil
}

func scanImagem(row pgx.Row) (*Imagem, error) {
	var img Imagem
	if err := row.Scan(&img.UsuarioID, &img.Conteudo, &img.MediaType, &img.AtualizadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSemAssinatura
		}
		return nil, err
	}
	return &img, nil
}
