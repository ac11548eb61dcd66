package usuario

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provê acesso à tabela de usuários.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create insere um novo usuário.
func (r *Repository) Create(ctx context.Context, input CreateInput, senhaHash string) (*Usuario, error) {
	const query = `
        INSERT INTO usuarios (nome, login, senha_hash, papel, setor)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, nome, login, senha_hash, papel, setor, criado_em
    `

	row := r.pool.QueryRow(ctx, query,
		strings.TrimSpace(input.Nome),
		strings.ToLower(strings.TrimSpace(input.Login)),
		senhaHash,
		NormalizePapel(input.Papel),
		strings.TrimSpace(input.Setor),
	)

	u, err := scanUsuario(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrLoginEmUso
		}
		return nil, err
	}
	return u, nil
}

// GetByLogin busca usuário pelo login.
func (r *Repository) GetByLogin(ctx context.Context, login string) (*Usuario, error) {
	const query = `
        SELECT id, nome, login, senha_hash, papel, setor, criado_em
        FROM usuarios
        WHERE login = $1
    `
	row := r.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(login)))
	return scanUsuario(row)
}

// GetByID busca usuário pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Usuario, error) {
	const query = `
        SELECT id, nome, login, senha_hash, papel, setor, criado_em
        FROM usuarios
        WHERE id = $1
    `
	row := r.pool.QueryRow(ctx, query, id)
	return scanUsuario(row)
}

// ListByPapel lista usuários com determinado papel.
func (r *Repository) ListByPapel(ctx context.Context, papel string) ([]Usuario, error) {
	const query = `
        SELECT id, nome, login, senha_hash, papel, setor, criado_em
        FROM usuarios
        WHERE papel = $1
        ORDER BY nome
    `
	rows, err := r.pool.Query(ctx, query, NormalizePapel(papel))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usuarios []Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, err
		}
		usuarios = append(usuarios, *u)
	}
	return usuarios, rows.Err()
}

func scanUsuario(row pgx.Row) (*Usuario, error) {
	var u Usuario
	if err := row.Scan(&u.ID, &u.Nome, &u.Login, &u.SenhaHash, &u.Papel, &u.Setor, &u.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
