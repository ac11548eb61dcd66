package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate aplica o schema mínimo necessário para o fluxo de aprovação.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE TABLE IF NOT EXISTS usuarios (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			nome TEXT NOT NULL,
			login TEXT NOT NULL UNIQUE,
			senha_hash TEXT NOT NULL,
			papel TEXT NOT NULL,
			setor TEXT NOT NULL DEFAULT '',
			criado_em TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS assinaturas_imagem (
			usuario_id UUID PRIMARY KEY REFERENCES usuarios(id) ON DELETE CASCADE,
			conteudo BYTEA NOT NULL,
			media_type TEXT NOT NULL,
			atualizado_em TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS documentos (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			titulo TEXT NOT NULL,
			arquivo_nome TEXT NOT NULL,
			tamanho BIGINT NOT NULL,
			media_type TEXT NOT NULL,
			valor NUMERIC(14,2) NOT NULL DEFAULT 0,
			setor TEXT NOT NULL DEFAULT '',
			criado_por UUID NOT NULL REFERENCES usuarios(id),
			etapa TEXT NOT NULL,
			chave_original TEXT NOT NULL,
			chave_assinado TEXT,
			data_pagamento DATE,
			chave_comprovante TEXT,
			concluido_em TIMESTAMPTZ,
			excluido_em TIMESTAMPTZ,
			criado_em TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			atualizado_em TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS documento_assinantes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			documento_id UUID NOT NULL REFERENCES documentos(id) ON DELETE CASCADE,
			usuario_id UUID NOT NULL REFERENCES usuarios(id),
			papel TEXT NOT NULL,
			ordem INT NOT NULL,
			situacao TEXT NOT NULL DEFAULT 'pendente',
			assinado_em TIMESTAMPTZ,
			UNIQUE (documento_id, ordem)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_assinantes_usuario ON documento_assinantes(usuario_id, situacao);`,
		`CREATE TABLE IF NOT EXISTS auditoria (
			id BIGSERIAL PRIMARY KEY,
			documento_id UUID NOT NULL,
			usuario_id UUID,
			acao TEXT NOT NULL,
			detalhes TEXT NOT NULL DEFAULT '',
			origem TEXT NOT NULL DEFAULT '',
			criado_em TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_auditoria_documento ON auditoria(documento_id, criado_em DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
