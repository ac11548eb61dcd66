package storage

import (
	"context"
	"errors"
)

// NoopStore devolve erro indicando que não há backend configurado.
type NoopStore struct{}

// Upload sempre retorna erro, sinalizando que o recurso não está disponível.
func (NoopStore) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return nil, errors.New("storage: backend não configurado")
}

// Fetch sempre retorna erro, sinalizando que o recurso não está disponível.
func (NoopStore) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	return nil, "", errors.New("storage: backend não configurado")
}
