package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indica chave inexistente no backend.
	ErrNotFound = errors.New("storage: objeto não encontrado")
	// ErrIndisponivel indica falha de comunicação com o backend de objetos.
	ErrIndisponivel = errors.New("storage: backend indisponível")
)

// UploadInput representa uma operação de upload simples.
type UploadInput struct {
	Key         string
	Body        []byte
	ContentType string
}

// UploadResult descreve o artefato persistido.
type UploadResult struct {
	Key  string
	URL  string
	ETag string
}

// ObjectStore guarda e recupera blobs opacos: uma chave por artefato,
// imutável depois de gravada.
type ObjectStore interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
	Fetch(ctx context.Context, key string) ([]byte, string, error)
}
