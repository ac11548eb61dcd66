package diretorio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrCredenciaisInvalidas indica login/senha recusados pelo diretório.
	ErrCredenciaisInvalidas = errors.New("diretorio: credenciais inválidas")
	// ErrIndisponivel indica falha de comunicação com o serviço de diretório.
	ErrIndisponivel = errors.New("diretorio: serviço indisponível")
)

// Identidade é o retorno de uma verificação bem sucedida.
type Identidade struct {
	Login string `json:"login"`
	Nome  string `json:"nome"`
	Papel string `json:"papel"`
	Setor string `json:"setor"`
}

// Verificador valida credenciais contra um provedor externo.
type Verificador interface {
	Verificar(ctx context.Context, login, senha string) (*Identidade, error)
}

// Client fala com o serviço de diretório via HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Config descreve endereço e limite de tempo das chamadas.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New cria cliente com timeout obrigatório.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("diretorio: url base obrigatória")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
	}, nil
}

// Verificar envia login/senha e devolve a identidade confirmada.
func (c *Client) Verificar(ctx context.Context, login, senha string) (*Identidade, error) {
	payload, err := json.Marshal(map[string]string{
		"login": login,
		"senha": senha,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndisponivel, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var ident Identidade
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&ident); err != nil {
			return nil, fmt.Errorf("%w: resposta malformada", ErrIndisponivel)
		}
		if strings.TrimSpace(ident.Login) == "" {
			return nil, fmt.Errorf("%w: identidade vazia", ErrIndisponivel)
		}
		return &ident, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrCredenciaisInvalidas
	default:
		return nil, fmt.Errorf("%w: status %d", ErrIndisponivel, resp.StatusCode)
	}
}
