package assinatura

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrSessaoNaoEncontrada indica sessão expirada ou inexistente.
	ErrSessaoNaoEncontrada = errors.New("sessão de assinatura não encontrada")
	// ErrPosicaoInvalida indica página ou percentuais fora dos limites.
	ErrPosicaoInvalida = errors.New("posição de assinatura inválida")
)

// Posicao é uma marca em uma página: no máximo uma por página.
type Posicao struct {
	Pagina int     `json:"pagina"`
	XPct   float64 `json:"x_pct"`
	YPct   float64 `json:"y_pct"`
}

// Sessao acumula as marcas de um usuário sobre um documento até o "aplicar".
// Vive apenas no Redis: expirar ou cancelar não deixa efeito algum no servidor.
type Sessao struct {
	ID          string    `json:"id"`
	DocumentoID uuid.UUID `json:"documento_id"`
	UsuarioID   uuid.UUID `json:"usuario_id"`
	Posicoes    []Posicao `json:"posicoes"`
	CriadaEm    time.Time `json:"criada_em"`
}

type redisSessao interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SessaoStore guarda sessões de posicionamento com TTL.
type SessaoStore struct {
	redis redisSessao
	ttl   time.Duration
}

// NewSessaoStore cria o store com o TTL configurado.
func NewSessaoStore(redisClient redisSessao, ttl time.Duration) *SessaoStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessaoStore{redis: redisClient, ttl: ttl}
}

func sessaoKey(id string) string {
	return fmt.Sprintf("sessao:assinatura:%s", id)
}

// Iniciar abre uma sessão vazia para o par documento/usuário.
func (s *SessaoStore) Iniciar(ctx context.Context, documentoID, usuarioID uuid.UUID) (*Sessao, error) {
	sessao := &Sessao{
		ID:          uuid.NewString(),
		DocumentoID: documentoID,
		UsuarioID:   usuarioID,
		Posicoes:    []Posicao{},
		CriadaEm:    time.Now().UTC(),
	}
	if err := s.salvar(ctx, sessao); err != nil {
		return nil, err
	}
	return sessao, nil
}

// Alternar aplica a semântica de clique: página sem marca ganha uma; página
// já marcada perde a marca, mesmo que o clique esteja em outro ponto.
// Devolve a sessão atualizada e se a marca foi adicionada.
func (s *SessaoStore) Alternar(ctx context.Context, sessaoID string, p Posicao) (*Sessao, bool, error) {
	if p.Pagina < 1 || p.XPct < 0 || p.XPct > 100 || p.YPct < 0 || p.YPct > 100 {
		return nil, false, ErrPosicaoInvalida
	}

	sessao, err := s.Get(ctx, sessaoID)
	if err != nil {
		return nil, false, err
	}

	adicionada := true
	filtradas := sessao.Posicoes[:0]
	for _, existente := range sessao.Posicoes {
		if existente.Pagina == p.Pagina {
			adicionada = false
			continue
		}
		filtradas = append(filtradas, existente)
	}
	sessao.Posicoes = filtradas
	if adicionada {
		sessao.Posicoes = append(sessao.Posicoes, p)
		sort.Slice(sessao.Posicoes, func(i, j int) bool {
			return sessao.Posicoes[i].Pagina < sessao.Posicoes[j].Pagina
		})
	}

	if err := s.salvar(ctx, sessao); err != nil {
		return nil, false, err
	}
	return sessao, adicionada, nil
}

// Get carrega a sessão, renovando nada.
func (s *SessaoStore) Get(ctx context.Context, sessaoID string) (*Sessao, error) {
	data, err := s.redis.Get(ctx, sessaoKey(sessaoID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessaoNaoEncontrada
		}
		return nil, err
	}

	var sessao Sessao
	if err := json.Unmarshal([]byte(data), &sessao); err != nil {
		return nil, ErrSessaoNaoEncontrada
	}
	return &sessao, nil
}

// Cancelar descarta a sessão sem efeitos colaterais.
func (s *SessaoStore) Cancelar(ctx context.Context, sessaoID string) error {
	return s.redis.Del(ctx, sessaoKey(sessaoID)).Err()
}

// Consumir devolve a sessão e a remove; chamado no "aplicar", ponto a partir
// do qual a operação deixa de ser cancelável.
func (s *SessaoStore) Consumir(ctx context.Context, sessaoID string) (*Sessao, error) {
	sessao, err := s.Get(ctx, sessaoID)
	if err != nil {
		return nil, err
	}
	if err := s.Cancelar(ctx, sessaoID); err != nil {
		return nil, err
	}
	return sessao, nil
}

func (s *SessaoStore) salvar(ctx context.Context, sessao *Sessao) error {
	data, err := json.Marshal(sessao)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessaoKey(sessao.ID), data, s.ttl).Err()
}
