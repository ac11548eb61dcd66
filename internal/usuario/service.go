package usuario

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fluxodoc/aprovacao/internal/auth"
	"github.com/fluxodoc/aprovacao/internal/diretorio"
	"github.com/fluxodoc/aprovacao/internal/util"
)

var (
	// ErrCredenciais indica login ou senha incorretos.
	ErrCredenciais = errors.New("credenciais inválidas")
	// ErrRefreshInvalido indica refresh token desconhecido ou expirado.
	ErrRefreshInvalido = errors.New("refresh token inválido")
)

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Repositorio é o recorte de persistência usado pelo serviço.
type Repositorio interface {
	Create(ctx context.Context, input CreateInput, senhaHash string) (*Usuario, error)
	GetByLogin(ctx context.Context, login string) (*Usuario, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Usuario, error)
	ListByPapel(ctx context.Context, papel string) ([]Usuario, error)
}

// Service concentra cadastro e autenticação de usuários.
type Service struct {
	repo       Repositorio
	dir        diretorio.Verificador
	jwt        *auth.JWTManager
	redis      redisCommander
	refreshTTL time.Duration
}

// NewService cria o serviço; dir pode ser nil quando só há verificação local.
func NewService(repo Repositorio, dir diretorio.Verificador, jwtMgr *auth.JWTManager, redisClient redisCommander, refreshTTL time.Duration) *Service {
	return &Service{repo: repo, dir: dir, jwt: jwtMgr, redis: redisClient, refreshTTL: refreshTTL}
}

// LoginResult agrega tokens emitidos em um login bem sucedido.
type LoginResult struct {
	Usuario       *Usuario  `json:"usuario"`
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	RefreshExpiry time.Time `json:"refresh_expiry"`
}

type refreshState struct {
	UsuarioID uuid.UUID `json:"usuario_id"`
}

// Criar cadastra usuário local com senha Argon2id.
func (s *Service) Criar(ctx context.Context, input CreateInput) (*Usuario, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, err
	}
	if err := util.RequireString(input.Login, "login"); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(input.Senha); err != nil {
		return nil, err
	}
	if !IsValidPapel(input.Papel) {
		return nil, ErrPapelInvalido
	}

	hash, err := auth.Hash(input.Senha)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, input, hash)
}

// Autenticar valida credenciais no diretório externo quando configurado,
// caindo para a verificação local; emite access + refresh tokens.
func (s *Service) Autenticar(ctx context.Context, login, senha string) (*LoginResult, error) {
	u, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrCredenciais
		}
		return nil, err
	}

	if s.dir != nil {
		_, err := s.dir.Verificar(ctx, login, senha)
		switch {
		case err == nil:
			// identidade confirmada pelo diretório
		case errors.Is(err, diretorio.ErrCredenciaisInvalidas):
			return nil, ErrCredenciais
		case errors.Is(err, diretorio.ErrIndisponivel):
			// diretório fora do ar: cai para verificação local
			log.Warn().Err(err).Msg("diretório indisponível, usando verificação local")
			if err := s.verificarLocal(senha, u); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	} else {
		if err := s.verificarLocal(senha, u); err != nil {
			return nil, err
		}
	}

	return s.emitirTokens(ctx, u)
}

// Refresh troca refresh token válido por novos tokens.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalido
	}

	hash := auth.HashRefreshToken(rawToken)
	key := auth.RefreshRedisKey(hash)

	data, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRefreshInvalido
		}
		return nil, err
	}

	var state refreshState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, ErrRefreshInvalido
	}

	u, err := s.repo.GetByID(ctx, state.UsuarioID)
	if err != nil {
		return nil, ErrRefreshInvalido
	}

	// rotação: o token usado deixa de valer
	_ = s.redis.Del(ctx, key).Err()

	return s.emitirTokens(ctx, u)
}

// Logout revoga o refresh token informado.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	key := auth.RefreshRedisKey(auth.HashRefreshToken(rawToken))
	return s.redis.Del(ctx, key).Err()
}

// GetByID expõe consulta simples usada pelos handlers.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Usuario, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByPapel lista usuários de um papel da cadeia, para a montagem da
// lista de assinantes no upload.
func (s *Service) ListByPapel(ctx context.Context, papel string) ([]Usuario, error) {
	papel = NormalizePapel(papel)
	if !IsValidPapel(papel) {
		return nil, ErrPapelInvalido
	}
	return s.repo.ListByPapel(ctx, papel)
}

func (s *Service) verificarLocal(senha string, u *Usuario) error {
	ok, err := auth.Verify(senha, u.SenhaHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCredenciais
	}
	return nil
}

func (s *Service) emitirTokens(ctx context.Context, u *Usuario) (*LoginResult, error) {
	access, _, err := s.jwt.GenerateAccessToken(u.ID.String(), u.Papel, u.Setor)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := time.Now().Add(s.refreshTTL)
	state, err := json.Marshal(refreshState{UsuarioID: u.ID})
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, auth.RefreshRedisKey(refreshHash), state, s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		Usuario:       u,
		AccessToken:   access,
		RefreshToken:  rawRefresh,
		RefreshExpiry: expires,
	}, nil
}
