package usuario

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fluxodoc/aprovacao/internal/auth"
	"github.com/fluxodoc/aprovacao/internal/diretorio"
)

type fakeRepo struct {
	porLogin map[string]*Usuario
	porID    map[uuid.UUID]*Usuario
	criados  []CreateInput
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{porLogin: map[string]*Usuario{}, porID: map[uuid.UUID]*Usuario{}}
}

func (f *fakeRepo) adicionar(u *Usuario) {
	f.porLogin[u.Login] = u
	f.porID[u.ID] = u
}

func (f *fakeRepo) Create(ctx context.Context, input CreateInput, senhaHash string) (*Usuario, error) {
	if _, ok := f.porLogin[input.Login]; ok {
		return nil, ErrLoginEmUso
	}
	f.criados = append(f.criados, input)
	u := &Usuario{
		ID:        uuid.New(),
		Nome:      input.Nome,
		Login:     input.Login,
		SenhaHash: senhaHash,
		Papel:     input.Papel,
		Setor:     input.Setor,
		CriadoEm:  time.Now(),
	}
	f.adicionar(u)
	return u, nil
}

func (f *fakeRepo) GetByLogin(ctx context.Context, login string) (*Usuario, error) {
	u, ok := f.porLogin[login]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Usuario, error) {
	u, ok := f.porID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) ListByPapel(ctx context.Context, papel string) ([]Usuario, error) {
	var lista []Usuario
	for _, u := range f.porLogin {
		if u.Papel == papel {
			lista = append(lista, *u)
		}
	}
	return lista, nil
}

type fakeRedis struct {
	dados map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{dados: map[string]string{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.dados[key] = string(v)
	case string:
		f.dados[key] = v
	default:
		f.dados[key] = fmt.Sprint(v)
	}
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	valor, ok := f.dados[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(valor)
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var removidas int64
	for _, key := range keys {
		if _, ok := f.dados[key]; ok {
			delete(f.dados, key)
			removidas++
		}
	}
	cmd.SetVal(removidas)
	return cmd
}

type fakeVerificador struct {
	err error
}

func (f *fakeVerificador) Verificar(ctx context.Context, login, senha string) (*diretorio.Identidade, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &diretorio.Identidade{Login: login}, nil
}

func novoServico(t *testing.T, dir diretorio.Verificador) (*Service, *fakeRepo, *fakeRedis) {
	t.Helper()
	repo := newFakeRepo()
	cache := newFakeRedis()
	jwtMgr := auth.NewJWTManager("segredo-de-teste", time.Minute)
	return NewService(repo, dir, jwtMgr, cache, time.Hour), repo, cache
}

func semearUsuario(t *testing.T, repo *fakeRepo, senha string) *Usuario {
	t.Helper()
	hash, err := auth.Hash(senha)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &Usuario{
		ID:        uuid.New(),
		Nome:      "Maria Silva",
		Login:     "maria",
		SenhaHash: hash,
		Papel:     PapelFinanceiro,
		Setor:     "compras",
	}
	repo.adicionar(u)
	return u
}

func TestCriarValidaEntrada(t *testing.T) {
	svc, repo, _ := novoServico(t, nil)
	ctx := context.Background()

	casos := []CreateInput{
		{Nome: "", Login: "joao", Senha: "senha-forte-123", Papel: PapelContabilidade},
		{Nome: "João", Login: "", Senha: "senha-forte-123", Papel: PapelContabilidade},
		{Nome: "João", Login: "joao", Senha: "curta", Papel: PapelContabilidade},
	}
	for _, c := range casos {
		if _, err := svc.Criar(ctx, c); err == nil {
			t.Errorf("entrada %+v aceita", c)
		}
	}
	if _, err := svc.Criar(ctx, CreateInput{Nome: "João", Login: "joao", Senha: "senha-forte-123", Papel: "gerente"}); !errors.Is(err, ErrPapelInvalido) {
		t.Fatalf("papel desconhecido aceito: %v", err)
	}

	u, err := svc.Criar(ctx, CreateInput{Nome: "João", Login: "joao", Senha: "senha-forte-123", Papel: PapelContabilidade, Setor: "compras"})
	if err != nil {
		t.Fatalf("criar: %v", err)
	}
	if u.SenhaHash == "senha-forte-123" || u.SenhaHash == "" {
		t.Fatal("senha deveria ser gravada como hash")
	}
	if len(repo.criados) != 1 {
		t.Fatalf("repo não chamado: %d", len(repo.criados))
	}
}

func TestListByPapelValidaPapel(t *testing.T) {
	svc, repo, _ := novoServico(t, nil)
	ctx := context.Background()
	semearUsuario(t, repo, "senha-forte-123")

	if _, err := svc.ListByPapel(ctx, "gerente"); !errors.Is(err, ErrPapelInvalido) {
		t.Fatalf("papel desconhecido aceito: %v", err)
	}

	lista, err := svc.ListByPapel(ctx, "  FINANCEIRO ")
	if err != nil {
		t.Fatalf("listar: %v", err)
	}
	if len(lista) != 1 || lista[0].Login != "maria" {
		t.Fatalf("lista inesperada: %+v", lista)
	}

	vazia, err := svc.ListByPapel(ctx, PapelDiretoria)
	if err != nil {
		t.Fatalf("listar papel sem usuários: %v", err)
	}
	if len(vazia) != 0 {
		t.Fatalf("esperava lista vazia: %+v", vazia)
	}
}

func TestAutenticarLocalEmiteTokens(t *testing.T) {
	svc, repo, cache := novoServico(t, nil)
	ctx := context.Background()
	semearUsuario(t, repo, "senha-forte-123")

	if _, err := svc.Autenticar(ctx, "maria", "senha-errada"); !errors.Is(err, ErrCredenciais) {
		t.Fatalf("senha errada: %v", err)
	}
	if _, err := svc.Autenticar(ctx, "ninguem", "senha-forte-123"); !errors.Is(err, ErrCredenciais) {
		t.Fatalf("login inexistente: %v", err)
	}

	res, err := svc.Autenticar(ctx, "maria", "senha-forte-123")
	if err != nil {
		t.Fatalf("autenticar: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("tokens vazios")
	}
	if len(cache.dados) != 1 {
		t.Fatalf("estado do refresh não persistido: %v", cache.dados)
	}
}

func TestAutenticarComDiretorio(t *testing.T) {
	ctx := context.Background()

	// diretório confirma a identidade mesmo sem bater com o hash local
	dir := &fakeVerificador{}
	svc, repo, _ := novoServico(t, dir)
	semearUsuario(t, repo, "senha-forte-123")
	if _, err := svc.Autenticar(ctx, "maria", "outra-senha"); err != nil {
		t.Fatalf("diretório ok deveria bastar: %v", err)
	}

	// diretório recusa: não há fallback
	dir.err = diretorio.ErrCredenciaisInvalidas
	if _, err := svc.Autenticar(ctx, "maria", "senha-forte-123"); !errors.Is(err, ErrCredenciais) {
		t.Fatalf("recusa do diretório: %v", err)
	}

	// diretório fora do ar: cai para a senha local
	dir.err = fmt.Errorf("%w: timeout", diretorio.ErrIndisponivel)
	if _, err := svc.Autenticar(ctx, "maria", "senha-forte-123"); err != nil {
		t.Fatalf("fallback local: %v", err)
	}
	if _, err := svc.Autenticar(ctx, "maria", "senha-errada"); !errors.Is(err, ErrCredenciais) {
		t.Fatalf("fallback local com senha errada: %v", err)
	}
}

func TestRefreshRotacionaToken(t *testing.T) {
	svc, repo, _ := novoServico(t, nil)
	ctx := context.Background()
	semearUsuario(t, repo, "senha-forte-123")

	res, err := svc.Autenticar(ctx, "maria", "senha-forte-123")
	if err != nil {
		t.Fatalf("autenticar: %v", err)
	}

	renovado, err := svc.Refresh(ctx, res.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if renovado.RefreshToken == res.RefreshToken {
		t.Fatal("refresh deveria rotacionar o token")
	}

	// o token antigo deixou de valer
	if _, err := svc.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrRefreshInvalido) {
		t.Fatalf("token usado aceito de novo: %v", err)
	}
	if _, err := svc.Refresh(ctx, "token-inventado"); !errors.Is(err, ErrRefreshInvalido) {
		t.Fatalf("token desconhecido: %v", err)
	}
}

func TestLogoutRevogaRefresh(t *testing.T) {
	svc, repo, cache := novoServico(t, nil)
	ctx := context.Background()
	semearUsuario(t, repo, "senha-forte-123")

	res, err := svc.Autenticar(ctx, "maria", "senha-forte-123")
	if err != nil {
		t.Fatalf("autenticar: %v", err)
	}
	if err := svc.Logout(ctx, res.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(cache.dados) != 0 {
		t.Fatalf("refresh ainda no cache: %v", cache.dados)
	}
	if _, err := svc.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrRefreshInvalido) {
		t.Fatalf("refresh após logout: %v", err)
	}
}
