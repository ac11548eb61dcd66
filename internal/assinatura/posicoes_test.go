package assinatura

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

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

func novaSessaoStore() (*SessaoStore, *fakeRedis) {
	fake := newFakeRedis()
	return NewSessaoStore(fake, time.Minute), fake
}

func TestIniciarCriaSessaoVazia(t *testing.T) {
	store, fake := novaSessaoStore()
	ctx := context.Background()
	docID, usuarioID := uuid.New(), uuid.New()

	sessao, err := store.Iniciar(ctx, docID, usuarioID)
	if err != nil {
		t.Fatalf("iniciar: %v", err)
	}
	if sessao.DocumentoID != docID || sessao.UsuarioID != usuarioID {
		t.Fatalf("sessão com donos errados: %+v", sessao)
	}
	if len(sessao.Posicoes) != 0 {
		t.Fatalf("sessão nova deveria começar sem posições: %+v", sessao.Posicoes)
	}
	if len(fake.dados) != 1 {
		t.Fatalf("sessão não persistida: %v", fake.dados)
	}

	carregada, err := store.Get(ctx, sessao.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if carregada.ID != sessao.ID {
		t.Fatalf("get devolveu sessão errada: %+v", carregada)
	}
}

func TestAlternarAdicionaERemovePorPagina(t *testing.T) {
	store, _ := novaSessaoStore()
	ctx := context.Background()
	sessao, err := store.Iniciar(ctx, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("iniciar: %v", err)
	}

	atual, adicionada, err := store.Alternar(ctx, sessao.ID, Posicao{Pagina: 2, XPct: 40, YPct: 60})
	if err != nil || !adicionada {
		t.Fatalf("primeiro clique: adicionada=%v err=%v", adicionada, err)
	}
	atual, adicionada, err = store.Alternar(ctx, sessao.ID, Posicao{Pagina: 1, XPct: 10, YPct: 10})
	if err != nil || !adicionada {
		t.Fatalf("clique em outra página: adicionada=%v err=%v", adicionada, err)
	}
	if len(atual.Posicoes) != 2 || atual.Posicoes[0].Pagina != 1 || atual.Posicoes[1].Pagina != 2 {
		t.Fatalf("posições fora de ordem: %+v", atual.Posicoes)
	}

	// segundo clique na página 2, em outro ponto, remove a marca existente
	atual, adicionada, err = store.Alternar(ctx, sessao.ID, Posicao{Pagina: 2, XPct: 90, YPct: 5})
	if err != nil {
		t.Fatalf("segundo clique: %v", err)
	}
	if adicionada {
		t.Fatal("clique em página já marcada deveria remover")
	}
	if len(atual.Posicoes) != 1 || atual.Posicoes[0].Pagina != 1 {
		t.Fatalf("marca da página 2 não removida: %+v", atual.Posicoes)
	}
}

func TestAlternarValidaLimites(t *testing.T) {
	store, _ := novaSessaoStore()
	ctx := context.Background()
	sessao, err := store.Iniciar(ctx, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("iniciar: %v", err)
	}

	invalidas := []Posicao{
		{Pagina: 0, XPct: 10, YPct: 10},
		{Pagina: 1, XPct: -1, YPct: 10},
		{Pagina: 1, XPct: 10, YPct: 101},
	}
	for _, p := range invalidas {
		if _, _, err := store.Alternar(ctx, sessao.ID, p); !errors.Is(err, ErrPosicaoInvalida) {
			t.Fatalf("posição %+v aceita: %v", p, err)
		}
	}
}

func TestAlternarSessaoInexistente(t *testing.T) {
	store, _ := novaSessaoStore()
	_, _, err := store.Alternar(context.Background(), uuid.NewString(), Posicao{Pagina: 1, XPct: 10, YPct: 10})
	if !errors.Is(err, ErrSessaoNaoEncontrada) {
		t.Fatalf("esperava sessão não encontrada, veio %v", err)
	}
}

func TestConsumirRemoveASessao(t *testing.T) {
	store, _ := novaSessaoStore()
	ctx := context.Background()
	sessao, err := store.Iniciar(ctx, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("iniciar: %v", err)
	}
	if _, _, err := store.Alternar(ctx, sessao.ID, Posicao{Pagina: 1, XPct: 25, YPct: 75}); err != nil {
		t.Fatalf("alternar: %v", err)
	}

	consumida, err := store.Consumir(ctx, sessao.ID)
	if err != nil {
		t.Fatalf("consumir: %v", err)
	}
	if len(consumida.Posicoes) != 1 {
		t.Fatalf("posições perdidas no consumo: %+v", consumida.Posicoes)
	}
	if _, err := store.Get(ctx, sessao.ID); !errors.Is(err, ErrSessaoNaoEncontrada) {
		t.Fatalf("sessão deveria sumir após consumo: %v", err)
	}
}

func TestCancelarDescartaSemErro(t *testing.T) {
	store, _ := novaSessaoStore()
	ctx := context.Background()
	sessao, err := store.Iniciar(ctx, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("iniciar: %v", err)
	}
	if err := store.Cancelar(ctx, sessao.ID); err != nil {
		t.Fatalf("cancelar: %v", err)
	}
	if _, err := store.Get(ctx, sessao.ID); !errors.Is(err, ErrSessaoNaoEncontrada) {
		t.Fatalf("sessão cancelada ainda existe: %v", err)
	}
}
