package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fluxodoc/aprovacao/internal/assinatura"
	"github.com/fluxodoc/aprovacao/internal/auditoria"
	"github.com/fluxodoc/aprovacao/internal/auth"
	"github.com/fluxodoc/aprovacao/internal/config"
	"github.com/fluxodoc/aprovacao/internal/diretorio"
	"github.com/fluxodoc/aprovacao/internal/documento"
	httpmiddleware "github.com/fluxodoc/aprovacao/internal/http/middleware"
	"github.com/fluxodoc/aprovacao/internal/metrics"
	"github.com/fluxodoc/aprovacao/internal/notify"
	"github.com/fluxodoc/aprovacao/internal/pdf"
	"github.com/fluxodoc/aprovacao/internal/storage"
	"github.com/fluxodoc/aprovacao/internal/usuario"
	"github.com/fluxodoc/aprovacao/internal/workflow"
)

const serviceName = "aprovacao-api"

// usuarioService é o recorte do serviço de usuários usado pelos handlers.
type usuarioService interface {
	Autenticar(ctx context.Context, login, senha string) (*usuario.LoginResult, error)
	Refresh(ctx context.Context, rawToken string) (*usuario.LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	GetByID(ctx context.Context, id uuid.UUID) (*usuario.Usuario, error)
	Criar(ctx context.Context, input usuario.CreateInput) (*usuario.Usuario, error)
	ListByPapel(ctx context.Context, papel string) ([]usuario.Usuario, error)
}

// imagemService é o recorte do repositório de imagens de assinatura.
type imagemService interface {
	Upsert(ctx context.Context, usuarioID uuid.UUID, conteudo []byte, mediaType string) (*assinatura.Imagem, error)
	Get(ctx context.Context, usuarioID uuid.UUID) (*assinatura.Imagem, error)
	Delete(ctx context.Context, usuarioID uuid.UUID) error
}

// sessaoService é o recorte do store de sessões de posicionamento.
type sessaoService interface {
	Iniciar(ctx context.Context, documentoID, usuarioID uuid.UUID) (*assinatura.Sessao, error)
	Alternar(ctx context.Context, sessaoID string, p assinatura.Posicao) (*assinatura.Sessao, bool, error)
	Get(ctx context.Context, sessaoID string) (*assinatura.Sessao, error)
	Cancelar(ctx context.Context, sessaoID string) error
}

// trilhaService é o recorte do repositório de auditoria usado na consulta.
type trilhaService interface {
	ListByDocumento(ctx context.Context, documentoID uuid.UUID, limit, offset int) ([]auditoria.Entrada, error)
}

// Handler concentra as dependências das rotas.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	usuarios      usuarioService
	fluxo         *workflow.Service
	sessoes       sessaoService
	imagens       imagemService
	auditoria     trilhaService
	metrics       *metrics.Metrics
	serviceName   string
	uploadMax     int64
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter monta repositórios, serviços e rotas a partir da configuração.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client) (http.Handler, error) {
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)

	var verificador diretorio.Verificador
	if cfg.Diretorio.Enabled {
		client, err := diretorio.New(diretorio.Config{
			BaseURL: cfg.Diretorio.BaseURL,
			Timeout: cfg.Diretorio.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("diretorio: %w", err)
		}
		verificador = client
	}

	usuarioRepo := usuario.NewRepository(pool)
	usuarioSvc := usuario.NewService(usuarioRepo, verificador, jwtManager, redisClient, cfg.JWTRefreshTTL)

	documentoRepo := documento.NewRepository(pool)
	auditoriaRepo := auditoria.NewRepository(pool)
	imagemRepo := assinatura.NewRepository(pool)
	sessaoStore := assinatura.NewSessaoStore(redisClient, cfg.SessaoAssinaturaTTL)

	var objectStore storage.ObjectStore = storage.NoopStore{}
	switch cfg.Storage.Provider {
	case "", "noop":
		// store padrão, útil apenas em desenvolvimento
	case "s3", "r2", "minio":
		s3Store, err := storage.NewS3Store(storage.S3Config{
			Endpoint:     cfg.Storage.S3Endpoint,
			Region:       cfg.Storage.S3Region,
			Bucket:       cfg.Storage.S3Bucket,
			AccessKey:    cfg.Storage.S3AccessKey,
			SecretKey:    cfg.Storage.S3SecretKey,
			PublicDomain: cfg.Storage.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		objectStore = s3Store
	default:
		return nil, fmt.Errorf("storage: provedor %s não suportado", cfg.Storage.Provider)
	}

	var notificador notify.Notificador
	if n := notify.NewWebhookNotifier(cfg.Notificacao.WebhookURL); n != nil {
		notificador = n
	}

	engine := assinatura.NewEngine(pdf.NewStamper())
	fluxo := workflow.NewService(workflow.Deps{
		Documentos:  documentoRepo,
		Auditoria:   auditoriaRepo,
		Imagens:     imagemRepo,
		Sessoes:     sessaoStore,
		Embutidor:   engine,
		Validador:   pdf.Validar,
		Store:       objectStore,
		Notificador: notificador,
		Tx:          workflow.PoolTransator{Pool: pool},
		Politica:    workflow.PoliticaAssinanteDesignado{},
		FinalPrefix: cfg.Storage.FinalizadosPrefix,
		Logger:      log.With().Str("component", "workflow").Logger(),
	})

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		usuarios:      usuarioSvc,
		fluxo:         fluxo,
		sessoes:       sessaoStore,
		imagens:       imagemRepo,
		auditoria:     auditoriaRepo,
		metrics:       metrics.New(serviceName),
		serviceName:   serviceName,
		uploadMax:     cfg.UploadMaxBytes,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	return h.rotas(jwtManager), nil
}

func (h *Handler) rotas(jwtManager *auth.JWTManager) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(h.cfg.AllowOrigins))
	r.Use(func(next http.Handler) http.Handler {
		return h.metrics.Middleware(h.serviceName, next)
	})

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		public.Method(http.MethodGet, "/metrics", h.metrics.Handler())

		public.Route("/v1/auth", func(auth chi.Router) {
			auth.Post("/login", h.Login)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(jwtManager))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/v1/me", h.Me)
		private.Get("/v1/usuarios", h.ListUsuarios)

		private.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.RequirePapel(usuario.PapelAdmin))
			admin.Post("/v1/usuarios", h.CriarUsuario)
		})

		private.Route("/v1/assinatura", func(a chi.Router) {
			a.Put("/", h.CadastrarAssinatura)
			a.Get("/", h.ObterAssinatura)
			a.Delete("/", h.RemoverAssinatura)
		})

		private.Route("/v1/documentos", func(d chi.Router) {
			d.Post("/", h.UploadDocumento)
			d.Get("/pendentes", h.ListPendentes)
			d.Get("/enviados", h.ListEnviados)

			d.Route("/{id}", func(doc chi.Router) {
				doc.Get("/", h.GetDocumento)
				doc.Delete("/", h.ExcluirDocumento)
				doc.Get("/visualizar", h.VisualizarDocumento)
				doc.Get("/download", h.DownloadDocumento)
				doc.Post("/aprovar", h.AprovarDocumento)
				doc.Post("/assinado", h.ReceberAssinado)
				doc.Post("/pagamento", h.RegistrarPagamento)

				doc.Route("/sessao", func(s chi.Router) {
					s.Post("/", h.IniciarSessao)
					s.Route("/{sessaoID}", func(se chi.Router) {
						se.Get("/", h.GetSessao)
						se.Delete("/", h.CancelarSessao)
						se.Post("/posicoes", h.AlternarPosicao)
						se.Post("/aplicar", h.AplicarSessao)
					})
				})
			})
		})

		private.Get("/v1/auditoria/{documentoID}", h.ListAuditoria)
	})

	return r
}
