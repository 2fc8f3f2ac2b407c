package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	adminapp "github.com/sngm3741/revision-landing-services/api/internal/admin/application"
	"github.com/sngm3741/revision-landing-services/api/internal/config"
	"github.com/sngm3741/revision-landing-services/api/internal/events"
	adminhttp "github.com/sngm3741/revision-landing-services/api/internal/interfaces/http/admin"
	commonhttp "github.com/sngm3741/revision-landing-services/api/internal/interfaces/http/common"
	publichttp "github.com/sngm3741/revision-landing-services/api/internal/interfaces/http/public"
	"github.com/sngm3741/revision-landing-services/api/internal/metrics"
	"github.com/sngm3741/revision-landing-services/api/internal/notify"
	publicapp "github.com/sngm3741/revision-landing-services/api/internal/public/application"
	"github.com/sngm3741/revision-landing-services/api/internal/public/session"
	"github.com/sngm3741/revision-landing-services/api/internal/scheduler"
)

const (
	jobSessionSweep  = "session-sweep"
	jobRedelivery    = "notification-redelivery"
	shutdownTimeout  = 10 * time.Second
	sideEffectsDrain = 15 * time.Second
)

// Server は HTTP サーバーのライフサイクルを管理し、Public/Admin の各ハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger   *log.Logger
	cfg      config.Config
	location *time.Location

	storage     *storage
	intake      *publicapp.IntakeService
	adminLeads  adminapp.LeadService
	sessions    *session.Registry
	limiter     *commonhttp.IPRateLimiter
	auth        *commonhttp.Authenticator
	metrics     *metrics.Metrics
	notifier    *notify.StaffNotifier
	redeliverer *notify.Redeliverer
	publisher   *events.RabbitPublisher
	scheduler   *scheduler.Scheduler
}

// New は保存先へ接続し、アプリケーションサービスとハンドラを組み立てた Server を返す。
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var publisher *events.RabbitPublisher
	if strings.TrimSpace(cfg.RabbitMQ.URL) != "" {
		publisher, err = events.DialRabbit(events.RabbitConfig{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
		}, cfg.ServerLog)
		if err != nil {
			cfg.ServerLog.Printf("RabbitMQ に接続できないためイベント発行を無効化します: %v", err)
			publisher = nil
		}
	}

	return newServer(cfg, store, publisher), nil
}

// newServer wires every component on top of an already opened storage.
func newServer(cfg config.Config, store *storage, publisher *events.RabbitPublisher) *Server {
	logger := cfg.ServerLog
	if logger == nil {
		logger = log.New(os.Stdout, "[revision-landing-api] ", log.LstdFlags|log.Lshortfile)
	}
	loc := cfg.Location()
	m := metrics.New()

	var mailer notify.MailSender
	if sender := notify.NewMailgunSender(notify.MailgunConfig{
		Domain:  cfg.Mailgun.Domain,
		APIKey:  cfg.Mailgun.APIKey,
		APIBase: cfg.Mailgun.APIBase,
		From:    cfg.Mailgun.From,
		To:      cfg.Mailgun.To,
	}); sender != nil {
		mailer = sender
	}

	notifier := notify.NewStaffNotifier(notify.StaffConfig{
		Logger:             logger,
		Messenger:          notify.NewMessengerClient(cfg.Messenger.Endpoint, &http.Client{Timeout: cfg.Messenger.Timeout}),
		Mail:               mailer,
		Failures:           store.failures,
		Metrics:            m,
		DiscordDestination: cfg.Messenger.DiscordDestination,
		SlackDestination:   cfg.Messenger.SlackDestination,
		AdminLeadBaseURL:   cfg.AdminLeadBaseURL,
		Location:           loc,
		DiscordAttempts:    cfg.Messenger.DiscordAttempts,
		RetryDelay:         cfg.Messenger.RetryDelay,
	})

	opts := []publicapp.IntakeOption{
		publicapp.WithMetrics(m),
		publicapp.WithStorageRetry(cfg.StorageMaxAttempts, nil),
	}
	if notifier.Enabled() {
		opts = append(opts, publicapp.WithNotifier(notifier))
	} else {
		logger.Printf("スタッフ通知先が未設定のため通知を送信しません")
	}
	if publisher != nil {
		opts = append(opts, publicapp.WithEventPublisher(publisher))
	}

	srv := &Server{
		logger:      logger,
		cfg:         cfg,
		location:    loc,
		storage:     store,
		intake:      publicapp.NewIntakeService(store.leads, logger, opts...),
		adminLeads:  adminapp.NewLeadService(store.adminLeads),
		sessions:    session.NewRegistry(cfg.SessionTTL, cfg.SessionMaxEntries),
		limiter:     commonhttp.NewIPRateLimiter(logger, cfg.LeadRateLimitPerMin, cfg.LeadRateLimitBurst, cfg.TrustedProxyCount),
		metrics:     m,
		notifier:    notifier,
		redeliverer: notify.NewRedeliverer(store.failures, notifier, logger, cfg.NotifyMaxAttempts),
		publisher:   publisher,
		scheduler:   scheduler.New(logger, loc, time.Minute),
	}

	if keys := cfg.JWTConfigs(); len(keys) > 0 {
		issuers := make([]commonhttp.IssuerKey, 0, len(keys))
		for _, k := range keys {
			issuers = append(issuers, commonhttp.IssuerKey{Issuer: k.Issuer, Secret: k.Secret})
		}
		srv.auth = commonhttp.NewAuthenticator(logger, issuers, cfg.JWTAudience)
	}

	return srv
}

// Routes はミドルウェアと Public/Admin のルーティングを組み立てる。
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.cfg.AllowedOrigins))

	router.Get("/healthz", s.healthHandler())
	router.Handle("/metrics", s.metrics.Handler())

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:              s.logger,
		Intake:              s.intake,
		Sessions:            s.sessions,
		SessionSecret:       []byte(s.cfg.SessionSecret),
		SessionCookieSecure: s.cfg.SessionCookieSecure,
		MediaBaseURL:        s.cfg.MediaBaseURL,
		RequestTimeout:      s.cfg.RequestTimeout,
		LeadLimiter:         s.limiter,
		TrustedProxies:      s.cfg.TrustedProxyCount,
	})
	publicHandler.Register(router)

	if s.auth != nil {
		adminHandler := adminhttp.NewHandler(adminhttp.Config{
			Logger:      s.logger,
			LeadService: s.adminLeads,
			Location:    s.location,
		})
		router.Route("/admin", func(r chi.Router) {
			r.Use(s.auth.Middleware)
			adminHandler.Register(r)
		})
	} else {
		s.logger.Printf("ADMIN_JWT_SECRET が未設定のため管理 API を公開しません")
	}

	return router
}

// registerJobs はセッション掃除と通知再送を cron に登録する。
func (s *Server) registerJobs() error {
	if err := s.scheduler.Add(jobSessionSweep, s.cfg.SessionSweep, s.sweepSessions); err != nil {
		return err
	}
	if s.notifier.Enabled() {
		if err := s.scheduler.Add(jobRedelivery, s.cfg.NotifyRetrySchedule, s.redeliverer.Run); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) sweepSessions(context.Context) error {
	removed := s.sessions.Sweep()
	pruned := s.limiter.Prune()
	s.metrics.SetActiveSessions(s.sessions.Len())
	if removed > 0 || pruned > 0 {
		s.logger.Printf("期限切れセッションを削除しました: sessions=%d rateLimitEntries=%d", removed, pruned)
	}
	return nil
}

// Run はHTTPサーバーとスケジューラを起動し、シグナル受信まで待機する。
func (s *Server) Run() error {
	if err := s.registerJobs(); err != nil {
		return err
	}
	s.scheduler.Start()

	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP サーバー起動: http://%s (store=%s)", s.cfg.Addr, s.storage.name)
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			listed := originAllowed(origin, allowed)
			if origin == "" || (!allowAll && !listed) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			// ワイルドカード許可では Cookie 付きリクエストを許可しない
			if listed {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	_, ok := allowed[origin]
	return ok
}

// healthHandler は保存先への疎通確認のみを返す。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.storage.ping(ctx); err != nil {
			commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"store":  s.storage.name,
				"error":  err.Error(),
			})
			return
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"store":  s.storage.name,
			"time":   time.Now().In(s.location).Format(time.RFC3339),
		})
	}
}

// shutdown は非同期通知の完了を待ってから外部接続を閉じる。
func (s *Server) shutdown(ctx context.Context) {
	s.scheduler.Stop(ctx)

	drained := make(chan struct{})
	go func() {
		s.intake.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(sideEffectsDrain):
		s.logger.Printf("通知処理の完了待ちがタイムアウトしました")
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Printf("RabbitMQ 切断時にエラー: %v", err)
		}
	}
	if err := s.storage.shutdown(ctx); err != nil {
		s.logger.Printf("%s 切断時にエラー: %v", s.storage.name, err)
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.logger.Printf("サーバーが異常終了: %v", err)
			runErr = err
		}
	case sig := <-sigChan:
		srv.logger.Printf("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("サーバー停止時にエラー: %v", err)
		}
	}

	srv.shutdown(context.Background())
	return runErr
}
