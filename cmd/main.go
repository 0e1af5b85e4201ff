package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tirvu/api-parceiros/internal/acesso"
	"github.com/Tirvu/api-parceiros/internal/armazenamento"
	"github.com/Tirvu/api-parceiros/internal/auth"
	"github.com/Tirvu/api-parceiros/internal/chat"
	"github.com/Tirvu/api-parceiros/internal/config"
	"github.com/Tirvu/api-parceiros/internal/dashboard"
	"github.com/Tirvu/api-parceiros/internal/financeiro"
	"github.com/Tirvu/api-parceiros/internal/lead"
	"github.com/Tirvu/api-parceiros/internal/logger"
	"github.com/Tirvu/api-parceiros/internal/material"
	"github.com/Tirvu/api-parceiros/internal/metrics"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/Tirvu/api-parceiros/internal/notificacao"
	"github.com/Tirvu/api-parceiros/internal/parceiro"
	"github.com/Tirvu/api-parceiros/internal/usuario"
	"github.com/Tirvu/api-parceiros/internal/utils"
	"github.com/Tirvu/api-parceiros/internal/utils/db"
	"github.com/Tirvu/api-parceiros/internal/webhook"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		stdlog.Fatal("Erro ao criar logger:", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.GetDB(ctx, cfg.DB)
	if err != nil {
		log.Fatal("Erro ao conectar no banco", zap.Error(err))
	}

	// AutoMigrate para todos os modelos
	if err := database.AutoMigrate(append(models.Todos(), &auth.RefreshToken{})...); err != nil {
		log.Fatal("Erro no AutoMigrate", zap.Error(err))
	}

	emissor, err := auth.NovoEmissor(cfg.Auth)
	if err != nil {
		log.Fatal("Erro ao configurar tokens", zap.Error(err))
	}
	loc := cfg.Location()

	// Notificações externas
	despachante := &notificacao.Despachante{Log: log}
	notificador := &notificacao.Servico{N8N: notificacao.NovoN8N(cfg.N8NLeadWebhookURL), Portal: cfg.PortalURL}
	if cfg.ZAPI.Enabled() {
		notificador.WhatsApp = notificacao.NovoZAPI(cfg.ZAPI)
	} else {
		log.Warn("Z-API não configurada, mensagens de WhatsApp desligadas")
	}

	comprovantes, err := armazenamento.NovoComprovantes(ctx, cfg.ProofS3Bucket, cfg.AWSRegion)
	if err != nil {
		log.Fatal("Erro ao configurar S3 de comprovantes", zap.Error(err))
	}

	// Chat: presença e fan-out no Redis quando houver mais de uma instância
	var (
		presenca chat.Presenca
		broker   chat.Broker
		rdb      *redis.Client
	)
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Pass})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("Erro ao conectar no Redis", zap.Error(err))
		}
		presenca = &chat.PresencaRedis{Client: rdb}
		broker = chat.NovoRedisBroker(rdb, log)
	}
	chatServico := chat.NovoServico(database)
	hub := chat.NovoHub(chatServico, presenca, broker, log)
	go func() {
		if err := hub.Rodar(ctx); err != nil {
			log.Error("hub do chat parou", zap.Error(err))
		}
	}()

	limpeza := auth.NovaLimpezaRefresh(database, log, cfg.CleanupInterval)
	if err := limpeza.Iniciar(); err != nil {
		log.Fatal("Erro ao agendar limpeza de tokens", zap.Error(err))
	}

	// Handlers
	authHandler := auth.NewHandler(database, emissor, log, cfg.Auth.RefreshTTL, cfg.Auth.CookieSecure)
	leadHandler := lead.NewHandler(database, notificador, comprovantes, despachante, log, loc)
	parceiroHandler := parceiro.NewHandler(database, notificador, despachante, log, loc)
	usuarioHandler := usuario.NewHandler(database, log)
	financeiroHandler := financeiro.NewHandler(database, log, loc)
	dashboardHandler := dashboard.NewHandler(database, financeiroHandler, log)
	materialHandler := material.NewHandler(database, log)
	chatHandler := chat.NewHandler(chatServico, log)
	webhookHandler := webhook.NewHandler(database, cfg.PipedriveRefField, loc, log)

	// Router
	r := mux.NewRouter()
	r.Use(logger.Requisicoes(log), metrics.Middleware())

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.JSONMensagem(w, http.StatusOK, "API Tirvu Parceiros rodando")
	}).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/.well-known/jwks.json", emissor.JWKSHandler).Methods("GET")
	r.Handle("/ws", chat.NovoWSHandler(hub, emissor, cfg.AllowedOrigins, log))

	// Rotas sem autenticação
	r.HandleFunc("/webhook/pipedrive", webhookHandler.Pipedrive).Methods("POST")
	r.HandleFunc("/api/public/partners/register", parceiroHandler.Register).Methods("POST")

	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods("POST")
	authRouter.HandleFunc("/login", authHandler.Login).Methods("POST")
	authRouter.HandleFunc("/refresh", authHandler.Refresh).Methods("POST")
	authRouter.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	authRouter.Handle("/me", emissor.Middleware(http.HandlerFunc(authHandler.Me))).Methods("GET")

	// Rotas autenticadas, cada uma com a capacidade exigida
	api := r.PathPrefix("/api").Subrouter()
	api.Use(emissor.Middleware)
	rota := func(path string, h http.HandlerFunc, rec acesso.Recurso, acao acesso.Acao, metodo string) {
		api.Handle(path, acesso.Exigir(rec, acao)(h)).Methods(metodo)
	}

	// Dashboard
	rota("/dashboard/partner", dashboardHandler.Partner, acesso.DashboardParceiro, acesso.Ler, "GET")
	rota("/dashboard/admin", dashboardHandler.Admin, acesso.DashboardAdmin, acesso.Ler, "GET")

	// Parceiros
	rota("/partners", parceiroHandler.List, acesso.Parceiros, acesso.Ler, "GET")
	rota("/partners/consultants", parceiroHandler.ListConsultants, acesso.Parceiros, acesso.Ler, "GET")
	rota("/partners/profile", parceiroHandler.GetProfile, acesso.Perfil, acesso.Ler, "GET")
	rota("/partners/profile", parceiroHandler.UpdateProfile, acesso.Perfil, acesso.Escrever, "PUT")
	rota("/partners/{id}/approve", parceiroHandler.Approve, acesso.Parceiros, acesso.Aprovar, "PUT")
	rota("/partners/{id}/reject", parceiroHandler.Reject, acesso.Parceiros, acesso.Aprovar, "PUT")

	// Leads
	rota("/leads", leadHandler.List, acesso.Leads, acesso.Ler, "GET")
	rota("/leads", leadHandler.Create, acesso.Leads, acesso.Escrever, "POST")
	rota("/leads/{id}", leadHandler.Update, acesso.Leads, acesso.Escrever, "PUT")
	rota("/leads/{id}", leadHandler.Delete, acesso.Leads, acesso.Escrever, "DELETE")
	rota("/leads/{id}/notes", leadHandler.ListNotes, acesso.Leads, acesso.Ler, "GET")
	rota("/leads/{id}/notes", leadHandler.AddNote, acesso.Leads, acesso.Escrever, "POST")
	rota("/leads/{id}/tasks", leadHandler.ListTasks, acesso.Leads, acesso.Ler, "GET")
	rota("/leads/{id}/tasks", leadHandler.AddTask, acesso.Leads, acesso.Escrever, "POST")
	rota("/leads/{id}/tasks/{taskId}", leadHandler.UpdateTask, acesso.Leads, acesso.Escrever, "PATCH")
	rota("/leads/{id}/tasks/{taskId}", leadHandler.DeleteTask, acesso.Leads, acesso.Escrever, "DELETE")

	// Financeiro
	rota("/finance/movements", financeiroHandler.Movements, acesso.Financeiro, acesso.Ler, "GET")
	rota("/finance/summary", financeiroHandler.Summary, acesso.Financeiro, acesso.Ler, "GET")
	rota("/finance/proof/{id}", financeiroHandler.Proof, acesso.Financeiro, acesso.Ler, "GET")
	rota("/finance/transactions", financeiroHandler.CreateTransaction, acesso.Financeiro, acesso.Escrever, "POST")
	rota("/finance/transactions/{id}", financeiroHandler.DeleteTransaction, acesso.Financeiro, acesso.Escrever, "DELETE")

	// Materiais
	rota("/materials", materialHandler.List, acesso.Materiais, acesso.Ler, "GET")
	rota("/materials", materialHandler.Create, acesso.Materiais, acesso.Escrever, "POST")
	rota("/materials/{id}", materialHandler.Update, acesso.Materiais, acesso.Escrever, "PUT")
	rota("/materials/{id}", materialHandler.Delete, acesso.Materiais, acesso.Escrever, "DELETE")

	// Usuários
	rota("/users", usuarioHandler.List, acesso.Usuarios, acesso.Ler, "GET")
	rota("/users", usuarioHandler.Create, acesso.Usuarios, acesso.Escrever, "POST")
	rota("/users/{id}", usuarioHandler.Update, acesso.Usuarios, acesso.Escrever, "PUT")
	rota("/users/{id}", usuarioHandler.Delete, acesso.Usuarios, acesso.Escrever, "DELETE")

	// Chat
	rota("/chat/contacts", chatHandler.Contacts, acesso.Chat, acesso.Ler, "GET")
	rota("/chat/messages/{contactId}", chatHandler.Messages, acesso.Chat, acesso.Ler, "GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Servidor rodando", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Erro no servidor HTTP", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Encerrando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Erro ao encerrar servidor", zap.Error(err))
	}
	if err := limpeza.Parar(); err != nil {
		log.Error("Erro ao parar agendador", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
