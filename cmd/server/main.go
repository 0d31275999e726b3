package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alok/blog/internal/auth"
	"github.com/alok/blog/internal/config"
	"github.com/alok/blog/internal/logging"
	"github.com/alok/blog/internal/middleware"
	"github.com/alok/blog/internal/posts"
	"github.com/alok/blog/internal/store"
	"github.com/alok/blog/internal/web"
)

// maxPageBody caps page form bodies, avatar uploads included.
const maxPageBody = 4 << 20

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()
	ctx := context.Background()

	logFile, err := logging.Setup(cfg.LogFile)
	if err != nil {
		log.Fatalf("log file: %v", err)
	}
	defer logFile.Close()
	log.Println("Blog startup")

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Printf("mongo indexes: %v", err)
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb)

	// ── MinIO ────────────────────────────────────────────────
	minioStore, err := store.NewMinioStore(ctx, store.MinioOptions{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Handlers ─────────────────────────────────────────────
	render, err := web.NewRenderer(auth.CurrentIdentity)
	if err != nil {
		log.Fatalf("templates: %v", err)
	}
	remember := auth.NewRememberTokens(cfg.SecretKey)
	cookies := auth.Cookies{Secure: cfg.CookieSecure}

	authHandler := auth.NewHandler(auth.HandlerConfig{
		Auth:     auth.NewAuthenticator(pgStore),
		Accounts: pgStore,
		Sessions: sessions,
		Remember: remember,
		Cookies:  cookies,
		Avatars:  minioStore,
		Activity: mongoStore,
		Render:   render,
	})
	postService := posts.NewService(pgStore, pgStore, mongoStore, cfg.PerPagePosts)
	postHandler := posts.NewHandler(postService, render)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/static/*", web.Static())
	r.Get("/avatars/{name}", authHandler.Avatar)

	// JSON feed
	r.Route("/api/posts", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Mount("/", postHandler.APIRoutes())
	})

	// Pages
	r.Group(func(r chi.Router) {
		r.Use(chimw.RequestSize(maxPageBody))
		r.Use(middleware.LoadIdentity(sessions, remember, pgStore, cookies))
		r.Use(middleware.CSRF(cfg.SecretKey, cfg.CookieSecure, render.Forbidden))

		r.Get("/login", authHandler.Login)
		r.Post("/login", authHandler.Login)
		r.Get("/register", authHandler.Register)
		r.Post("/register", authHandler.Register)
		r.Get("/logout", authHandler.Logout)
		r.With(middleware.RequireAuth).Get("/account", authHandler.Account)
		r.With(middleware.RequireAuth).Post("/account", authHandler.Account)

		r.Group(postHandler.Routes)
		r.NotFound(render.NotFound)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Blog listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
