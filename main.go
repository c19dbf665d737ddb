package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"tawarin-backend/config"
	"tawarin-backend/controller"
	"tawarin-backend/dao"
	"tawarin-backend/db"
	"tawarin-backend/pkg/llm"
	"tawarin-backend/telemetry"
	"tawarin-backend/usecase"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tawarin",
		Short:         "Price-negotiation chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			conn, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			return db.Migrate(conn)
		},
	}
}

func openDB(cfg config.Config) (*sql.DB, error) {
	conn, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return conn, nil
}

func serve(ctx context.Context) error {
	cfg := config.Load()
	logger := telemetry.NewLogger(os.Stdout, slog.LevelInfo)

	conn, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("connected to database", "database", cfg.MySQLDatabase)

	client, modelName, err := llm.NewClientForModel(ctx, cfg.Model)
	if err != nil {
		return fmt.Errorf("generation backend: %w", err)
	}
	logger.Info("generation backend ready", "model", cfg.Model)

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(registry)

	// Dependency injection
	productRepo := dao.NewProductRepository(conn)
	sessionRepo := dao.NewSessionRepository(conn)
	turnRepo := dao.NewTurnRepository(conn)
	agreementRepo := dao.NewAgreementRepository(conn)
	userRepo := dao.NewUserRepository(conn)

	engine := usecase.NewPolicyEngine(client, modelName, cfg.BackendTimeout, logger, metrics)
	negoUsecase := usecase.NewNegotiationUsecase(productRepo, sessionRepo, turnRepo, agreementRepo, engine, logger, metrics)
	productUsecase := usecase.NewProductUsecase(productRepo)
	userUsecase := usecase.NewUserUsecase(userRepo)

	chatController := controller.NewChatController(negoUsecase)
	productController := controller.NewProductController(productUsecase)
	userController := controller.NewUserController(userUsecase)

	// Routing
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", chatController.HandleChat)
	mux.HandleFunc("/chat/history", chatController.HandleHistory)
	mux.HandleFunc("/chat/abandon", chatController.HandleAbandon)
	mux.HandleFunc("/agreements/", chatController.HandleAgreement)
	mux.HandleFunc("/products", productController.HandleProducts)
	mux.HandleFunc("/products/", productController.HandleProductDetail)
	mux.HandleFunc("/register", userController.Register)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	logger.Info("server starting", "port", cfg.Port)
	return http.ListenAndServe(":"+cfg.Port, mux)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
