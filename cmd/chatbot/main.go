// Command chatbot runs the conversational agent backend: an HTTP API backed
// by a SQLite store, a tool-calling agent loop and optional MCP tool
// providers.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/VRUSHIL1/shop-chatbot-v2/agent"
	anthropicmodel "github.com/VRUSHIL1/shop-chatbot-v2/model/anthropic"
	openaimodel "github.com/VRUSHIL1/shop-chatbot-v2/model/openai"

	"github.com/VRUSHIL1/shop-chatbot-v2/config"
	"github.com/VRUSHIL1/shop-chatbot-v2/email"
	"github.com/VRUSHIL1/shop-chatbot-v2/logging"
	"github.com/VRUSHIL1/shop-chatbot-v2/mcp"
	"github.com/VRUSHIL1/shop-chatbot-v2/model"
	"github.com/VRUSHIL1/shop-chatbot-v2/server"
	"github.com/VRUSHIL1/shop-chatbot-v2/store"
	"github.com/VRUSHIL1/shop-chatbot-v2/tool"
	"github.com/VRUSHIL1/shop-chatbot-v2/vectorstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (default: ./config.yaml if present)")
	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging)

	st, err := store.OpenSQLite(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	openaiClient := openai.NewClient(option.WithAPIKey(cfg.Model.OpenAI.APIKey))

	var chatModel model.Model
	switch cfg.Model.Provider {
	case "anthropic":
		chatModel = anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.APIKey = cfg.Model.Anthropic.APIKey
			o.Model = anthropicsdk.Model(cfg.Model.Anthropic.Model)
		})
	default:
		chatModel = openaimodel.NewModelFromClient(&openaiClient, func(o *openaimodel.Options) {
			o.Model = cfg.Model.OpenAI.Model
		})
	}

	extractor := openaimodel.NewModelFromClient(&openaiClient, func(o *openaimodel.Options) {
		o.Model = cfg.Model.OpenAI.ExtractorModel
	})

	embedder := vectorstore.NewOpenAIEmbedder(&openaiClient, openai.EmbeddingModel(cfg.Model.OpenAI.EmbeddingModel))
	vectors := vectorstore.New(embedder, func(o *vectorstore.Options) {
		o.Logger = logger
	})

	gateway := mcp.NewGateway(cfg.MCP.Providers, func(o *mcp.GatewayOptions) {
		o.Logger = logger
	})
	defer gateway.Close()

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 5*time.Minute)
	gateway.ConnectAll(connectCtx)
	cancelConnect()

	mailer := email.NewSMTPMailer(func(o *email.SMTPOptions) {
		o.Host = cfg.SMTP.Host
		o.Port = cfg.SMTP.Port
		o.Username = cfg.SMTP.Username
		o.Password = cfg.SMTP.Password
		o.From = cfg.SMTP.From
	})

	registry := tool.NewRegistry([]tool.Tool{
		tool.NewWeatherTool(),
		tool.NewPDFTool(st, vectors, extractor),
		tool.NewEmailTool(mailer),
	}, func(o *tool.RegistryOptions) {
		o.Gateway = gateway
		o.Logger = logger
	})

	runner := agent.New(chatModel, registry, st, func(o *agent.Options) {
		o.MaxIterations = cfg.Agent.MaxIterations
		o.HistoryLimit = cfg.Agent.HistoryLimit
		o.MemoryTopK = cfg.Agent.MemoryTopK
		o.Temperature = cfg.Agent.Temperature
		o.MaxTokens = cfg.Agent.MaxTokens
		o.Extractor = extractor
		o.Catalogs = gateway
		o.Logger = logger
	})

	srv := server.New(st, runner, vectors, func(o *server.Options) {
		o.Catalogs = gateway
		o.VectorDir = cfg.Storage.VectorDir
		o.Logger = logger
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr(), "model", chatModel.Info().Name)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
