// Package app wires configuration, AWS clients and integrations into the
// HTTP handler shared by the Lambda and standalone entry points.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/redis/go-redis/v9"

	"megan-waseller/handler"
	"megan-waseller/internal/catalog"
	"megan-waseller/internal/config"
	"megan-waseller/internal/domain"
	"megan-waseller/internal/freight"
	"megan-waseller/internal/integrations/bling"
	"megan-waseller/internal/integrations/mercadopago"
	"megan-waseller/internal/integrations/openai"
	"megan-waseller/internal/integrations/paramstore"
	"megan-waseller/internal/integrations/whatsapp"
	"megan-waseller/internal/intent"
	"megan-waseller/internal/memory"
	"megan-waseller/internal/payment"
	"megan-waseller/internal/repository"
	"megan-waseller/internal/sequencer"
	"megan-waseller/internal/usecase"
)

// App holds the wired handler and the resources to release on shutdown.
type App struct {
	Handler *handler.Handler
	Router  *usecase.Router

	closers []func() error
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// awsLoader is swapped in tests.
var awsLoader = func(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

// Build wires every component described by cfg. AWS configuration is only
// loaded when SSM secrets or the DynamoDB backend are in use.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{}
	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		c, err := awsLoader(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("app: load AWS config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	// ---- Secrets ----
	var getter paramstore.Getter = paramstore.NewEnvTokens()
	if cfg.ParamPrefix != "" {
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(c), cfg.ParamPrefix)
		if err != nil {
			return nil, fmt.Errorf("app: create SSM client: %w", err)
		}
		getter = ssmClient
	}

	// ---- Integrations ----
	wa := whatsapp.NewClient(paramstore.NewSecret(getter, paramstore.SecretWhatsApp), cfg.PhoneID,
		whatsapp.WithVerifyToken(cfg.VerifyToken))

	model, err := openai.NewClient(paramstore.NewSecret(getter, paramstore.SecretOpenAI), openai.WithModel(cfg.OpenAIModel))
	if err != nil {
		return nil, fmt.Errorf("app: create OpenAI client: %w", err)
	}

	mp, err := mercadopago.NewClient(paramstore.NewSecret(getter, paramstore.SecretMercadoPago))
	if err != nil {
		return nil, fmt.Errorf("app: create Mercado Pago client: %w", err)
	}
	payments := payment.New(mp, payment.Config{
		Callbacks: domain.CallbackURLs{
			Success: cfg.SuccessURL,
			Failure: cfg.FailureURL,
			Pending: cfg.PendingURL,
		},
		NotificationURL: cfg.NotificationURL,
		Timeout:         cfg.ExternalTimeout,
	})

	// ---- Freight ----
	mode := freight.ParseMode(cfg.FreightMode)
	opts := []freight.Option{freight.WithTimeout(cfg.ExternalTimeout)}
	if mode == freight.ModeExternal {
		provider, err := bling.NewClient(paramstore.NewSecret(getter, paramstore.SecretBling), bling.WithBaseURL(cfg.BlingBaseURL))
		if err != nil {
			return nil, fmt.Errorf("app: create Bling client: %w", err)
		}
		opts = append(opts, freight.WithProvider(provider))
	}
	engine := freight.NewEngine(mode, cfg.FreightTableJSON, opts...)
	if err := engine.TableErr(); err != nil {
		slog.Warn("freight table is malformed, table quotes will use the default", "err", err)
	}

	// ---- Conversation memory ----
	backend, err := a.memoryBackend(cfg, loadAWS)
	if err != nil {
		return nil, err
	}
	store, err := memory.New(backend, usecase.PersonaPrompt(cfg.BotName))
	if err != nil {
		return nil, fmt.Errorf("app: create memory store: %w", err)
	}

	// ---- Router and handler ----
	router, err := usecase.NewRouter(usecase.Deps{
		Messenger:  wa,
		Model:      model,
		Quoter:     engine,
		Payments:   payments,
		Memory:     store,
		Serializer: sequencer.New(),
		Catalog:    catalog.NewStatic(domain.MoneyFromFloat(cfg.UnitPrice), 1),
		Parser:     intent.New(cfg.DefaultProduct),
		Timeout:    cfg.ExternalTimeout,
		MaxContext: cfg.MemoryMaxUtterances,
	})
	if err != nil {
		return nil, fmt.Errorf("app: create router: %w", err)
	}
	h, err := handler.NewHandler(router)
	if err != nil {
		return nil, fmt.Errorf("app: create handler: %w", err)
	}
	a.Handler = h
	a.Router = router

	slog.Info("app wired",
		"memory_backend", cfg.MemoryBackend,
		"freight_mode", string(mode),
		"ssm_secrets", cfg.ParamPrefix != "")
	return a, nil
}

func (a *App) memoryBackend(cfg config.Config, loadAWS func() (aws.Config, error)) (memory.Backend, error) {
	switch cfg.MemoryBackend {
	case config.BackendRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("app: parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opt)
		a.closers = append(a.closers, client.Close)
		return memory.NewRedis(client, cfg.MemoryIdleTTL)
	case config.BackendDynamoDB:
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		return repository.New(awsdynamodb.NewFromConfig(c), cfg.StateTable)
	default:
		return memory.NewLRU(cfg.MemoryMaxConversations, cfg.MemoryIdleTTL), nil
	}
}
