// Command onyxd runs the Onyx chat/ingest backend: wiring the service bus,
// catalog/chat stores, the AI agent chain, and the chat orchestrator, then
// waiting for a termination signal to drain outstanding work before exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/redis/go-redis/v9"
	"goa.design/clue/log"

	"onyx.dev/onyx/internal/ai/agent"
	"onyx.dev/onyx/internal/ai/llm"
	"onyx.dev/onyx/internal/ai/retriever"
	"onyx.dev/onyx/internal/ai/tool"
	"onyx.dev/onyx/internal/catalog"
	catalogstore "onyx.dev/onyx/internal/catalog/store"
	"onyx.dev/onyx/internal/chat"
	chatstore "onyx.dev/onyx/internal/chat/store"
	"onyx.dev/onyx/internal/config"
	"onyx.dev/onyx/internal/servicebus"
	"onyx.dev/onyx/internal/vectorstore"
)

func main() {
	var (
		configPathF = flag.String("config", "config.yaml", "Path to the onyxd YAML configuration file")
		dbgF        = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if *dbgF {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}

	cfg, err := config.Load(*configPathF)
	if err != nil {
		log.Fatalf(ctx, err, "loading configuration from %s", *configPathF)
	}
	if cfg.Debug {
		ctx = log.Context(ctx, log.WithDebug())
	}

	dispatcher := servicebus.NewDispatcher(cfg.DispatchPoolSize)
	bus := servicebus.NewBus(dispatcher)

	agents := catalogstore.NewMemoryAgentRepository()
	catalogSvc := catalog.NewAgentInfoService(agents, bus)
	searchClient := catalog.NewFakeSearchClient()
	catalog.RegisterSearchIndexing(bus, agents, searchClient)

	rowLocker := newRowLocker(cfg.Redis)
	_ = rowLocker // wired for Connection sync call sites not reached by this command

	chatFactory := chatstore.NewMemoryUnitOfWorkFactory()

	vectorStore := vectorstore.NewMemoryStore()
	hybridRetriever := retriever.NewHybrid(vectorStore, 8)

	llmClient := newLLMClient(ctx, cfg.LLM)
	tools := tool.NewRegistry()
	predictor := agent.NewStreamPredictor(llmClient, tools, dispatcher)
	rag := agent.NewRAGRunnable(hybridRetriever)
	chain := agent.NewDefaultChain(rag, predictor)

	orchestrator := chat.NewOrchestrator(chatFactory, catalogSvc, chain, bus)
	_ = orchestrator // wired for HTTP/gRPC transport layers not scoped here

	log.Print(ctx, log.KV{K: "msg", V: "onyxd started"})

	errc := make(chan error, 1)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errc <- fmt.Errorf("%s", <-c)
	}()

	<-errc
	log.Print(ctx, log.KV{K: "msg", V: "onyxd shutting down"})
	dispatcher.Teardown(ctx, 30*time.Second)
}

// newRowLocker returns a Redis-backed RowLocker when an address is
// configured, or an in-process locker for single-instance deployments.
func newRowLocker(cfg config.RedisConfig) catalogstore.RowLocker {
	if cfg.Addr == "" {
		return catalogstore.NewMemoryRowLocker()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return catalogstore.NewRedisRowLocker(redisLockerAdapter{client}, ttl)
}

// redisLockerAdapter narrows *redis.Client's command-object-returning
// methods down to catalogstore.RedisLocker's plain (result, error) shape.
type redisLockerAdapter struct {
	client *redis.Client
}

func (a redisLockerAdapter) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return a.client.SetNX(ctx, key, value, ttl).Result()
}

func (a redisLockerAdapter) Del(ctx context.Context, key string) error {
	return a.client.Del(ctx, key).Err()
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) llm.Client {
	switch cfg.Vendor {
	case "openai":
		return llm.NewOpenAIClient(cfg.APIKey, openai.ChatModel(cfg.Model))
	case "bedrock":
		log.Fatalf(ctx, fmt.Errorf("bedrock vendor requires an aws.Config-based client, not a bare API key"), "configuring LLM vendor")
		return nil
	default:
		return llm.NewAnthropicClient(cfg.APIKey, anthropic.Model(cfg.Model))
	}
}
