package di

import (
	"context"
	"fmt"
	"time"

	"BarTrader/internal/domain/repository"
	"BarTrader/internal/handler/api"
	"BarTrader/internal/handler/ws"
	mid "BarTrader/internal/middleware"
	internalrepo "BarTrader/internal/repository"
	"BarTrader/internal/service/binance"
	icache "BarTrader/internal/service/cache"
	"BarTrader/internal/service/paper"
	"BarTrader/internal/store"
	"BarTrader/internal/usecase"
	pkgcache "BarTrader/pkg/cache"
	pkgch "BarTrader/pkg/clickhouse"
	"BarTrader/pkg/config"
	pkgkafka "BarTrader/pkg/kafka"
	applogger "BarTrader/pkg/logger"
	"BarTrader/pkg/metrics"
	"BarTrader/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTickStore creates the last-tick store.
func ProvideTickStore() repository.TickStore {
	return store.NewTickStore()
}

// ProvideCandleStore creates the bounded candle history store.
func ProvideCandleStore(cfg *config.Config) repository.CandleStore {
	return store.NewCandleStore(cfg.Candle.MaxHistory)
}

// ProvidePositionStore creates the position ledger.
func ProvidePositionStore() repository.PositionStore {
	return store.NewPositionStore()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.CandleSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the tick consumer when Kafka is the tick source.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Source.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMarketStream creates the Binance trade stream.
func ProvideMarketStream(cfg *config.Config) repository.MarketStream {
	return binance.NewStream(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbols,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
	)
}

// ProvideOrderExecutor selects the order executor by execution mode.
func ProvideOrderExecutor(cfg *config.Config, logger *applogger.Logger) repository.OrderExecutor {
	if cfg.Execution.Mode == "binance" {
		return binance.NewOrderClient(cfg.Binance.APIKey, cfg.Binance.APISecret, cfg.Binance.RestURL)
	}
	return paper.NewExecutor(logger)
}

// ProvideStrategyManager builds the two stop-loss variants over one crossover rule.
func ProvideStrategyManager(cfg *config.Config, m repository.Metrics, logger *applogger.Logger) *usecase.StrategyManager {
	base := usecase.StrategyConfig{
		SMAShortWindow: cfg.Strategy.SMAShortWindow,
		SMALongWindow:  cfg.Strategy.SMALongWindow,
		EMASpan:        cfg.Strategy.EMASpan,
		MaxSignals:     cfg.Strategy.MaxSignals,
	}

	a := base
	a.Name = "A"
	a.StopLossPercent = cfg.Strategy.SLVariantA

	b := base
	b.Name = "B"
	b.StopLossPercent = cfg.Strategy.SLVariantB

	return usecase.NewStrategyManager(m,
		usecase.NewCrossoverStrategy(a, logger),
		usecase.NewCrossoverStrategy(b, logger),
	)
}

// ProvidePositionManager creates the position lifecycle manager.
func ProvidePositionManager(
	positions repository.PositionStore,
	executor repository.OrderExecutor,
	m repository.Metrics,
	logger *applogger.Logger,
) *usecase.PositionManager {
	return usecase.NewPositionManager(positions, executor, m, logger)
}

// ProvideHub creates the candle broadcast hub.
func ProvideHub(logger *applogger.Logger) *ws.Hub {
	return ws.NewHub(logger)
}

// ProvideOrchestrator wires stores, strategies and sinks into the tick path.
func ProvideOrchestrator(
	cfg *config.Config,
	ticks repository.TickStore,
	candles repository.CandleStore,
	strategies *usecase.StrategyManager,
	positions *usecase.PositionManager,
	executor repository.OrderExecutor,
	m repository.Metrics,
	logger *applogger.Logger,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	hub *ws.Hub,
) *usecase.Orchestrator {
	sinks := []repository.CandleSink{hub}
	if chClient != nil {
		sinks = append(sinks, internalrepo.NewClickHouseCandleSink(chClient.DB(), "candles", logger))
	}
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaCandleSink(producer, cfg.Kafka.CandleTopic, logger))
	}

	return usecase.NewOrchestrator(
		usecase.OrchestratorConfig{
			Symbols:       cfg.Binance.Symbols,
			CandleWindow:  cfg.CandleWindow(),
			MaxCandles:    cfg.Candle.MaxHistory,
			TradeQuantity: cfg.Execution.TradeQuantity,
			HistoryDepth:  cfg.Candle.MaxHistory,
		},
		ticks, candles, strategies, positions, executor, m, logger,
		sinks...,
	)
}

// ProvideTickPipeline creates the validation/buffer middleware in front of
// the orchestrator.
func ProvideTickPipeline(orch *usecase.Orchestrator, m repository.Metrics) *mid.TickPipeline {
	return mid.NewTickPipeline(orch, m, mid.WithBufferSize(2000))
}

// ProvideTickCollector creates the market stream collector.
func ProvideTickCollector(
	stream repository.MarketStream,
	pipe *mid.TickPipeline,
	orch *usecase.Orchestrator,
	m repository.Metrics,
) *usecase.TickCollector {
	return usecase.NewTickCollector(stream, pipe, orch, m)
}

// ProvideKafkaTicksHandler registers the handler for the ticks topic.
func ProvideKafkaTicksHandler(pipe *mid.TickPipeline, m repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, pipe, m)
}

// ProvideCache selects the response cache backend: layered memory+Redis
// when Redis is enabled, plain memory otherwise.
func ProvideCache(cfg *config.Config) (icache.BytesCache, error) {
	if cfg.Redis.Enabled {
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(cfg.Redis.Host),
			pkgcache.WithRedisPort(cfg.Redis.Port),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return icache.NewServiceAdapter(pkgcache.NewLayeredCache(rc)), nil
	}
	return icache.NewServiceAdapter(pkgcache.NewMemoryCache()), nil
}

// ProvideTradingHandler creates the HTTP handler for the trading API.
func ProvideTradingHandler(
	logger *applogger.Logger,
	ticks repository.TickStore,
	candles repository.CandleStore,
	positions repository.PositionStore,
	strategies *usecase.StrategyManager,
	orch *usecase.Orchestrator,
	collector *usecase.TickCollector,
	cache icache.BytesCache,
) *api.TradingHandler {
	h := api.NewTradingHandler(logger, ticks, candles, positions, strategies, orch)
	h.SetCache(cache)
	h.SetConnectedProbe(collector.IsConnected)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	orch *usecase.Orchestrator,
	hub *ws.Hub,
	handler *api.TradingHandler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if producer != nil {
		logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "app.logs",
			Publisher:      internalrepo.NewKafkaLogPublisher(producer),
		})
	}
	return server.New(cfg, logger, collector, consumer, kh, orch, hub, handler, chClient, producer)
}
