package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"minkyc/internal/identity/events"
	"minkyc/internal/identity/handler"
	identitymetrics "minkyc/internal/identity/metrics"
	"minkyc/internal/identity/sequence"
	"minkyc/internal/identity/service"
	counterstore "minkyc/internal/identity/store/counter"
	identitystore "minkyc/internal/identity/store/identity"
	receiptstore "minkyc/internal/identity/store/receipt"
	jwttoken "minkyc/internal/jwt_token"
	"minkyc/internal/platform/config"
	"minkyc/internal/platform/kafka"
	"minkyc/internal/platform/metrics"
	"minkyc/internal/platform/postgres"
	"minkyc/internal/platform/rabbitmq"
	"minkyc/internal/platform/redis"
	"minkyc/pkg/platform/audit"
	auditpublisher "minkyc/pkg/platform/audit/publisher"
	auditmemory "minkyc/pkg/platform/audit/store/memory"
	auditpostgres "minkyc/pkg/platform/audit/store/postgres"
	"minkyc/pkg/platform/circuit"
	"minkyc/pkg/platform/httputil"
	"minkyc/pkg/platform/tx"
)

const auditBufferSize = 1024

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// app holds the wired dependencies and the resources to release on exit.
type app struct {
	router  http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	identityMetrics := identitymetrics.New(reg)

	var (
		db     *sql.DB
		checks []healthCheck
	)
	if cfg.Identity.Store == config.BackendPostgres || cfg.Identity.Sequence == config.BackendPostgres {
		var err error
		db, err = postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
		checks = append(checks, healthCheck{"postgres", db.PingContext})
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(identityMetrics),
	}
	if !cfg.Identity.MultiIdentity {
		opts = append(opts, service.WithSingleIdentityMode())
	}

	// Stores and transactions.
	var (
		identities service.IdentityStore
		counters   service.CounterStore
		receipts   service.ReceiptStore
		storeTx    service.StoreTx
		auditStore audit.Store
	)
	switch cfg.Identity.Store {
	case config.BackendMemory:
		identities = identitystore.NewInMemoryStore()
		counters = counterstore.NewInMemoryStore()
		receipts = receiptstore.NewInMemoryStore()
		storeTx = service.NewShardedTx()
		auditStore = auditmemory.NewInMemoryStore()
	case config.BackendPostgres:
		identities = identitystore.NewPostgres(db)
		counters = counterstore.NewPostgres(db)
		receipts = receiptstore.NewPostgres(db)
		storeTx = tx.NewPostgres(db, cfg.Identity.TxTimeout)
		auditStore = auditpostgres.New(db)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Identity.Store)
	}

	// Receipt sequence.
	switch cfg.Identity.Sequence {
	case config.BackendMemory:
		opts = append(opts, service.WithSequence(sequence.NewMemory()))
	case config.BackendPostgres:
		opts = append(opts, service.WithSequence(sequence.NewPostgres(db)))
	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("sequence backend redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		checks = append(checks, healthCheck{"redis", client.Health})
		opts = append(opts, service.WithSequence(sequence.NewRedis(client, cfg.Redis.SequenceKey)))
	default:
		return nil, fmt.Errorf("unknown sequence backend %q", cfg.Identity.Sequence)
	}

	// Verification event sinks.
	fanout := events.NewFanout(identityMetrics)
	if cfg.Identity.HasSink(config.SinkLog) {
		fanout.Add(config.SinkLog, events.NewLogPublisher(log))
	}
	if cfg.Identity.HasSink(config.SinkKafka) {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, producer.Close)
		if err := producer.EnsureTopic(ctx, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return nil, err
		}
		checks = append(checks, healthCheck{"kafka", producer.Health})
		fanout.AddGuarded(config.SinkKafka, events.NewKafkaPublisher(producer, cfg.Kafka.Topic), circuit.New(config.SinkKafka))
	}
	if cfg.Identity.HasSink(config.SinkRabbitMQ) {
		client, err := rabbitmq.Connect(ctx, cfg.RabbitMQ, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		checks = append(checks, healthCheck{"rabbitmq", func(context.Context) error { return client.Health() }})
		fanout.AddGuarded(config.SinkRabbitMQ, events.NewRabbitPublisher(client, cfg.RabbitMQ.RoutingKey), circuit.New(config.SinkRabbitMQ))
	}
	if fanout.Len() > 0 {
		opts = append(opts, service.WithEventPublisher(fanout))
	}

	auditor := auditpublisher.NewPublisher(auditStore,
		auditpublisher.WithAsyncBuffer(auditBufferSize),
		auditpublisher.WithLogger(log),
	)
	a.closers = append(a.closers, auditor.Close)
	opts = append(opts, service.WithAuditPublisher(auditor))

	svc := service.New(identities, counters, receipts, storeTx, opts...)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer)

	r := chi.NewRouter()
	r.Get("/healthz", healthHandler(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handler.New(svc, jwttoken.NewJWTServiceAdapter(jwtService), metrics.NewHTTP(reg), log).Register(r)

	a.router = r
	ok = true
	return a, nil
}

func healthHandler(checks []healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{}
		code := http.StatusOK
		for _, c := range checks {
			if err := c.check(r.Context()); err != nil {
				status[c.name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			status[c.name] = "ok"
		}
		httputil.WriteJSON(w, code, map[string]any{"status": http.StatusText(code), "checks": status})
	}
}
