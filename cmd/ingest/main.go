// cmd/ingest is the MQTT subscriber process: it wires C1-C6 and hands
// every inbound telemetry message to the ingestion orchestrator. Per
// original_source/telemetry/subscriber.py's docstring,
// this loop must never crash — every error is logged and swallowed,
// never propagated into a panic or process exit.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"

	"github.com/orchestrix/telemetry-core/internal/adapter/driven/cache"
	"github.com/orchestrix/telemetry-core/internal/adapter/driven/postgres"
	temporalAdapter "github.com/orchestrix/telemetry-core/internal/adapter/driven/temporal"
	"github.com/orchestrix/telemetry-core/internal/ingest"
	"github.com/orchestrix/telemetry-core/internal/paramreg"
	"github.com/orchestrix/telemetry-core/internal/presence"
	"github.com/orchestrix/telemetry-core/internal/timeseries"
	"github.com/orchestrix/telemetry-core/pkg/config"
	"github.com/orchestrix/telemetry-core/pkg/observability"
)

const telemetryTopicFilter = "factories/+/devices/+/telemetry"

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.LogLevel, "json")
	observability.InitMetrics("telemetry_core")

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("ingest.database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("ingest.redis_url_invalid", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	influxClient := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	defer influxClient.Close()

	temporalClient, err := client.Dial(client.Options{HostPort: cfg.TemporalHostPort})
	if err != nil {
		slog.Error("ingest.temporal_connect_failed", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()

	tenants := postgres.NewTenantRepository(pool)
	devices := postgres.NewDeviceRepository(pool)
	parameters := postgres.NewParameterRepository(pool)

	identityCache := cache.New(redisClient, tenants, devices)
	paramRegistry := paramreg.New(parameters)
	writer := timeseries.New(influxClient, cfg.InfluxDBOrg, cfg.InfluxDBBucket)
	presenceTracker := presence.New(devices)
	jobRunner := temporalAdapter.NewRunner(temporalClient)

	orchestrator := ingest.New(identityCache, paramRegistry, writer, presenceTracker, jobRunner)

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBrokerHost, cfg.MQTTBrokerPort)).
		SetClientID("telemetry-core-ingest").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Second).
		SetMaxReconnectInterval(60 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			slog.Info("mqtt.connected", "host", cfg.MQTTBrokerHost, "port", cfg.MQTTBrokerPort)
			token := c.Subscribe(telemetryTopicFilter, 1, func(_ mqtt.Client, msg mqtt.Message) {
				if err := orchestrator.Ingest(ctx, msg.Topic(), msg.Payload()); err != nil {
					slog.Error("ingest.pipeline_error", "topic", msg.Topic(), "error", err)
				}
			})
			token.Wait()
			if err := token.Error(); err != nil {
				slog.Error("mqtt.subscribe_failed", "topic", telemetryTopicFilter, "error", err)
				return
			}
			slog.Info("mqtt.subscribed", "topic", telemetryTopicFilter)
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Error("mqtt.disconnected", "error", err)
		})

	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}

	mqttClient := mqtt.NewClient(opts)
	token := mqttClient.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		slog.Error("mqtt.initial_connect_failed", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("ingest.shutting_down")
	mqttClient.Disconnect(250)
}
