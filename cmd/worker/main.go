// cmd/worker is the Temporal worker process for C10's four named
// queues (rule_engine, notifications, analytics, reporting). Each
// queue gets its own worker.Worker over the shared client, since each
// queue's workflow/activity pair is independent and none benefit from
// sharing a poller.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/orchestrix/telemetry-core/internal/activity"
	"github.com/orchestrix/telemetry-core/internal/adapter/driven/notify"
	"github.com/orchestrix/telemetry-core/internal/adapter/driven/objectstore"
	"github.com/orchestrix/telemetry-core/internal/adapter/driven/postgres"
	temporalAdapter "github.com/orchestrix/telemetry-core/internal/adapter/driven/temporal"
	"github.com/orchestrix/telemetry-core/internal/analytics"
	notifydispatch "github.com/orchestrix/telemetry-core/internal/notify"
	"github.com/orchestrix/telemetry-core/internal/reporting"
	"github.com/orchestrix/telemetry-core/internal/ruleengine"
	"github.com/orchestrix/telemetry-core/internal/timeseries"
	"github.com/orchestrix/telemetry-core/internal/workflow"
	"github.com/orchestrix/telemetry-core/pkg/config"
	"github.com/orchestrix/telemetry-core/pkg/observability"
)

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.LogLevel, "json")
	observability.InitMetrics("telemetry_core")

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("worker.database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	temporalClient, err := client.Dial(client.Options{HostPort: cfg.TemporalHostPort})
	if err != nil {
		slog.Error("worker.temporal_connect_failed", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()

	influxClient := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	defer influxClient.Close()

	minioClient, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOSecure,
	})
	if err != nil {
		slog.Error("worker.minio_connect_failed", "error", err)
		os.Exit(1)
	}

	tenants := postgres.NewTenantRepository(pool)
	users := postgres.NewUserRepository(pool)
	devices := postgres.NewDeviceRepository(pool)
	rules := postgres.NewRuleRepository(pool)
	cooldowns := postgres.NewCooldownRepository(pool)
	alerts := postgres.NewAlertRepository(pool)
	jobs := postgres.NewJobRepository(pool)

	jobRunner := temporalAdapter.NewRunner(temporalClient)
	store := objectstore.New(minioClient, cfg.MinIOBucket)
	reader := timeseries.NewReader(influxClient, cfg.InfluxDBOrg, cfg.InfluxDBBucket)

	compositeNotifier := &notify.CompositeNotifier{
		Email: notify.NewSMTPNotifier(notify.SMTPConfig{
			Host: cfg.SMTPHost, Port: cfg.SMTPPort, User: cfg.SMTPUser, Pass: cfg.SMTPPass, From: cfg.SMTPFrom,
		}),
		WhatsApp: notify.NewTwilioNotifier(notify.TwilioConfig{
			AccountSID: cfg.TwilioAccountSID, AuthToken: cfg.TwilioAuthToken, WhatsAppFrom: cfg.TwilioWhatsAppFrom,
		}, nil),
	}

	activities := &activity.Activities{
		RuleEngine:   ruleengine.New(tenants, rules, cooldowns, alerts, jobRunner),
		Notifier:     notifydispatch.New(alerts, rules, devices, users, compositeNotifier),
		AnalyticsJob: analytics.New(reader, store, jobs),
		ReportJob:    reporting.New(reader, devices, alerts, store, jobs),
	}

	queues := []string{
		temporalAdapter.QueueRuleEngine,
		temporalAdapter.QueueNotifications,
		temporalAdapter.QueueAnalytics,
		temporalAdapter.QueueReporting,
	}

	workers := make([]worker.Worker, 0, len(queues))
	for _, queue := range queues {
		w := worker.New(temporalClient, queue, worker.Options{})
		switch queue {
		case temporalAdapter.QueueRuleEngine:
			w.RegisterWorkflow(workflow.RuleEvalWorkflow)
		case temporalAdapter.QueueNotifications:
			w.RegisterWorkflow(workflow.NotifyWorkflow)
		case temporalAdapter.QueueAnalytics:
			w.RegisterWorkflow(workflow.AnalyticsWorkflow)
		case temporalAdapter.QueueReporting:
			w.RegisterWorkflow(workflow.ReportWorkflow)
		}
		w.RegisterActivity(activities)
		workers = append(workers, w)
	}

	for _, w := range workers {
		wk := w
		go func() {
			if err := wk.Run(worker.InterruptCh()); err != nil {
				slog.Error("worker.run_failed", "error", err)
				os.Exit(1)
			}
		}()
	}
	slog.Info("worker.started", "queues", queues)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("worker.shutting_down")
	for _, w := range workers {
		w.Stop()
	}
}
