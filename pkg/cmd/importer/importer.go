package importer

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/speedview-sync/log"
	"github.com/mpapenbr/speedview-sync/pkg/config"
	"github.com/mpapenbr/speedview-sync/pkg/db/postgres"
	"github.com/mpapenbr/speedview-sync/pkg/importer"
	"github.com/mpapenbr/speedview-sync/pkg/notify"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
	"github.com/mpapenbr/speedview-sync/pkg/repository/bob"
	"github.com/mpapenbr/speedview-sync/pkg/utils"
)

var importCfg config.ImportConfig

//nolint:funlen // flag definitions
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "imports data from the OpenF1 API",
	}
	f := cmd.PersistentFlags()
	f.StringVar(&importCfg.BaseURL, "base-url", openf1.DefaultBaseURL,
		"base url of the OpenF1 API")
	f.Float64Var(&importCfg.Sleep, "sleep", 0.2,
		"seconds to wait after each API call")
	f.Float64Var(&importCfg.Timeout, "timeout", 30,
		"request timeout in seconds")
	f.IntVar(&importCfg.Retries, "retries", 2,
		"number of retries for throttled or failing requests")
	f.Float64Var(&importCfg.Rate, "rate", 0,
		"max requests per second (0: no limit)")
	f.BoolVar(&importCfg.CreateOnly, "create-only", false,
		"only create missing rows, never update existing ones")
	f.BoolVar(&importCfg.DryRun, "dry-run", false,
		"fetch and compare but do not write to the database")
	f.BoolVar(&importCfg.Debug, "debug", false,
		"log every request")
	f.StringVar(&importCfg.NatsURL, "nats-url", "",
		"publish run summaries to this NATS server")

	cmd.AddCommand(
		newJobCmd("meetings", "imports meetings",
			func() importer.Job { return importer.MeetingsJob{} },
			meetingKeys, year, countryNames),
		newJobCmd("sessions", "imports the sessions of meetings",
			func() importer.Job { return importer.SessionsJob{} },
			meetingKeys, missingOnly),
		newJobCmd("drivers", "imports drivers and their team entries",
			func() importer.Job { return importer.DriversJob{} },
			driverNumbers, countryCodes, meetingKeys, sessionKeys),
		newJobCmd("car-data", "imports car telemetry",
			func() importer.Job { return importer.NewCarDataJob() },
			meetingKeys, sessionKeys, driverNumbers, speedRange, refresh),
		newJobCmd("laps", "imports lap times",
			func() importer.Job { return importer.LapsJob{} },
			meetingKeys, sessionKeys, driverNumbers),
		newJobCmd("pit", "imports pit stops",
			func() importer.Job { return importer.PitJob{} },
			meetingKeys, sessionKeys, driverNumbers),
		newJobCmd("weather", "imports weather data",
			func() importer.Job { return importer.WeatherJob{} },
			meetingKeys, sessionKeys),
	)
	return cmd
}

type flagSetup func(cmd *cobra.Command)

//nolint:whitespace // editor/linter issue
func newJobCmd(
	use, short string,
	job func() importer.Job,
	flags ...flagSetup,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:          use,
		Short:        short,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			importCfg.Normalize()
			return importCfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runJob(ctx, cmd, job())
		},
	}
	// speed filters are only set by car-data
	importCfg.MinSpeed, importCfg.MaxSpeed = -1, -1
	for _, f := range flags {
		f(cmd)
	}
	return cmd
}

func meetingKeys(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&importCfg.MeetingKeys, "meeting-key", nil,
		"meeting key (repeatable, default: all local meetings)")
}

func sessionKeys(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&importCfg.SessionKeys, "session-key", nil,
		"session key (repeatable)")
}

func driverNumbers(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&importCfg.DriverNumbers, "driver-number", nil,
		"driver number (repeatable)")
}

func countryCodes(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&importCfg.CountryCodes, "country", nil,
		"three letter country code (repeatable)")
}

func countryNames(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&importCfg.CountryNames, "country", nil,
		"country name (repeatable)")
}

func year(cmd *cobra.Command) {
	cmd.Flags().IntVar(&importCfg.Year, "year", 0, "season")
}

func missingOnly(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&importCfg.MissingOnly, "missing-only", false,
		"only fetch meetings without sessions")
}

func speedRange(cmd *cobra.Command) {
	cmd.Flags().IntVar(&importCfg.MinSpeed, "min-speed", -1,
		"only samples with at least this speed (km/h)")
	cmd.Flags().IntVar(&importCfg.MaxSpeed, "max-speed", -1,
		"only samples with at most this speed (km/h)")
}

func refresh(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&importCfg.Refresh, "refresh", false,
		"replace the imported samples matching the filters instead of merging")
}

//nolint:funlen // sequential steps
func runJob(ctx context.Context, cmd *cobra.Command, job importer.Job) error {
	if err := utils.WaitForDB(ctx, config.DB, config.WaitForServices); err != nil {
		return err
	}
	sqlLogger := log.Default().Named("sql")
	pgTraceOption := postgres.WithTracer(
		postgres.NewMyTracer(sqlLogger, parseLevel(config.SQLLogLevel)))
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		if telemetry, err := config.SetupTelemetry(ctx); err == nil {
			defer telemetry.Shutdown()
			pgTraceOption = postgres.WithTracer(postgres.NewOtlpTracer())
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
	}

	pool, err := postgres.NewPool(ctx, config.DB, pgTraceOption)
	if err != nil {
		return err
	}
	defer pool.Close()
	repos := bob.NewRepositoriesFromPool(pool)

	client := openf1.New(importCfg.BaseURL,
		openf1.WithTimeout(seconds(importCfg.Timeout)),
		openf1.WithDelay(seconds(importCfg.Sleep)),
		openf1.WithRate(importCfg.Rate),
		openf1.WithRetries(importCfg.Retries, time.Second),
		openf1.WithDebug(importCfg.Debug))

	env := importer.NewEnv(&importCfg, client, repos,
		bob.NewTransactionManagerFromPool(pool), cmd.OutOrStdout())
	opts := []importer.RunnerOption{importer.WithRecorder(repos.ImportRun())}
	if importCfg.NatsURL != "" {
		pub, err := notify.Connect(importCfg.NatsURL)
		if err != nil {
			log.Warn("Summary will not be published", log.ErrorField(err))
		} else {
			defer pub.Close()
			opts = append(opts, importer.WithPublisher(pub))
		}
	}

	start := time.Now()
	summary, err := importer.NewRunner(env, opts...).Run(ctx, job)
	if err != nil {
		return fmt.Errorf("%s import aborted: %w", job.Name(), err)
	}
	log.Debug("import done",
		log.String("job", job.Name()),
		log.Int("rows", summary.Rows),
		log.Duration("duration", time.Since(start)))
	return nil
}

func parseLevel(s string) log.Level {
	if l, err := log.ParseLevel(s); err == nil {
		return l
	}
	return log.DebugLevel
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
