package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"checktrack/internal/config"
	"checktrack/internal/crypto"
	"checktrack/internal/database"
	"checktrack/internal/models"
	"checktrack/internal/runner"
	"checktrack/internal/services/daemon"
	"checktrack/internal/services/pages"
	"checktrack/internal/services/syncer"
	"checktrack/internal/services/tracking"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "checktrackd",
		Short: "Background-check tracking service",
		Long:  "checktrackd tracks client background-check processes, reconciles runner job results and serves operational metrics.",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "checktrack.yaml", "path to the YAML config file")

	rootCmd.AddCommand(serveCmd(), seedCmd(), profileCmd(), syncCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tracking service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer database.Close()

			pageRegistry := pages.NewService(db)
			if err := pageRegistry.Seed(); err != nil {
				return fmt.Errorf("failed to seed page catalog: %w", err)
			}

			dispatcher, err := buildDispatcher(db, cfg)
			if err != nil {
				return err
			}
			trackingService := tracking.NewService(db, pageRegistry, dispatcher)

			if cfg.Daemon.Enabled {
				d := daemon.NewService(db, trackingService, daemon.Options{
					Cron:      cfg.Daemon.Cron,
					BatchSize: cfg.Daemon.BatchSize,
					PageCodes: cfg.Daemon.PageCodes,
					StaleAge:  cfg.StaleAge(),
				})
				if err := d.Start(); err != nil {
					return fmt.Errorf("failed to start daemon: %w", err)
				}
				defer d.Stop()
			} else {
				log.Println("Daemon disabled, processes are created on demand only")
			}

			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				log.Printf("Metrics listening on %s", cfg.Metrics.Addr)
				if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
					log.Printf("Metrics server stopped: %v", err)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			log.Println("Shutting down")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and seed the page catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := pages.NewService(db).Seed(); err != nil {
				return fmt.Errorf("failed to seed page catalog: %w", err)
			}
			log.Println("Page catalog seeded")
			return nil
		},
	}
}

func profileCmd() *cobra.Command {
	var name, url, username, password string

	set := &cobra.Command{
		Use:   "set",
		Short: "Store or update runner credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer database.Close()

			encrypted, err := crypto.EncryptPassword(password)
			if err != nil {
				return fmt.Errorf("failed to encrypt runner password: %w", err)
			}

			var profile models.RunnerProfile
			err = db.Where("name = ?", name).First(&profile).Error
			switch {
			case err == nil:
				profile.BaseURL = url
				profile.Username = username
				profile.PasswordEnc = encrypted
				err = db.Save(&profile).Error
			case errors.Is(err, gorm.ErrRecordNotFound):
				profile = models.RunnerProfile{
					Name:        name,
					BaseURL:     url,
					Username:    username,
					PasswordEnc: encrypted,
				}
				err = db.Create(&profile).Error
			}
			if err != nil {
				return fmt.Errorf("failed to store runner profile %q: %w", name, err)
			}

			log.Printf("Runner profile %q saved", name)
			return nil
		},
	}
	set.Flags().StringVar(&name, "name", "default", "profile name")
	set.Flags().StringVar(&url, "url", "", "runner base URL")
	set.Flags().StringVar(&username, "username", "", "runner username")
	set.Flags().StringVar(&password, "password", "", "runner password")
	set.MarkFlagRequired("url")

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage runner connection profiles",
	}
	cmd.AddCommand(set)
	return cmd
}

func syncCmd() *cobra.Command {
	var payloadFile string
	var simulatePages []string
	var simulateFail bool

	cmd := &cobra.Command{
		Use:   "sync <job-id>",
		Short: "Reconcile a completion payload against a job",
		Long:  "Feeds a completion payload into the sync engine, either read from a JSON file or simulated for the given pages. Useful when the runner delivered out of band or for manual testing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer database.Close()

			jobID := args[0]

			var result syncer.JobResult
			switch {
			case payloadFile != "":
				raw, err := os.ReadFile(payloadFile)
				if err != nil {
					return fmt.Errorf("failed to read payload %s: %w", payloadFile, err)
				}
				if err := json.Unmarshal(raw, &result); err != nil {
					return fmt.Errorf("failed to parse payload %s: %w", payloadFile, err)
				}
			case len(simulatePages) > 0:
				result = syncer.SimulatedResult(simulatePages, !simulateFail)
			default:
				return fmt.Errorf("either --file or --simulate-pages is required")
			}

			found, err := syncer.NewService(db).SyncCompletedJob(jobID, result)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no process carries job %q", jobID)
			}
			log.Printf("Payload reconciled for job %s", jobID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&payloadFile, "file", "f", "", "JSON completion payload to apply")
	cmd.Flags().StringSliceVar(&simulatePages, "simulate-pages", nil, "simulate a done payload covering these page codes")
	cmd.Flags().BoolVar(&simulateFail, "simulate-fail", false, "simulated pages report failure instead of success")
	return cmd
}

// bootstrap loads .env and the YAML config, prepares encryption and
// opens the database.
func bootstrap() (*config.Config, *gorm.DB, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	if err := crypto.InitEncryption(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}

	db, err := database.Init()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cfg, db, nil
}

// buildDispatcher wires the runner client for process dispatch. A
// stored profile wins over the bare config URL because it carries
// credentials.
func buildDispatcher(db *gorm.DB, cfg *config.Config) (tracking.Dispatcher, error) {
	var profile models.RunnerProfile
	err := db.Where("name = ?", cfg.Runner.ProfileName).First(&profile).Error
	if err == nil {
		return runner.NewClientFromProfile(&profile)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load runner profile %q: %w", cfg.Runner.ProfileName, err)
	}

	if cfg.Runner.URL == "" {
		return nil, fmt.Errorf("no runner configured: store a profile or set runner.url / RUNNER_URL")
	}
	log.Printf("Runner profile %q not found, using unauthenticated runner at %s",
		cfg.Runner.ProfileName, cfg.Runner.URL)
	return runner.NewClient(cfg.Runner.URL, "", ""), nil
}
