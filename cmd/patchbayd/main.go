package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/patchbay-sh/patchbay/internal/config"
	"github.com/patchbay-sh/patchbay/internal/daemon"
	patchbayversion "github.com/patchbay-sh/patchbay/internal/version"
)

// Environment fallbacks for the listen flags.
const (
	envBinding         = "PATCHBAY_BINDING"
	envPort            = "PATCHBAY_PORT"
	envToken           = "PATCHBAY_API_TOKEN"
	envDeploymentURL   = "PATCHBAY_DEPLOYMENT_URL"
	envDeploymentToken = "PATCHBAY_DEPLOYMENT_TOKEN"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "patchbayd",
		Short:         "Patchbay daemon - capability wiring engine and HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDaemon,
	}
	rootCmd.Version = patchbayversion.String()
	rootCmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	rootCmd.Flags().String("binding", "", "Listen address (default 127.0.0.1)")
	rootCmd.Flags().Int("port", 0, "Listen port (default 7777, 0 picks one)")
	rootCmd.Flags().String("token", "", "Require this bearer token on the API")
	rootCmd.Flags().String("deployment-url", "", "Deployment service base URL for live instance outputs")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	if err := setupLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logging: %v\n", err)
	}

	if daemon.IsRunning() {
		return fmt.Errorf("daemon is already running")
	}

	opts, err := daemonOptions(cmd)
	if err != nil {
		return err
	}

	d, err := daemon.New(opts)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() { errChan <- d.Start() }()

	log.Printf("Patchbay daemon started (PID: %d)", os.Getpid())

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %s, shutting down...", sig)
		d.Shutdown()
		if err := <-errChan; err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		if err != nil {
			log.Printf("Daemon error: %v", err)
			return err
		}
	}

	log.Println("Daemon stopped")
	return nil
}

func daemonOptions(cmd *cobra.Command) (daemon.Options, error) {
	binding, _ := cmd.Flags().GetString("binding")
	if binding == "" {
		binding = os.Getenv(envBinding)
	}

	port, _ := cmd.Flags().GetInt("port")
	if !cmd.Flags().Changed("port") {
		if raw := os.Getenv(envPort); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return daemon.Options{}, fmt.Errorf("invalid %s value %q", envPort, raw)
			}
			port = parsed
		} else {
			port = 7777
		}
	}

	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv(envToken)
	}

	deploymentURL, _ := cmd.Flags().GetString("deployment-url")
	if deploymentURL == "" {
		deploymentURL = os.Getenv(envDeploymentURL)
	}

	return daemon.Options{
		Binding:         binding,
		Port:            port,
		Token:           token,
		DeploymentURL:   deploymentURL,
		DeploymentToken: os.Getenv(envDeploymentToken),
	}, nil
}

func setupLogging() error {
	paths, err := config.EnsureDirs()
	if err != nil {
		return fmt.Errorf("initialise state directories: %w", err)
	}

	logPath := filepath.Join(paths.Logs, "daemon.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	multi := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multi)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	log.Printf("=== Patchbay Daemon Starting (PID: %d) ===", os.Getpid())
	log.Printf("Log file: %s", logPath)
	return nil
}
