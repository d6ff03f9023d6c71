package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"wilma-backend/internal/components/configutil"
	"wilma-backend/internal/components/telemetry"
	"wilma-backend/internal/scrapers/wilma"
)

type Config struct {
	BaseUrl           string  `json:"base_url"`
	Username          string  `json:"username"`
	Password          string  `json:"password"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
}

func readConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config](configPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
	}
	if cfg.BaseUrl == "" || cfg.Username == "" {
		return Config{}, fmt.Errorf("config %s must set base_url and username", configPath)
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 2
	}
	return cfg, nil
}

func newClient(cfg Config, tel telemetry.API) (*wilma.Client, error) {
	opts := wilma.ClientOptions{
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.RequestsPerSecond,
		CloudflareBypass:  cfg.CloudflareBypass,
	}
	if verbose {
		output, err := telemetry.NewFilesystemOutput(dumpDir)
		if err != nil {
			return nil, err
		}
		opts.Output = output
		slog.Debug("dumping http messages", "dir", dumpDir)
	}
	return wilma.NewClient(tel, opts)
}

// signIn reads the config, creates a client and signs in.
func signIn(ctx context.Context) (*wilma.Client, *wilma.Session, Config, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, nil, Config{}, err
	}
	tel := telemetry.SlogAPI{}
	client, err := newClient(cfg, tel)
	if err != nil {
		return nil, nil, Config{}, err
	}
	session, err := wilma.NewSession(cfg.BaseUrl)
	if err != nil {
		return nil, nil, Config{}, err
	}

	_, err = client.Login(ctx, session, cfg.Username, cfg.Password)
	if err != nil {
		return nil, nil, Config{}, fmt.Errorf("%s (%w)", wilma.UserMessage(err), err)
	}
	slog.Info("signed in", "username", cfg.Username, "name", session.DisplayName)
	return client, session, cfg, nil
}
