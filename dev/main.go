package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	devenv "wilma-backend/dev/env"
)

const wilmaConfigTemplate = `{
  // a real account used by the live tests, never commit this file
  base_url: "https://<school>.inschool.fi",
  username: "",
  password: "",
  expect_messages: false,
}
`

const telemetryConfigTemplate = `{
  protocol: "http",
  traces_endpoint: "http://localhost:4318/v1/traces",
  metrics_endpoint: "http://localhost:4318/v1/metrics",
  metric_interval_seconds: 15,
}
`

func writeTemplate(path, contents string) error {
	_, err := os.Stat(path)
	if err == nil {
		slog.Info("keeping existing file", "path", path)
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	slog.Info("writing template", "path", path)
	return os.WriteFile(path, []byte(contents), 0600)
}

func create(recreate bool) error {
	stateDir, err := devenv.GetStateDir()
	if err != nil {
		return fmt.Errorf("the dev environment must be created inside the repository: %w", err)
	}

	if recreate {
		err = os.RemoveAll(stateDir)
		if err != nil {
			return err
		}
	}
	err = os.MkdirAll(stateDir, 0777)
	if err != nil {
		return err
	}

	err = writeTemplate(filepath.Join(stateDir, devenv.WilmaTestConfigFile), wilmaConfigTemplate)
	if err != nil {
		return err
	}
	root, err := devenv.GetWorkspaceRoot()
	if err != nil {
		return err
	}
	return writeTemplate(filepath.Join(root, "telemetry.json5"), telemetryConfigTemplate)
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	flag.Parse()

	err := create(*recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}
}
