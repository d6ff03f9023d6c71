package main

import (
	"os"
	"wilma-backend/cmd/wilma-cli/commands"
	"wilma-backend/internal/components/serviceutil"
	"wilma-backend/internal/components/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	os.Exit(commands.ExecuteContext(serviceutil.SignalContext()))
}
