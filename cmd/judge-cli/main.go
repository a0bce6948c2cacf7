package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"codejudge/internal/cli/command"
	"codejudge/internal/cli/config"
	httpclient "codejudge/internal/cli/http"
	"codejudge/internal/cli/repl"
	"codejudge/internal/cli/state"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 30s)")
	token := flag.String("token", "", "Override access token")
	userID := flag.String("user", "", "Override user id sent in public auth mode")
	statePath := flag.String("state", "", "Override token state path")
	pretty := flag.Bool("pretty", false, "Pretty print JSON response")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		return
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *statePath != "" {
		cfg.TokenStatePath = *statePath
	}
	if *pretty {
		trueValue := true
		cfg.PrettyJSON = &trueValue
	}

	tokenState, err := state.Load(cfg.TokenStatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load token state failed: %v\n", err)
		return
	}
	if *token != "" {
		tokenState.AccessToken = *token
	}
	if tokenState.UserID == "" {
		tokenState.UserID = cfg.UserID
	}
	if *userID != "" {
		tokenState.UserID = *userID
	}

	client := httpclient.New(cfg.BaseURL, cfg.Timeout,
		func() string { return tokenState.AccessToken },
		func() string { return tokenState.UserID },
	)

	commands := command.Registry()
	rl, err := repl.NewReadline(cfg.HistoryFile, commands)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init line editor failed: %v\n", err)
		return
	}
	defer func() {
		_ = rl.Close()
	}()

	session := repl.New(client, commands, &tokenState, cfg.TokenStatePath, cfg.PrettyJSON != nil && *cfg.PrettyJSON, rl, rl.Stdout())
	session.Run(context.Background())
}
