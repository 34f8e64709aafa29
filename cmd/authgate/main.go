package main

import (
	"context"
	"flag"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"authgate/internal/apiclient"
	"authgate/internal/config"
	"authgate/internal/flows"
	"authgate/internal/notify"
	"authgate/internal/session"
	"authgate/internal/tokenstore"
	"authgate/internal/ui"
	"authgate/internal/verify"
)

func main() {
	verifyURL := flag.String("verify-url", "", "Verification link to open (renders the landing view)")
	serverFlag := flag.String("server", "", "Override API base URL (e.g. https://api.example.com/api)")
	flag.Parse()

	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *serverFlag != "" {
		cfg.BaseURL = strings.TrimRight(*serverFlag, "/")
	}

	tokens := tokenstore.NewFileStore(cfg.TokenPath)
	notifier := notify.NewConsole(os.Stdout)
	machine := session.New()

	client := apiclient.New(cfg.BaseURL, cfg.Timeout, tokens)
	client.OnUnauthorized = func() {
		// The token store is already cleared by the client at this point.
		machine.LoggedOut()
		notifier.Error("Session expired, please sign in again")
	}

	// The URL snapshot is captured once; later changes are not reactive.
	var snapshot *url.URL
	if *verifyURL != "" {
		snapshot, err = url.Parse(*verifyURL)
		if err != nil {
			log.Fatalf("parse verify-url: %v", err)
		}
	}
	landing, isLanding := verify.ParseLanding(snapshot)

	_, hasToken := tokens.Get()
	machine.Start(hasToken, isLanding)

	// Serve emailed verification links for the lifetime of the process.
	listener := verify.NewListener(cfg.LandingAddr, notifier)
	go func() {
		if err := listener.Start(); err != nil {
			log.Printf("verification landing: %v", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = listener.Shutdown(ctx)
	}()

	app := ui.NewApp(
		machine,
		flows.NewLoginFlow(client, tokens, machine, notifier),
		flows.NewRegisterFlow(client, tokens, machine, notifier),
		client,
		tokens,
		notifier,
		os.Stdin,
		os.Stdout,
	)
	if isLanding {
		app.SetLanding(landing)
	}

	log.Printf("authgate client started, API %s", cfg.BaseURL)
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("run: %v", err)
	}
}
