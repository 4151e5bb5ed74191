package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/taxglide/filingwizard/internal/cli"
	"github.com/taxglide/filingwizard/internal/memstore"
	"github.com/taxglide/filingwizard/internal/prompt"
	"github.com/taxglide/filingwizard/pkg/filing"
	"github.com/taxglide/filingwizard/pkg/schema"
	"github.com/taxglide/filingwizard/pkg/wizard"
)

func main() {
	year := flag.Int("year", 2025, "tax year")
	kindFlag := flag.String("kind", "INDIVIDUAL", "filing kind: INDIVIDUAL, CORPORATE or TRUST")
	owner := flag.String("owner", "local-user", "owner identifier")
	schemaDir := flag.String("schemas", "", "directory of questionnaire YAML files (embedded when empty)")
	flag.Parse()

	if err := run(*year, *kindFlag, *owner, *schemaDir); err != nil {
		if errors.Is(err, prompt.ErrAborted) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "aborted")
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(year int, kindFlag, owner, schemaDir string) error {
	kind, err := filing.ParseKind(kindFlag)
	if err != nil {
		return err
	}

	var provider schema.Provider
	if schemaDir != "" {
		provider = schema.NewFSProvider(os.DirFS(schemaDir))
	} else {
		provider = schema.EmbeddedProvider()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := memstore.New()
	f := &filing.Filing{OwnerID: owner, Year: year, Kind: kind, Status: filing.StatusDraft}
	if err := st.CreateFiling(ctx, f); err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	engine := wizard.New(st, provider, f.ID, wizard.WithLogger(log))

	return cli.New(prompt.NewSurvey(), engine).Run(ctx)
}
