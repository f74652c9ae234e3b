package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/astrodocs/missionqa/app"
	"github.com/astrodocs/missionqa/config"
	"github.com/astrodocs/missionqa/models"
	"github.com/astrodocs/missionqa/routes"
	"github.com/astrodocs/missionqa/services/assembler"
	"github.com/astrodocs/missionqa/services/batch"
	"github.com/astrodocs/missionqa/services/memory"
)

const usage = `Usage: missionqa <command> [flags]

Commands:
  serve    run the HTTP API server
  ask      interactive question answering on the terminal
  eval     run batch evaluation over a question set
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := app.NewLogger(cfg.Observability, cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}

	deps, err := app.NewDependencies(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer func() { _ = deps.Close() }()

	switch os.Args[1] {
	case "serve":
		err = runServe(deps)
	case "ask":
		err = runAsk(deps)
	case "eval":
		err = runEval(deps, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

// runServe starts the HTTP server and blocks until shutdown
func runServe(deps *app.Dependencies) error {
	cfg := deps.Config

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.Info("server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		deps.Logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// runAsk runs a terminal loop answering questions with shared conversation
// memory across the session
func runAsk(deps *app.Dependencies) error {
	ctx := context.Background()
	conv := memory.NewConversation(deps.Config.Generation.MaxHistoryTurns)
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("NASA Mission Q&A. Type a question, or 'quit' to exit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "quit" || question == "exit" {
			break
		}

		passages, err := deps.Gateway.Retrieve(ctx, question, deps.Config.Retrieval.TopK, "")
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		answer, err := deps.Generator.Generate(ctx, question, assembler.Format(passages), conv.Window())
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		conv.Append(models.Turn{Role: models.RoleUser, Content: question})
		conv.Append(models.Turn{Role: models.RoleAssistant, Content: answer})

		fmt.Printf("\n%s\n", answer)
		if len(passages) > 0 {
			labels := make([]string, len(passages))
			for i, p := range passages {
				labels[i] = assembler.Label(p, i+1)
			}
			fmt.Printf("\nSources: %s\n", strings.Join(labels, ", "))
		}
		fmt.Println()
	}
	return scanner.Err()
}

// runEval loads a question set, runs the batch pipeline, and writes the report
func runEval(deps *app.Dependencies, args []string) error {
	flags := flag.NewFlagSet("eval", flag.ExitOnError)
	questionsPath := flags.String("questions", "questions.json", "path to the question set (JSON array or one question per line)")
	outPath := flags.String("out", "report.json", "path for the evaluation report")
	if err := flags.Parse(args); err != nil {
		return err
	}

	questions, err := batch.LoadQuestions(*questionsPath)
	if err != nil {
		return err
	}
	deps.Logger.Info("question set loaded",
		zap.String("path", *questionsPath),
		zap.Int("questions", len(questions)))

	report, err := deps.Orchestrator.Run(context.Background(), questions)
	if err != nil {
		return err
	}

	if err := batch.WriteReport(*outPath, report); err != nil {
		return err
	}

	deps.Logger.Info("evaluation report written",
		zap.String("path", *outPath),
		zap.Int("questions", len(report.PerQuestion)),
		zap.Any("aggregate", report.Aggregate))
	return nil
}
