package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tutor-rag/internal/config"
	"tutor-rag/internal/helper"
	"tutor-rag/internal/tutor"
)

const (
	configFilePath = "./configs/config.yaml"
	indexSnapshot  = "index.json"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	ingestPath := flag.String("ingest", "", "Path to a curriculum file or directory to ingest")
	sample := flag.Bool("sample", false, "Ingest the built-in sample curriculum")
	question := flag.String("ask", "", "Ask a single question and exit")
	session := flag.String("session", "", "Session id (defaults to a fresh one)")
	subject := flag.String("subject", "", "Restrict retrieval to a subject")
	stats := flag.Bool("stats", false, "Print system stats and exit")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg := loadConfig(*configPath)

	ctx := context.Background()
	system, err := tutor.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating tutor")
	}

	restoreIndex(ctx, system, cfg)

	if *sample {
		n, err := system.IngestSample(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Error ingesting sample curriculum")
		}
		log.Info().Int("chunks", n).Msg("Sample curriculum ingested")
	}

	if *ingestPath != "" {
		n, err := ingest(ctx, system, *ingestPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Error ingesting curriculum")
		}
		log.Info().Int("chunks", n).Str("path", *ingestPath).Msg("Curriculum ingested")
	}

	if *sample || *ingestPath != "" {
		saveIndex(ctx, system, cfg)
	}

	if *stats {
		helper.PrettyPrint(system.Stats())
		return
	}

	sessionID := *session
	if sessionID == "" {
		sessionID = helper.NewSessionID()
	}

	if *question != "" {
		answer(ctx, system, sessionID, *question, *subject)
		return
	}

	if *sample || *ingestPath != "" {
		return
	}

	repl(ctx, system, sessionID, *subject)
}

func loadConfig(path string) *config.Config {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Info().Str("path", path).Msg("No config file, using defaults")
		return config.Default()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	return cfg
}

func ingest(ctx context.Context, system *tutor.System, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return system.IngestPath(ctx, path)
	}
	return system.IngestFile(ctx, path)
}

func answer(ctx context.Context, system *tutor.System, sessionID, question, subject string) {
	result, err := system.Ask(ctx, sessionID, question, subject)
	if err != nil {
		log.Warn().Err(err).Msg("Query did not complete cleanly")
	}

	fmt.Printf("\nTutor: %s\n", result.Text)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, src := range result.Sources {
			fmt.Printf("  %d. %s (%s)\n", i+1, src.SourceTitle, src.ChunkID)
		}
	}
	fmt.Printf("\nConfidence: %.2f", result.Confidence)
	if result.UsedFallback {
		fmt.Print(" (fallback backend)")
	}
	fmt.Println()
}

func repl(ctx context.Context, system *tutor.System, sessionID, subject string) {
	fmt.Println("EduSmart AI Tutor. Type your question, 'clear' to reset the session, 'stats' for stats, 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return
		case "clear":
			system.ClearSession(sessionID)
			fmt.Println("Session cleared.")
			continue
		case "stats":
			helper.PrettyPrint(system.Stats())
			continue
		}
		answer(ctx, system, sessionID, line, subject)
	}
}

// restoreIndex reloads a previous snapshot when the store is file backed.
func restoreIndex(ctx context.Context, system *tutor.System, cfg *config.Config) {
	if cfg.Store.Path == "" {
		return
	}
	path := filepath.Join(cfg.Store.Path, indexSnapshot)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}
	if err := system.LoadIndex(ctx, path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not restore index snapshot")
	}
}

func saveIndex(ctx context.Context, system *tutor.System, cfg *config.Config) {
	if cfg.Store.Path == "" {
		return
	}
	if err := helper.CreateFolder(cfg.Store.Path); err != nil {
		log.Fatal().Err(err).Msg("Error creating store folder")
	}
	path := filepath.Join(cfg.Store.Path, indexSnapshot)
	if err := system.SaveIndex(ctx, path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not save index snapshot")
	}
}
