package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	videoanalyst "insight-stack/agents/video-analyst"
	"insight-stack/internal/models"
	"insight-stack/shared/config"
	"insight-stack/shared/scheduler"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	videoID := flag.String("video", "", "analyze a single video and exit")
	kindsFlag := flag.String("kinds", "", "comma-separated analysis kinds for -video (default: all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := videoanalyst.NewAgent(cfg)
	s := scheduler.New(cfg, agent)

	if *videoID != "" {
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}
		runSingleVideo(ctx, agent, *videoID, *kindsFlag)
		return
	}

	if *once {
		fmt.Println("Running once...")
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}

		if err := s.RunOnce(ctx); err != nil {
			log.Fatalf("Failed to run: %v", err)
		}
		return
	}

	fmt.Println("Starting scheduler...")
	if err := s.Start(ctx); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

func runSingleVideo(ctx context.Context, agent *videoanalyst.Agent, videoID, kindsFlag string) {
	kinds := models.AllKinds()
	if kindsFlag != "" {
		kinds = nil
		for _, name := range strings.Split(kindsFlag, ",") {
			kinds = append(kinds, models.AnalysisKind(strings.TrimSpace(name)))
		}
	}

	outcomes := agent.AnalyzeVideo(ctx, videoID, kinds)

	failed := 0
	for _, o := range outcomes {
		if o.Succeeded() {
			fmt.Printf("%s: succeeded\n", o.Kind)
			continue
		}
		failed++
		retry := ""
		if o.Retryable {
			retry = " (retryable)"
		}
		fmt.Printf("%s: failed%s - %s\n", o.Kind, retry, o.Reason)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
