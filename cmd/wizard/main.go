package main

// Walk through a wizard flow in the terminal:
//   go run ./cmd/wizard -flow quick
//   go run ./cmd/wizard -image face.jpg

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"skincare-backend/internal/bootstrap"
	"skincare-backend/internal/imageanalysis"
	"skincare-backend/internal/render"
	"skincare-backend/internal/shared/config"
	"skincare-backend/internal/wizard"
)

func main() {
	cfg := config.Load()

	flowName := flag.String("flow", "", "Flow to run (defaults to the catalog default)")
	imagePath := flag.String("image", "", "Skin photo to analyze before the first step (optional)")
	endpoint := flag.String("endpoint", cfg.RecommendationURL, "Recommendation service URL")
	debug := flag.Bool("debug", false, "Append the raw service response to results")
	flag.Parse()

	flows, err := wizard.LoadCatalogFile(cfg.FlowsFile)
	if err != nil {
		exitErr(fmt.Sprintf("load flows: %v", err))
	}
	flow, err := flows.Get(*flowName)
	if err != nil {
		exitErr(err.Error())
	}

	cfg.RecommendationURL = *endpoint
	client, err := bootstrap.BuildRecommender(cfg)
	if err != nil {
		exitErr(err.Error())
	}

	sess := wizard.NewSession(uuid.NewString(), "cli", flow, time.Now().UTC())
	ctrl, err := wizard.NewController(flow, sess, client, cfg.RecommendationTimeout)
	if err != nil {
		exitErr(err.Error())
	}

	ctx := context.Background()
	if strings.TrimSpace(*imagePath) != "" {
		analyzeImage(ctx, cfg, ctrl, *imagePath)
	}

	w := &walkthrough{
		ctrl: ctrl,
		in:   newLineReader(os.Stdin),
		out:  os.Stdout,
		opts: render.Options{Currency: cfg.Currency, Debug: *debug},
	}
	if err := w.run(ctx); err != nil {
		exitErr(err.Error())
	}
}

func analyzeImage(ctx context.Context, cfg config.Config, ctrl *wizard.Controller, path string) {
	analyzer, err := imageanalysis.New(imageanalysis.Config{
		Provider:        cfg.ImageAnalyzer,
		Model:           cfg.ImageModel,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		Timeout:         cfg.ImageTimeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "image analysis unavailable: %v\n", err)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read image: %v\n", err)
		return
	}
	analysis, err := analyzer.Analyze(ctx, data, http.DetectContentType(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "We couldn't analyze your photo (%v). Please answer the skin questions manually.\n", err)
		return
	}
	filled := ctrl.MergeAnalysis(analysis)
	fmt.Printf("Photo analyzed: %s skin, confidence %.0f%%. Prefilled: %v\n", analysis.SkinType, analysis.Confidence*100, filled)
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
