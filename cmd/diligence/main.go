// Command diligence runs one investor request through the engine in-process
// and prints the resulting package.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"diligence/internal/config"
	models "diligence/internal/domain/models/diligence"
	svc "diligence/internal/domain/services/diligence"
	"diligence/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	investor := flag.String("investor", "", "investor name (required)")
	file := flag.String("file", "", "file holding the raw request text; - reads stdin")
	method := flag.String("method", string(models.MethodEmail), "request method: Email, Verbal or Platform")
	poll := flag.Duration("poll", time.Second, "interval between status checks")
	timeout := flag.Duration("timeout", 5*time.Minute, "give up after this long")
	verbose := flag.Bool("v", false, "log engine activity to stderr")
	flag.Parse()

	if *investor == "" || *file == "" {
		flag.Usage()
		return 2
	}

	rawText, err := readInput(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read request: %v\n", err)
		return 1
	}

	_ = godotenv.Load()
	cfg := config.Load()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	services, err := service.SetupServices(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		return 1
	}
	defer services.Close()
	engine := services.Diligence

	id, err := engine.Submit(ctx, &svc.SubmitRequest{
		InvestorName: *investor,
		RawText:      rawText,
		Method:       models.RequestMethod(*method),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "submit: %v\n", err)
		return 1
	}

	pkg, err := waitSettled(ctx, engine, id, *poll)
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer drainCancel()
	_ = engine.Drain(drainCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wait: %v\n", err)
		return 1
	}

	render(os.Stdout, pkg)

	if pkg.Enrichment == models.EnrichmentFailed {
		return 1
	}
	return 0
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// waitSettled polls Get until the package settles or ctx ends
func waitSettled(ctx context.Context, engine svc.DiligenceService, id string, every time.Duration) (*models.Package, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		pkg, err := engine.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if pkg.Settled() {
			return pkg, nil
		}
		select {
		case <-ctx.Done():
			return pkg, fmt.Errorf("package %s did not settle: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func render(w io.Writer, pkg *models.Package) {
	profile := pkg.InvestorProfile
	investor := len(pkg.InvestorItems())

	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetTitle("Package " + pkg.ID)
	summary.AppendRows([]table.Row{
		{"Investor", pkg.InvestorName},
		{"Method", pkg.Method},
		{"Verification", profile.Status},
		{"Enrichment", pkg.Enrichment},
		{"Items", fmt.Sprintf("%d investor, %d founder", investor, len(pkg.Items)-investor)},
	})
	if principal := profile.PrincipalID; principal != nil {
		summary.AppendRow(table.Row{"Principal", *principal})
	}
	if report := profile.PreliminaryReport; report != nil {
		summary.AppendRow(table.Row{"Caution score", report.CautionScore})
		summary.AppendRow(table.Row{"Reputation", report.Summary})
		if report.OfficialSite != nil {
			summary.AppendRow(table.Row{"Suggested site", *report.OfficialSite})
		}
	}
	if pkg.LastError != nil {
		summary.AppendRow(table.Row{"Last error", fmt.Sprintf("%s: %s", pkg.LastError.Stage, pkg.LastError.Message)})
	}
	summary.Render()

	items := table.NewWriter()
	items.SetOutputMirror(w)
	items.AppendHeader(table.Row{"#", "Author", "Category", "Status", "Score", "Request", "Evidence"})
	for i, item := range pkg.Items {
		score := "-"
		var evidence []string
		if item.SuggestedResponse != nil {
			score = fmt.Sprintf("%d", item.SuggestedResponse.ConfidenceScore)
			for _, ev := range item.SuggestedResponse.Evidence {
				evidence = append(evidence, ev.DocumentName)
			}
		}
		if item.EvidenceError != nil {
			evidence = append(evidence, "error: "+*item.EvidenceError)
		}
		items.AppendRow(table.Row{i + 1, item.AuthorID, item.Category, item.Status, score, item.Request, strings.Join(evidence, "\n")})
	}
	items.Render()
}
