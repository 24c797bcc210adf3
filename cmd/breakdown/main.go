package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nshaw/breakdown/internal/db"
	"github.com/nshaw/breakdown/internal/llm"
	"github.com/nshaw/breakdown/internal/mcp"
	"github.com/nshaw/breakdown/internal/observability"
	"github.com/nshaw/breakdown/internal/planner"
	"github.com/nshaw/breakdown/internal/server"
	"github.com/nshaw/breakdown/pkg/config"
	"github.com/nshaw/breakdown/pkg/models"
)

var (
	configPath string
	dbPath     string
)

func usage() {
	fmt.Println("Usage: breakdown [flags] <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve              Start the web server")
	fmt.Println("  plan <goal>        Create a plan from a goal")
	fmt.Println("  list-plans         List all plans")
	fmt.Println("  show <plan-id>     Show a plan with its tasks")
	fmt.Println("  status             Show overall task counts")
	fmt.Println("  mcp                Serve the planner over MCP on stdio")
	fmt.Println("  export [path]      Export all plans to a JSONL snapshot")
	fmt.Println("  import <path>      Import plans from a JSONL snapshot")
}

func main() {
	flag.StringVar(&configPath, "config", "breakdown.yaml", "Path to config file")
	flag.StringVar(&dbPath, "db-path", "", "Path to database file (overrides config)")
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "serve":
		err = runServe(cfg, args)
	case "plan":
		err = runPlan(cfg, args)
	case "list-plans":
		err = runListPlans(cfg)
	case "show":
		err = runShow(cfg, args)
	case "status":
		err = runStatus(cfg)
	case "mcp":
		err = runMCP(cfg)
	case "export":
		err = runExport(cfg, args)
	case "import":
		err = runImport(cfg, args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := database.Init(context.Background()); err != nil {
		database.Close()
		return nil, err
	}
	if cfg.Snapshot.Auto {
		database.EnableAutoSnapshot(cfg.Snapshot.Path)
	}
	return database, nil
}

func runServe(cfg *config.Config, args []string) error {
	serveFlags := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := serveFlags.String("addr", cfg.Server.Addr, "Address to listen on")
	if err := serveFlags.Parse(args); err != nil {
		return err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger()
	svc := planner.New(llm.New(cfg, logger))
	srv := server.NewServer(database, svc, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Listening on %s\n", *addr)
	if err := srv.Start(*addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func runPlan(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: breakdown plan <goal>")
	}
	goal := strings.Join(args, " ")

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	logger := observability.NewLogger()
	svc := planner.New(llm.New(cfg, logger))

	plan, err := svc.CreatePlan(ctx, goal)
	if err != nil {
		return err
	}
	if err := database.CreatePlan(ctx, plan); err != nil {
		return err
	}

	fmt.Printf("Created plan %s: %s (%d days)\n\n", plan.ID, plan.Title, plan.EstimatedDurationDays)
	printTasks(plan.Tasks)
	return nil
}

func runListPlans(cfg *config.Config) error {
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	plans, err := database.ListPlans(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%-36s %-40s %-10s %-8s\n", "ID", "TITLE", "PROGRESS", "DAYS")
	fmt.Println(strings.Repeat("-", 98))
	for _, p := range plans {
		fmt.Printf("%-36s %-40s %d/%-8d %-8d\n",
			p.ID, truncate(p.Title, 40), p.CompletedTasks, p.TotalTasks, p.EstimatedDurationDays)
	}
	return nil
}

func runShow(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: breakdown show <plan-id>")
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	plan, err := database.GetPlan(context.Background(), args[0])
	if err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("plan not found: %s", args[0])
	}

	fmt.Printf("%s (%d days)\n", plan.Title, plan.EstimatedDurationDays)
	fmt.Printf("Goal: %s\n\n", plan.Goal)
	printTasks(plan.Tasks)

	path := planner.CriticalPath(plan.Tasks)
	fmt.Printf("\nCritical path: %v\n", path)
	return nil
}

func printTasks(tasks []*models.Task) {
	fmt.Printf("%-4s %-40s %-10s %-12s %-7s %s\n", "#", "TITLE", "PRIORITY", "STATUS", "HOURS", "DEPS")
	fmt.Println(strings.Repeat("-", 90))
	for _, t := range tasks {
		fmt.Printf("%-4d %-40s %-10s %-12s %-7.1f %v\n",
			t.Position, truncate(t.Title, 40), t.Priority, t.Status, t.EstimatedHours, t.Dependencies)
	}
}

func runStatus(cfg *config.Config) error {
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	plans, err := database.ListPlans(ctx)
	if err != nil {
		return err
	}
	counts, err := database.CountTasksByStatus(ctx)
	if err != nil {
		return err
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	fmt.Println("Breakdown Status")
	fmt.Println("================")
	fmt.Printf("Plans:       %d\n", len(plans))
	fmt.Printf("Total Tasks: %d\n", total)
	fmt.Println("\nTask Breakdown:")
	fmt.Printf("  Pending:     %d\n", counts[models.TaskStatusPending])
	fmt.Printf("  In Progress: %d\n", counts[models.TaskStatusInProgress])
	fmt.Printf("  Completed:   %d\n", counts[models.TaskStatusCompleted])
	return nil
}

func runMCP(cfg *config.Config) error {
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	logger := observability.NewLogger()
	// MCP clients own stdout; keep event logging on stderr.
	logger.SetOutput(os.Stderr)
	svc := planner.New(llm.New(cfg, logger))

	s := mcp.NewServer(database, svc)
	return mcp.Serve(s)
}

func runExport(cfg *config.Config, args []string) error {
	path := cfg.Snapshot.Path
	if len(args) > 0 {
		path = args[0]
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.ExportSnapshot(context.Background(), path); err != nil {
		return err
	}
	fmt.Printf("Exported snapshot to %s\n", path)
	return nil
}

func runImport(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: breakdown import <path>")
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.ImportSnapshot(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Imported snapshot from %s\n", args[0])
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
