package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thinkwright/seasonline/internal/config"
	"github.com/thinkwright/seasonline/internal/interchange"
	"github.com/thinkwright/seasonline/internal/store"
	"github.com/thinkwright/seasonline/internal/timeline"
	"github.com/thinkwright/seasonline/internal/ui"
	"golang.org/x/term"
)

var version = "dev"

const usage = `usage: seasonline [flags]

  --variant base|milestone   board to open (default from config)
  --import FILE              replace the board with FILE (.json .yaml .csv) and exit
  --export FILE              write the board to FILE and exit
  --watch FILE               re-import FILE whenever it changes
  --clear                    empty the board and exit
  --reset                    drop every saved board and exit
  --boards                   list saved boards and exit
  --version                  print the version`

func main() {
	cfg := config.Load()
	var variantFlag, watchFlag, importPath, exportPath string
	clearBoard, reset, listBoards := false, false, false

	args := os.Args[1:]
	next := func(i *int, flag string) string {
		if *i+1 >= len(args) {
			fmt.Fprintf(os.Stderr, "%s requires an argument\n", flag)
			os.Exit(1)
		}
		*i++
		return args[*i]
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v":
			fmt.Printf("seasonline %s\n", version)
			os.Exit(0)
		case "--help", "-h":
			fmt.Println(usage)
			os.Exit(0)
		case "--variant":
			variantFlag = string(timeline.ParseVariant(next(&i, "--variant")))
		case "--import":
			importPath = next(&i, "--import")
		case "--export":
			exportPath = next(&i, "--export")
		case "--watch":
			path, err := filepath.Abs(next(&i, "--watch"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid watch path: %v\n", err)
				os.Exit(1)
			}
			watchFlag = path
		case "--clear":
			clearBoard = true
		case "--reset":
			reset = true
		case "--boards":
			listBoards = true
		default:
			fmt.Fprintf(os.Stderr, "unknown flag %s\n\n%s\n", args[i], usage)
			os.Exit(1)
		}
	}

	// Flag overrides apply to this run only; saves go through SaveRecentFiles.
	if variantFlag != "" {
		cfg.Variant = variantFlag
	}
	if watchFlag != "" {
		cfg.WatchFile = watchFlag
	}

	closeLog := setupLogging()
	defer closeLog()

	db, err := store.Open(store.DBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening board database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if reset {
		if err := db.Reset(); err != nil {
			fmt.Fprintf(os.Stderr, "error resetting boards: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("all boards removed")
		return
	}
	if listBoards {
		boards, err := db.Boards()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error listing boards: %v\n", err)
			os.Exit(1)
		}
		for _, b := range boards {
			fmt.Println(b)
		}
		return
	}

	variant := timeline.ParseVariant(cfg.Variant)
	board := string(variant)
	loc := cfg.Location()

	st, err := db.Load(board)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading board: %v\n", err)
		os.Exit(1)
	}
	ed := timeline.NewEditor(cfg.Params(), st, db.Saver(board), timeline.NewClock())
	ed.Location = loc

	if clearBoard || importPath != "" || exportPath != "" {
		if err := runOneShot(ed, &cfg, clearBoard, importPath, exportPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	const minCols, minRows = 80, 16
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		if w < minCols || h < minRows {
			fmt.Fprintf(os.Stdout, "\x1b[8;%d;%dt", max(h, minRows), max(w, minCols))
		}
	}

	p := tea.NewProgram(
		ui.NewModel(ed, db, board, cfg),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runOneShot applies the clear, import and export flags in that order.
func runOneShot(ed *timeline.Editor, cfg *config.Config, clearBoard bool, importPath, exportPath string) error {
	v := ed.Params.Variant
	if clearBoard {
		if err := ed.Clear(); err != nil {
			return fmt.Errorf("clear board: %w", err)
		}
		fmt.Printf("cleared %s board\n", v)
	}
	if importPath != "" {
		entries, err := interchange.ReadFile(importPath, v, ed.Location)
		if err != nil {
			return err
		}
		if err := ed.Import(entries); err != nil {
			return fmt.Errorf("import %s: %w", importPath, err)
		}
		fmt.Printf("imported %d entries into %s board\n", len(entries), v)
		cfg.AddRecentFile(importPath)
	}
	if exportPath != "" {
		entries := ed.Export()
		if err := interchange.WriteFile(exportPath, entries, v, ed.Location); err != nil {
			return err
		}
		fmt.Printf("exported %d entries to %s\n", len(entries), exportPath)
		cfg.AddRecentFile(exportPath)
	}
	return config.SaveRecentFiles(cfg.RecentFiles)
}

// setupLogging sends slog output to a file when SEASONLINE_DEBUG is set. The
// terminal belongs to the TUI, so logs are discarded otherwise.
func setupLogging() func() {
	path := os.Getenv("SEASONLINE_DEBUG")
	if path == "" {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return func() {}
	}
	if path == "1" || path == "true" {
		path = filepath.Join(config.ConfigDir(), "debug.log")
		_ = os.MkdirAll(filepath.Dir(path), 0o755)
	}
	f, err := tea.LogToFile(path, "seasonline")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening debug log: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return func() { f.Close() }
}
