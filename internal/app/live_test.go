package app

import (
	"fmt"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/storytrack/internal/db"
)

// TestLiveTUIFlow exercises the model lifecycle against the real local story
// database. Skipped if the database doesn't exist.
func TestLiveTUIFlow(t *testing.T) {
	dbPath := db.DefaultDBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Skip("database not found at", dbPath)
	}
	store, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	m := New(Options{Store: store})

	// Simulate terminal size
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.View() == "Initializing..." {
		t.Error("view should render after WindowSizeMsg")
	}

	m, cmd := applyUpdate(m, loadStoriesCmd(store)())
	if len(m.stories) == 0 {
		t.Skip("no stories in database")
	}
	if cmd == nil {
		t.Fatal("expected story load command")
	}
	m, _ = applyUpdate(m, cmd())
	if m.session == nil {
		t.Fatalf("story not loaded, error %q", m.errorMessage)
	}

	fmt.Println("=== Story View ===")
	fmt.Println(m.View())
}
