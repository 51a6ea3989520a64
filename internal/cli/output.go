package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	foundry "github.com/foundry-agents/foundry-go"
)

// Theme holds the color scheme for console output.
type Theme struct {
	Title   lipgloss.Color
	Section lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Border  lipgloss.Color
}

var defaultTheme = Theme{
	Title:   lipgloss.Color("#AF87FF"), // violet
	Section: lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Border:  lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t Theme) sectionStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Section)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func printTitle(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", defaultTheme.titleStyle().Render("==================== "+title+" ===================="))
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", defaultTheme.sectionStyle().Render("---------------- "+title+" ----------------"))
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(defaultTheme.Border)).
		Headers(headers...)
}

// usageTable renders the token usage of a run. A run without usage
// renders as N/A.
func usageTable(usage *foundry.RunUsage) string {
	t := newTable("Prompt tokens", "Completion tokens", "Total tokens")
	if usage == nil {
		t.Row("N/A", "N/A", "N/A")
	} else {
		t.Row(strconv.Itoa(usage.PromptTokens), strconv.Itoa(usage.CompletionTokens), strconv.Itoa(usage.TotalTokens))
	}
	return t.String()
}

// vectorStoreTable renders the id, size and file count of a vector store.
func vectorStoreTable(vs foundry.VectorStore) string {
	count := "N/A"
	if vs.FileCounts != nil {
		count = strconv.Itoa(vs.FileCounts.Total)
	}
	t := newTable("Vector Store ID", "Usage (bytes)", "File Count")
	t.Row(vs.ID, strconv.FormatInt(vs.UsageBytes, 10), count)
	return t.String()
}

// printReply prints each text block of msg on its own line.
func printReply(w io.Writer, msg *foundry.Message) {
	if msg == nil {
		fmt.Fprintln(w, "(no assistant reply)")
		return
	}
	for _, text := range foundry.TextBlocks(*msg) {
		fmt.Fprintln(w, text)
	}
}
