// Command chat is a terminal front end for the chat widget. It keeps the
// conversation in memory, answers from the FAQ when it can and otherwise
// asks the relay at CHAT_SERVER_URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"sitechat-backend/internal/config"
	"sitechat-backend/internal/widget"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A855F7")).Bold(true)
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	baseURL := config.ChatServerURL()
	client := widget.NewClient(baseURL, 0)
	session := widget.NewSession(client)
	session.LoadKnowledgeBase(ctx, client)
	session.OnTyping = func(on bool) {
		if on {
			fmt.Print(infoStyle.Render("⎔ typing…"))
		} else {
			fmt.Print("\r\033[K")
		}
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println(infoStyle.Render("connected to " + baseURL + "  (/history, /quit)"))
	printBot(widget.Greeting)

	for {
		input, err := line.Prompt(promptStyle.Render("you> "))
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println()
			}
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case "/quit", "/q":
			return
		case "/history":
			for _, turn := range session.History() {
				fmt.Printf("%s %s\n", infoStyle.Render(turn.Role+":"), turn.Content)
			}
			continue
		}

		ans, err := session.Submit(ctx, input)
		if err != nil {
			continue
		}
		if ans.Source == widget.SourceError {
			log.Printf("chat request failed: %v", ans.Cause)
			fmt.Println(errorStyle.Render(ans.Text))
			continue
		}
		printBot(ans.Text)
	}
}

func printBot(text string) {
	fmt.Printf("%s %s\n", botStyle.Render("bot>"), text)
}
