// Command chat is a terminal client for the ragbot API. It keeps one
// conversation open and prints answers with their evidence labels.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
)

var (
	apiURL = flag.String("api-url", "http://localhost:8080", "ragbot API base URL")
	format = flag.String("format", "", "Force an answer format (bullets, table, summary, detailed, comparison)")
)

type chatRequest struct {
	Question       string `json:"question"`
	Format         string `json:"format,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	Content        string   `json:"content"`
	Sources        []string `json:"sources"`
	SourceType     string   `json:"source_type"`
	ResponseTime   float64  `json:"response_time"`
	ConversationID string   `json:"conversation_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func main() {
	flag.Parse()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nBye.")
		os.Exit(0)
	}()

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Println(boldGreen("📚 ragbot chat"))
	fmt.Printf("API: %s\n", boldCyan(*apiURL))
	fmt.Println("Type your question and press Enter. Type 'exit' or press Ctrl+C to quit.")
	fmt.Println()

	client := &http.Client{Timeout: 60 * time.Second}
	scanner := bufio.NewScanner(os.Stdin)
	var conversationID string

	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "exit") {
			break
		}

		resp, err := ask(client, chatRequest{
			Question:       question,
			Format:         *format,
			ConversationID: conversationID,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Println("Make sure the API is running, e.g. go run ./cmd/api")
			continue
		}
		conversationID = resp.ConversationID

		fmt.Printf("%s %s\n", boldCyan("Bot:"), resp.Content)
		fmt.Println(dim(fmt.Sprintf("[%s, %.2fs]", resp.SourceType, resp.ResponseTime)))
		fmt.Println()
	}
}

func ask(client *http.Client, req chatRequest) (*chatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpResp, err := client.Post(*apiURL+"/api/chat", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("api error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("api error: status %d", httpResp.StatusCode)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid api response: %w", err)
	}
	return &resp, nil
}
