package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"httpchat/client"
	"httpchat/infrastructure/http/wire"
)

type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=http://localhost:8080"`
	From      string `env:"CHAT_FROM,required=true"`
}

// The viewer is a read-only terminal window on the chat API: the
// conversation list by default, one conversation's recent messages with
// -conversation, and full-text matches with -q.
func main() {
	conversation := flag.String("conversation", "", "show messages of this conversation instead of the conversation list")
	query := flag.String("q", "", "full-text search within -conversation")
	limit := flag.Int("limit", 50, "maximum number of rows")
	flag.Parse()

	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	api := client.NewClient(config.ServerURL)

	switch {
	case *conversation == "":
		listConversations(ctx, api, config.From)
	case *query != "":
		searchMessages(ctx, api, *conversation, *query, *limit)
	default:
		listMessages(ctx, api, *conversation, *limit)
	}
}

func listConversations(ctx context.Context, api *client.Client, from string) {
	conversations, err := api.ListConversations(ctx, from)
	if err != nil {
		log.Fatalf("Failed to list conversations: %v", err)
	}

	color.Green.Printf("Conversations of %s\n", from)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"With", "Last message", "At"})
	for _, c := range conversations {
		table.Append([]string{c.OtherParticipant, preview(c.LastMessage), formatTime(c.LastTimestamp)})
	}
	table.Render()
}

func listMessages(ctx context.Context, api *client.Client, conversation string, limit int) {
	messages, err := api.ListMessages(ctx, conversation, nil, limit)
	if err != nil {
		log.Fatalf("Failed to list messages: %v", err)
	}
	color.Green.Printf("Messages in %s\n", conversation)
	renderMessages(messages)
}

func searchMessages(ctx context.Context, api *client.Client, conversation, query string, limit int) {
	messages, err := api.SearchMessages(ctx, conversation, query, limit)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	color.Green.Printf("Messages in %s matching %q\n", conversation, query)
	renderMessages(messages)
}

func renderMessages(messages []wire.Message) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "From", "Text"})
	for _, m := range messages {
		table.Append([]string{formatTime(m.Timestamp), m.From, m.Text})
	}
	table.Render()
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) > 40 {
		return string(runes[:40]) + "…"
	}
	return s
}

func formatTime(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).Local().Format("Jan 2 15:04")
}
