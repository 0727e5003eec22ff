package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

const defaultPassword = "testpassword123"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "full":
		fullCmd(apiURL, args)
	case "populate":
		populateCmd(apiURL, args)
	case "watch":
		watchCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Todo Simulator - Development tool for exercising the todo API

USAGE:
  simulator <command> [options]

COMMANDS:
  full      Register a user, add todos, rotate tokens, change password and clean up
  populate  Register users that each own a number of todos
  watch     Log in as a user and print its todo events
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Run the whole session lifecycle against a local server
  simulator full

  # Keep the account afterwards
  simulator full --keep

  # Create 5 users with 20 todos each
  simulator populate --users=5 --todos=20

  # Stream events for an existing account
  simulator watch --username=a@x.com --password=secret`)
}

func fullCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("full", flag.ExitOnError)
	count := fs.Int("todos", 3, "Number of todos to create")
	keep := fs.Bool("keep", false, "Keep the account instead of deleting it")
	fs.Parse(args)

	client := NewAPIClient(apiURL)
	username := fmt.Sprintf("sim_%d@example.com", time.Now().UnixNano()%1000000)

	fmt.Println("=== Todo Simulator: Full Flow ===")
	fmt.Println()

	// 1. Register and log in
	fmt.Print("Registering user... ")
	id, err := client.Register(username, defaultPassword)
	check(err)
	fmt.Printf("OK (%s, id %s)\n", username, id)

	fmt.Print("Logging in... ")
	tokens, err := client.Login(username, defaultPassword)
	check(err)
	fmt.Println("OK")

	// 2. Create and complete todos
	fmt.Println()
	fmt.Printf("Creating %d todos:\n", *count)
	for i := 0; i < *count; i++ {
		todo, err := client.CreateTodo(tokens.AccessToken, fmt.Sprintf("Task %d", i+1), "created by simulator")
		check(err)
		if i%2 == 0 {
			check(client.CompleteTodo(tokens.AccessToken, todo.ID))
		}
		fmt.Printf("  [%d/%d] %s (%s)\n", i+1, *count, todo.Title, todo.ID)
	}

	// 3. Rotate the session and check the old refresh token is spent
	fmt.Println()
	fmt.Print("Rotating tokens... ")
	rotated, err := client.Refresh(tokens)
	check(err)
	if _, err := client.Refresh(tokens); err == nil {
		fmt.Println("FAILED\n  Error: old refresh token was accepted twice")
		os.Exit(1)
	}
	tokens = rotated
	fmt.Println("OK (old refresh token rejected)")

	page, err := client.ListTodos(tokens.AccessToken, 0, 10)
	check(err)
	fmt.Printf("Listing todos... OK (%d total, %d pages)\n", page.TotalElements, page.TotalPages)

	// 4. Delete the account
	if *keep {
		fmt.Println()
		fmt.Printf("  Username:      %s\n", username)
		fmt.Printf("  Password:      %s\n", defaultPassword)
		fmt.Printf("  Access token:  %s\n", tokens.AccessToken)
		fmt.Printf("  Refresh token: %s\n", tokens.RefreshToken)
		return
	}

	fmt.Print("Deleting account... ")
	check(client.DeleteAccount(tokens.AccessToken))
	if _, err := client.ListTodos(tokens.AccessToken, 0, 10); err == nil {
		fmt.Println("FAILED\n  Error: token still valid after account deletion")
		os.Exit(1)
	}
	fmt.Println("OK")
	fmt.Println()
	fmt.Println("Done!")
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	users := fs.Int("users", 3, "Number of users to create")
	todos := fs.Int("todos", 10, "Number of todos per user")
	fs.Parse(args)

	client := NewAPIClient(apiURL)
	fmt.Printf("Creating %d users with %d todos each...\n\n", *users, *todos)

	for i := 0; i < *users; i++ {
		username := fmt.Sprintf("user%d_%d@example.com", i+1, time.Now().UnixNano()%100000)
		if _, err := client.Register(username, defaultPassword); err != nil {
			fmt.Printf("  [%d/%d] FAILED to register: %v\n", i+1, *users, err)
			continue
		}
		tokens, err := client.Login(username, defaultPassword)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to log in: %v\n", i+1, *users, err)
			continue
		}

		created := 0
		for j := 0; j < *todos; j++ {
			if _, err := client.CreateTodo(tokens.AccessToken, fmt.Sprintf("Task %d", j+1), "seeded"); err != nil {
				fmt.Printf("Warning: Failed to create todo for %s: %v\n", username, err)
				continue
			}
			created++
		}
		fmt.Printf("  [%d/%d] %s (%d todos)\n", i+1, *users, username, created)
	}

	fmt.Println()
	fmt.Printf("Done! Password for all users: %s\n", defaultPassword)
}

func watchCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	username := fs.String("username", "", "Account username (required)")
	password := fs.String("password", defaultPassword, "Account password")
	fs.Parse(args)

	if *username == "" {
		fmt.Println("Error: --username is required")
		fmt.Println("\nUsage: simulator watch --username=a@x.com [--password=secret]")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)
	tokens, err := client.Login(*username, *password)
	check(err)

	conn, _, err := websocket.DefaultDialer.Dial(client.WebSocketURL(tokens.AccessToken), nil)
	check(err)
	defer conn.Close()

	fmt.Printf("Watching events for %s (Ctrl+C to stop)...\n\n", *username)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			fmt.Println("Connection closed")
			return
		}
		var msg struct {
			Type      string          `json:"type"`
			Payload   json.RawMessage `json:"payload"`
			Timestamp int64           `json:"timestamp"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		fmt.Printf("%s  %-13s %s\n", time.UnixMilli(msg.Timestamp).Format(time.TimeOnly), msg.Type, msg.Payload)
	}
}

func check(err error) {
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
}
