package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charla-im/charla/internal/client"
	"github.com/charla-im/charla/internal/config"
	"github.com/charla-im/charla/internal/home"
	"github.com/charla-im/charla/internal/store"
)

func main() {
	homeFlag := flag.String("home", "", "charla home directory (overrides CHARLA_HOME)")
	addrFlag := flag.String("addr", "", "daemon address (overrides config)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	homeDir := home.Resolve(*homeFlag)
	addr := resolveAddr(homeDir, *addrFlag)
	c := client.New(addr, loadToken(homeDir))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "register":
		cmdRegister(ctx, c, homeDir, args[1:])
	case "login":
		cmdLogin(ctx, c, homeDir, args[1:])
	case "contacts":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: charlactl contacts <list|add|rm|fav> ...")
			os.Exit(1)
		}
		cmdContacts(ctx, c, args[1], args[2:], *jsonFlag)
	case "send":
		cmdSend(ctx, c, args[1:])
	case "conversations":
		cmdConversations(ctx, c, *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: charlactl [--home <dir>] [--addr <host:port>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  register <email> <password> [name]   Create an account and sign in")
	fmt.Fprintln(os.Stderr, "  login <email> <password>             Sign in and cache the token")
	fmt.Fprintln(os.Stderr, "  contacts list [--status s] [--favorites]")
	fmt.Fprintln(os.Stderr, "  contacts add <name> [email] [phone]  Add a contact")
	fmt.Fprintln(os.Stderr, "  contacts rm <id>                     Delete a contact")
	fmt.Fprintln(os.Stderr, "  contacts fav <id>                    Toggle a contact's favorite flag")
	fmt.Fprintln(os.Stderr, "  send <uid> <text>                    Send a direct message")
	fmt.Fprintln(os.Stderr, "  conversations                        Show unread counts per conversation")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// resolveAddr prefers the flag, then the daemon config, then the default.
func resolveAddr(homeDir, override string) string {
	if override != "" {
		return override
	}
	if cfg, err := config.Load(home.ConfigPath(homeDir)); err == nil {
		return cfg.Listen
	}
	return config.Default().Listen
}

func loadToken(homeDir string) string {
	data, err := os.ReadFile(home.TokenPath(homeDir))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveToken(homeDir, token string) {
	if err := home.EnsureDir(homeDir); err != nil {
		fatal(err)
	}
	if err := os.WriteFile(home.TokenPath(homeDir), []byte(token+"\n"), 0600); err != nil {
		fatal(err)
	}
}

func cmdRegister(ctx context.Context, c *client.Client, homeDir string, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: charlactl register <email> <password> [name]")
		os.Exit(1)
	}
	name := ""
	if len(args) > 2 {
		name = args[2]
	}
	creds, err := c.Register(ctx, args[0], args[1], name)
	if err != nil {
		fatal(err)
	}
	saveToken(homeDir, creds.Token)
	fmt.Printf("Registered %s (%s)\n", creds.User.Email, creds.User.UID)
}

func cmdLogin(ctx context.Context, c *client.Client, homeDir string, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: charlactl login <email> <password>")
		os.Exit(1)
	}
	creds, err := c.Login(ctx, args[0], args[1])
	if err != nil {
		fatal(err)
	}
	saveToken(homeDir, creds.Token)
	fmt.Printf("Logged in as %s (%s)\n", creds.User.Email, creds.User.UID)
}

func cmdContacts(ctx context.Context, c *client.Client, subcmd string, args []string, jsonOut bool) {
	switch subcmd {
	case "list":
		fs := flag.NewFlagSet("contacts list", flag.ExitOnError)
		status := fs.String("status", "", "filter by status (active|inactive)")
		favorites := fs.Bool("favorites", false, "favorites only")
		_ = fs.Parse(args)

		list, err := c.ListContacts(ctx, *status, *favorites)
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(list)
			return
		}
		if len(list) == 0 {
			fmt.Println("No contacts.")
			return
		}
		for _, contact := range list {
			marker := " "
			if contact.Favorite {
				marker = "*"
			}
			fmt.Printf("%s %-20s %-25s %-15s %s\n", marker, contact.Name, contact.Email, contact.Phone, contact.ID)
		}
	case "add":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: charlactl contacts add <name> [email] [phone]")
			os.Exit(1)
		}
		contact := store.Contact{Name: args[0]}
		if len(args) > 1 {
			contact.Email = args[1]
		}
		if len(args) > 2 {
			contact.Phone = args[2]
		}
		created, err := c.CreateContact(ctx, contact)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Added %s (%s)\n", created.Name, created.ID)
	case "rm":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: charlactl contacts rm <id>")
			os.Exit(1)
		}
		if err := c.DeleteContact(ctx, args[0]); err != nil {
			fatal(err)
		}
		fmt.Println("Deleted.")
	case "fav":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: charlactl contacts fav <id>")
			os.Exit(1)
		}
		updated, err := c.ToggleFavorite(ctx, args[0])
		if err != nil {
			fatal(err)
		}
		state := "unmarked"
		if updated.Favorite {
			state = "marked"
		}
		fmt.Printf("%s %s as favorite\n", updated.Name, state)
	default:
		fmt.Fprintf(os.Stderr, "unknown contacts subcommand: %s\n", subcmd)
		os.Exit(1)
	}
}

func cmdSend(ctx context.Context, c *client.Client, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: charlactl send <uid> <text>")
		os.Exit(1)
	}
	m, err := c.SendMessage(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Sent %s\n", m.ID)
}

func cmdConversations(ctx context.Context, c *client.Client, jsonOut bool) {
	summaries, err := c.Conversations(ctx)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(summaries)
		return
	}
	if len(summaries) == 0 {
		fmt.Println("No conversations.")
		return
	}
	for _, s := range summaries {
		fmt.Printf("%-40s unread: %d\n", s.CounterpartyUID, s.Unread)
	}
}

func outputJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(data))
}
