// Command briefctl is a CLI client for the BriefBridge API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/and161185/briefbridge/internal/model"
	httpserver "github.com/and161185/briefbridge/internal/server/http"
)

// ---- token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "briefbridge")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "briefbridge")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

// loadToken returns the saved admin token, or "" when none is usable.
func loadToken() string {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return ""
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return ""
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return ""
	}
	return tf.AccessToken
}

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// optString maps an empty flag value to an absent field.
func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// optInt maps a negative flag value to an absent field.
func optInt(n int) *int {
	if n < 0 {
		return nil
	}
	return &n
}

func usage() {
	fmt.Fprintf(os.Stderr, `briefctl CLI
Usage:
  briefctl -url http://HOST:PORT <cmd> [args]

Commands:
  version
  submit         -title <t> -details <d> [-category c] [-min n] [-max n] [-timeline t] [-name n] [-email e]
  list                                          (uses saved admin token if any)
  unlock-status  -id <briefId>
  checkout       -id <briefId> -success <url> -cancel <url>
  token          -key <admin key> [-sub s] [-ttl d]   (saves token)
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the API at -url.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("briefctl %s (%s)\n", version, buildDate)

	case "submit":
		fs := flag.NewFlagSet("submit", flag.ExitOnError)
		title := fs.String("title", "", "title")
		details := fs.String("details", "", "details")
		category := fs.String("category", "", "category")
		lo := fs.Int("min", -1, "budget min")
		hi := fs.Int("max", -1, "budget max")
		timeline := fs.String("timeline", "", "timeline")
		name := fs.String("name", "", "contact name")
		email := fs.String("email", "", "contact email")
		_ = fs.Parse(args)
		if *title == "" || *details == "" {
			fmt.Fprintln(os.Stderr, "need -title and -details")
			os.Exit(1)
		}
		b, err := newAPIClient(*baseURL, "", *timeout).Submit(ctx, model.BriefInput{
			Title:     *title,
			Details:   *details,
			Category:  optString(*category),
			BudgetMin: optInt(*lo),
			BudgetMax: optInt(*hi),
			Timeline:  optString(*timeline),
			Name:      optString(*name),
			Email:     optString(*email),
		})
		if err != nil {
			fail(err)
		}
		printJSON(b)

	case "list":
		out, err := newAPIClient(*baseURL, loadToken(), *timeout).List(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "unlock-status":
		fs := flag.NewFlagSet("unlock-status", flag.ExitOnError)
		id := fs.String("id", "", "brief id")
		_ = fs.Parse(args)
		ok, err := newAPIClient(*baseURL, "", *timeout).UnlockStatus(ctx, *id)
		if err != nil {
			fail(err)
		}
		printJSON(map[string]any{"briefId": *id, "unlocked": ok})

	case "checkout":
		fs := flag.NewFlagSet("checkout", flag.ExitOnError)
		id := fs.String("id", "", "brief id")
		success := fs.String("success", "", "success URL")
		cancelURL := fs.String("cancel", "", "cancel URL")
		_ = fs.Parse(args)
		url, err := newAPIClient(*baseURL, "", *timeout).Checkout(ctx, *id, *success, *cancelURL)
		if err != nil {
			fail(err)
		}
		fmt.Println(url)

	case "token":
		fs := flag.NewFlagSet("token", flag.ExitOnError)
		key := fs.String("key", os.Getenv("ADMIN_JWT_KEY"), "admin signing key")
		sub := fs.String("sub", "admin", "token subject")
		ttl := fs.Duration("ttl", time.Hour, "token lifetime")
		_ = fs.Parse(args)
		if *key == "" {
			fail(errors.New("need -key or ADMIN_JWT_KEY"))
		}
		tok, exp, err := httpserver.IssueAdminToken([]byte(*key), *sub, *ttl)
		if err != nil {
			fail(err)
		}
		if err := saveToken(tok, exp); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}

func fail(err error) {
	var se *statusError
	if errors.As(err, &se) {
		fmt.Fprintf(os.Stderr, "api error: status=%d msg=%s\n", se.Code, se.Msg)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
