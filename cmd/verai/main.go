package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"
)

const (
	version        = "0.1.0"
	defaultHTTPURL = "http://localhost:8080"
)

type globalFlags struct {
	ConfigPath string
	HTTPURL    string
	Timeout    time.Duration
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	switch args[0] {
	case "serve":
		runServe(ctx, global, args[1:])
	case "mcp":
		runMCP(ctx, global, args[1:])
	case "demo":
		runDemo(ctx, global, args[1:])
	case "status":
		ensureNoArgs(args[1:])
		runStatus(global)
	case "templates":
		ensureNoArgs(args[1:])
		runTemplates(global)
	case "help":
		printUsage()
	case "version":
		printVersion(global)
	default:
		fatal(fmt.Errorf("unknown command %q", args[0]))
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	flags := globalFlags{
		HTTPURL: getenv("VERAI_HTTP_URL", defaultHTTPURL),
		Timeout: 30 * time.Second,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --config")
			}
			flags.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			flags.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--http":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --http")
			}
			flags.HTTPURL = args[i+1]
			i++
		case strings.HasPrefix(arg, "--http="):
			flags.HTTPURL = strings.TrimPrefix(arg, "--http=")
		case arg == "--timeout":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --timeout")
			}
			value, err := time.ParseDuration(args[i+1])
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
			i++
		case strings.HasPrefix(arg, "--timeout="):
			value, err := time.ParseDuration(strings.TrimPrefix(arg, "--timeout="))
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

type statusResult struct {
	Version       string `json:"version"`
	HTTPURL       string `json:"http_url"`
	HTTPReachable bool   `json:"http_reachable"`
	Platform      any    `json:"platform,omitempty"`
}

func runStatus(flags globalFlags) {
	result := statusResult{
		Version: version,
		HTTPURL: flags.HTTPURL,
	}

	client := &http.Client{Timeout: flags.Timeout}
	resp, err := client.Get(strings.TrimRight(flags.HTTPURL, "/") + "/status")
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			result.HTTPReachable = true
			var payload map[string]any
			if body, err := io.ReadAll(resp.Body); err == nil {
				if json.Unmarshal(body, &payload) == nil {
					result.Platform = payload
				}
			}
		}
	}

	if flags.JSON {
		printJSON(result)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "version\t%s\n", result.Version)
	fmt.Fprintf(w, "http\t%s\n", result.HTTPURL)
	fmt.Fprintf(w, "reachable\t%v\n", result.HTTPReachable)
	if payload, ok := result.Platform.(map[string]any); ok {
		fmt.Fprintf(w, "state\t%v\n", payload["state"])
		fmt.Fprintf(w, "agents\t%v\n", payload["agents"])
		fmt.Fprintf(w, "sessions\t%v\n", payload["active_sessions"])
		fmt.Fprintf(w, "simulation\t%v\n", payload["simulation"])
	}
	w.Flush()
}

func printVersion(flags globalFlags) {
	if flags.JSON {
		printJSON(map[string]string{"version": version})
		return
	}
	fmt.Println("verai", version)
}

func printJSON(payload any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		fatal(err)
	}
}

func printUsage() {
	fmt.Print(`verai - multi-agent open-world sandbox

Usage:
  verai [global flags] <command> [args]

Commands:
  serve       Run the platform HTTP server and simulation loop
  mcp         Serve sandbox control tools over stdio (MCP)
  demo        Run a short local simulation and print the event log
  status      Check a running platform over HTTP
  templates   List the built-in agent templates
  version     Print the version
  help        Show this help

Global flags:
  --config PATH    Config file (YAML); VERAI_* env vars override
  --http URL       Platform base URL for status (default ` + defaultHTTPURL + `)
  --timeout DUR    Request timeout (default 30s)
  --json           Machine-readable output
`)
}

func ensureNoArgs(args []string) {
	if len(args) > 0 {
		fatal(fmt.Errorf("unexpected args: %v", args))
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
