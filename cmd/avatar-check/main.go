// Package main checks avatar URLs against the same policy the API applies.
// Usage: opensox-avatar-check URL... [--static] [--output json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"opensox-api/internal/infra/avatar"
)

// Result is the JSON output for one URL.
type Result struct {
	URL      string `json:"url"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`
	Cause    string `json:"cause,omitempty"`
	TookMS   int64  `json:"took_ms"`
}

func main() {
	var (
		static       bool
		outputFormat string
	)
	flag.BoolVar(&static, "static", false, "Skip the network probe and only run the syntax, scheme, address and allowlist checks")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.Parse()

	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one URL is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: opensox-avatar-check URL... [--static] [--output json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Policy comes from AVATAR_CONFIG_FILE and AVATAR_* variables, as in the API.")
		os.Exit(2)
	}

	cfg, err := avatar.LoadConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load avatar configuration: %v\n", err)
		os.Exit(2)
	}
	v, err := avatar.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid avatar configuration: %v\n", err)
		os.Exit(2)
	}

	results := make([]Result, 0, len(urls))
	allAccepted := true
	for _, raw := range urls {
		start := time.Now()
		var verdict avatar.Verdict
		if static {
			verdict = v.CheckStatic(raw)
		} else {
			verdict = v.Validate(context.Background(), raw)
		}
		r := Result{
			URL:      raw,
			Accepted: verdict.Accepted,
			Reason:   string(verdict.Reason),
			Message:  verdict.Message,
			TookMS:   time.Since(start).Milliseconds(),
		}
		if verdict.Cause != nil {
			r.Cause = verdict.Cause.Error()
		}
		allAccepted = allAccepted && verdict.Accepted
		results = append(results, r)
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	} else {
		for _, r := range results {
			if r.Accepted {
				fmt.Printf("OK      %s (%dms)\n", r.URL, r.TookMS)
				continue
			}
			fmt.Printf("REJECT  %s  %s: %s", r.URL, r.Reason, r.Message)
			if r.Cause != "" {
				fmt.Printf(" [%s]", r.Cause)
			}
			fmt.Println()
		}
	}

	if !allAccepted {
		os.Exit(1)
	}
}
