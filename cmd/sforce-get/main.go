// Command sforce-get prints the JSON from a Salesforce URL, for exploring
// the API. A relative URL is resolved against the configured API root;
// pass an empty string "" to list the available resources.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/futurice/s2f/pkg/config"
	"github.com/futurice/s2f/pkg/salesforce"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <url>\n", os.Args[0])
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	client, err := salesforce.NewClient(cfg, logger)
	if err != nil {
		logger.Error("Failed to create client", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to create client: %v\n", err)
		os.Exit(1)
	}

	raw, err := client.GetJSON(context.Background(), os.Args[1])
	if err != nil {
		logger.Error("Request failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, raw, "", "  "); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to format response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(indented.String())
}
