// Command cabinet-mcp exposes the cabinet tools over MCP stdio.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Protocol-Lattice/cabinet-agent/src/cabinet"
	"github.com/Protocol-Lattice/cabinet-agent/src/catalog"
	"github.com/Protocol-Lattice/cabinet-agent/src/config"
	"github.com/Protocol-Lattice/cabinet-agent/src/identity"
	"github.com/Protocol-Lattice/cabinet-agent/src/logger"
	"github.com/Protocol-Lattice/cabinet-agent/src/mcpserver"
)

type cli struct {
	BackendURL      string        `name:"backend-url" help:"Base URL of the liquor backend." env:"SQL_BACKEND_API_URL" required:""`
	CatalogURL      string        `name:"catalog-url" help:"Base URL of the liquor catalog." default:"https://drink1.deren.life" env:"CATALOG_API_URL"`
	Token           string        `help:"Default bearer credential for cabinet calls." env:"CABINET_TOKEN"`
	OutboundTimeout time.Duration `name:"outbound-timeout" help:"Timeout for catalog and backend calls; 0 disables." default:"0s" env:"OUTBOUND_TIMEOUT"`
	LogLevel        string        `name:"log-level" help:"Log level." default:"warn" env:"LOG_LEVEL"`
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	var c cli
	kong.Parse(&c, kong.Name("cabinet-mcp"), kong.Description("Liquor cabinet MCP server (stdio)."))
	logger.Init(c.LogLevel, "json")

	httpClient := &http.Client{Timeout: c.OutboundTimeout}
	refs := catalog.Load(context.Background(), httpClient, c.CatalogURL)
	svc := cabinet.NewService(refs, cabinet.NewClient(c.BackendURL, httpClient))

	if err := server.ServeStdio(mcpserver.New(svc, identity.FromToken(c.Token))); err != nil {
		fmt.Fprintf(os.Stderr, "cabinet-mcp: %v\n", err)
		os.Exit(1)
	}
}
