package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"storepos/backend/internal/client"
	"storepos/backend/internal/domain"
	"storepos/backend/internal/entity"
	"storepos/backend/internal/fallback"
	"storepos/backend/internal/recordstore/file"
)

const sessionFile = "session"

type app struct {
	server  string
	token   string
	dataDir string
	storeID string
	output  string
	timeout time.Duration
	out     io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "posctl",
		Short:         "Operate a storepos backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch a.output {
			case "table", "json", "yaml":
				return nil
			default:
				return fmt.Errorf("unknown output format %q (table, json, yaml)", a.output)
			}
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.server, "server", envOr("POSCTL_SERVER", "http://127.0.0.1:8080"), "API base URL")
	flags.StringVar(&a.token, "token", os.Getenv("POSCTL_TOKEN"), "bearer token (defaults to the saved session)")
	flags.StringVar(&a.dataDir, "data-dir", envOr("POSCTL_DATA_DIR", ".posctl"), "local fallback data directory")
	flags.StringVar(&a.storeID, "store", envOr("POSCTL_STORE", "main"), "store id for product commands")
	flags.StringVarP(&a.output, "output", "o", "table", "output format: table, json or yaml")
	flags.DurationVar(&a.timeout, "timeout", 5*time.Second, "per-request timeout against the server")

	root.AddCommand(
		newLoginCmd(a),
		newProductsCmd(a),
		newCustomersCmd(a),
		newOrdersCmd(a),
		newCollectionsCmd(a),
	)
	return root
}

func (a *app) client() (*client.Client, error) {
	c, err := client.New(client.Options{BaseURL: a.server, Timeout: a.timeout})
	if err != nil {
		return nil, err
	}
	token := a.token
	if token == "" {
		raw, err := os.ReadFile(filepath.Join(a.dataDir, sessionFile))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read session: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	return c.WithToken(token), nil
}

func (a *app) saveSession(token string) error {
	if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(a.dataDir, sessionFile), []byte(token+"\n"), 0o600)
}

// entities pairs every API view with its copy in the local data directory.
type entities struct {
	remote *client.Client
	local  localCollections

	products  *fallback.Coordinator[domain.Product, domain.ProductPatch]
	customers *fallback.Coordinator[domain.Customer, domain.CustomerPatch]
	purchases *fallback.Coordinator[domain.Purchase, domain.PurchasePatch]
	orders    *fallback.OrderCoordinator
}

type localCollections struct {
	products  entity.ProductService
	customers entity.CustomerService
	purchases entity.PurchaseService
	orders    entity.OrderService
}

func (a *app) entities() (*entities, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	dir, err := file.New(a.dataDir)
	if err != nil {
		return nil, err
	}

	opts := entity.Options{}
	stored := localCollections{
		products:  entity.NewProducts(dir, opts),
		customers: entity.NewCustomers(dir, opts),
		purchases: entity.NewPurchases(dir, opts),
		orders:    entity.NewOrders(dir, opts),
	}
	fopts := func(name string) fallback.Options {
		return fallback.Options{Name: name, RemoteTimeout: a.timeout, Retryable: client.IsUnavailable}
	}
	return &entities{
		remote:    c,
		local:     stored,
		products:  fallback.NewCoordinator[domain.Product, domain.ProductPatch](c.Products(), stored.products, fopts("products")),
		customers: fallback.NewCoordinator[domain.Customer, domain.CustomerPatch](c.Customers(), stored.customers, fopts("customers")),
		purchases: fallback.NewCoordinator[domain.Purchase, domain.PurchasePatch](c.Purchases(), stored.purchases, fopts("purchases")),
		orders:    fallback.NewOrderCoordinator(c.Orders(), stored.orders, fopts("orders")),
	}, nil
}

// render writes value as JSON or YAML, or the rows as a table.
func (a *app) render(value any, header table.Row, rows []table.Row) error {
	switch a.output {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case "yaml":
		// Round-trip through JSON so YAML keys match the API field names.
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	}

	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
	return nil
}

func envOr(key string, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
