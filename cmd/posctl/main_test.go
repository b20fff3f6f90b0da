package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepos/backend/internal/domain"
	"storepos/backend/internal/entity"
	"storepos/backend/internal/httpapi"
	"storepos/backend/internal/recordstore/file"
	"storepos/backend/internal/recordstore/memory"
	"storepos/backend/internal/service"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.New()
	opts := entity.Options{}
	svc := service.New(service.Entities{
		Products:  entity.NewProducts(store, opts),
		Customers: entity.NewCustomers(store, opts),
		Purchases: entity.NewPurchases(store, opts),
		Orders:    entity.NewOrders(store, opts),
	}, service.Options{DefaultStoreID: "mangas"})
	auth := httpapi.NewAuthManager("posctl-test-secret", time.Hour, []domain.UserAccount{
		{Username: "admin", Password: "admin123", Role: domain.RoleAdmin},
	})
	server := httptest.NewServer(httpapi.New(svc, auth, "*").Handler())
	t.Cleanup(server.Close)
	return server
}

func run(t *testing.T, server string, dataDir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server, "--data-dir", dataDir, "--store", "mangas", "--timeout", "2s"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func decodeJSON[T any](t *testing.T, raw string) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal([]byte(raw), &out), raw)
	return out
}

func TestLoginSavesSession(t *testing.T) {
	server := newServer(t)
	dir := t.TempDir()

	out, err := run(t, server.URL, dir, "login", "-u", "admin", "-p", "admin123")
	require.NoError(t, err)
	assert.Contains(t, out, "admin")

	raw, err := os.ReadFile(filepath.Join(dir, sessionFile))
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(string(raw)))

	_, err = run(t, server.URL, t.TempDir(), "login", "-u", "admin", "-p", "nope")
	assert.Error(t, err)
}

func TestProductsAgainstServer(t *testing.T) {
	server := newServer(t)
	dir := t.TempDir()
	_, err := run(t, server.URL, dir, "login", "-u", "admin", "-p", "admin123")
	require.NoError(t, err)

	_, err = run(t, server.URL, dir, "products", "add", "--name", "Coca Cola", "--quantity", "50", "--price", "1500")
	require.NoError(t, err)

	out, err := run(t, server.URL, dir, "-o", "json", "products", "list")
	require.NoError(t, err)
	products := decodeJSON[[]domain.Product](t, out)
	require.Len(t, products, 1)
	assert.Equal(t, "mangas", products[0].StoreID)

	out, err = run(t, server.URL, dir, "-o", "yaml", "products", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Coca Cola")
	assert.Contains(t, out, "storeId: mangas")

	out, err = run(t, server.URL, dir, "products", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Coca Cola")
	assert.Contains(t, out, "ID")
}

func TestOrdersRevenueAndPayments(t *testing.T) {
	server := newServer(t)
	dir := t.TempDir()
	_, err := run(t, server.URL, dir, "login", "-u", "admin", "-p", "admin123")
	require.NoError(t, err)

	out, err := run(t, server.URL, dir, "-o", "json", "orders", "list")
	require.NoError(t, err)
	assert.Empty(t, decodeJSON[[]domain.Order](t, out))

	_, err = run(t, server.URL, dir, "orders", "pay", "ord_missing", "--amount", "10")
	assert.Error(t, err)
	_, err = run(t, server.URL, dir, "orders", "pay", "ord_missing", "--amount", "10", "--method", "barter")
	assert.ErrorContains(t, err, "unsupported payment method")

	out, err = run(t, server.URL, dir, "-o", "json", "orders", "revenue", "--date", "2024-01-15")
	require.NoError(t, err)
	revenue := decodeJSON[domain.DailyRevenue](t, out)
	assert.Equal(t, "2024-01-15", revenue.Date)
	assert.Zero(t, revenue.Revenue)

	_, err = run(t, server.URL, dir, "orders", "revenue", "--date", "15/01/2024")
	assert.Error(t, err)
}

func TestOfflineWritesCanBePushed(t *testing.T) {
	live := newServer(t)
	down := httptest.NewServer(nil)
	downURL := down.URL
	down.Close()

	dir := t.TempDir()
	_, err := run(t, live.URL, dir, "login", "-u", "admin", "-p", "admin123")
	require.NoError(t, err)
	_, err = run(t, live.URL, dir, "products", "add", "--name", "Coca Cola", "--quantity", "50", "--price", "1500")
	require.NoError(t, err)

	out, err := run(t, downURL, dir, "-o", "json", "products", "add", "--name", "Offline Tea", "--quantity", "3", "--price", "200")
	require.NoError(t, err)
	offline := decodeJSON[domain.Product](t, out)
	require.NotEmpty(t, offline.ID)

	out, err = run(t, downURL, dir, "-o", "json", "products", "list")
	require.NoError(t, err)
	local := decodeJSON[[]domain.Product](t, out)
	require.Len(t, local, 1)
	assert.Equal(t, "Offline Tea", local[0].Name)

	_, err = run(t, downURL, dir, "collections", "diff")
	assert.Error(t, err, "diff needs the server")

	out, err = run(t, live.URL, dir, "-o", "json", "collections", "diff")
	require.NoError(t, err)
	diff := decodeJSON[[]divergence](t, out)
	require.Len(t, diff, 2)
	states := map[string]string{}
	for _, d := range diff {
		states[d.State] = d.Collection
	}
	assert.Equal(t, "products:mangas", states[stateLocalOnly])
	assert.Equal(t, "products:mangas", states[stateRemoteOnly])

	out, err = run(t, live.URL, dir, "-o", "json", "collections", "push")
	require.NoError(t, err)
	pushed := decodeJSON[[]divergence](t, out)
	require.Len(t, pushed, 1)
	assert.Equal(t, offline.ID, pushed[0].ID)
	assert.Equal(t, statePushed, pushed[0].State)
	assert.NotEmpty(t, pushed[0].NewID)

	out, err = run(t, live.URL, dir, "-o", "json", "products", "list")
	require.NoError(t, err)
	assert.Len(t, decodeJSON[[]domain.Product](t, out), 2)

	out, err = run(t, downURL, dir, "-o", "json", "products", "list")
	require.NoError(t, err)
	assert.Empty(t, decodeJSON[[]domain.Product](t, out))
}

func TestPushSendsPurchasesWithNewCustomerIDs(t *testing.T) {
	ctx := context.Background()
	live := newServer(t)
	dir := t.TempDir()
	_, err := run(t, live.URL, dir, "login", "-u", "admin", "-p", "admin123")
	require.NoError(t, err)

	stored, err := file.New(dir)
	require.NoError(t, err)
	customer, err := entity.NewCustomers(stored, entity.Options{}).Add(ctx, "", domain.Customer{Name: "Ana", Phone: "0812"})
	require.NoError(t, err)
	_, err = entity.NewPurchases(stored, entity.Options{}).Add(ctx, "", domain.Purchase{
		CustomerID: customer.ID, ProductName: "Tea", Quantity: 2, Price: 500,
	})
	require.NoError(t, err)

	out, err := run(t, live.URL, dir, "-o", "json", "collections", "push")
	require.NoError(t, err)
	pushed := decodeJSON[[]divergence](t, out)
	require.Len(t, pushed, 2)

	out, err = run(t, live.URL, dir, "-o", "json", "customers", "list")
	require.NoError(t, err)
	customers := decodeJSON[[]domain.Customer](t, out)
	require.Len(t, customers, 1)
	assert.NotEqual(t, customer.ID, customers[0].ID)
	assert.Equal(t, 1, customers[0].TotalPurchases)
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:8080", t.TempDir(), "-o", "xml", "products", "list")
	assert.ErrorContains(t, err, "unknown output format")
}
