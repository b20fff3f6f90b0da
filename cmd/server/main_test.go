package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"storepos/backend/internal/config"
	"storepos/backend/internal/domain"
	"storepos/backend/internal/recordstore"
	"storepos/backend/internal/recordstore/memory"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	accounts := []domain.UserAccount{{Username: "admin", Password: "admin-password", Role: domain.RoleAdmin}}

	if err := validateSecurityConfig(config.Config{AuthSecret: "short", StaffAccounts: accounts}); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}
	if err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"}); err == nil {
		t.Fatalf("expected missing accounts to be rejected")
	}
	weak := []domain.UserAccount{{Username: "kasir", Password: "1234"}}
	if err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", StaffAccounts: weak}); err == nil {
		t.Fatalf("expected short password to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{
		AuthSecret:    "0123456789abcdef0123456789abcdef",
		StaffAccounts: []domain.UserAccount{{Username: "admin", Password: "admin-password", Role: domain.RoleAdmin}},
	})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestOpenRemote(t *testing.T) {
	ctx := context.Background()

	store, _, err := openRemote(ctx, config.Config{RemoteBackend: config.BackendNone})
	if err != nil || store != nil {
		t.Fatalf("expected no remote for none, got %v %v", store, err)
	}
	if _, _, err := openRemote(ctx, config.Config{RemoteBackend: "cassandra"}); err == nil {
		t.Fatalf("expected unknown backend to fail")
	}
	if _, _, err := openRemote(ctx, config.Config{RemoteBackend: config.BackendRedis}); err == nil {
		t.Fatalf("expected redis without address to fail")
	}

	mr := miniredis.RunT(t)
	store, closeFn, err := openRemote(ctx, config.Config{RemoteBackend: config.BackendRedis, RedisAddr: mr.Addr()})
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer closeFn()
	if err := store.Set(ctx, "health", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("health") {
		t.Fatalf("expected key in redis")
	}
}

func TestOpenRemotePostgresCreatesSchema(t *testing.T) {
	ctx := context.Background()
	if _, _, err := openRemote(ctx, config.Config{RemoteBackend: config.BackendPostgres}); err == nil {
		t.Fatalf("expected postgres without DATABASE_URL to fail")
	}

	databaseURL := os.Getenv("STOREPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set STOREPOS_TEST_DATABASE_URL to run postgres integration test")
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS record_collections`); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	store, closeFn, err := openRemote(ctx, config.Config{RemoteBackend: config.BackendPostgres, DatabaseURL: databaseURL})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer closeFn()
	if err := store.Set(ctx, "health", []byte(`[]`)); err != nil {
		t.Fatalf("set on fresh database: %v", err)
	}
	got, err := store.Get(ctx, "health")
	if err != nil || got == nil {
		t.Fatalf("expected stored value, got %s %v", got, err)
	}
}

func TestOpenStoresDegradesWhenRemoteDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	s, err := openStores(context.Background(), config.Config{
		LocalDataDir:  t.TempDir(),
		RemoteBackend: config.BackendRedis,
		RedisAddr:     addr,
	})
	if err != nil {
		t.Fatalf("open stores: %v", err)
	}
	if s.remote != nil {
		t.Fatalf("expected remote to be dropped when unreachable")
	}
	if s.local == nil {
		t.Fatalf("expected local store")
	}
}

func TestBuildServiceFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	local := memory.New()
	remote := memory.New()
	remote.SetError(errors.New("remote down"))

	svc := buildService(config.Config{StoreID: "mangas"}, stores{local: local, remote: remote})
	created, err := svc.CreateProduct(ctx, "", domain.ProductCreateRequest{Name: "Coca Cola", Quantity: 50, Price: 1500})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if created.StoreID != "mangas" {
		t.Fatalf("expected default store, got %s", created.StoreID)
	}

	raw, err := local.Get(ctx, recordstore.ProductsKey("mangas"))
	if err != nil || len(raw) == 0 {
		t.Fatalf("expected product to be written locally, got %q %v", raw, err)
	}

	remote.SetError(nil)
	products, err := svc.ListProducts(ctx, "mangas")
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 0 {
		t.Fatalf("expected the reachable remote to be read first, got %v", products)
	}
}
