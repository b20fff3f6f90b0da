package main

import (
	"context"
	"fmt"
	"log"

	"storepos/backend/internal/config"
	"storepos/backend/internal/domain"
	"storepos/backend/internal/entity"
	"storepos/backend/internal/fallback"
	"storepos/backend/internal/recordstore"
	"storepos/backend/internal/recordstore/dynamo"
	"storepos/backend/internal/recordstore/file"
	"storepos/backend/internal/recordstore/mongo"
	"storepos/backend/internal/recordstore/postgres"
	"storepos/backend/internal/recordstore/redis"
	"storepos/backend/internal/service"
)

type stores struct {
	local   recordstore.Store
	remote  recordstore.Store
	closers []func() error
}

// openStores opens the local directory store and the configured remote. An
// unreachable remote is logged and the server runs on the local store alone.
func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	local, err := file.New(cfg.LocalDataDir)
	if err != nil {
		return stores{}, err
	}
	log.Printf("local store: %s", cfg.LocalDataDir)

	out := stores{local: recordstore.Prefixed(local, cfg.KeyPrefix)}
	remote, closeFn, err := openRemote(ctx, cfg)
	if err != nil {
		log.Printf("[server] WARN: remote %s unavailable (%v), using local store only", cfg.RemoteBackend, err)
		return out, nil
	}
	if remote == nil {
		log.Println("remote store: none")
		return out, nil
	}
	log.Printf("remote store: %s", cfg.RemoteBackend)
	out.remote = recordstore.Prefixed(remote, cfg.KeyPrefix)
	if closeFn != nil {
		out.closers = append(out.closers, closeFn)
	}
	return out, nil
}

func openRemote(ctx context.Context, cfg config.Config) (recordstore.Store, func() error, error) {
	switch cfg.RemoteBackend {
	case "", config.BackendNone:
		return nil, nil, nil
	case config.BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, nil, fmt.Errorf("REDIS_ADDR is required")
		}
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required")
		}
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.BackendMongo:
		if cfg.MongoURI == "" {
			return nil, nil, fmt.Errorf("MONGO_URI is required")
		}
		store, err := mongo.New(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.BackendDynamoDB:
		store, err := dynamo.New(ctx, dynamo.Options{Table: cfg.DynamoDBTable, Region: cfg.AWSRegion, Endpoint: cfg.DynamoEndpoint})
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown REMOTE_BACKEND %q", cfg.RemoteBackend)
	}
}

// buildService puts a fallback coordinator in front of every collection.
func buildService(cfg config.Config, s stores) *service.Service {
	opts := entity.Options{Location: cfg.Location()}
	fopts := func(name string) fallback.Options {
		return fallback.Options{Name: name, RemoteTimeout: cfg.RemoteTimeout}
	}

	var (
		remoteProducts  entity.ProductService
		remoteCustomers entity.CustomerService
		remotePurchases entity.PurchaseService
		remoteOrders    entity.OrderService
	)
	if s.remote != nil {
		remoteProducts = entity.NewProducts(s.remote, opts)
		remoteCustomers = entity.NewCustomers(s.remote, opts)
		remotePurchases = entity.NewPurchases(s.remote, opts)
		remoteOrders = entity.NewOrders(s.remote, opts)
	}

	return service.New(service.Entities{
		Products:  fallback.NewCoordinator[domain.Product, domain.ProductPatch](remoteProducts, entity.NewProducts(s.local, opts), fopts("products")),
		Customers: fallback.NewCoordinator[domain.Customer, domain.CustomerPatch](remoteCustomers, entity.NewCustomers(s.local, opts), fopts("customers")),
		Purchases: fallback.NewCoordinator[domain.Purchase, domain.PurchasePatch](remotePurchases, entity.NewPurchases(s.local, opts), fopts("purchases")),
		Orders:    fallback.NewOrderCoordinator(remoteOrders, entity.NewOrders(s.local, opts), fopts("orders")),
	}, service.Options{DefaultStoreID: cfg.StoreID, Location: cfg.Location()})
}
