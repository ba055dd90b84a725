package di

import (
	"context"
	"testing"

	"github.com/veyucu/fastits/internal/config"
	"github.com/veyucu/fastits/internal/http/router"
	"github.com/veyucu/fastits/internal/service"
)

func TestProvideHTTPServer(t *testing.T) {
	cfg := &config.Config{HTTPPort: "9999"}
	srv := provideHTTPServer(cfg, nil)
	if srv.Addr != ":9999" {
		t.Fatalf("unexpected addr: %s", srv.Addr)
	}
	if srv.ReadTimeout.Seconds() != 10 {
		t.Fatalf("unexpected read timeout: %v", srv.ReadTimeout)
	}
}

func TestProvideRedisClientDisabled(t *testing.T) {
	if client := provideRedisClient(&config.Config{}); client != nil {
		t.Fatal("expected nil client when redis is disabled")
	}
}

func TestProvideScopeLockerFallsBackToLocal(t *testing.T) {
	locker := provideScopeLocker(&config.Config{}, nil)
	if locker == nil {
		t.Fatal("expected local scope locker")
	}
	release, err := locker.Acquire(context.Background(), service.LineScope(1, 2))
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()
}

func TestProvideRouterDependencies(t *testing.T) {
	cfg := &config.Config{APIRateLimitPerMin: 100, IngestRateLimitPerMin: 10}
	dep := provideRouterDependencies(nil, nil, nil, nil, cfg)
	if dep.APIRateLimit == nil || dep.IngestRateLimit == nil {
		t.Fatalf("expected both rate limiters: %+v", dep)
	}
	_ = router.Dependencies(dep)
}
