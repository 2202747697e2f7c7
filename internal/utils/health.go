package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Services  []Service `json:"services"`
}

type Service struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthChecker struct {
	DB      *gorm.DB
	DBName  string
	Redis   *redis.Client
	Timeout time.Duration
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	var services []Service
	overallStatus := "healthy"

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	if h.DB != nil {
		name := h.DBName
		if name == "" {
			name = "Database"
		}
		service := Service{Name: name}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		if err := pingDB(pingCtx, h.DB); err != nil {
			service.Status = "down"
			service.Message = err.Error()
			overallStatus = "degraded"
		} else {
			service.Status = "up"
		}
		services = append(services, service)
		cancel()
	}

	if h.Redis != nil {
		service := Service{Name: "Redis"}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		if err := h.Redis.Ping(pingCtx).Err(); err != nil {
			service.Status = "down"
			service.Message = err.Error()
			overallStatus = "degraded"
		} else {
			service.Status = "up"
		}
		services = append(services, service)
		cancel()
	}

	return HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC(),
		Services:  services,
	}
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
