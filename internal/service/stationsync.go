package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/models"
)

// StationCatalog 外部充电站目录
type StationCatalog interface {
	ListNearby(ctx context.Context, lat, lon, radiusKm float64, maxResults int) ([]models.ChargingStation, error)
}

// StationWriter 充电站持久化
type StationWriter interface {
	Upsert(ctx context.Context, st *models.ChargingStation) error
}

// SyncService 从外部目录批量摄取充电站
type SyncService struct {
	logger  *zap.Logger
	catalog StationCatalog
	store   StationWriter
}

// NewSyncService 创建充电站同步服务
func NewSyncService(logger *zap.Logger, catalog StationCatalog, store StationWriter) *SyncService {
	return &SyncService{
		logger:  logger,
		catalog: catalog,
		store:   store,
	}
}

// SyncNearby 拉取给定点周边的充电站并写入存储
// 单条写入失败不中断整批，返回成功写入的数量
func (s *SyncService) SyncNearby(ctx context.Context, lat, lon, radiusKm float64, maxResults int) (int, error) {
	stations, err := s.catalog.ListNearby(ctx, lat, lon, radiusKm, maxResults)
	if err != nil {
		return 0, fmt.Errorf("fetch stations: %w", err)
	}

	now := time.Now()
	synced := 0
	for i := range stations {
		stations[i].LastSyncedAt = now
		if err := s.store.Upsert(ctx, &stations[i]); err != nil {
			s.logger.Warn("Failed to upsert station",
				zap.String("external_id", stations[i].ExternalID),
				zap.Error(err))
			continue
		}
		synced++
	}

	s.logger.Info("Station sync finished",
		zap.Int("fetched", len(stations)),
		zap.Int("synced", synced))
	return synced, nil
}
