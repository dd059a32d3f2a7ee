package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"econet-data/internal/domain"
	"econet-data/internal/service"

	"go.uber.org/zap"
)

// scaleReading 秤网关上报的单条读数
// 网关按批上报：payload 为 JSON 数组
type scaleReading struct {
	BinID     string  `json:"binId"`
	RawWeight float64 `json:"rawWeight"`
	EventType string  `json:"eventType"`
	IsCleaned bool    `json:"isCleaned"`
	CleanedBy string  `json:"cleanedBy"`
}

// ScaleBroker 秤网关 MQTT 消息处理模块
// 与 HTTP 摄入共用同一套校验和净重计算；单条失败记日志后继续，
// 不中断批次
type ScaleBroker struct {
	ingest service.IngestService
	logger *zap.Logger
}

// NewScaleBroker 创建秤网关 Broker
func NewScaleBroker(ingest service.IngestService, logger *zap.Logger) *ScaleBroker {
	return &ScaleBroker{
		ingest: ingest,
		logger: logger,
	}
}

// HandleMessage 处理 MQTT 消息（pkg/mqtt.MessageHandler 签名）
func (b *ScaleBroker) HandleMessage(topic string, payload []byte) error {
	var readings []scaleReading
	if err := json.Unmarshal(payload, &readings); err != nil {
		// 兼容单条上报
		var single scaleReading
		if serr := json.Unmarshal(payload, &single); serr != nil {
			return fmt.Errorf("failed to unmarshal scale payload: %w", err)
		}
		readings = []scaleReading{single}
	}

	for i, reading := range readings {
		if err := b.processReading(&reading); err != nil {
			b.logger.Error("Failed to process scale reading",
				zap.String("topic", topic),
				zap.Int("index", i),
				zap.String("bin_id", reading.BinID),
				zap.Error(err),
			)
			// 继续处理下一条，不中断
		}
	}

	return nil
}

// processReading 处理单条读数
func (b *ScaleBroker) processReading(reading *scaleReading) error {
	eventType := domain.EventType(reading.EventType)
	if reading.EventType == "" {
		eventType = domain.EventTypeDisposal
	}

	ctx := context.Background()
	event, err := b.ingest.Ingest(ctx, service.IngestRequest{
		BinID:     reading.BinID,
		RawWeight: reading.RawWeight,
		EventType: eventType,
		IsCleaned: reading.IsCleaned,
		CleanedBy: reading.CleanedBy,
	})
	if err != nil {
		return err
	}

	b.logger.Debug("Ingested scale reading via MQTT",
		zap.String("bin_id", event.BinID),
		zap.Float64("net_weight", event.NetWeight),
		zap.String("event_type", string(event.EventType)),
	)
	return nil
}
