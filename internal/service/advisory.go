package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AdvisoryJob 未清空提示巡检任务
// 在每日检查窗口由 cron 触发：对全部分支比较今日与昨日的权威读数，
// 数值相等的垃圾桶记为疑似未清空。仅产生日志提示，不改动任何数据
type AdvisoryJob struct {
	resolver  ResolverService
	analytics AnalyticsService
	logger    *zap.Logger
}

// NewAdvisoryJob 创建巡检任务
func NewAdvisoryJob(resolver ResolverService, analytics AnalyticsService, logger *zap.Logger) *AdvisoryJob {
	return &AdvisoryJob{
		resolver:  resolver,
		analytics: analytics,
		logger:    logger,
	}
}

// Run 执行一次巡检
func (j *AdvisoryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	branchIDs, err := j.resolver.ResolveBranches(ctx, Scope{})
	if err != nil {
		j.logger.Error("Advisory check failed to resolve branches", zap.Error(err))
		return
	}

	readings, err := j.analytics.BinStatus(ctx, branchIDs)
	if err != nil {
		j.logger.Error("Advisory check failed", zap.Error(err))
		return
	}

	flagged := 0
	for _, r := range readings {
		if r.NotEmptied {
			flagged++
			j.logger.Warn("Bin possibly not emptied",
				zap.String("bin_id", r.BinID),
				zap.String("bin_type", string(r.BinType)),
				zap.Float64("weight", r.Weight),
			)
		}
	}

	j.logger.Info("Advisory check completed",
		zap.Int("bins_checked", len(readings)),
		zap.Int("bins_flagged", flagged),
	)
}
