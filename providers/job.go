package providers

import (
	"context"
	"time"

	"github.com/BaSui01/imageflow/image"
	"go.uber.org/zap"
)

// JobState 是后端异步任务在轮询循环中的状态。
// Submitted 与 Pending 都表示"尚未到终态"，Submitted 标记第 0 次尝试。
type JobState int

const (
	JobSubmitted JobState = iota
	JobPending
	JobSucceeded
	JobFailed
	JobTimedOut
)

// Disposition 是一次状态查询的分类结果。
// Succeeded 时 Result 必须已填好；Failed 时 FailureReason 携带后端
// 给出的原因（可为空，引擎补 "Unknown error"）。
type Disposition struct {
	State         JobState
	Result        *image.GenerateResponse
	FailureReason string
}

// PollJob 参数化通用轮询状态机。后端只提供四样东西：轮询函数、
// 固定间隔、次数上限与（日志用的）任务标识；状态机只写一次。
//
// 提交阶段不在此处：提交失败不可重试（重复提交会产生重复计费任务），
// 适配器在拿到任务标识后才构造 PollJob。
type PollJob struct {
	Provider    string
	ID          string
	Interval    time.Duration
	MaxAttempts int

	// Poll 发起一次状态请求并分类响应。HTTP 层错误与"成功但缺
	// 输出"都直接返回 error，不进入状态机。
	Poll func(ctx context.Context) (Disposition, error)

	// OnAttempt 在每次非终态轮询后回调，测试与指标挂在这里。
	OnAttempt func(attempt int)
}

// RunPollJob 驱动状态机直至终态：
//
//	Submitted → {Pending ⇄ Pending} → {Succeeded | Failed | TimedOut}
//
// 每轮先等待固定间隔再查询（不做指数退避）；Pending 累加尝试数；
// 到达上限仍未终态返回 408 超时。取消信号在间隔等待与网络等待两个
// 挂起点都会被响应，上抛 ErrCancelled。
func RunPollJob(ctx context.Context, logger *zap.Logger, job PollJob) (*image.GenerateResponse, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	attempts := 0
	for attempts < job.MaxAttempts {
		select {
		case <-ctx.Done():
			return nil, image.NewCancelled(job.Provider, ctx.Err())
		case <-time.After(job.Interval):
		}

		d, err := job.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, image.NewCancelled(job.Provider, ctx.Err())
			}
			return nil, err
		}

		switch d.State {
		case JobSucceeded:
			return d.Result, nil
		case JobFailed:
			reason := d.FailureReason
			if reason == "" {
				reason = "Unknown error"
			}
			return nil, image.NewProviderAPI(job.Provider, 500, "Generation failed: "+reason)
		default:
			attempts++
			logger.Debug("task not ready yet",
				zap.String("provider", job.Provider),
				zap.String("job_id", job.ID),
				zap.Int("attempt", attempts),
				zap.Int("max_attempts", job.MaxAttempts),
			)
			if job.OnAttempt != nil {
				job.OnAttempt(attempts)
			}
		}
	}

	return nil, image.NewProviderTimeout(job.Provider)
}
