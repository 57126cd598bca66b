package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/types"
)

// DefaultAutoSaveDelay 默认防抖延迟
const DefaultAutoSaveDelay = 2 * time.Second

// Saver 自动保存的目标，通常是 *Store。
type Saver interface {
	Save(ctx context.Context, wf *types.Workflow) error
}

// Scheduler 定时抽象。AfterFunc 在 d 之后于独立 goroutine 中调用 f，
// 返回的 stop 取消尚未触发的调用，已触发或已取消时返回 false。
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// RealScheduler 基于 time.AfterFunc 的调度器
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// AutoSaveRecorder 自动保存指标
type AutoSaveRecorder interface {
	RecordAutosave(status string)
}

// AutoSaveOption 配置 AutoSaver
type AutoSaveOption func(*AutoSaver)

// WithDelay 设置防抖延迟，<= 0 时保持默认值
func WithDelay(d time.Duration) AutoSaveOption {
	return func(a *AutoSaver) {
		if d > 0 {
			a.delay = d
		}
	}
}

// WithScheduler 注入调度器
func WithScheduler(s Scheduler) AutoSaveOption {
	return func(a *AutoSaver) {
		if s != nil {
			a.scheduler = s
		}
	}
}

// WithSaveTimeout 单次保存的超时
func WithSaveTimeout(d time.Duration) AutoSaveOption {
	return func(a *AutoSaver) { a.timeout = d }
}

// WithAutoSaveRecorder 注入指标记录器
func WithAutoSaveRecorder(r AutoSaveRecorder) AutoSaveOption {
	return func(a *AutoSaver) { a.recorder = r }
}

// WithErrorHandler 保存失败时的回调（日志之外的额外通知）
func WithErrorHandler(fn func(workflowID string, err error)) AutoSaveOption {
	return func(a *AutoSaver) { a.onError = fn }
}

type pendingSave struct {
	seq  uint64
	wf   *types.Workflow
	stop func() bool
}

// AutoSaver 尾沿防抖的自动保存器。
// 每个工作流 ID 至多一个待执行的保存，新的 Observe 会替换旧的定时器与快照。
type AutoSaver struct {
	saver     Saver
	delay     time.Duration
	timeout   time.Duration
	scheduler Scheduler
	recorder  AutoSaveRecorder
	onError   func(workflowID string, err error)
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[string]*pendingSave
	seq     uint64
	closed  bool
}

// NewAutoSaver 创建自动保存器
func NewAutoSaver(saver Saver, logger *zap.Logger, opts ...AutoSaveOption) *AutoSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &AutoSaver{
		saver:     saver,
		delay:     DefaultAutoSaveDelay,
		timeout:   10 * time.Second,
		scheduler: RealScheduler{},
		logger:    logger.With(zap.String("component", "autosave")),
		pending:   make(map[string]*pendingSave),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Delay 返回防抖延迟
func (a *AutoSaver) Delay() time.Duration { return a.delay }

// Observe 记录一次变更：取消同一工作流的待执行保存，以当前快照重新计时。
func (a *AutoSaver) Observe(wf *types.Workflow) {
	if wf == nil || wf.ID == "" {
		return
	}
	snapshot := wf.Clone()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	if p, ok := a.pending[wf.ID]; ok {
		p.stop()
	}
	a.seq++
	seq := a.seq
	id := wf.ID
	stop := a.scheduler.AfterFunc(a.delay, func() { a.fire(id, seq) })
	a.pending[id] = &pendingSave{seq: seq, wf: snapshot, stop: stop}
}

// fire 定时器触发；seq 不匹配说明已被替换或取消
func (a *AutoSaver) fire(id string, seq uint64) {
	a.mu.Lock()
	p, ok := a.pending[id]
	if !ok || p.seq != seq {
		a.mu.Unlock()
		return
	}
	delete(a.pending, id)
	a.mu.Unlock()

	_ = a.save(p.wf)
}

func (a *AutoSaver) save(wf *types.Workflow) error {
	ctx := context.Background()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	if err := a.saver.Save(ctx, wf); err != nil {
		a.logger.Error("auto-save failed",
			zap.String("workflow_id", wf.ID),
			zap.Error(err))
		if a.recorder != nil {
			a.recorder.RecordAutosave("failed")
		}
		if a.onError != nil {
			a.onError(wf.ID, err)
		}
		return err
	}

	a.logger.Debug("workflow auto-saved", zap.String("workflow_id", wf.ID))
	if a.recorder != nil {
		a.recorder.RecordAutosave("saved")
	}
	return nil
}

// Flush 立即执行所有待保存项，返回合并后的错误。
func (a *AutoSaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	batch := make([]*types.Workflow, 0, len(a.pending))
	for id, p := range a.pending {
		p.stop()
		batch = append(batch, p.wf)
		delete(a.pending, id)
	}
	a.mu.Unlock()

	var errs []error
	for _, wf := range batch {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := a.save(wf); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Cancel 丢弃某工作流的待保存项；存在时返回 true。
func (a *AutoSaver) Cancel(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pending[id]
	if !ok {
		return false
	}
	p.stop()
	delete(a.pending, id)
	return true
}

// Pending 报告某工作流是否有待保存项。
func (a *AutoSaver) Pending(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pending[id]
	return ok
}

// PendingCount 待保存项数量
func (a *AutoSaver) PendingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Close 刷新待保存项并拒绝后续 Observe。
func (a *AutoSaver) Close(ctx context.Context) error {
	err := a.Flush(ctx)
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return err
}
