package audiolink

import (
	"context"
	"fmt"
	"time"
)

// Monitor 在后台异步汇总帧结果，按固定周期打印一行诊断摘要
// (帧率、平均音量/方向、峰值次数)。纯观察用途，丢帧无害。
type Monitor struct {
	interval time.Duration

	in     chan Outcome
	ctx    context.Context
	cancel context.CancelFunc

	// 周期内的累计值
	frames   int
	degraded int
	spikes   int
	volSum   float64
	dirSum   float64
}

// NewMonitor 创建监控器。interval <= 0 时使用 1s。
func NewMonitor(interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		interval: interval,
		in:       make(chan Outcome, 100),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start 启动后台汇总 goroutine
func (m *Monitor) Start() {
	go m.run()
}

// Stop 停止监控
func (m *Monitor) Stop() {
	m.cancel()
}

// Push 由处理线程调用。缓冲满时直接丢弃，绝不阻塞音频路径。
func (m *Monitor) Push(out Outcome) {
	select {
	case m.in <- out:
	default:
	}
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case out := <-m.in:
			m.frames++
			if out.Degraded {
				m.degraded++
			}
			if out.Spike {
				m.spikes++
			}
			m.volSum += out.Volume
			m.dirSum += out.Direction
		case <-ticker.C:
			if m.frames == 0 {
				continue
			}
			fps := float64(m.frames) / m.interval.Seconds()
			fmt.Printf("[MONITOR] %.1f fps | vol %.3f | dir %.3f | spikes %d | degraded %d\n",
				fps, m.volSum/float64(m.frames), m.dirSum/float64(m.frames), m.spikes, m.degraded)
			m.frames = 0
			m.degraded = 0
			m.spikes = 0
			m.volSum = 0
			m.dirSum = 0
		}
	}
}
