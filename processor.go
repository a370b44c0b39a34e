package audiolink

import (
	"log"
	"sync"
	"time"

	"audiolink/Filters"
)

// SampleRate 整个分析管线假定的采样率 (Hz)。所有频率换算都基于它，
// 不随帧协商。
const SampleRate = 48000

const (
	// 少于这么多对采样的帧视为空帧，直接产出无信号结果
	minFramePairs = 128
	// 立体声 float32 交织：一对采样 8 字节
	bytesPerPair = 8
	// 峰值检测的绝对响度下限
	spikeMinVolume = 0.1
	// 诊断日志的最小间隔
	summaryInterval = 5 * time.Second
)

// Frame 一次采集回调送来的交织立体声 float32 采样。
// 由采集方构造，在一次 ProcessFrame 调用内消费完毕，不跨帧持有。
type Frame struct {
	Samples   []float32
	ByteCount int
}

// Result 一帧的感知信号。
type Result struct {
	Volume    float64           // 0..1
	Direction float64           // 0..1, 0=左 1=右 0.5=居中
	Bands     [NumBands]float64 // 各频段能量
	Spike     bool              // 响度突增标志
}

// Outcome 带降级标记的帧结果。Degraded 为 true 表示本帧产出的是
// 规范的空结果 (空帧或内部故障)，失败在类型上可见而不是被吞掉。
type Outcome struct {
	Result
	Degraded bool
}

func emptyOutcome() Outcome {
	return Outcome{Result: Result{Direction: 0.5}, Degraded: true}
}

// history 定长 3 的滚动历史，用于诊断输出。
type history struct {
	vals [3]float64
	pos  int
	n    int
}

func (h *history) push(v float64) {
	h.vals[h.pos] = v
	h.pos = (h.pos + 1) % len(h.vals)
	if h.n < len(h.vals) {
		h.n++
	}
}

func (h *history) mean() float64 {
	if h.n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < h.n; i++ {
		sum += h.vals[i]
	}
	return sum / float64(h.n)
}

// FrameProcessor 按帧驱动整条分析链：拆分声道、频谱变换、响度、
// 方向、频段、AGC、峰值，并维护所有跨帧状态。
// 同一时刻只允许一个调用方进入 ProcessFrame (内部互斥锁保证)。
type FrameProcessor struct {
	mu sync.Mutex

	// 配置快照。pending 在下一帧开始时原子性换入。
	cfgMu   sync.Mutex
	pending *Config
	applied Config // 调用方提供的快照原样保留 (Config() 返回它)
	active  Config // 约束到合法范围后的工作副本

	transform *SpectralTransform
	loudness  *LoudnessEstimator
	bands     *BandAnalyzer
	direction *DirectionEstimator
	agc       *Filters.AGC
	spikes    *Filters.SpikeDetector

	// 声道拆分的复用缓冲区
	left  []float64
	right []float64
	mono  []float64

	// 跨帧状态 (只属于本实例，外部不可见)
	smoothedVolume    float64
	smoothedDirection float64
	smoothedBands     [NumBands]float64
	volumeHistory     history
	directionHistory  history

	// 诊断计数
	frames   uint64
	degraded uint64
	lastLog  time.Time
}

// NewFrameProcessor 创建处理器。cfg 为 nil 时使用默认配置。
func NewFrameProcessor(cfg *Config) *FrameProcessor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := &FrameProcessor{
		transform: NewSpectralTransform(DefaultTransformSize),
		loudness:  NewLoudnessEstimator(SampleRate),
		bands:     NewBandAnalyzer(SampleRate),
		direction: NewDirectionEstimator(SampleRate),
		spikes:    Filters.NewSpikeDetector(),

		smoothedDirection: 0.5,
	}
	p.applied = *cfg
	p.active = cfg.sanitized()
	p.agc = Filters.NewAGC(p.active.Gain)
	return p
}

// ApplyConfig 提交一份新的配置快照，在下一帧开始时生效。
// 正在处理中的帧继续使用它开始时的配置。
func (p *FrameProcessor) ApplyConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	snapshot := *cfg
	p.cfgMu.Lock()
	p.pending = &snapshot
	p.cfgMu.Unlock()
}

// Config 返回最近提交的配置快照的副本。
func (p *FrameProcessor) Config() *Config {
	p.cfgMu.Lock()
	defer p.cfgMu.Unlock()
	var out Config
	if p.pending != nil {
		out = *p.pending
	} else {
		out = p.applied
	}
	return &out
}

// Reset 清零全部跨帧状态，等价于销毁重建 (设备切换或显式停止时使用)。
func (p *FrameProcessor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.smoothedVolume = 0
	p.smoothedDirection = 0.5
	p.smoothedBands = [NumBands]float64{}
	p.volumeHistory = history{}
	p.directionHistory = history{}
	p.direction.Reset()
	p.spikes.Reset()
	p.agc.Reset(p.active.Gain)
	p.frames = 0
	p.degraded = 0
}

// swapConfig 在帧开始时换入待生效的配置。
func (p *FrameProcessor) swapConfig() {
	p.cfgMu.Lock()
	if p.pending != nil {
		p.applied = *p.pending
		p.active = p.pending.sanitized()
		p.pending = nil
	}
	p.cfgMu.Unlock()
}

// ProcessFrame 处理一帧并产出结果。空帧或内部故障产出降级的空结果，
// 管线永远不会因为单帧失败而停下。
func (p *FrameProcessor) ProcessFrame(frame Frame) (out Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("audiolink: frame %d failed: %v", p.frames, r)
			p.degraded++
			out = emptyOutcome()
		}
	}()

	p.swapConfig()
	cfg := &p.active

	pairs := frame.ByteCount / bytesPerPair
	if pairs*2 > len(frame.Samples) {
		pairs = len(frame.Samples) / 2
	}
	if pairs < minFramePairs {
		p.degraded++
		return emptyOutcome()
	}

	p.split(frame.Samples, pairs)

	leftSpec := p.transform.Transform(p.left)
	rightSpec := p.transform.Transform(p.right)
	monoSpec := p.transform.Transform(p.mono)

	now := time.Now()

	rawVolume := p.loudness.Estimate(p.mono, monoSpec, cfg)

	gain := p.agc.Update(rawVolume, Filters.AGCParams{
		Enabled:     cfg.AGCEnabled,
		StaticGain:  cfg.Gain,
		TargetLevel: cfg.AGC.TargetLevel,
		RiseStep:    cfg.AGC.RiseStep,
		FallStep:    cfg.AGC.FallStep,
		MinGain:     cfg.AGC.MinGain,
		MaxGain:     cfg.AGC.MaxGain,
	})
	volume := Filters.SoftClip(rawVolume * gain)

	k := cfg.VolumeSmoothing
	p.smoothedVolume = p.smoothedVolume*k + volume*(1-k)

	dir := p.direction.Estimate(leftSpec, rightSpec, rawVolume, p.smoothedDirection, cfg, now)
	p.smoothedDirection = p.smoothedDirection*k + dir*(1-k)

	p.bands.Update(monoSpec, cfg, p.smoothedVolume, &p.smoothedBands)

	spike := p.spikes.Update(rawVolume, now, Filters.SpikeParams{
		Threshold:            cfg.Spike.Threshold,
		MinVolume:            spikeMinVolume,
		HoldDuration:         cfg.Spike.HoldDuration,
		HabituationEnabled:   cfg.Spike.HabituationEnabled,
		HabituationIncrease:  cfg.Spike.HabituationIncrease,
		HabituationDecay:     cfg.Spike.HabituationDecay,
		HabituationThreshold: cfg.Spike.HabituationThreshold,
	})

	p.volumeHistory.push(p.smoothedVolume)
	p.directionHistory.push(p.smoothedDirection)
	p.frames++
	p.logSummary(now, gain, cfg)

	return Outcome{Result: Result{
		Volume:    clamp01(p.smoothedVolume),
		Direction: clamp01(p.smoothedDirection),
		Bands:     p.smoothedBands,
		Spike:     spike,
	}}
}

// split 把交织立体声拆成左、右、单声道 (均值) 三个缓冲区。
func (p *FrameProcessor) split(samples []float32, pairs int) {
	if cap(p.left) < pairs {
		p.left = make([]float64, pairs)
		p.right = make([]float64, pairs)
		p.mono = make([]float64, pairs)
	}
	p.left = p.left[:pairs]
	p.right = p.right[:pairs]
	p.mono = p.mono[:pairs]

	for i := 0; i < pairs; i++ {
		l := float64(samples[2*i])
		r := float64(samples[2*i+1])
		p.left[i] = l
		p.right[i] = r
		p.mono[i] = (l + r) * 0.5
	}
}

// logSummary 以受限频率输出一行诊断摘要，仅供观察，没有消费者依赖其格式。
func (p *FrameProcessor) logSummary(now time.Time, gain float64, cfg *Config) {
	if now.Sub(p.lastLog) < summaryInterval {
		return
	}
	p.lastLog = now

	mode := "basic"
	if cfg.Direction.Enhanced {
		mode = "enhanced"
	}
	log.Printf("audiolink: frames=%d degraded=%d gain=%.2f vol=%.3f dir=%.3f mode=%s",
		p.frames, p.degraded, gain, p.volumeHistory.mean(), p.directionHistory.mean(), mode)
}
