package audiolink

import "time"

// Config 结构体用于集中管理一次分析会话的所有可调参数和阈值。
// 快照一旦交给处理器就视为不可变，整体替换 (ApplyConfig)。
// 超出范围的值在使用时被约束 (clamp)，永远不会被拒绝。
type Config struct {
	Gain            float64 // 静态增益，同时也是 AGC 围绕调整的锚点
	AGCEnabled      bool    // 是否启用自动增益（否则直接使用 Gain）
	VolumeSmoothing float64 // 音量/方向平滑系数 (0.0 - 1.0)，越大越平滑

	// --- 响度估计 (Loudness) ---
	// 时域 RMS 与频域功率的加权混合。各系数为经验值，
	// 使典型语音/音乐在增益前落在 0.3 - 0.7 附近。
	Loudness struct {
		RMSGain        float64 // RMS 项的缩放 (默认 4.0)
		RMSWeight      float64 // RMS 项的权重 (0.0 - 1.0，默认 0.7)
		SpectralGain   float64 // 频谱功率项的缩放 (默认 0.25)
		SpectralWeight float64 // 频谱功率项的权重 (0.0 - 1.0，默认 0.3)
	}

	// --- 方向估计 (Direction) ---
	Direction struct {
		Threshold       float64 // 原始音量低于此值时方向强制回中 (0.5)
		Enhanced        bool    // 启用逐 bin 的幅度+相位估计（否则按频段幅度比）
		MagnitudeWeight float64 // 幅度方向与相位方向的混合权重 (0.0 - 1.0)
		PhaseAnalysis   bool    // Enhanced 模式下是否使用相位差

		// Directional Pause: 方向大幅偏离后暂缓更新，
		// 防止硬声像的瞬态让输出每帧左右乱跳。
		PauseEnabled      bool
		PauseFactor       float64       // >= 1.0，偏离最大时的保持时间倍数
		PauseBaseInterval time.Duration // 居中时两次更新的最小间隔
	}

	// --- 频段分解 (Bands) ---
	Bands struct {
		Enabled         [NumBands]bool // 关闭的频段输出 0，且不参与归一化
		Smoothing       float64        // 每个频段的指数平滑系数 (0.0 - 1.0)
		ScaleWithVolume bool           // 用平滑音量缩放频段能量（否则归一化到总和约 1）
	}

	// --- 峰值检测 (Spike) ---
	Spike struct {
		Threshold    float64       // 超过滑动均值多少倍视为峰值 (>= 1.0)
		HoldDuration time.Duration // 峰值触发后保持的时长

		// Habituation: 对重复峰值逐渐脱敏，并随时间指数衰减恢复。
		HabituationEnabled   bool
		HabituationIncrease  float64 // 每次触发增加的脱敏量 (0.0 - 1.0)
		HabituationDecay     float64 // 每秒指数衰减率
		HabituationThreshold float64 // 脱敏超过此值后不再触发 (0.0 - 1.0)
	}

	// --- 自动增益 (AGC) ---
	AGC struct {
		TargetLevel float64 // 控制器追踪的目标响度
		RiseStep    float64 // 增益需要上调时的步长（小步长防止泵效应）
		FallStep    float64 // 增益需要下调时的步长（大步长快速压制爆音）
		MinGain     float64
		MaxGain     float64
	}
}

// DefaultConfig 返回一个包含当前最佳实践的默认配置
func DefaultConfig() *Config {
	cfg := &Config{
		Gain:            1.0,
		AGCEnabled:      true,
		VolumeSmoothing: 0.7,
	}

	cfg.Loudness.RMSGain = 4.0
	cfg.Loudness.RMSWeight = 0.7
	cfg.Loudness.SpectralGain = 0.25
	cfg.Loudness.SpectralWeight = 0.3

	cfg.Direction.Threshold = 0.05
	cfg.Direction.Enhanced = false
	cfg.Direction.MagnitudeWeight = 0.7
	cfg.Direction.PhaseAnalysis = true
	cfg.Direction.PauseEnabled = false
	cfg.Direction.PauseFactor = 3.0
	cfg.Direction.PauseBaseInterval = 50 * time.Millisecond

	for i := range cfg.Bands.Enabled {
		cfg.Bands.Enabled[i] = true
	}
	cfg.Bands.Smoothing = 0.6
	cfg.Bands.ScaleWithVolume = false

	cfg.Spike.Threshold = 2.0
	cfg.Spike.HoldDuration = 500 * time.Millisecond
	cfg.Spike.HabituationEnabled = true
	cfg.Spike.HabituationIncrease = 0.25
	cfg.Spike.HabituationDecay = 0.15
	cfg.Spike.HabituationThreshold = 0.75

	cfg.AGC.TargetLevel = 0.5
	cfg.AGC.RiseStep = 0.1
	cfg.AGC.FallStep = 0.3
	cfg.AGC.MinGain = 0.1
	cfg.AGC.MaxGain = 5.0

	return cfg
}

// sanitized 返回一份所有参数都已约束到合法范围的工作副本。
// 注意：不修改传入的快照本身，保证应用后读回的配置与提供的完全一致。
func (c *Config) sanitized() Config {
	s := *c

	s.VolumeSmoothing = clamp01(s.VolumeSmoothing)

	s.Loudness.RMSGain = clampRange(s.Loudness.RMSGain, 0, 100)
	s.Loudness.RMSWeight = clamp01(s.Loudness.RMSWeight)
	s.Loudness.SpectralGain = clampRange(s.Loudness.SpectralGain, 0, 100)
	s.Loudness.SpectralWeight = clamp01(s.Loudness.SpectralWeight)

	s.Direction.Threshold = clamp01(s.Direction.Threshold)
	s.Direction.MagnitudeWeight = clamp01(s.Direction.MagnitudeWeight)
	if s.Direction.PauseFactor < 1 {
		s.Direction.PauseFactor = 1
	}
	if s.Direction.PauseBaseInterval < 0 {
		s.Direction.PauseBaseInterval = 0
	}

	s.Bands.Smoothing = clamp01(s.Bands.Smoothing)

	if s.Spike.Threshold < 1 {
		s.Spike.Threshold = 1
	}
	if s.Spike.HoldDuration < 0 {
		s.Spike.HoldDuration = 0
	}
	s.Spike.HabituationIncrease = clamp01(s.Spike.HabituationIncrease)
	s.Spike.HabituationDecay = clampRange(s.Spike.HabituationDecay, 0, 10)
	s.Spike.HabituationThreshold = clamp01(s.Spike.HabituationThreshold)

	if s.AGC.MinGain <= 0 {
		s.AGC.MinGain = 0.1
	}
	if s.AGC.MaxGain < s.AGC.MinGain {
		s.AGC.MaxGain = s.AGC.MinGain
	}
	s.AGC.TargetLevel = clamp01(s.AGC.TargetLevel)
	s.AGC.RiseStep = clamp01(s.AGC.RiseStep)
	s.AGC.FallStep = clamp01(s.AGC.FallStep)
	s.Gain = clampRange(s.Gain, s.AGC.MinGain, s.AGC.MaxGain)

	return s
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
