package Filters

// AGCParams AGC 的工作参数，由调用方每帧传入（来自当前配置快照）。
type AGCParams struct {
	Enabled     bool
	StaticGain  float64 // 禁用 AGC 时直接使用；启用时作为调整锚点
	TargetLevel float64 // 追踪的目标响度 (例如 0.5)
	RiseStep    float64 // 增益上调步长 (信号偏弱时)，小步长防止泵效应
	FallStep    float64 // 增益下调步长 (信号偏强时)，大步长快速压制爆音
	MinGain     float64
	MaxGain     float64
}

// 低于此响度不做增益调整，避免在静音时把增益推到上限
const agcSilenceFloor = 0.001

// AGC 实现目标追踪式自动增益控制。
// 与“快充慢放”的包络归一化不同，这里直接朝 target/(raw*gain) 推算出的
// 新目标增益做非对称步进：上调慢、下调快。
type AGC struct {
	gain float64
}

// NewAGC 创建控制器，initialGain 为起始增益。
func NewAGC(initialGain float64) *AGC {
	if initialGain <= 0 {
		initialGain = 1.0
	}
	return &AGC{gain: initialGain}
}

// Gain 返回当前增益。
func (a *AGC) Gain() float64 { return a.gain }

// Reset 将增益重置为给定值 (会话重置时使用)。
func (a *AGC) Reset(gain float64) {
	if gain <= 0 {
		gain = 1.0
	}
	a.gain = gain
}

// Update 根据原始响度调整并返回增益。增益始终被约束在 [MinGain, MaxGain]。
func (a *AGC) Update(rawVolume float64, p AGCParams) float64 {
	if !p.Enabled {
		a.gain = p.StaticGain
	} else if rawVolume > agcSilenceFloor {
		// adjustment > 1 说明输出偏弱，增益应该上升
		adjustment := p.TargetLevel / (rawVolume * a.gain)
		target := p.StaticGain * adjustment

		step := p.FallStep
		if adjustment > 1 {
			step = p.RiseStep
		}
		a.gain += (target - a.gain) * step
	}

	if a.gain < p.MinGain {
		a.gain = p.MinGain
	}
	if a.gain > p.MaxGain {
		a.gain = p.MaxGain
	}
	return a.gain
}

// SoftClip 对增益后的音量做倒数软拐点压缩，输出限制在 [0, 1]。
// 拐点在 1.0 处连续 (输入 1.0 输出正好 1.0)，超过拐点的部分
// 按 2 - 1/v 饱和，没有硬限幅的折角。
func SoftClip(v float64) float64 {
	if v <= 0 {
		return 0
	}
	if v > 1 {
		v = 2 - 1/v
	}
	if v > 1 {
		v = 1
	}
	return v
}
