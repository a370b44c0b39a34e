package Filters

import (
	"math"
	"time"
)

// SpikeParams 峰值检测的工作参数，由调用方每帧传入。
type SpikeParams struct {
	Threshold    float64       // 超过滑动均值多少倍视为峰值
	MinVolume    float64       // 响度绝对下限，低于此值永不触发
	HoldDuration time.Duration // 触发后保持的时长

	HabituationEnabled   bool
	HabituationIncrease  float64 // 每次触发增加的脱敏量
	HabituationDecay     float64 // 每秒指数衰减率
	HabituationThreshold float64 // 脱敏超过此值后不再触发
}

// 滑动均值的更新权重 (avg = avg*0.9 + v*0.1)
const spikeAverageAlpha = 0.1

// SpikeDetector 检测响度相对滑动均值的突增。
// Habituation (脱敏) 机制让重复出现的峰值逐渐失效，并随时间指数衰减恢复。
// 触发与解除是不对称的：触发受脱敏门控，解除只看保持时间。
// 一旦触发，无论脱敏如何变化都会保持满 HoldDuration。
type SpikeDetector struct {
	average     float64
	spiking     bool
	activatedAt time.Time

	habituation float64
	lastDecay   time.Time
}

func NewSpikeDetector() *SpikeDetector {
	return &SpikeDetector{}
}

// Reset 清零全部状态 (会话重置时使用)。
func (sd *SpikeDetector) Reset() {
	*sd = SpikeDetector{}
}

// Average 返回当前的响度滑动均值 (诊断用)。
func (sd *SpikeDetector) Average() float64 { return sd.average }

// Habituation 返回当前脱敏水平 0..1 (诊断用)。
func (sd *SpikeDetector) Habituation() float64 { return sd.habituation }

// Update 处理一帧响度并返回当前的峰值标志。
// now 由调用方传入，保证测试可以精确控制时间。
func (sd *SpikeDetector) Update(volume float64, now time.Time, p SpikeParams) bool {
	// 1. 脱敏水平随时间指数衰减
	if p.HabituationEnabled {
		if !sd.lastDecay.IsZero() {
			elapsed := now.Sub(sd.lastDecay).Seconds()
			if elapsed > 0 {
				sd.habituation *= math.Exp(-p.HabituationDecay * elapsed)
			}
		}
		sd.lastDecay = now
	}

	// 2. 候选条件：显著超过均值，且绝对响度足够
	candidate := volume > sd.average*p.Threshold && volume > p.MinVolume

	switch {
	case candidate && (!p.HabituationEnabled || sd.habituation < p.HabituationThreshold):
		// 3. 触发：记录时间戳并抬高脱敏水平
		sd.spiking = true
		sd.activatedAt = now
		if p.HabituationEnabled {
			sd.habituation += p.HabituationIncrease
			if sd.habituation > 1 {
				sd.habituation = 1
			}
		}
	case sd.spiking && now.Sub(sd.activatedAt) >= p.HoldDuration:
		// 4. 保持时间已满，解除
		sd.spiking = false
	}

	// 5. 无条件更新滑动均值
	sd.average = sd.average*(1-spikeAverageAlpha) + volume*spikeAverageAlpha

	return sd.spiking
}
