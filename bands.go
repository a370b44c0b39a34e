package audiolink

import (
	"math"
	"math/cmplx"
)

// NumBands 固定的感知频段数量。
const NumBands = 7

// BandNames 各频段的参数名后缀，顺序与 bandRanges 一致。
var BandNames = [NumBands]string{
	"subbass",    // 20 - 60 Hz
	"bass",       // 60 - 250 Hz
	"lowmid",     // 250 - 500 Hz
	"mid",        // 500 - 2000 Hz
	"uppermid",   // 2000 - 4000 Hz
	"presence",   // 4000 - 6000 Hz
	"brilliance", // 6000 - 25000 Hz
}

// bandRanges 各频段的 [low, high) 边界 (Hz)。
var bandRanges = [NumBands][2]float64{
	{20, 60},
	{60, 250},
	{250, 500},
	{500, 2000},
	{2000, 4000},
	{4000, 6000},
	{6000, 25000},
}

// 频段总能量低于此值视为静音，平滑值按系数衰减而不是跳零
const bandSilenceFloor = 0.001

// BandAnalyzer 将单边频谱映射为 7 个频段的能量。
type BandAnalyzer struct {
	sampleRate float64
}

func NewBandAnalyzer(sampleRate float64) *BandAnalyzer {
	return &BandAnalyzer{sampleRate: sampleRate}
}

// binWidth 单边频谱每个 bin 的带宽 (Hz)。
func (ba *BandAnalyzer) binWidth(numBins int) float64 {
	if numBins < 2 {
		return 0
	}
	return ba.sampleRate / (2 * float64(numBins-1))
}

// bandBinRange 返回中心频率严格落在频段内部的 bin 下标区间 [lo, hi]。
// 区间为空时 lo > hi。
func bandBinRange(low, high, binWidth float64, numBins int) (lo, hi int) {
	if binWidth <= 0 {
		return 1, 0
	}
	lo = int(math.Floor(low/binWidth)) + 1
	if float64(lo)*binWidth <= low {
		lo++
	}
	hi = int(math.Ceil(high/binWidth)) - 1
	if float64(hi)*binWidth >= high {
		hi--
	}
	if lo < 0 {
		lo = 0
	}
	if hi > numBins-1 {
		hi = numBins - 1
	}
	return lo, hi
}

// Powers 计算每个启用频段的 RMS 幅度 (sqrt(mean(|X|^2)))，
// 以及所有启用频段的能量总和。关闭的频段输出 0 且不计入总和。
// 使用幅度的均方根而不是平均幅度，保持能量语义。
func (ba *BandAnalyzer) Powers(spectrum []complex128, enabled [NumBands]bool) (powers [NumBands]float64, total float64) {
	numBins := len(spectrum)
	bw := ba.binWidth(numBins)

	for b := 0; b < NumBands; b++ {
		if !enabled[b] {
			continue
		}
		lo, hi := bandBinRange(bandRanges[b][0], bandRanges[b][1], bw, numBins)
		if lo > hi {
			continue
		}
		var sum float64
		for i := lo; i <= hi; i++ {
			mag := cmplx.Abs(spectrum[i])
			sum += mag * mag
		}
		powers[b] = math.Sqrt(sum / float64(hi-lo+1))
		total += powers[b]
	}
	return powers, total
}

// Update 将频谱分解结果写入平滑后的频段数组 (就地更新)。
// smoothedVolume 仅在 ScaleWithVolume 模式下使用。
func (ba *BandAnalyzer) Update(spectrum []complex128, cfg *Config, smoothedVolume float64, smoothed *[NumBands]float64) {
	powers, total := ba.Powers(spectrum, cfg.Bands.Enabled)
	k := cfg.Bands.Smoothing

	if total <= bandSilenceFloor {
		// 静音：让每个频段按平滑系数衰减，避免画面上的硬切
		for i := range smoothed {
			if !cfg.Bands.Enabled[i] {
				smoothed[i] = 0
				continue
			}
			smoothed[i] *= k
		}
		return
	}

	for i := 0; i < NumBands; i++ {
		if !cfg.Bands.Enabled[i] {
			smoothed[i] = 0
			continue
		}
		var v float64
		if cfg.Bands.ScaleWithVolume {
			v = powers[i] * smoothedVolume
		} else {
			v = powers[i] / total
		}
		smoothed[i] = smoothed[i]*k + v*(1-k)
	}
}
