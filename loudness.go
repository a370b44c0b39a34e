package audiolink

import (
	"math"
	"math/cmplx"
)

// 频谱功率求和的上限频率，高于此的 bin 不计入响度
const loudnessMaxFreq = 20000.0

// LoudnessEstimator 将时域 RMS 和频域功率混合为一个原始响度值。
// 单独的 RMS 低估瞬态/高亮内容的感知响度，单独的频谱功率又高估
// 宽带噪声，两者按配置的权重混合。输出未做限幅，增益在后级应用。
type LoudnessEstimator struct {
	sampleRate float64
}

func NewLoudnessEstimator(sampleRate float64) *LoudnessEstimator {
	return &LoudnessEstimator{sampleRate: sampleRate}
}

// Estimate 根据未加窗的单声道采样及其频谱计算原始响度。
// mono 是真实采样 (不含补零)，spectrum 是同一帧加窗后的单边频谱。
func (le *LoudnessEstimator) Estimate(mono []float64, spectrum []complex128, cfg *Config) float64 {
	rms := rmsOf(mono)
	sp := le.spectralPower(spectrum)

	return rms*cfg.Loudness.RMSGain*cfg.Loudness.RMSWeight +
		sp*cfg.Loudness.SpectralGain*cfg.Loudness.SpectralWeight
}

// spectralPower 对 DC 到最接近 20 kHz 的 bin 求功率均值再开方。
func (le *LoudnessEstimator) spectralPower(spectrum []complex128) float64 {
	numBins := len(spectrum)
	if numBins < 2 {
		return 0
	}
	binWidth := le.sampleRate / (2 * float64(numBins-1))

	limit := int(math.Round(loudnessMaxFreq / binWidth))
	if limit > numBins-1 {
		limit = numBins - 1
	}

	var sum float64
	for i := 0; i <= limit; i++ {
		mag := cmplx.Abs(spectrum[i])
		sum += mag * mag
	}
	return math.Sqrt(sum / float64(limit+1))
}

func rmsOf(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}
