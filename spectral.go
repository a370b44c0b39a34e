package audiolink

import (
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// DefaultTransformSize 默认 FFT 点数。在本设计中变换尺寸在启动时确定，
// 之后不再变化 (运行期自适应调整被证明是无效操作，已移除)。
const DefaultTransformSize = 8192

// SpectralTransform 对定长采样缓冲区做加窗频域分解。
// 输出长度为 size/2+1 的单边复数频谱，已按 2/N 归一化，
// 并将 DC 与 Nyquist 两个边缘 bin 减半，避免频谱边缘能量被重复计算。
type SpectralTransform struct {
	size    int
	win     []float64
	scratch []float64
}

// NewSpectralTransform 创建变换器。size 必须是 2 的幂 (例如 8192)。
func NewSpectralTransform(size int) *SpectralTransform {
	if size <= 0 {
		size = DefaultTransformSize
	}
	st := &SpectralTransform{}
	st.rebuild(size)
	return st
}

// Size 返回当前 FFT 点数。
func (st *SpectralTransform) Size() int { return st.size }

// Bins 返回单边频谱的 bin 数量 (size/2 + 1)。
func (st *SpectralTransform) Bins() int { return st.size/2 + 1 }

// Resize 仅在点数变化时重建窗函数，点数相同则不做任何事。
func (st *SpectralTransform) Resize(size int) {
	if size <= 0 || size == st.size {
		return
	}
	st.rebuild(size)
}

func (st *SpectralTransform) rebuild(size int) {
	st.size = size
	st.win = window.Hamming(size)
	st.scratch = make([]float64, size)
}

// Transform 计算一帧采样的单边频谱。
// 输入短于 size 时补零，长于 size 时截断；不修改调用方的缓冲区。
func (st *SpectralTransform) Transform(samples []float64) []complex128 {
	n := copy(st.scratch, samples)
	for i := n; i < st.size; i++ {
		st.scratch[i] = 0
	}

	// 加 Hamming 窗
	for i := 0; i < st.size; i++ {
		st.scratch[i] *= st.win[i]
	}

	spectrum := fft.FFTReal(st.scratch)

	bins := st.size/2 + 1
	out := make([]complex128, bins)
	scale := complex(2.0/float64(st.size), 0)
	for i := 0; i < bins; i++ {
		out[i] = spectrum[i] * scale
	}

	// DC 和 Nyquist 只出现一次，减半以保持能量语义
	out[0] *= 0.5
	out[bins-1] *= 0.5

	return out
}
