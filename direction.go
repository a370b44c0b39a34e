package audiolink

import (
	"math"
	"math/cmplx"
	"time"
)

// Enhanced 模式下各频段的感知权重 (sub-bass -> brilliance)。
// 中频方向感最强，权重最高；极低频和极高频的定位信息弱，权重压低。
var enhancedBandWeights = [NumBands]float64{0.8, 1.0, 1.2, 1.5, 1.3, 1.1, 0.9}

// 方向估计中各种除零保护的下限
const (
	directionPowerFloor = 0.001
	directionBinFloor   = 1e-6
)

// DirectionEstimator 根据左右声道频谱计算左右平衡 (0=左, 1=右, 0.5=居中)。
// 除 directional pause 的时间戳外没有内部状态，每帧独立计算。
type DirectionEstimator struct {
	sampleRate float64

	// directional pause 状态
	lastUpdate time.Time
}

func NewDirectionEstimator(sampleRate float64) *DirectionEstimator {
	return &DirectionEstimator{sampleRate: sampleRate}
}

// Reset 清空 directional pause 状态。
func (de *DirectionEstimator) Reset() {
	de.lastUpdate = time.Time{}
}

// Estimate 计算本帧方向。rawVolume 低于阈值时强制回中；
// directional pause 启用且尚未到更新时间时，返回 prev (上一帧的平滑方向)。
func (de *DirectionEstimator) Estimate(left, right []complex128, rawVolume, prev float64, cfg *Config, now time.Time) float64 {
	var dir float64
	switch {
	case rawVolume < cfg.Direction.Threshold:
		dir = 0.5
	case cfg.Direction.Enhanced:
		dir = de.enhanced(left, right, cfg)
	default:
		dir = de.basic(left, right, cfg)
	}

	if cfg.Direction.PauseEnabled {
		// 偏离中心越远，要求的更新间隔越长
		deviation := math.Abs(dir-0.5) * 2
		required := time.Duration(float64(cfg.Direction.PauseBaseInterval) *
			(1 + deviation*(cfg.Direction.PauseFactor-1)))
		if !de.lastUpdate.IsZero() && now.Sub(de.lastUpdate) < required {
			return prev
		}
		de.lastUpdate = now
	}

	return dir
}

// basic 按启用频段累加左右声道幅度，direction = rightPower / totalPower。
func (de *DirectionEstimator) basic(left, right []complex128, cfg *Config) float64 {
	numBins := len(left)
	if len(right) < numBins {
		numBins = len(right)
	}
	bw := de.binWidth(numBins)

	var leftPower, rightPower float64
	for b := 0; b < NumBands; b++ {
		if !cfg.Bands.Enabled[b] {
			continue
		}
		lo, hi := bandBinRange(bandRanges[b][0], bandRanges[b][1], bw, numBins)
		for i := lo; i <= hi; i++ {
			leftPower += cmplx.Abs(left[i])
			rightPower += cmplx.Abs(right[i])
		}
	}

	total := leftPower + rightPower
	if total < directionPowerFloor {
		return 0.5
	}
	return rightPower / total
}

// enhanced 逐 bin 混合幅度方向与相位方向，并按 bin 能量和频段权重加权平均。
func (de *DirectionEstimator) enhanced(left, right []complex128, cfg *Config) float64 {
	numBins := len(left)
	if len(right) < numBins {
		numBins = len(right)
	}
	bw := de.binWidth(numBins)
	magWeight := cfg.Direction.MagnitudeWeight

	var weightedSum, totalWeight float64
	for b := 0; b < NumBands; b++ {
		lo, hi := bandBinRange(bandRanges[b][0], bandRanges[b][1], bw, numBins)
		for i := lo; i <= hi; i++ {
			leftMag := cmplx.Abs(left[i])
			rightMag := cmplx.Abs(right[i])
			binTotal := leftMag + rightMag
			// 静音 bin 的相位是纯噪声，跳过以免其主导平均值
			if binTotal < directionBinFloor {
				continue
			}

			dir := rightMag / binTotal
			if cfg.Direction.PhaseAnalysis {
				phaseDir := phaseDirection(left[i], right[i])
				dir = magWeight*dir + (1-magWeight)*phaseDir
			}

			w := binTotal * enhancedBandWeights[b]
			weightedSum += dir * w
			totalWeight += w
		}
	}

	if totalWeight < directionBinFloor {
		return 0.5
	}
	return clamp01(weightedSum / totalWeight)
}

// phaseDirection 把左右声道的相位差 (wrap 到 [-Pi, Pi]) 线性映射到 [0, 1]。
func phaseDirection(left, right complex128) float64 {
	diff := cmplx.Phase(right) - cmplx.Phase(left)
	for diff > math.Pi {
		diff -= 2 * math.Pi
	}
	for diff < -math.Pi {
		diff += 2 * math.Pi
	}
	return (diff + math.Pi) / (2 * math.Pi)
}

func (de *DirectionEstimator) binWidth(numBins int) float64 {
	if numBins < 2 {
		return 0
	}
	return de.sampleRate / (2 * float64(numBins-1))
}
