package audiolink

import (
	"math"
	"reflect"
	"testing"
	"time"
)

// makeStereoFrame 把左右两路 float64 采样交织成一帧
func makeStereoFrame(left, right []float64) Frame {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	samples := make([]float32, n*2)
	for i := 0; i < n; i++ {
		samples[2*i] = float32(left[i])
		samples[2*i+1] = float32(right[i])
	}
	return Frame{Samples: samples, ByteCount: len(samples) * 4}
}

func silentFrame(pairs int) Frame {
	z := make([]float64, pairs)
	return makeStereoFrame(z, z)
}

func TestProcessFrame_Silence(t *testing.T) {
	// 任意配置下，全零输入都必须给出规范的无信号结果
	for _, enhanced := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.Direction.Enhanced = enhanced

		p := NewFrameProcessor(cfg)
		out := p.ProcessFrame(silentFrame(DefaultTransformSize))

		if out.Degraded {
			t.Errorf("enhanced=%v: silent frame marked degraded", enhanced)
		}
		if out.Volume != 0 {
			t.Errorf("enhanced=%v: volume %v, want 0", enhanced, out.Volume)
		}
		if out.Direction != 0.5 {
			t.Errorf("enhanced=%v: direction %v, want 0.5", enhanced, out.Direction)
		}
		for i, b := range out.Bands {
			if b != 0 {
				t.Errorf("enhanced=%v: band %s = %v, want 0", enhanced, BandNames[i], b)
			}
		}
		if out.Spike {
			t.Errorf("enhanced=%v: spike on silence", enhanced)
		}
	}
}

func TestProcessFrame_ShortFrameDegrades(t *testing.T) {
	p := NewFrameProcessor(nil)

	out := p.ProcessFrame(silentFrame(64))
	if !out.Degraded {
		t.Error("frame below the minimum pair count not marked degraded")
	}
	if out.Volume != 0 || out.Direction != 0.5 || out.Spike {
		t.Errorf("short frame result not canonical empty: %+v", out.Result)
	}

	// 字节数与实际采样不符时以较小者为准
	frame := silentFrame(DefaultTransformSize)
	frame.ByteCount = 64 * 8
	if out := p.ProcessFrame(frame); !out.Degraded {
		t.Error("byte count below minimum not treated as empty")
	}
}

func TestProcessFrame_RightPannedTone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VolumeSmoothing = 0 // 禁用平滑，直接看单帧结果
	cfg.Bands.Smoothing = 0

	p := NewFrameProcessor(cfg)

	tone := generateSineWave(1000, DefaultTransformSize, SampleRate, 1.0)
	silence := make([]float64, DefaultTransformSize)
	out := p.ProcessFrame(makeStereoFrame(silence, tone))

	if out.Degraded {
		t.Fatal("valid frame marked degraded")
	}
	if out.Volume <= 0 || out.Volume > 1 {
		t.Errorf("volume %v outside (0, 1]", out.Volume)
	}
	if out.Direction < 0.99 {
		t.Errorf("direction %v, want ~1.0 for right-panned tone", out.Direction)
	}

	// 1000 Hz 落在 Mid (500-2000)，归一化后各频段之和约为 1
	var sum float64
	maxBand := 0
	for i, b := range out.Bands {
		sum += b
		if b > out.Bands[maxBand] {
			maxBand = i
		}
	}
	if maxBand != 3 {
		t.Errorf("dominant band %s, want mid", BandNames[maxBand])
	}
	if math.Abs(sum-1.0) > 0.01 {
		t.Errorf("band sum %v, want ~1.0", sum)
	}
}

func TestProcessFrame_VolumeBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AGCEnabled = false
	cfg.Gain = 5.0
	cfg.VolumeSmoothing = 0

	p := NewFrameProcessor(cfg)

	// 满幅方波配最大增益：软限幅后仍然不能超过 1
	square := make([]float64, DefaultTransformSize)
	for i := range square {
		if i%2 == 0 {
			square[i] = 1.0
		} else {
			square[i] = -1.0
		}
	}
	out := p.ProcessFrame(makeStereoFrame(square, square))
	if out.Volume < 0 || out.Volume > 1 {
		t.Errorf("volume %v escaped [0, 1]", out.Volume)
	}
}

func TestProcessFrame_SpikeOnImpulse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VolumeSmoothing = 0

	p := NewFrameProcessor(cfg)

	quiet := generateSineWave(440, DefaultTransformSize, SampleRate, 0.02)
	for i := 0; i < 60; i++ {
		if out := p.ProcessFrame(makeStereoFrame(quiet, quiet)); out.Spike {
			t.Fatalf("spike during stable baseline at frame %d", i)
		}
	}

	loud := generateSineWave(440, DefaultTransformSize, SampleRate, 0.9)
	if out := p.ProcessFrame(makeStereoFrame(loud, loud)); !out.Spike {
		t.Error("impulse after stable baseline did not spike")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	p := NewFrameProcessor(nil)

	cfg := DefaultConfig()
	cfg.Gain = 1.75
	cfg.VolumeSmoothing = 0.33
	cfg.Direction.Enhanced = true
	cfg.Bands.Enabled[5] = false
	cfg.Spike.HoldDuration = 123 * time.Millisecond

	p.ApplyConfig(cfg)
	got := p.Config()
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("config round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}

	// 越界值也必须原样读回：约束发生在使用时，不改动快照
	wild := DefaultConfig()
	wild.VolumeSmoothing = 1.7
	wild.Spike.Threshold = 0.2
	p.ApplyConfig(wild)
	if got := p.Config(); got.VolumeSmoothing != 1.7 || got.Spike.Threshold != 0.2 {
		t.Errorf("out-of-range values mutated on apply: %+v", got)
	}
}

func TestApplyConfig_TakesEffectNextFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VolumeSmoothing = 0
	cfg.Bands.Smoothing = 0

	p := NewFrameProcessor(cfg)
	tone := generateSineWave(1000, DefaultTransformSize, SampleRate, 1.0)

	out := p.ProcessFrame(makeStereoFrame(tone, tone))
	if out.Bands[3] == 0 {
		t.Fatal("mid band empty before config change")
	}

	next := DefaultConfig()
	next.VolumeSmoothing = 0
	next.Bands.Smoothing = 0
	next.Bands.Enabled[3] = false
	p.ApplyConfig(next)

	out = p.ProcessFrame(makeStereoFrame(tone, tone))
	if out.Bands[3] != 0 {
		t.Errorf("disabled mid band still reported %v after config swap", out.Bands[3])
	}
}

func TestProcessor_Reset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VolumeSmoothing = 0.9

	p := NewFrameProcessor(cfg)
	tone := generateSineWave(1000, DefaultTransformSize, SampleRate, 1.0)
	for i := 0; i < 10; i++ {
		p.ProcessFrame(makeStereoFrame(tone, tone))
	}

	p.Reset()
	out := p.ProcessFrame(silentFrame(DefaultTransformSize))
	if out.Volume != 0 || out.Direction != 0.5 {
		t.Errorf("state survived Reset: %+v", out.Result)
	}
}
