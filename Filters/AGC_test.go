package Filters

import (
	"math"
	"math/rand"
	"testing"
)

func defaultAGCParams() AGCParams {
	return AGCParams{
		Enabled:     true,
		StaticGain:  1.0,
		TargetLevel: 0.5,
		RiseStep:    0.1,
		FallStep:    0.3,
		MinGain:     0.1,
		MaxGain:     5.0,
	}
}

func TestAGC_DisabledUsesStaticGain(t *testing.T) {
	agc := NewAGC(1.0)
	p := defaultAGCParams()
	p.Enabled = false
	p.StaticGain = 2.5

	for _, v := range []float64{0, 0.1, 0.9, 3.0} {
		if g := agc.Update(v, p); g != 2.5 {
			t.Errorf("volume %v: got gain %v, want static 2.5", v, g)
		}
	}
}

func TestAGC_GainStaysBounded(t *testing.T) {
	agc := NewAGC(1.0)
	p := defaultAGCParams()
	rng := rand.New(rand.NewSource(42))

	// 10000 帧随机响度，增益永远不能离开 [0.1, 5.0]
	for i := 0; i < 10000; i++ {
		v := rng.Float64() * 3.0
		g := agc.Update(v, p)
		if g < p.MinGain || g > p.MaxGain {
			t.Fatalf("frame %d: gain %v escaped [%v, %v]", i, g, p.MinGain, p.MaxGain)
		}
	}
}

func TestAGC_ConvergesToFixedPoint(t *testing.T) {
	agc := NewAGC(1.0)
	p := defaultAGCParams()

	// 恒定响度 0.25: 不动点满足 g = StaticGain*Target/(raw*g)，
	// 即 g = sqrt(1.0*0.5/0.25) = sqrt(2)
	for i := 0; i < 500; i++ {
		agc.Update(0.25, p)
	}
	want := math.Sqrt2
	if math.Abs(agc.Gain()-want) > 0.05 {
		t.Errorf("converged gain: got %v, want ~%v", agc.Gain(), want)
	}
}

func TestAGC_SilenceLeavesGainAlone(t *testing.T) {
	agc := NewAGC(2.0)
	p := defaultAGCParams()

	for i := 0; i < 100; i++ {
		agc.Update(0, p)
	}
	if agc.Gain() != 2.0 {
		t.Errorf("gain drifted on silence: %v", agc.Gain())
	}
}

func TestAGC_AsymmetricSteps(t *testing.T) {
	p := defaultAGCParams()

	// 信号偏弱 (adjustment > 1): 用小步长 RiseStep 上调
	up := NewAGC(1.0)
	up.Update(0.1, p) // target gain = 0.5/0.1 = 5
	gainAfterRise := up.Gain()
	wantRise := 1.0 + (5.0-1.0)*p.RiseStep
	if math.Abs(gainAfterRise-wantRise) > 1e-9 {
		t.Errorf("rise step: got %v, want %v", gainAfterRise, wantRise)
	}

	// 信号偏强 (adjustment < 1): 用大步长 FallStep 下调
	down := NewAGC(1.0)
	down.Update(2.0, p) // target gain = 0.5/2 = 0.25
	wantFall := 1.0 + (0.25-1.0)*p.FallStep
	if math.Abs(down.Gain()-wantFall) > 1e-9 {
		t.Errorf("fall step: got %v, want %v", down.Gain(), wantFall)
	}
}

func TestSoftClip_KneeAndMonotonic(t *testing.T) {
	inputs := []float64{0.5, 1.0, 1.5, 3.0}
	prev := -1.0
	for _, v := range inputs {
		out := SoftClip(v)
		if out < 0 || out > 1 {
			t.Errorf("SoftClip(%v) = %v out of [0, 1]", v, out)
		}
		if out < prev {
			t.Errorf("SoftClip not monotonic: f(%v) = %v < previous %v", v, out, prev)
		}
		prev = out
	}

	// 拐点必须精确命中
	if out := SoftClip(1.0); out != 1.0 {
		t.Errorf("SoftClip(1.0) = %v, want exactly 1.0", out)
	}

	// 拐点处连续
	if out := SoftClip(1.0 + 1e-9); math.Abs(out-1.0) > 1e-6 {
		t.Errorf("SoftClip discontinuous at knee: f(1+eps) = %v", out)
	}
}

func TestSoftClip_Identity(t *testing.T) {
	for _, v := range []float64{0, 0.25, 0.5, 0.99, 1.0} {
		if out := SoftClip(v); out != v {
			t.Errorf("SoftClip(%v) = %v, want identity below knee", v, out)
		}
	}
	if out := SoftClip(-0.5); out != 0 {
		t.Errorf("SoftClip(-0.5) = %v, want 0", out)
	}
}
