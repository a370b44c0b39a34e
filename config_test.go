package audiolink

import "testing"

func TestSanitized_ClampsRanges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VolumeSmoothing = 1.7
	cfg.Bands.Smoothing = -0.3
	cfg.Direction.MagnitudeWeight = 2.0
	cfg.Direction.PauseFactor = 0.2
	cfg.Spike.Threshold = 0.5
	cfg.Spike.HabituationIncrease = -1
	cfg.Gain = 99

	s := cfg.sanitized()
	if s.VolumeSmoothing != 1.0 {
		t.Errorf("VolumeSmoothing: got %v, want 1.0", s.VolumeSmoothing)
	}
	if s.Bands.Smoothing != 0 {
		t.Errorf("Bands.Smoothing: got %v, want 0", s.Bands.Smoothing)
	}
	if s.Direction.MagnitudeWeight != 1.0 {
		t.Errorf("MagnitudeWeight: got %v, want 1.0", s.Direction.MagnitudeWeight)
	}
	if s.Direction.PauseFactor != 1.0 {
		t.Errorf("PauseFactor: got %v, want 1.0", s.Direction.PauseFactor)
	}
	if s.Spike.Threshold != 1.0 {
		t.Errorf("Spike.Threshold: got %v, want 1.0", s.Spike.Threshold)
	}
	if s.Spike.HabituationIncrease != 0 {
		t.Errorf("HabituationIncrease: got %v, want 0", s.Spike.HabituationIncrease)
	}
	if s.Gain != s.AGC.MaxGain {
		t.Errorf("Gain: got %v, want clamped to %v", s.Gain, s.AGC.MaxGain)
	}

	// 原快照不能被改动
	if cfg.VolumeSmoothing != 1.7 || cfg.Gain != 99 {
		t.Error("sanitized mutated the source snapshot")
	}
}

func TestSanitized_InRangeUntouched(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.sanitized()
	if s != *cfg {
		t.Errorf("default config changed by sanitized:\n got %+v\nwant %+v", s, *cfg)
	}
}
