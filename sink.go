package audiolink

import (
	"fmt"
	"time"
)

// ParamSink 接收命名参数更新的下游 (avatar 参数传输方)。
// 分析核心只负责产出数值，投递方式由实现方决定。
type ParamSink interface {
	SetFloat(name string, value float64)
	SetBool(name string, value bool)
}

// 投递给 ParamSink 的参数名
const (
	ParamVolume    = "audio_volume"
	ParamDirection = "audio_direction"
	ParamSpike     = "audio_spike"
)

// BandParamName 返回第 i 个频段的参数名，例如 "audio_band_bass"。
func BandParamName(i int) string {
	return "audio_band_" + BandNames[i]
}

// sinkThrottle 对参数投递做节流：浮点值只有变化超过 epsilon
// 且距上次发送超过最小间隔才转发；spike 布尔值在变化时立即转发。
type sinkThrottle struct {
	epsilon     float64
	minInterval time.Duration

	lastValue map[string]float64
	lastSent  map[string]time.Time

	spikeSent  bool
	spikeValue bool
}

func newSinkThrottle(epsilon float64, minInterval time.Duration) *sinkThrottle {
	return &sinkThrottle{
		epsilon:     epsilon,
		minInterval: minInterval,
		lastValue:   make(map[string]float64),
		lastSent:    make(map[string]time.Time),
	}
}

// Forward 把一帧结果按节流规则转发给 sink。
func (t *sinkThrottle) Forward(sink ParamSink, out Outcome, now time.Time) {
	if sink == nil {
		return
	}

	t.forwardFloat(sink, ParamVolume, out.Volume, now)
	t.forwardFloat(sink, ParamDirection, out.Direction, now)
	for i, v := range out.Bands {
		t.forwardFloat(sink, BandParamName(i), v, now)
	}

	if !t.spikeSent || out.Spike != t.spikeValue {
		sink.SetBool(ParamSpike, out.Spike)
		t.spikeSent = true
		t.spikeValue = out.Spike
	}
}

func (t *sinkThrottle) forwardFloat(sink ParamSink, name string, value float64, now time.Time) {
	prev, seen := t.lastValue[name]
	if seen {
		delta := value - prev
		if delta < 0 {
			delta = -delta
		}
		if delta <= t.epsilon || now.Sub(t.lastSent[name]) < t.minInterval {
			return
		}
	}
	sink.SetFloat(name, value)
	t.lastValue[name] = value
	t.lastSent[name] = now
}

// ConsoleSink 把参数更新打印到标准输出，调试用。
type ConsoleSink struct{}

func (ConsoleSink) SetFloat(name string, value float64) {
	fmt.Printf("[PARAM] %s = %.4f\n", name, value)
}

func (ConsoleSink) SetBool(name string, value bool) {
	fmt.Printf("[PARAM] %s = %v\n", name, value)
}
