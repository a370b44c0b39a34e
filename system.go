package audiolink

import (
	"fmt"
	"log"
	"time"
)

// 实时回放时每帧的采样对数
const replayChunkPairs = 2048

// 参数投递节流的默认值
const (
	defaultSinkEpsilon  = 0.005
	defaultSinkInterval = 50 * time.Millisecond
)

// Session 管理一次分析会话的完整生命周期：音频来源 (实时回采或
// WAV 回放)、帧处理器、可选的录音和 CSV 调试输出、参数投递。
// 构造/销毁顺序显式，子组件没有独立生命周期。
type Session struct {
	SampleRate      int
	AudioDeviceName string

	processor    *FrameProcessor
	audioCapture *AudioCapture
	wavReplay    *WavReplay
	wavRecorder  *WavRecorder
	monitor      *Monitor
	debugger     ResultDebugger

	sink     ParamSink
	throttle *sinkThrottle

	replayFile  string
	recordFile  string
	csvFile     string
	monitorOn   bool
	stopReplay  chan struct{}
	replayEnded chan struct{}

	// OnResult 每帧结果的回调 (可选)，在处理线程上调用。
	OnResult func(out Outcome)
}

// NewSession 创建会话。cfg 为 nil 时使用默认配置，sink 可以为 nil。
func NewSession(cfg *Config, sink ParamSink) *Session {
	return &Session{
		SampleRate: SampleRate,
		processor:  NewFrameProcessor(cfg),
		sink:       sink,
		throttle:   newSinkThrottle(defaultSinkEpsilon, defaultSinkInterval),
		debugger:   &NoOpDebugger{},
	}
}

// SetReplayFile 设置回放文件 (设置后将进入回放模式)
func (s *Session) SetReplayFile(filename string) {
	s.replayFile = filename
}

// EnableRecording 开启录音
func (s *Session) EnableRecording(filename string) {
	s.recordFile = filename
}

// EnableCsvDump 开启每帧结果的 CSV 输出
func (s *Session) EnableCsvDump(filename string) {
	s.csvFile = filename
}

// EnableMonitor 开启后台诊断摘要
func (s *Session) EnableMonitor() {
	s.monitorOn = true
}

// ApplyConfig 提交新的配置快照，下一帧生效。
func (s *Session) ApplyConfig(cfg *Config) {
	s.processor.ApplyConfig(cfg)
}

// Config 返回当前配置快照的副本。
func (s *Session) Config() *Config {
	return s.processor.Config()
}

// Start 启动会话
func (s *Session) Start() error {
	if s.csvFile != "" {
		debugger, err := NewCsvResultDebugger(s.csvFile)
		if err != nil {
			return fmt.Errorf("failed to create csv dump: %w", err)
		}
		s.debugger = debugger
	}

	if s.monitorOn {
		s.monitor = NewMonitor(time.Second)
		s.monitor.Start()
	}

	if s.replayFile != "" {
		var err error
		s.wavReplay, err = NewWavReplay(s.replayFile)
		if err != nil {
			return fmt.Errorf("failed to open replay file: %w", err)
		}
		s.SampleRate = s.wavReplay.SampleRate
		fmt.Printf("Mode: REPLAY (%s, %dHz)\n", s.replayFile, s.SampleRate)
		if s.SampleRate != SampleRate {
			log.Printf("Warning: replay rate %d differs from analysis rate %d, frequency ranges will be off",
				s.SampleRate, SampleRate)
		}

		s.stopReplay = make(chan struct{})
		s.replayEnded = make(chan struct{})
		go s.runReplayLoop()
		return nil
	}

	if s.recordFile != "" {
		var err error
		s.wavRecorder, err = NewWavRecorder(s.recordFile, s.SampleRate)
		if err != nil {
			return fmt.Errorf("failed to create wav file: %w", err)
		}
		fmt.Printf("Recording audio to %s\n", s.recordFile)
	}

	var err error
	s.audioCapture, err = NewAudioCapture(s.SampleRate, s.AudioDeviceName, s.handleFrame)
	if err != nil {
		return fmt.Errorf("failed to init audio capture: %w", err)
	}
	return s.audioCapture.Start()
}

// Stop 停止会话并释放资源。会话停止后分析状态全部作废，
// 重新 Start 等价于从零开始。
func (s *Session) Stop() {
	if s.audioCapture != nil {
		s.audioCapture.Stop()
		s.audioCapture = nil
	}
	if s.stopReplay != nil {
		close(s.stopReplay)
		<-s.replayEnded
		s.stopReplay = nil
	}
	if s.wavReplay != nil {
		s.wavReplay.Close()
		s.wavReplay = nil
	}
	if s.wavRecorder != nil {
		fmt.Println("\nSaving recording...")
		if err := s.wavRecorder.Close(); err != nil {
			log.Printf("Error closing recording: %v", err)
		}
		s.wavRecorder = nil
	}
	if s.monitor != nil {
		s.monitor.Stop()
		s.monitor = nil
	}
	s.debugger.Close()
	s.debugger = &NoOpDebugger{}
	s.processor.Reset()
}

// handleFrame 处理一帧：录音、分析、诊断、投递。
func (s *Session) handleFrame(frame Frame) {
	if s.wavRecorder != nil {
		if err := s.wavRecorder.WriteFrame(frame); err != nil {
			log.Printf("Error writing recording: %v", err)
		}
	}

	out := s.processor.ProcessFrame(frame)

	if s.monitor != nil {
		s.monitor.Push(out)
	}
	s.debugger.Record(out)
	s.throttle.Forward(s.sink, out, time.Now())

	if s.OnResult != nil {
		s.OnResult(out)
	}
}

// runReplayLoop 按真实速度把回放文件喂给处理器。
func (s *Session) runReplayLoop() {
	defer close(s.replayEnded)

	interval := time.Second * time.Duration(replayChunkPairs) / time.Duration(s.SampleRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fmt.Println("Replay started...")
	for {
		select {
		case <-s.stopReplay:
			return
		case <-ticker.C:
			frame, err := s.wavReplay.ReadFrame(replayChunkPairs)
			if err != nil {
				fmt.Println("\nEnd of file.")
				return
			}
			s.handleFrame(frame)
		}
	}
}
