package audiolink

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// FrameCallback 定义帧回调函数类型。回调运行在采集线程上，
// 传入的 Frame 只在本次调用内有效。
type FrameCallback func(frame Frame)

// AudioCapture 管理系统回采 (loopback) 音频流：立体声 float32，
// 固定采样率。回采不可用时退回普通采集设备。
type AudioCapture struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	SampleRate int
	Callback   FrameCallback
}

// NewAudioCapture 创建新的音频采集实例。
// targetDeviceName 非空时按名称子串匹配选择设备。
func NewAudioCapture(sampleRate int, targetDeviceName string, callback FrameCallback) (*AudioCapture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init malgo context: %w", err)
	}

	ac := &AudioCapture{
		ctx:        ctx,
		SampleRate: sampleRate,
		Callback:   callback,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Loopback)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 2
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if targetDeviceName != "" {
		infos, err := ctx.Devices(malgo.Playback)
		if err == nil {
			for _, info := range infos {
				if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(targetDeviceName)) {
					deviceConfig.Capture.DeviceID = info.ID.Pointer()
					fmt.Printf("Selected Audio Device: %s\n", info.Name())
					break
				}
			}
		}
	}

	onRecvFrames := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		if ac.Callback == nil || len(pInputSamples) == 0 {
			return
		}
		samples := unsafe.Slice((*float32)(unsafe.Pointer(&pInputSamples[0])), int(framecount)*2)
		ac.Callback(Frame{Samples: samples, ByteCount: len(pInputSamples)})
	}

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: onRecvFrames,
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		// 平台不支持 loopback 时退回普通采集设备
		deviceConfig.DeviceType = malgo.Capture
		deviceConfig.Capture.DeviceID = nil
		device, err = malgo.InitDevice(ctx.Context, deviceConfig, deviceCallbacks)
		if err != nil {
			_ = ctx.Uninit()
			ctx.Free()
			return nil, fmt.Errorf("failed to init device: %w", err)
		}
		fmt.Println("Loopback unavailable, using capture device.")
	}
	ac.device = device

	fmt.Printf("Audio Device Initialized. Rate: %d Hz\n", device.SampleRate())

	return ac, nil
}

// Start 启动音频采集
func (ac *AudioCapture) Start() error {
	if ac.device == nil {
		return fmt.Errorf("device not initialized")
	}
	return ac.device.Start()
}

// Stop 停止音频采集并释放资源。可重复调用。
func (ac *AudioCapture) Stop() {
	if ac.device != nil {
		ac.device.Uninit()
		ac.device = nil
	}
	if ac.ctx != nil {
		_ = ac.ctx.Uninit()
		ac.ctx.Free()
		ac.ctx = nil
	}
}
