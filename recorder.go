package audiolink

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WavRecorder 把采集到的立体声流写入 16-bit PCM WAV，供之后回放分析。
type WavRecorder struct {
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
}

// NewWavRecorder 创建录音文件。
func NewWavRecorder(filename string, sampleRate int) (*WavRecorder, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	return &WavRecorder{
		file:    f,
		encoder: wav.NewEncoder(f, sampleRate, 16, 2, 1),
	}, nil
}

// WriteFrame 写入一帧交织立体声采样 (float32 -> int16，带简单限幅)。
func (wr *WavRecorder) WriteFrame(frame Frame) error {
	n := len(frame.Samples)
	if wr.buf == nil || len(wr.buf.Data) != n {
		wr.buf = &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 2,
				SampleRate:  wr.encoder.SampleRate,
			},
			SourceBitDepth: 16,
			Data:           make([]int, n),
		}
	}

	for i, s := range frame.Samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		wr.buf.Data[i] = int(s * 32767)
	}

	return wr.encoder.Write(wr.buf)
}

// Close 写完 WAV 头并关闭文件
func (wr *WavRecorder) Close() error {
	if err := wr.encoder.Close(); err != nil {
		wr.file.Close()
		return err
	}
	return wr.file.Close()
}
