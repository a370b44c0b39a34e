package audiolink

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WavReplay 从 WAV 文件按帧读取采样，用于离线调试和回放测试。
// 单声道文件会被复制成左右相同的立体声帧。
type WavReplay struct {
	file       *os.File
	decoder    *wav.Decoder
	SampleRate int
	Channels   int

	buf   *audio.IntBuffer
	scale float64
}

// NewWavReplay 打开回放文件。只支持 PCM WAV (go-audio 能解码的位深)。
func NewWavReplay(filename string) (*WavReplay, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("invalid wav file: %s", filename)
	}

	channels := int(decoder.NumChans)
	if channels < 1 || channels > 2 {
		f.Close()
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}

	return &WavReplay{
		file:       f,
		decoder:    decoder,
		SampleRate: int(decoder.SampleRate),
		Channels:   channels,
		scale:      1.0 / float64(int(1)<<(decoder.BitDepth-1)),
	}, nil
}

// ReadFrame 读取最多 pairs 对采样并组装成交织立体声帧。
// 文件读完时返回 io.EOF。
func (wr *WavReplay) ReadFrame(pairs int) (Frame, error) {
	need := pairs * wr.Channels
	if wr.buf == nil || len(wr.buf.Data) != need {
		wr.buf = &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: wr.Channels,
				SampleRate:  wr.SampleRate,
			},
			Data: make([]int, need),
		}
	}

	n, err := wr.decoder.PCMBuffer(wr.buf)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return Frame{}, err
	}

	got := n / wr.Channels
	samples := make([]float32, got*2)
	for i := 0; i < got; i++ {
		l := float32(float64(wr.buf.Data[i*wr.Channels]) * wr.scale)
		r := l
		if wr.Channels == 2 {
			r = float32(float64(wr.buf.Data[i*wr.Channels+1]) * wr.scale)
		}
		samples[2*i] = l
		samples[2*i+1] = r
	}

	return Frame{Samples: samples, ByteCount: len(samples) * 4}, nil
}

// Close 关闭回放文件
func (wr *WavReplay) Close() error {
	return wr.file.Close()
}
