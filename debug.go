package audiolink

import (
	"bufio"
	"fmt"
	"os"
)

// ResultDebugger 定义调试器接口，会话只依赖接口，不依赖具体文件操作。
type ResultDebugger interface {
	Record(out Outcome)
	Close()
}

// CsvResultDebugger 把每帧结果追加到 CSV 文件，用于离线调参。
type CsvResultDebugger struct {
	file   *os.File
	writer *bufio.Writer
}

// NewCsvResultDebugger 创建一个新的 CSV 调试器
func NewCsvResultDebugger(filename string) (*CsvResultDebugger, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	w := bufio.NewWriter(f)
	header := "Volume,Direction,SubBass,Bass,LowMid,Mid,UpperMid,Presence,Brilliance,Spike,Degraded\n"
	if _, err := w.WriteString(header); err != nil {
		f.Close()
		return nil, err
	}

	return &CsvResultDebugger{
		file:   f,
		writer: w,
	}, nil
}

// Record 记录单帧数据
func (d *CsvResultDebugger) Record(out Outcome) {
	spike := 0
	if out.Spike {
		spike = 1
	}
	degraded := 0
	if out.Degraded {
		degraded = 1
	}
	fmt.Fprintf(d.writer, "%f,%f,%f,%f,%f,%f,%f,%f,%f,%d,%d\n",
		out.Volume, out.Direction,
		out.Bands[0], out.Bands[1], out.Bands[2], out.Bands[3],
		out.Bands[4], out.Bands[5], out.Bands[6],
		spike, degraded)
}

// Close 关闭文件并刷新缓冲区
func (d *CsvResultDebugger) Close() {
	if d.writer != nil {
		d.writer.Flush()
	}
	if d.file != nil {
		d.file.Close()
	}
}

// NoOpDebugger 空实现，不需要记录时使用，省去核心路径上的 nil 判断。
type NoOpDebugger struct{}

func (d *NoOpDebugger) Record(out Outcome) {}
func (d *NoOpDebugger) Close()             {}
