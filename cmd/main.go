package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"audiolink"
)

func main() {
	// 1. 解析命令行参数
	deviceName := flag.String("device", "", "Capture device name (substring match)")
	inputFile := flag.String("file", "", "Input wav file for replay testing")
	recordAudio := flag.Bool("record", false, "Record audio to capture.wav")
	csvFile := flag.String("csv", "", "Dump per-frame results to a csv file")
	enhanced := flag.Bool("enhanced", false, "Use enhanced (magnitude+phase) direction mode")
	showParams := flag.Bool("params", false, "Print throttled parameter updates instead of the meter")
	monitor := flag.Bool("monitor", false, "Print periodic diagnostic summaries")
	flag.Parse()

	// 2. 初始化会话
	cfg := audiolink.DefaultConfig()
	cfg.Direction.Enhanced = *enhanced

	var sink audiolink.ParamSink
	if *showParams {
		sink = audiolink.ConsoleSink{}
	}

	session := audiolink.NewSession(cfg, sink)
	session.AudioDeviceName = *deviceName

	if *inputFile != "" {
		session.SetReplayFile(*inputFile)
	}
	if *recordAudio {
		session.EnableRecording("capture.wav")
	}
	if *csvFile != "" {
		session.EnableCsvDump(*csvFile)
	}
	if *monitor {
		session.EnableMonitor()
	}
	if !*showParams {
		session.OnResult = renderMeter
	}

	// 3. 启动会话
	if err := session.Start(); err != nil {
		log.Fatalf("Session start failed: %v", err)
	}
	defer session.Stop()

	// 4. 阻塞等待退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Println("Analyzing. Press Ctrl+C to quit.")
	<-sigChan
	fmt.Println("\nShutting down...")
}

// renderMeter 在一行内绘制音量条、方向指针和七个频段。
func renderMeter(out audiolink.Outcome) {
	var b strings.Builder

	b.WriteString("\r[")
	b.WriteString(bar(out.Volume, 20))
	b.WriteString("] ")

	// 方向指针：21 格，中间是居中
	pos := int(out.Direction * 20)
	for i := 0; i <= 20; i++ {
		switch {
		case i == pos:
			b.WriteByte('|')
		case i == 10:
			b.WriteByte('+')
		default:
			b.WriteByte('-')
		}
	}

	b.WriteString("  ")
	for _, v := range out.Bands {
		b.WriteByte(levelChar(v))
	}

	if out.Spike {
		b.WriteString("  SPIKE")
	} else {
		b.WriteString("       ")
	}

	fmt.Print(b.String())
}

func bar(v float64, width int) string {
	filled := int(v * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat("#", filled) + strings.Repeat(" ", width-filled)
}

func levelChar(v float64) byte {
	levels := []byte(" .:-=+*#")
	idx := int(v * float64(len(levels)))
	if idx >= len(levels) {
		idx = len(levels) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return levels[idx]
}
