package utils

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Log 进程级 logger，main 里调用 Init 之后可用；测试里保持默认（写 stderr）
var Log = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, TimeFormat: time.DateTime})

func Init() {
	Log = NewLogger(os.Stderr)
}

// NewLogger 带彩色等级样式的 charmbracelet logger
func NewLogger(w io.Writer) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	styles := log.DefaultStyles()
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO🌟").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#90EE9080")).
		Foreground(lipgloss.Color("#006400FF")).Bold(true)

	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN🍪").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#FFA500FF")).
		Foreground(lipgloss.Color("#000000FF")).Bold(true)

	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR🔥").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#FF0000FF")).
		Foreground(lipgloss.Color("#00FFFF00")).Bold(true)

	styles.Levels[log.FatalLevel] = lipgloss.NewStyle().
		SetString("FATAL⚡️").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#000000FF")).
		Foreground(lipgloss.Color("#00FFFF00")).Bold(true)
	l.SetStyles(styles)
	return l
}

// Diagnostics 诊断事件的落地：fire-and-forget，格式化出错也不会影响调用方
type Diagnostics struct {
	logger *log.Logger
}

func NewDiagnostics(l *log.Logger) *Diagnostics {
	return &Diagnostics{logger: l.WithPrefix("diag")}
}

// Log 失败类事件记 Warn，其余记 Info；payload 按 key 排序后展开成键值对
func (d *Diagnostics) Log(kind string, payload map[string]any) {
	if d == nil || d.logger == nil {
		return
	}
	defer func() { _ = recover() }()

	kv := make([]any, 0, len(payload)*2)
	for _, k := range sortedKeys(payload) {
		kv = append(kv, k, payload[k])
	}
	if isFailure(kind) {
		d.logger.Warn(kind, kv...)
		return
	}
	d.logger.Info(kind, kv...)
}
