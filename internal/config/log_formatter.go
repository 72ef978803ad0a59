package config

import (
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	colorRed         = 31
	colorGreen       = 32
	colorYellow      = 33
	colorBlue        = 36
	colorGray        = 37
	colorLightGreen  = 92
	colorLightYellow = 93
	colorCyan        = 96
)

// NbFormatter renders colored key=value lines with fields in stable order.
type NbFormatter struct {
	// WithSource adds the caller file:line, resolved six frames up from Format.
	WithSource bool
}

func paint(color int, s string) string {
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, s)
}

func levelColor(level log.Level) int {
	switch level {
	case log.DebugLevel, log.TraceLevel:
		return colorGray
	case log.WarnLevel:
		return colorYellow
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		return colorRed
	default:
		return colorBlue
	}
}

func (f *NbFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b strings.Builder

	level := strings.ToUpper(entry.Level.String())[:4]
	b.WriteString(paint(colorCyan, "level") + "=" + paint(levelColor(entry.Level), level))
	b.WriteString(" " + paint(colorCyan, "ts") + "=" + paint(colorLightYellow, entry.Time.Format("2006-01-02 15:04:05.000")))

	if f.WithSource {
		if _, file, line, ok := runtime.Caller(6); ok {
			b.WriteString(" " + paint(colorCyan, "source") + "=" + paint(colorLightYellow, fmt.Sprintf("%s:%d", file, line)))
		}
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		val := entry.Data[k]
		if err, ok := val.(error); ok {
			val = err.Error()
		}
		m, err := json.Marshal(val)
		if err != nil || len(m) == 0 {
			continue
		}
		s := string(m)
		valueColor := colorCyan
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			valueColor = colorGreen
		} else if strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"") {
			valueColor = colorLightYellow
		}
		b.WriteString(" " + paint(colorCyan, k) + "=" + paint(valueColor, s))
	}
	b.WriteString(" " + paint(colorCyan, "msg") + "=" + paint(colorLightGreen, strconv.Quote(entry.Message)))

	output := strings.NewReplacer("\r", "\\r", "\n", "\\n").Replace(b.String())
	return []byte(output + "\n"), nil
}
