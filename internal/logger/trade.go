package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

var (
	tradeMu  sync.Mutex
	tradeLog *log.Logger
)

// SetTradeWriter directs accepted/declined trade summaries to w. A nil writer
// disables the trade log.
func SetTradeWriter(w io.Writer) {
	tradeMu.Lock()
	defer tradeMu.Unlock()
	if w == nil {
		tradeLog = nil
		return
	}
	tradeLog = log.New(w, "", log.LstdFlags)
}

func writeTrade(line string) {
	tradeMu.Lock()
	l := tradeLog
	tradeMu.Unlock()
	if l == nil {
		return
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	l.Print(line)
}

// Trade writes a summary block to the trade log only.
func Trade(partner, action, reason, summary string) {
	var b strings.Builder
	b.WriteString("[TRADE]")
	for _, part := range []string{partner, action, reason} {
		if part == "" {
			continue
		}
		b.WriteString("[")
		b.WriteString(part)
		b.WriteString("]")
	}
	b.WriteString("\n")
	if summary = strings.TrimSpace(summary); summary != "" {
		b.WriteString(summary)
		b.WriteString("\n")
	}
	b.WriteString("=====")
	writeTrade(b.String())
}
