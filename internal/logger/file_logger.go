package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes the trading session log of one symbol and interval
type Logger struct {
	symbol   string
	interval string
	logFile  *os.File
	logger   *log.Logger
	mu       sync.Mutex
	logPath  string
	now      func() time.Time
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
	LogLevelStatus  LogLevel = "STATUS"
)

const timeLayout = "2006-01-02 15:04:05"

// Options controls where the log goes
type Options struct {
	Dir    string // defaults to "logs"
	Stdout bool   // mirror every entry to stdout
}

// NewLogger creates logs/<symbol>_<interval>_<date>.log and writes the session header
func NewLogger(symbol, interval string, opts Options) (*Logger, error) {
	logDir := opts.Dir
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.log", symbol, interval, time.Now().Format("2006-01-02"))
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	var out io.Writer = file
	if opts.Stdout {
		out = io.MultiWriter(file, os.Stdout)
	}

	l := &Logger{
		symbol:   symbol,
		interval: interval,
		logFile:  file,
		logger:   log.New(out, "", 0),
		logPath:  logPath,
		now:      time.Now,
	}

	l.writeSessionHeader()

	return l, nil
}

// NewWriterLogger logs to w without a file, used by the backtest tool and tests
func NewWriterLogger(symbol, interval string, w io.Writer) *Logger {
	return &Logger{
		symbol:   symbol,
		interval: interval,
		logger:   log.New(w, "", 0),
		now:      time.Now,
	}
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return NewWriterLogger("", "", io.Discard)
}

func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
DEMA TRADING SESSION STARTED
================================================================================
Symbol: %s | Interval: %s
Started: %s
Log File: %s
================================================================================
`, l.symbol, l.interval, l.now().Format(timeLayout), l.logPath)

	l.logger.Print(header)
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s", l.now().Format(timeLayout), level, message)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Trade logs an order event
func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

// Status logs market status information
func (l *Logger) Status(format string, args ...interface{}) {
	l.Log(LogLevelStatus, format, args...)
}

// LogMarketStatus logs the inputs and outcome of one trading cycle
func (l *Logger) LogMarketStatus(price, dema float64, position string, action string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	statusLog := fmt.Sprintf(`
[%s] [STATUS] ==================== MARKET STATUS ====================
Price: %.8g | DEMA: %.8g | Spread: %.4f%%
Position: %s | Action: %s
==========================================================`,
		l.now().Format(timeLayout), price, dema, (price-dema)/dema*100, position, action)

	l.logger.Println(statusLog)
}

// LogTradeExecution logs an acknowledged order
func (l *Logger) LogTradeExecution(side, orderID string, quantity, price float64, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tradeLog := fmt.Sprintf(`
[%s] [TRADE] ==================== %s PLACED ====================
Order ID: %s
Quantity: %g %s
Price: %.8g
Reason: %s
=============================================================`,
		l.now().Format(timeLayout), side, orderID, quantity, l.symbol, price, reason)

	l.logger.Println(tradeLog)
}

// LogOrderReverted logs an order that ended without filling
func (l *Logger) LogOrderReverted(orderID, reason, position string) {
	l.Trade("Order %s %s, position back to %s", orderID, reason, position)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// LogWarning logs warning with context
func (l *Logger) LogWarning(context string, message string, args ...interface{}) {
	l.Warning("%s: %s", context, fmt.Sprintf(message, args...))
}

// Close writes the session footer and closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile == nil {
		return nil
	}

	footer := fmt.Sprintf(`
================================================================================
DEMA TRADING SESSION ENDED
================================================================================
Ended: %s
================================================================================

`, l.now().Format(timeLayout))
	l.logger.Print(footer)

	err := l.logFile.Close()
	l.logFile = nil
	return err
}

// GetLogPath returns the log file path, empty for writer loggers
func (l *Logger) GetLogPath() string {
	return l.logPath
}
