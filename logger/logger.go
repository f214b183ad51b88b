package L

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// NOTE: populated at build time with -ldflags (-X)
var printCallerLocation string

// log levels
type LogLevel byte

const (
	DEBUG LogLevel = iota
	INFO
	NORMAL
	WARN
	ERROR
	PANIC
	SILENT
)

// color modes
type ColorMode int

const (
	COLOR_MODE_AUTO ColorMode = iota
	COLOR_MODE_ALWAYS
	COLOR_MODE_NEVER
)

// styles
// debug - blue
var debugStyle = lipgloss.NewStyle().Padding(0).Margin(0).
	Foreground(lipgloss.Color("4"))

// info - green
var infoStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("2"))

// no color - normal
var noColorStyle = lipgloss.NewStyle()

// warn - yellow
var warnStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("3"))

// error,panic - red
var errorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("1"))

// prefixes
const (
	debugPrefix  string = "DBG  "
	infoPrefix   string = "INF  "
	normalPrefix string = "     "
	warnPrefix   string = "WRN  "
	errorPrefix  string = "ERR  "
	panicPrefix  string = "PNC  "
)

var (
	level        = INFO
	colorMode    = COLOR_MODE_AUTO
	debugLogger  = log.New(os.Stdout, colorize(debugPrefix, &debugStyle), log.Lmsgprefix)
	infoLogger   = log.New(os.Stdout, colorize(infoPrefix, &infoStyle), log.Lmsgprefix)
	normalLogger = log.New(os.Stdout, colorize(normalPrefix, &noColorStyle), log.Lmsgprefix)
	warnLogger   = log.New(os.Stdout, colorize(warnPrefix, &warnStyle), log.Lmsgprefix)
	errorLogger  = log.New(os.Stderr, colorize(errorPrefix, &errorStyle), log.Lmsgprefix)
	panicLogger  = log.New(os.Stderr, colorize(panicPrefix, &errorStyle), log.Lmsgprefix)
	footerMutex  = &sync.Mutex{}
	footerText   = ""
	footerLines  = 0
	footerLevel  = INFO
)

// cursor sequences
const (
	c_escape     string = "\x1B"
	c_clear_line string = c_escape + "[2K"
	c_up         string = c_escape + "[1A"
)

func colorsEnabled() bool {
	switch colorMode {
	case COLOR_MODE_ALWAYS:
		return true
	case COLOR_MODE_NEVER:
		return false
	default:
		return termenv.NewOutput(os.Stdout).ColorProfile() != termenv.Ascii
	}
}

func colorize(s string, style *lipgloss.Style) string {
	if !colorsEnabled() {
		return s
	}
	return style.Render(s)
}

func updateLoggerPrefixColors() {
	debugLogger.SetPrefix(colorize(debugPrefix, &debugStyle))
	infoLogger.SetPrefix(colorize(infoPrefix, &infoStyle))
	normalLogger.SetPrefix(normalPrefix)
	warnLogger.SetPrefix(colorize(warnPrefix, &warnStyle))
	errorLogger.SetPrefix(colorize(errorPrefix, &errorStyle))
	panicLogger.SetPrefix(colorize(panicPrefix, &errorStyle))
}

// logs each line of "s" with the logger's prefix so multi-line messages stay
// aligned. returns the number of lines written.
func printMultiline(logger *log.Logger, style *lipgloss.Style, s string) int {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for _, line := range lines {
		logger.Print(line)
	}
	return len(lines)
}

func printWithCallerLocation(logger *log.Logger, style *lipgloss.Style, s string) int {
	_, file, line, ok := runtime.Caller(3)
	if ok {
		parts := strings.Split(file, "/")
		s = fmt.Sprintf("%s:%d %s", parts[len(parts)-1], line, s)
	}
	return printMultiline(logger, style, s)
}

func SetLevelFromString(l string) error {
	switch strings.ToLower(l) {
	case "debug":
		level = DEBUG
	case "info":
		level = INFO
	case "warn":
		level = WARN
	case "error":
		level = ERROR
	case "panic":
		level = PANIC
	case "silent":
		level = SILENT
	default:
		return fmt.Errorf("unsupported log level: %s", l)
	}
	return nil
}

func SetLevel(l LogLevel) error {
	switch l {
	case DEBUG, INFO, WARN, ERROR, PANIC, SILENT:
		level = l
	default:
		return fmt.Errorf("unsupported log level: %d", l)
	}
	return nil
}

func SetColorModeFromString(colorModeStr string) error {
	switch strings.ToLower(colorModeStr) {
	case "always":
		colorMode = COLOR_MODE_ALWAYS
	case "never":
		colorMode = COLOR_MODE_NEVER
	case "auto":
		colorMode = COLOR_MODE_AUTO
	default:
		return fmt.Errorf("unsupported color mode: %s", colorModeStr)
	}
	updateLoggerPrefixColors()
	return nil
}

func SetColorMode(cm ColorMode) error {
	switch cm {
	case COLOR_MODE_ALWAYS, COLOR_MODE_NEVER, COLOR_MODE_AUTO:
		colorMode = cm
	default:
		return fmt.Errorf("unsupported color mode: %s", cm)
	}
	updateLoggerPrefixColors()
	return nil
}

func (cm ColorMode) String() string {
	switch cm {
	case COLOR_MODE_ALWAYS:
		return "always"
	case COLOR_MODE_NEVER:
		return "never"
	case COLOR_MODE_AUTO:
		return "auto"
	default:
		return "auto"
	}
}

func Debug(v ...any) {
	if level <= DEBUG {
		footerMutex.Lock()
		defer footerMutex.Unlock()
		clearFooter()
		if printCallerLocation == "true" {
			printWithCallerLocation(debugLogger, &debugStyle, fmt.Sprintf("%s\n", v...))
		} else {
			printMultiline(debugLogger, &debugStyle, fmt.Sprintf("%s\n", v...))
		}
		printFooter()
	}
}

func Info(v ...any) {
	if level <= INFO {
		footerMutex.Lock()
		defer footerMutex.Unlock()
		clearFooter()
		printMultiline(infoLogger, &infoStyle, fmt.Sprintf("%s\n", v...))
		printFooter()
	}
}

func Warn(v ...any) {
	if level <= WARN {
		footerMutex.Lock()
		defer footerMutex.Unlock()
		clearFooter()
		printMultiline(warnLogger, &warnStyle, fmt.Sprintf("%s\n", v...))
		printFooter()
	}
}

func Error(v ...any) {
	if level <= ERROR {
		footerMutex.Lock()
		defer footerMutex.Unlock()
		clearFooter()
		if printCallerLocation == "true" {
			printWithCallerLocation(errorLogger, &errorStyle, fmt.Sprintf("%s\n", v...))
		} else {
			printMultiline(errorLogger, &errorStyle, fmt.Sprintf("%s\n", v...))
		}
		printFooter()
	}
}

func Panic(v ...any) {
	printMultiline(panicLogger, &errorStyle, fmt.Sprintf("%s\n", v...))
	os.Exit(1)
}

func GetLogLevel() LogLevel {
	return level
}

func IsVerbose() bool {
	return level < INFO
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "debug"
	case INFO:
		return "info"
	case WARN:
		return "warn"
	case ERROR:
		return "error"
	case PANIC:
		return "panic"
	case SILENT:
		return "silent"
	default:
		return "Unknown log level, indicates a bug. Please report"
	}
}

func Printf(format string, v ...any) (int, error) {
	if level < SILENT {
		footerMutex.Lock()
		defer footerMutex.Unlock()
		clearFooter()
		n := printMultiline(normalLogger, &noColorStyle, fmt.Sprintf(format, v...))
		printFooter()
		return n, nil
	}
	return 0, nil
}

func Print(a ...any) (int, error) {
	if level < SILENT {
		footerMutex.Lock()
		defer footerMutex.Unlock()
		clearFooter()
		n := printMultiline(normalLogger, &noColorStyle, fmt.Sprint(a...))
		printFooter()
		return n, nil
	}
	return 0, nil
}

func Println(a ...any) (int, error) {
	if level < SILENT {
		footerMutex.Lock()
		defer footerMutex.Unlock()
		clearFooter()
		n := printMultiline(normalLogger, &noColorStyle, fmt.Sprintln(a...))
		printFooter()
		return n, nil
	}
	return 0, nil
}

func clearFooter() {
	for i := 0; i < footerLines; i++ {
		fmt.Print(c_up + c_clear_line + "\r")
	}
	footerLines = 0
}

func printFooter() int {
	if footerText == "" || level > footerLevel {
		return 0
	}
	lines := strings.Split(footerText, "\n")
	for _, line := range lines {
		fmt.Println(line)
	}
	footerLines = len(lines)
	return footerLines
}

// prints a persistent string "s" at the bottom of the terminal output.
// previous "footer" is cleared before each log and reprinted after.
// passing "s" as an empty string removes the footer.
func Footer(l LogLevel, s string) {
	// acquire lock
	footerMutex.Lock()
	defer footerMutex.Unlock()

	footerText = strings.TrimSpace(s)
	footerLevel = l

	// clear previous footer output and reprint
	clearFooter()
	footerLines = printFooter()
}
