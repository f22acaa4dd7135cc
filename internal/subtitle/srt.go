package subtitle

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Entry is one timed subtitle line. Start and End are seconds from the start
// of the track.
type Entry struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Duration returns End - Start in seconds.
func (e Entry) Duration() float64 {
	return e.End - e.Start
}

// ParseError describes a malformed SRT block.
type ParseError struct {
	Block int // 1-based block number
	Line  int // 1-based line number in the decoded input
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("subtitle: block %d (line %d): %s", e.Block, e.Line, e.Msg)
}

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	assTagPattern   = regexp.MustCompile(`\{\\[^}]*\}`)
	spacePattern    = regexp.MustCompile(`\s+`)
	timingSeparator = "-->"
)

// ParseString parses SRT content held in a string.
func ParseString(s string) ([]Entry, error) {
	return Parse(strings.NewReader(s))
}

// ParseBytes parses SRT content held in memory.
func ParseBytes(data []byte) ([]Entry, error) {
	return Parse(bytes.NewReader(data))
}

// Parse reads SRT content and returns its entries in file order. Blocks are
// separated by blank lines; the numeric counter line is optional.
func Parse(r io.Reader) ([]Entry, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	scanner := bufio.NewScanner(transform.NewReader(r, decoder))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		entries []Entry
		block   []string
		start   int
		lineNo  int
	)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		entry, err := parseBlock(block, len(entries)+1, start)
		block = block[:0]
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if len(block) == 0 {
			start = lineNo
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("subtitle: read: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseBlock(lines []string, blockNo, firstLine int) (Entry, error) {
	timing := -1
	for i, line := range lines {
		if strings.Contains(line, timingSeparator) {
			timing = i
			break
		}
	}
	if timing < 0 {
		return Entry{}, &ParseError{Block: blockNo, Line: firstLine, Msg: "missing timing line"}
	}
	if timing > 1 {
		return Entry{}, &ParseError{Block: blockNo, Line: firstLine, Msg: "unexpected text before timing line"}
	}

	entry := Entry{Index: blockNo}
	if timing == 1 {
		idx, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return Entry{}, &ParseError{Block: blockNo, Line: firstLine, Msg: fmt.Sprintf("invalid counter %q", lines[0])}
		}
		entry.Index = idx
	}

	timingLine := firstLine + timing
	parts := strings.SplitN(lines[timing], timingSeparator, 2)
	startSec, err := parseTimestamp(parts[0])
	if err != nil {
		return Entry{}, &ParseError{Block: blockNo, Line: timingLine, Msg: err.Error()}
	}
	// Anything after the end timestamp (position hints) is ignored.
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return Entry{}, &ParseError{Block: blockNo, Line: timingLine, Msg: "missing end timestamp"}
	}
	endSec, err := parseTimestamp(endFields[0])
	if err != nil {
		return Entry{}, &ParseError{Block: blockNo, Line: timingLine, Msg: err.Error()}
	}
	entry.Start = startSec
	entry.End = endSec
	entry.Text = cleanText(lines[timing+1:])
	return entry, nil
}

func cleanText(lines []string) string {
	joined := strings.Join(lines, " ")
	joined = tagPattern.ReplaceAllString(joined, "")
	joined = assTagPattern.ReplaceAllString(joined, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(joined, " "))
}

// parseTimestamp accepts HH:MM:SS,mmm with either comma or period before the
// milliseconds; the fractional part may be omitted.
func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	clock, frac, hasFrac := strings.Cut(value, ",")
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	if errH != nil || errM != nil || errS != nil || hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	total := float64(hours*3600 + minutes*60 + seconds)
	if hasFrac {
		if frac == "" || len(frac) > 3 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		millis, err := strconv.Atoi(frac)
		if err != nil || millis < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		// "1,5" means 500 ms.
		for i := len(frac); i < 3; i++ {
			millis *= 10
		}
		total += float64(millis) / 1000
	}
	return total, nil
}
