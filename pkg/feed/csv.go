package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/raykavin/chartview/pkg/core"
)

// defaultHeaderMap is the column order of header-less files
var defaultHeaderMap = map[string]int{
	"time": 0, "open": 1, "close": 2, "low": 3, "high": 4, "volume": 5,
}

var requiredColumns = []string{"time", "open", "high", "low", "close", "volume"}

// File describes one CSV series on disk
type File struct {
	Symbol    string
	Path      string
	Timeframe core.Timeframe
}

// CSV is a Source reading bars from CSV files. Files are parsed on first use and kept in memory.
type CSV struct {
	files map[string]File
	cache *Memory
}

func NewCSV(files ...File) *CSV {
	c := &CSV{files: make(map[string]File, len(files)), cache: NewMemory()}
	for _, f := range files {
		c.files[f.Symbol] = f
	}
	return c
}

func (c *CSV) Load(ctx context.Context, symbol string, tf core.Timeframe) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Failed(symbol, tf, err), err
	}

	if _, cached := c.cache.series[symbol]; !cached {
		f, ok := c.files[symbol]
		if !ok {
			err := core.NewError(core.KindInput, "load "+symbol, ErrUnknownSymbol)
			return Failed(symbol, tf, err), err
		}

		bars, err := ReadFile(f.Path)
		if err != nil {
			return Failed(symbol, tf, err), err
		}
		if err := c.cache.Add(symbol, f.Timeframe, bars); err != nil {
			return Failed(symbol, tf, err), err
		}
	}

	return c.cache.Load(ctx, symbol, tf)
}

// ReadFile parses the bars of a CSV file
func ReadFile(path string) ([]core.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	bars, err := ReadBars(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadBars parses CSV rows into bars. A first row whose first cell is not a number is read as a
// header; otherwise columns follow defaultHeaderMap. Times are unix seconds, unix milliseconds or
// RFC 3339.
func ReadBars(r io.Reader) ([]core.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewError(core.KindInput, "read csv", err)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	headerMap, hasHeader := parseHeaders(lines[0])
	if hasHeader {
		lines = lines[1:]
	}
	if missing := lo.Filter(requiredColumns, func(col string, _ int) bool {
		_, ok := headerMap[col]
		return !ok
	}); len(missing) > 0 {
		return nil, core.NewError(core.KindInput, "read csv",
			fmt.Errorf("%w: missing columns %s", core.ErrInvalidBar, strings.Join(missing, ", ")))
	}

	bars := make([]core.Bar, 0, len(lines))
	for n, line := range lines {
		bar, err := parseLine(line, headerMap)
		if err != nil {
			row := n + 1
			if hasHeader {
				row++
			}
			return nil, core.NewError(core.KindInput, fmt.Sprintf("csv row %d", row), err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseHeaders(headers []string) (map[string]int, bool) {
	if len(headers) == 0 {
		return defaultHeaderMap, false
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(headers[0]), 64); err == nil {
		return defaultHeaderMap, false
	}

	headerMap := make(map[string]int, len(headers))
	for index, header := range headers {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = index
	}
	if _, ok := headerMap["time"]; !ok {
		if i, ok := headerMap["timestamp"]; ok {
			headerMap["time"] = i
		}
	}
	return headerMap, true
}

func parseLine(line []string, headerMap map[string]int) (core.Bar, error) {
	cell := func(name string) (string, error) {
		i := headerMap[name]
		if i >= len(line) {
			return "", fmt.Errorf("%w: missing %s", core.ErrInvalidBar, name)
		}
		return strings.TrimSpace(line[i]), nil
	}

	raw, err := cell("time")
	if err != nil {
		return core.Bar{}, err
	}
	ts, err := parseTime(raw)
	if err != nil {
		return core.Bar{}, err
	}

	bar := core.Bar{Time: ts}
	fields := []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open}, {"high", &bar.High}, {"low", &bar.Low}, {"close", &bar.Close}, {"volume", &bar.Volume},
	}
	for _, f := range fields {
		raw, err := cell(f.name)
		if err != nil {
			return core.Bar{}, err
		}
		if *f.dst, err = strconv.ParseFloat(raw, 64); err != nil {
			return core.Bar{}, fmt.Errorf("%w: %s %q", core.ErrInvalidBar, f.name, raw)
		}
	}
	return bar, nil
}

// unixMillisThreshold separates second from millisecond timestamps (year 2286 in seconds)
const unixMillisThreshold = 1e10

func parseTime(raw string) (time.Time, error) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > unixMillisThreshold {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q", core.ErrInvalidBar, raw)
	}
	return t.UTC(), nil
}

// Limit keeps the bars within d of the last bar
func Limit(bars []core.Bar, d time.Duration) []core.Bar {
	if len(bars) == 0 || d <= 0 {
		return bars
	}
	start := bars[len(bars)-1].Time.Add(-d)
	return lo.Filter(bars, func(bar core.Bar, _ int) bool {
		return bar.Time.After(start)
	})
}
