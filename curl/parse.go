package curl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const statusLinePrefix = "HTTP/"

var (
	// ErrMissingSentinel is returned when the output carries no status trailer
	ErrMissingSentinel = errors.New("curl: status sentinel not found in output")

	// ErrInvalidStatus is returned when the value after the sentinel is not a number
	ErrInvalidStatus = errors.New("curl: invalid status code after sentinel")
)

// Result is the structured form of curl's output.
type Result struct {
	StatusCode int
	// Headers holds the parsed header lines of the final hop
	Headers map[string]string
	Body    string
	// RawHeaders is the unparsed header block of the final hop
	RawHeaders string
	// Hops counts the header blocks found, one per response in a redirect chain
	Hops int
}

// Parse reconstructs a Result from raw curl output produced by a command from Build.
func Parse(raw string) (*Result, error) {
	prefix, status, err := splitStatus(raw)
	if err != nil {
		return nil, err
	}

	blocks, body := splitHeaderBlocks(prefix)

	var rawHeaders string
	if len(blocks) > 0 {
		rawHeaders = blocks[len(blocks)-1]
	}

	return &Result{
		StatusCode: status,
		Headers:    parseHeaderBlock(rawHeaders),
		Body:       body,
		RawHeaders: rawHeaders,
		Hops:       len(blocks),
	}, nil
}

// splitStatus separates the trailer from the rest of the output. The last
// sentinel wins so a body that happens to contain the marker earlier still parses.
func splitStatus(raw string) (string, int, error) {
	idx := strings.LastIndex(raw, Sentinel)
	if idx < 0 {
		return "", 0, ErrMissingSentinel
	}

	prefix := raw[:idx]
	suffix := strings.TrimSpace(raw[idx+len(Sentinel):])

	line := suffix
	if nl := strings.IndexAny(suffix, "\r\n"); nl >= 0 {
		line = strings.TrimSpace(suffix[:nl])
	}

	status, err := strconv.Atoi(line)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidStatus, line)
	}

	// the -w trailer starts with a bare \n of its own; anything before it is body
	prefix = strings.TrimSuffix(prefix, "\n")

	return prefix, status, nil
}

// splitHeaderBlocks peels status-line-headed blocks off the front of text and
// returns them in order together with whatever follows the last one.
func splitHeaderBlocks(text string) ([]string, string) {
	var blocks []string
	remaining := text

	for strings.HasPrefix(remaining, statusLinePrefix) {
		pos, width := headerSeparator(remaining)
		if pos < 0 {
			blocks = append(blocks, remaining)
			return blocks, ""
		}
		blocks = append(blocks, remaining[:pos])
		remaining = remaining[pos+width:]
	}

	return blocks, remaining
}

// headerSeparator finds the earliest blank line in either CRLF or LF style.
func headerSeparator(text string) (int, int) {
	crlf := strings.Index(text, "\r\n\r\n")
	lf := strings.Index(text, "\n\n")

	switch {
	case crlf < 0 && lf < 0:
		return -1, 0
	case lf < 0 || (crlf >= 0 && crlf < lf):
		return crlf, 4
	default:
		return lf, 2
	}
}

func parseHeaderBlock(block string) map[string]string {
	headers := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, statusLinePrefix) {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers
}
