package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/gaborage/go-remotecurl/http"
)

type responseView struct {
	StatusCode int               `json:"status_code"`
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	Attempts   int               `json:"attempts"`
	ElapsedMS  int64             `json:"elapsed_ms"`
	ExitStatus int               `json:"exit_status"`
}

func writeJSON(w io.Writer, resp *http.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(responseView{
		StatusCode: resp.StatusCode,
		URL:        resp.URL,
		Headers:    resp.Headers,
		Body:       resp.Body,
		Attempts:   resp.Stats.Attempts,
		ElapsedMS:  resp.Stats.ElapsedTime.Milliseconds(),
		ExitStatus: resp.Stats.ExitStatus,
	})
}

// writeText prints the body to out. The status line goes to status unless
// include is set, in which case the final header block precedes the body.
func writeText(out, status io.Writer, resp *http.Response, include bool) {
	paint := statusColor(resp.StatusCode)

	if include && resp.RawHeaders != "" {
		lines := strings.Split(resp.RawHeaders, "\n")
		for i, line := range lines {
			line = strings.TrimSuffix(line, "\r")
			if i == 0 {
				line = paint.Sprint(line)
			}
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out)
	} else {
		fmt.Fprintln(status, paint.Sprintf("HTTP %d (%d attempt(s), %s)",
			resp.StatusCode, resp.Stats.Attempts, resp.Stats.ElapsedTime.Round(time.Millisecond)))
	}

	fmt.Fprint(out, resp.Body)
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return color.New(color.FgGreen)
	case code >= 300 && code < 400:
		return color.New(color.FgCyan)
	case code >= 400 && code < 500:
		return color.New(color.FgYellow)
	case code >= 500:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgMagenta)
	}
}
