package curl

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alessio/shellescape"
)

const (
	// Binary is the name of the tool invoked on the remote host
	Binary = "curl"

	// Sentinel precedes the final status code in the output trailer
	Sentinel = "CURLSTATUS:"

	// writeOutFormat is passed to -w; curl expands \n itself so the sentinel starts a new line
	writeOutFormat = `\n` + Sentinel + "%{http_code}"

	headerContentType = "Content-Type"
	mimeJSON          = "application/json"
)

// Names passed to a Redact mask for tokens that are not header values.
const (
	RedactURL        = "url"
	RedactBody       = "body"
	RedactCredential = "credential"
)

// credentialFlags take a value carrying a secret.
var credentialFlags = map[string]bool{
	"-u": true, "--user": true,
	"-U": true, "--proxy-user": true,
	"-b": true, "--cookie": true,
	"--oauth2-bearer": true,
	"--pass":          true,
}

// bodyFlags take a value sent as the request body.
var bodyFlags = map[string]bool{
	"-d": true, "--data": true, "--data-raw": true, "--data-binary": true,
	"--data-ascii": true, "--data-urlencode": true, "--json": true,
	"-F": true, "--form": true, "--form-string": true,
}

// Request describes a single HTTP request to run through curl on a remote host.
type Request struct {
	Method          string
	URL             string
	Headers         map[string]string
	Data            any
	Params          map[string]string
	CurlArgs        []string
	Insecure        bool
	FollowRedirects bool
	Timeout         time.Duration
}

// Command is a built remote command line.
type Command struct {
	// Line is the shell command line sent to the remote host
	Line string
	// Args holds the unquoted tokens making up Line
	Args []string
	// URL is the request URL after query parameters were merged
	URL string

	masked map[int]redaction
}

// redaction marks an argument whose text after prefix is passed to a mask under name.
type redaction struct {
	name   string
	prefix string
}

// Build translates req into a remote curl command line.
func Build(req *Request) (*Command, error) {
	if req == nil {
		return nil, fmt.Errorf("curl: nil request")
	}

	target := MergeParams(req.URL, req.Params)
	cmd := &Command{URL: target, masked: make(map[int]redaction)}

	cmd.add(Binary, "-sS", "-D", "-")
	if req.FollowRedirects {
		cmd.add("-L")
	}
	cmd.add("-X", strings.ToUpper(req.Method))

	if req.Data != nil {
		body, isJSON, err := encodeBody(req.Data)
		if err != nil {
			return nil, err
		}
		if isJSON && !HasHeader(req.Headers, headerContentType) {
			cmd.addHeader(headerContentType, mimeJSON)
		}
		cmd.add(bodyFlag(body))
		cmd.addToken(RedactBody, body)
	}

	for _, name := range sortedKeys(req.Headers) {
		cmd.addHeader(name, req.Headers[name])
	}

	if req.Insecure {
		cmd.add("-k")
	}

	if req.Timeout > 0 {
		cmd.add("--max-time", strconv.Itoa(timeoutSeconds(req.Timeout)))
	}

	cmd.addPassthrough(req.CurlArgs)
	cmd.addToken(RedactURL, target)
	cmd.add("-w", writeOutFormat)

	cmd.Line = cmd.render(nil)
	return cmd, nil
}

// Redact renders the command line with every header value passed through mask
// under its header name. The URL, request bodies and the values of credential
// options are passed under RedactURL, RedactBody and RedactCredential.
// It is meant for logging; the returned string is never executed.
func (c *Command) Redact(mask func(name, value string) string) string {
	if mask == nil {
		return c.Line
	}
	return c.render(mask)
}

func (c *Command) add(args ...string) {
	c.Args = append(c.Args, args...)
}

func (c *Command) addHeader(name, value string) {
	c.Args = append(c.Args, "-H")
	c.addMasked(name, name+": ", name+": "+value)
}

func (c *Command) addToken(kind, value string) {
	c.addMasked(kind, "", value)
}

func (c *Command) addMasked(name, prefix, arg string) {
	c.masked[len(c.Args)] = redaction{name: name, prefix: prefix}
	c.Args = append(c.Args, arg)
}

// addPassthrough appends caller supplied arguments, remembering which of them
// hold headers, bodies or credentials.
func (c *Command) addPassthrough(args []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if prefix, ok := attachedCredential(arg); ok {
			c.addMasked(RedactCredential, prefix, arg)
			continue
		}

		c.add(arg)
		if i+1 == len(args) {
			continue
		}
		switch {
		case arg == "-H" || arg == "--header":
			i++
			c.addPassthroughHeader(args[i])
		case credentialFlags[arg]:
			i++
			c.addToken(RedactCredential, args[i])
		case bodyFlags[arg]:
			i++
			c.addToken(RedactBody, args[i])
		}
	}
}

func (c *Command) addPassthroughHeader(header string) {
	name, value, found := strings.Cut(header, ":")
	if !found {
		c.add(header)
		return
	}
	value = strings.TrimLeft(value, " \t")
	c.addMasked(strings.TrimSpace(name), header[:len(header)-len(value)], header)
}

// attachedCredential reports short options written with their value, as in -uuser:pass.
func attachedCredential(arg string) (string, bool) {
	for _, flag := range []string{"-u", "-U"} {
		if len(arg) > len(flag) && strings.HasPrefix(arg, flag) {
			return flag, true
		}
	}
	return "", false
}

func (c *Command) render(mask func(name, value string) string) string {
	quoted := make([]string, len(c.Args))
	for i, arg := range c.Args {
		if r, ok := c.masked[i]; ok && mask != nil {
			arg = r.prefix + mask(r.name, strings.TrimPrefix(arg, r.prefix))
		}
		quoted[i] = shellescape.Quote(arg)
	}
	return strings.Join(quoted, " ")
}

// MergeParams appends the percent-encoded params to rawURL, using '&' when the
// URL already carries a query string and '?' otherwise.
func MergeParams(rawURL string, params map[string]string) string {
	if len(params) == 0 {
		return rawURL
	}

	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + values.Encode()
}

// bodyFlag picks the data option for body. --data-binary reads a file when the
// value starts with '@'; --data-raw sends such a value as is.
func bodyFlag(body string) string {
	if strings.HasPrefix(body, "@") {
		return "--data-raw"
	}
	return "--data-binary"
}

// encodeBody returns the request body text and whether it was serialized to JSON.
func encodeBody(data any) (string, bool, error) {
	switch v := data.(type) {
	case string:
		return v, false, nil
	case []byte:
		return string(v), false, nil
	case json.RawMessage:
		return string(v), true, nil
	case fmt.Stringer:
		return v.String(), false, nil
	}

	if !isStructured(data) {
		return fmt.Sprint(data), false, nil
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return "", false, fmt.Errorf("curl: failed to encode request body as JSON: %w", err)
	}
	return string(encoded), true, nil
}

func isStructured(data any) bool {
	t := reflect.TypeOf(data)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// HasHeader reports whether headers holds name, compared case-insensitively.
func HasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MaxTime returns the limit curl enforces for a request timeout of d.
func MaxTime(d time.Duration) time.Duration {
	return time.Duration(timeoutSeconds(d)) * time.Second
}

// timeoutSeconds rounds up to whole seconds; curl's --max-time of 0 means no limit.
func timeoutSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
