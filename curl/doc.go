// Package curl builds remote curl command lines and reconstructs structured
// responses from the text curl writes to standard output.
//
// Command lines
//   - Every token is shell-quoted on its own; the line is never quoted as a whole.
//   - Response headers of every hop are dumped before the body (-D -).
//   - A trailer (-w) appends the Sentinel and the final status code after the body.
//
// Output parsing
//   - The status code is taken from the last Sentinel occurrence.
//   - Header blocks are split per redirect hop; only the final hop is exposed.
//   - Everything after the final header block is the body, verbatim.
package curl
