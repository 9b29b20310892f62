// Package prompt resolves the input file of a command-line tool from its
// first argument or, when absent, by asking on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotFound is returned when the resolved path is not an existing file.
var ErrNotFound = errors.New("file not found")

// InputFile returns args[0] if present, otherwise reads a path from in after
// printing a prompt to out. Surrounding quotes (as pasted from a file
// manager) are removed. The path must name an existing regular file.
func InputFile(args []string, in io.Reader, out io.Writer) (string, error) {
	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		fmt.Fprint(out, "Enter path to CSV file: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read path: %w", err)
		}
		path = strings.Trim(strings.TrimSpace(line), `"`)
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return path, fmt.Errorf("%w: %q", ErrNotFound, path)
	}

	return path, nil
}
