package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// PromptForDirectory asks for a directory path on in, returning def when
// the user enters nothing.
func PromptForDirectory(in io.Reader, out io.Writer, def string) string {
	fmt.Fprintf(out, "Directory [%s]: ", def)

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		log.Warn().Err(err).Msg("Failed to read input, using default directory")
		return def
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}

// Confirm asks a yes/no question. Anything but y or yes is no.
func Confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	input, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
