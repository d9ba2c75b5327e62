package input

import (
	"bufio"
	"io"
	"strings"

	"github.com/rigado/snp"
)

// NewLines reads answers from r, one per line: "y" or "yes" fires confirm,
// "n" or "no" fires deny. Other lines are ignored. Reading stops at the end
// of r.
func NewLines(r io.Reader) (confirm, deny *Manual) {
	confirm, deny = NewManual(), NewManual()
	go readLines(r, confirm, deny)
	return confirm, deny
}

func readLines(r io.Reader, confirm, deny *Manual) {
	logger := snp.GetLogger().ChildLogger(map[string]interface{}{"input": "lines"})

	s := bufio.NewScanner(r)
	for s.Scan() {
		var src *Manual
		switch strings.ToLower(strings.TrimSpace(s.Text())) {
		case "y", "yes":
			src = confirm
		case "n", "no":
			src = deny
		default:
			continue
		}

		if !src.Trigger() {
			logger.Debugf("answer %q while not armed", s.Text())
		}
	}
	if err := s.Err(); err != nil {
		logger.Warnf("can't read answers: %v", err)
	}
}
