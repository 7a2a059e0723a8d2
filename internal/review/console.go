package review

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ytgrab/internal/logger"
)

// ConsolePresenter renders review requests on the terminal and reads the
// choice from its input stream. Reading happens on its own goroutine so
// the blocked worker never owns stdin.
type ConsolePresenter struct {
	coordinator *Coordinator
	// One scanner for the presenter's lifetime: a per-request scanner
	// would drop bytes buffered past the previous answer.
	scanner *bufio.Scanner
	logger  *logger.Logger
}

// NewConsolePresenter creates a presenter answering through coordinator.
func NewConsolePresenter(c *Coordinator, in io.Reader, log *logger.Logger) *ConsolePresenter {
	return &ConsolePresenter{
		coordinator: c,
		scanner:     bufio.NewScanner(in),
		logger:      log,
	}
}

// Present prints the candidate list and collects a selection. Any
// unparseable or empty input selects the first candidate, so the worker
// is always resumed.
func (p *ConsolePresenter) Present(req Request) {
	go func() {
		fmt.Println()
		fmt.Printf("Review metadata for: %s\n", req.RawTitle)
		if req.ParsedTitle != "" {
			fmt.Printf("Parsed as: %s\n", req.ParsedTitle)
		}
		for i, c := range req.Candidates {
			line := fmt.Sprintf("  [%d] %s", i, c.Label())
			if c.Album != "" {
				line += " - " + c.Album
			}
			if c.Year != "" {
				line += " (" + c.Year + ")"
			}
			fmt.Println(line)
		}
		fmt.Printf("Select [0-%d] (Enter = 0): ", len(req.Candidates)-1)

		idx := 0
		if p.scanner.Scan() {
			text := strings.TrimSpace(p.scanner.Text())
			if text != "" {
				n, err := strconv.Atoi(text)
				if err != nil {
					p.logger.Warn("Unrecognized selection %q, keeping first candidate", text)
				} else {
					idx = n
				}
			}
		}

		if !p.coordinator.Respond(req.ID, idx) {
			p.logger.Debug("Review response for %s was not accepted", req.ID)
		}
	}()
}
