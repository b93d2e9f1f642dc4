package syncer

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// readEvents parses a text/event-stream body, invoking emit with the payload
// of each complete event. Comment lines, event names, ids and retry hints are
// skipped: the status stream only ever carries data payloads. Returns when
// the stream ends; the error is io.EOF for an orderly remote close.
func readEvents(r io.Reader, emit func(data []byte)) error {
	scanner := bufio.NewScanner(r)
	// Individual status patches are small, but give headroom for bursts
	scanner.Buffer(make([]byte, 0, 4096), 256*1024)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()

		// Blank line terminates the current event
		if line == "" {
			if data.Len() > 0 {
				emit(data.Bytes())
				data.Reset()
			}
			continue
		}

		// Comment / heartbeat
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		if field == "data" {
			// Multi-line data fields join with newlines
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(value)
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}
