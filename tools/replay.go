//go:build ignore

// Replay feeds captured transport bytes through the frame decoder and
// prints the decoded readings, for checking synchronization behavior
// against real captures.
//
// Input is hex on stdin or in files named as arguments, one chunk per
// line (whitespace ignored), replayed chunk by chunk the way the
// transport delivered them:
//
//	go run tools/replay.go capture.hex
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oxistream/oxistream/internal/protocol"
	"github.com/oxistream/oxistream/internal/record"
)

func main() {
	inputs := []io.Reader{os.Stdin}
	if len(os.Args) > 1 {
		inputs = nil
		for _, name := range os.Args[1:] {
			f, err := os.Open(name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			inputs = append(inputs, f)
		}
	}

	dec := protocol.NewDecoder()
	chunks, readings, dropped := 0, 0, 0

	for _, in := range inputs {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := strings.Join(strings.Fields(scanner.Text()), "")
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			chunk, err := hex.DecodeString(line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: bad hex %q: %v\n", line, err)
				os.Exit(1)
			}

			chunks++
			before := dec.Buffered()
			decoded := dec.Feed(chunk)
			// Bytes neither decoded nor buffered were discarded by resync.
			dropped += before + len(chunk) - dec.Buffered() - len(decoded)*protocol.FrameLength

			for _, r := range decoded {
				readings++
				fmt.Println(record.FormatReading(r))
			}
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("\n%d chunks, %d readings, %d bytes dropped during resync, %d bytes buffered\n",
		chunks, readings, dropped, dec.Buffered())
}
