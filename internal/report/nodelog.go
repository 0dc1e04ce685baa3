package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// NodeLogHeaders is the header row of a node log.
var NodeLogHeaders = []string{"step", "global_util", "depth", "count_remaining"}

// NodeLog streams one row per search step. Paths ending in ".zst" are
// written zstd-compressed.
type NodeLog struct {
	f      *os.File
	enc    *zstd.Encoder
	buf    *bufio.Writer
	cw     *csv.Writer
	rows   int
	closed bool
}

// CreateNodeLog opens path for writing and emits the header.
func CreateNodeLog(path string) (*NodeLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create node log: %w", err)
	}

	l := &NodeLog{f: f}
	var w io.Writer = f
	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("node log encoder: %w", err)
		}
		l.enc = enc
		w = enc
	}
	l.buf = bufio.NewWriterSize(w, 64*1024)
	l.cw = csv.NewWriter(l.buf)

	if err := l.cw.Write(NodeLogHeaders); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

// Write appends one step.
func (l *NodeLog) Write(step int, globalUtil float64, depth, remaining int) error {
	l.rows++
	return l.cw.Write([]string{
		strconv.Itoa(step),
		formatFloat(globalUtil),
		strconv.Itoa(depth),
		strconv.Itoa(remaining),
	})
}

// Rows returns the number of steps written.
func (l *NodeLog) Rows() int { return l.rows }

// Close flushes and closes the log. Later calls are no-ops.
func (l *NodeLog) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.cw.Flush()
	err := l.cw.Error()
	if ferr := l.buf.Flush(); err == nil {
		err = ferr
	}
	if l.enc != nil {
		if cerr := l.enc.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// OpenNodeLog returns a reader over a node log, decompressing ".zst" files.
func OpenNodeLog(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &zstdReadCloser{dec: dec, f: f}, nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.f.Close()
}
