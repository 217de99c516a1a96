package composite

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gymcut/internal/media/ffmpegcmd"
)

const pipeBufferSize = 1 << 20

// FrameReader yields fixed-size raw frames from a stream.
type FrameReader struct {
	r         *bufio.Reader
	frameSize int
	closer    func() error
}

// newFrameReader reads frames of frameSize bytes from r.
func newFrameReader(r io.Reader, frameSize int, closer func() error) *FrameReader {
	return &FrameReader{r: bufio.NewReaderSize(r, pipeBufferSize), frameSize: frameSize, closer: closer}
}

// Next fills buf with the next frame. It returns io.EOF at a clean end of
// stream; a trailing partial frame is also treated as the end.
func (f *FrameReader) Next(buf []byte) error {
	if len(buf) != f.frameSize {
		return fmt.Errorf("frame buffer is %d bytes, want %d", len(buf), f.frameSize)
	}
	if _, err := io.ReadFull(f.r, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return io.EOF
		}
		return err
	}
	return nil
}

// FrameSize returns the byte size of one frame.
func (f *FrameReader) FrameSize() int { return f.frameSize }

// Close releases the underlying decoder.
func (f *FrameReader) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer()
}

// FrameWriter writes raw frames to an encoder.
type FrameWriter struct {
	w         *bufio.Writer
	frameSize int
	closer    func() error
}

func newFrameWriter(w io.Writer, frameSize int, closer func() error) *FrameWriter {
	return &FrameWriter{w: bufio.NewWriterSize(w, pipeBufferSize), frameSize: frameSize, closer: closer}
}

// Write sends one frame.
func (f *FrameWriter) Write(frame []byte) error {
	if len(frame) != f.frameSize {
		return fmt.Errorf("frame is %d bytes, want %d", len(frame), f.frameSize)
	}
	_, err := f.w.Write(frame)
	return err
}

// Close flushes buffered frames and waits for the encoder to finish.
func (f *FrameWriter) Close() error {
	flushErr := f.w.Flush()
	var closeErr error
	if f.closer != nil {
		closeErr = f.closer()
	}
	return errors.Join(flushErr, closeErr)
}

// OpenReader starts ffmpeg decoding path to raw frames of pixFmt at
// width x height. bytesPerPixel must match pixFmt. Closing the reader before
// the stream ends stops the decoder.
func OpenReader(ctx context.Context, ffmpegBinary, path, pixFmt string, width, height, bytesPerPixel int) (*FrameReader, error) {
	decodeCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(decodeCtx, ffmpegBinary, ffmpegcmd.DecodeRawArgs(path, pixFmt, width, height)...) //nolint:gosec
	cmd.WaitDelay = decoderWaitDelay
	stderr := &tailBuffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start decoder for %s: %w", path, err)
	}
	stream := &eofReader{r: stdout}
	var once sync.Once
	var waitErr error
	closer := func() error {
		once.Do(func() {
			stopped := !stream.drained.Load()
			if stopped {
				cancel()
			}
			err := cmd.Wait()
			cancel()
			// A decoder killed by an early close exits with a signal.
			if err != nil && !stopped && ctx.Err() == nil {
				waitErr = fmt.Errorf("decoder for %s: %w: %s", path, err, stderr.String())
			}
		})
		return waitErr
	}
	return newFrameReader(stream, width*height*bytesPerPixel, closer), nil
}

// decoderWaitDelay bounds how long Wait blocks on a stopped decoder's pipes.
const decoderWaitDelay = 2 * time.Second

// eofReader records whether the decoder output was read to the end.
type eofReader struct {
	r       io.Reader
	drained atomic.Bool
}

func (e *eofReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if errors.Is(err, io.EOF) {
		e.drained.Store(true)
	}
	return n, err
}

// OpenWriter starts ffmpeg encoding rgb24 frames to output.
func OpenWriter(ctx context.Context, ffmpegBinary, output string, meta Metadata, codec, pixelFormat string) (*FrameWriter, error) {
	args := ffmpegcmd.EncodeRawArgs(output, meta.Width, meta.Height, meta.FPS, codec, pixelFormat)
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	stderr := &tailBuffer{}
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", output, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start encoder for %s: %w", output, err)
	}
	closer := func() error {
		closeErr := stdin.Close()
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("encoder for %s: %w: %s", output, err, stderr.String())
		}
		return closeErr
	}
	return newFrameWriter(stdin, meta.Width*meta.Height*3, closer), nil
}

// tailBuffer keeps the last few KB of tool stderr for error messages.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

const tailLimit = 4096

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > tailLimit {
		t.buf = t.buf[len(t.buf)-tailLimit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
