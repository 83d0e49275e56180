package video

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/ivlev/storyshort/internal/system"
)

var testFrameRect = image.Rect(0, 0, 2, 1)

func frame(fill byte) *image.RGBA {
	img := image.NewRGBA(testFrameRect)
	for i := range img.Pix {
		img.Pix[i] = fill
	}
	return img
}

func TestOrderedWriterReordersFrames(t *testing.T) {
	var out bytes.Buffer
	ow := newOrderedWriter(&out, system.NewFramePool(testFrameRect))

	// Completion order 2, 0, 1 must still produce 0, 1, 2 on the wire
	ow.Push(2, frame(2))
	if out.Len() != 0 {
		t.Fatalf("frame 2 written before frames 0 and 1: %d bytes", out.Len())
	}
	ow.Push(0, frame(0))
	if out.Len() != 8 {
		t.Fatalf("after frame 0: %d bytes written, want 8", out.Len())
	}
	ow.Push(1, frame(1))
	if out.Len() != 24 {
		t.Fatalf("after frame 1: %d bytes written, want 24 (frames 1 and 2 flushed)", out.Len())
	}

	got := out.Bytes()
	for i := 0; i < 3; i++ {
		for j := 0; j < 8; j++ {
			if got[i*8+j] != byte(i) {
				t.Fatalf("frame %d corrupted at byte %d: got %d", i, j, got[i*8+j])
			}
		}
	}
	if ow.err != nil {
		t.Errorf("unexpected writer error: %v", ow.err)
	}
	if len(ow.pending) != 0 {
		t.Errorf("%d frames stuck in the reorder buffer", len(ow.pending))
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, bytes.ErrTooLarge
}

func TestOrderedWriterKeepsDrainingAfterError(t *testing.T) {
	ow := newOrderedWriter(failingWriter{}, system.NewFramePool(testFrameRect))
	ow.Push(0, frame(0))
	if ow.err == nil {
		t.Fatal("write error not recorded")
	}
	// Later frames must still be accepted and recycled, not wedged
	ow.Push(1, frame(1))
	ow.Push(2, frame(2))
	if len(ow.pending) != 0 {
		t.Errorf("%d frames stuck after write error", len(ow.pending))
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	spec := OutputSpec{Width: 1080, Height: 1920, FPS: 30, Encoder: "libx264", Quality: 23, Path: "out.mp4"}

	joined := strings.Join(buildFFmpegArgs(spec, "voice.mp3"), " ")
	for _, want := range []string{
		"-f rawvideo",
		"-pixel_format rgba",
		"-video_size 1080x1920",
		"-i voice.mp3",
		"-map 1:a",
		"-c:a aac",
		"-shortest",
		"-crf 23",
		"-movflags +faststart",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}

	// Without audio there is nothing to cut the stream against
	joined = strings.Join(buildFFmpegArgs(spec, ""), " ")
	if strings.Contains(joined, "-shortest") || strings.Contains(joined, "-c:a") {
		t.Errorf("silent output still maps audio: %s", joined)
	}

	nv := spec
	nv.Encoder = "h264_nvenc"
	nv.Quality = 28
	if joined := strings.Join(buildFFmpegArgs(nv, ""), " "); !strings.Contains(joined, "-cq 28") {
		t.Errorf("nvenc args missing -cq: %s", joined)
	}

	vt := spec
	vt.Encoder = "h264_videotoolbox"
	vt.Quality = 75
	if joined := strings.Join(buildFFmpegArgs(vt, ""), " "); !strings.Contains(joined, "-b:v 7500k") {
		t.Errorf("videotoolbox args missing bitrate: %s", joined)
	}
}
