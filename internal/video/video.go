package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/storyshort/internal/asset"
	"github.com/ivlev/storyshort/internal/system"
)

// FrameRenderer отдает кадр на момент времени t. Реализация обязана быть
// безопасной для параллельных вызовов (этим пользуется пул воркеров).
type FrameRenderer interface {
	FrameInto(t float64, dst *image.RGBA) error
	Size() (int, int)
}

// OutputSpec описывает итоговый файл
type OutputSpec struct {
	Width   int
	Height  int
	FPS     int
	Encoder string
	Quality int
	Path    string
}

type Encoder interface {
	Encode(ctx context.Context, frames FrameRenderer, total float64, audio asset.AudioTrack, spec OutputSpec, workers int) error
}

// FFmpegEncoder кодирует видеоряд через системный FFmpeg: кадры уходят
// в stdin как raw RGBA, озвучка мапится вторым входом.
type FFmpegEncoder struct{}

type renderedFrame struct {
	index int
	frame *image.RGBA
}

func (e *FFmpegEncoder) Encode(ctx context.Context, frames FrameRenderer, total float64, audio asset.AudioTrack, spec OutputSpec, workers int) error {
	if total <= 0 {
		return fmt.Errorf("encode: длительность %.3fs", total)
	}
	if fw, fh := frames.Size(); fw != spec.Width || fh != spec.Height {
		return fmt.Errorf("encode: геометрия кадров %dx%d не совпадает с выходной %dx%d", fw, fh, spec.Width, spec.Height)
	}
	if workers < 1 {
		workers = 1
	}

	frameCount := int(math.Round(total * float64(spec.FPS)))
	if frameCount < 1 {
		frameCount = 1
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", buildFFmpegArgs(spec, audio.Path)...)
	var ffLog bytes.Buffer
	cmd.Stdout = &ffLog
	cmd.Stderr = &ffLog

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	rendered := make(chan renderedFrame, workers*2)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < frameCount; i++ {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var renderWG sync.WaitGroup
	framePool := system.NewFramePool(image.Rect(0, 0, spec.Width, spec.Height))
	for w := 0; w < workers; w++ {
		renderWG.Add(1)
		g.Go(func() error {
			defer renderWG.Done()
			for i := range jobs {
				// Кодер перечисляет дискретные моменты t_i = i / fps;
				// последний кадр прижимается к границе дорожки
				t := float64(i) / float64(spec.FPS)
				if t > total {
					t = total
				}

				buf := framePool.Get()
				if err := frames.FrameInto(t, buf); err != nil {
					framePool.Put(buf)
					return fmt.Errorf("кадр %d (t=%.3fs): %w", i, t, err)
				}

				select {
				case rendered <- renderedFrame{index: i, frame: buf}:
				case <-gctx.Done():
					framePool.Put(buf)
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		renderWG.Wait()
		close(rendered)
	}()

	// Воркеры завершаются в произвольном порядке; в поток кадры обязаны
	// уйти строго по индексу
	ow := newOrderedWriter(stdin, framePool)
	progressStep := spec.FPS * 5
	if progressStep < 1 {
		progressStep = 1
	}
	for f := range rendered {
		before := ow.next
		ow.Push(f.index, f.frame)
		if before/progressStep != ow.next/progressStep {
			fmt.Printf("[>] Кадры: %d/%d\n", ow.next, frameCount)
		}
	}

	renderErr := g.Wait()
	stdin.Close()
	waitErr := cmd.Wait()

	if renderErr != nil {
		return renderErr
	}
	if ow.err != nil {
		return fmt.Errorf("запись кадров в ffmpeg: %v\nЛог: %s", ow.err, ffLog.String())
	}
	if waitErr != nil {
		return fmt.Errorf("ffmpeg: %v\nЛог: %s", waitErr, ffLog.String())
	}
	return nil
}

func buildFFmpegArgs(spec OutputSpec, audioPath string) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"-framerate", fmt.Sprintf("%d", spec.FPS),
		"-i", "-",
	}

	if audioPath != "" {
		args = append(args, "-i", audioPath)
	}

	args = append(args, "-map", "0:v")
	if audioPath != "" {
		args = append(args, "-map", "1:a", "-c:a", "aac", "-b:a", "192k", "-shortest")
	}

	args = append(args, "-c:v", spec.Encoder, "-pix_fmt", "yuv420p", "-r", fmt.Sprintf("%d", spec.FPS))

	// Качество в зависимости от энкодера
	switch spec.Encoder {
	case "h264_videotoolbox":
		// VideoToolbox часто не поддерживает -q:v напрямую на всех версиях. Используем битрейт.
		bitrate := spec.Quality * 100 // кбит/с. 75 -> 7.5Мбит/с
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", spec.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", spec.Quality), "-preset", "medium")
	}

	args = append(args, "-movflags", "+faststart", spec.Path)
	return args
}
