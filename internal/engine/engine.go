package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/storyshort/internal/asset"
	"github.com/ivlev/storyshort/internal/compositor"
	"github.com/ivlev/storyshort/internal/config"
	"github.com/ivlev/storyshort/internal/source"
	"github.com/ivlev/storyshort/internal/system"
	"github.com/ivlev/storyshort/internal/timeline"
	"github.com/ivlev/storyshort/internal/video"
)

// Project связывает один прогон: конфигурацию, источник изображений и кодер
type Project struct {
	Config  *config.Config
	Source  source.Source
	Encoder video.Encoder
}

func NewProject(cfg *config.Config, src source.Source, enc video.Encoder) *Project {
	return &Project{
		Config:  cfg,
		Source:  src,
		Encoder: enc,
	}
}

func (p *Project) Run(ctx context.Context) error {
	startTime := time.Now()

	audio, err := p.resolveAudio()
	if err != nil {
		return err
	}

	pool, err := p.loadPool()
	if err != nil {
		return err
	}

	tl, err := p.resolveTimeline(audio.Duration, len(pool))
	if err != nil {
		return err
	}

	if p.Config.StoryboardOutput != "" {
		if err := timeline.WriteStoryboard(tl, p.Config.StoryboardOutput); err != nil {
			return fmt.Errorf("запись раскадровки: %w", err)
		}
		fmt.Printf("[*] Раскадровка сохранена: %s\n", p.Config.StoryboardOutput)
	}
	if p.Config.GenerateStoryboard {
		// Режим генерации: план готов, кодирование не запускаем
		return nil
	}

	comp, err := compositor.New(tl, pool, p.Config.Width, p.Config.Height)
	if err != nil {
		return err
	}
	for _, warn := range comp.Warnings() {
		fmt.Printf("[!] %s\n", warn)
	}

	workers := p.Config.Workers
	if workers <= 0 {
		workers = system.RenderWorkers(p.Config.Width, p.Config.Height)
	}

	fmt.Println("--- [PROJECT: STORYSHORT ENGINE] ---")
	fmt.Printf("[*] Озвучка: %s (%.2fs) | Изображений: %d | Сегментов: %d\n",
		filepath.Base(audio.Path), audio.Duration, len(pool), len(tl.Segments))
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Воркеров: %d | Кодер: %s\n",
		p.Config.Width, p.Config.Height, p.Config.FPS, workers, p.Config.VideoEncoder)
	fmt.Println("-----------------------------")

	spec := video.OutputSpec{
		Width:   p.Config.Width,
		Height:  p.Config.Height,
		FPS:     p.Config.FPS,
		Encoder: p.Config.VideoEncoder,
		Quality: p.Config.Quality,
		Path:    p.Config.OutputVideo,
	}

	encodeStart := time.Now()
	if err := p.Encoder.Encode(ctx, comp, tl.Total, audio, spec, workers); err != nil {
		return fmt.Errorf("кодирование: %w", err)
	}
	encodeTime := time.Since(encodeStart)
	totalTime := time.Since(startTime)

	if p.Config.ShowStats {
		frames := int(tl.Total * float64(p.Config.FPS))
		effectiveFPS := float64(frames) / totalTime.Seconds()
		report := fmt.Sprintf(
			"--- [PERFORMANCE REPORT] ---\n"+
				"Build: %s\n"+
				"Total Time: %.2fs\n"+
				"Encoding: %.2fs\n"+
				"Frames: %d\n"+
				"Effective FPS: %.2f\n"+
				"----------------------------\n",
			p.Config.BuildVersion, totalTime.Seconds(), encodeTime.Seconds(), frames, effectiveFPS,
		)
		fmt.Print(report)

		// Логирование в файл
		logEntry := fmt.Sprintf("[%s] Build: %s | Audio: %s | Images: %d | Total: %.2fs | Encode: %.2fs | FPS: %.2f\n",
			time.Now().Format("2006-01-02 15:04:05"),
			p.Config.BuildVersion,
			filepath.Base(audio.Path),
			len(pool),
			totalTime.Seconds(),
			encodeTime.Seconds(),
			effectiveFPS,
		)

		f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			f.WriteString(logEntry)
			f.Close()
		} else {
			fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
		}
	}

	return nil
}

// resolveAudio собирает дорожку озвучки: длительность либо задана в
// конфиге, либо измеряется по файлу. Нулевая дорожка — ошибка запуска.
func (p *Project) resolveAudio() (asset.AudioTrack, error) {
	audio := asset.AudioTrack{
		Path:     p.Config.AudioPath,
		Duration: p.Config.TotalDuration,
	}

	if audio.Duration <= 0 && audio.Path != "" {
		dur, err := system.GetAudioDuration(audio.Path)
		if err != nil {
			return audio, fmt.Errorf("измерение длительности %s: %w", audio.Path, err)
		}
		audio.Duration = dur
		fmt.Printf("[*] Длительность видео установлена по озвучке: %.2fs\n", dur)
	}

	if audio.Duration <= 0 {
		return audio, fmt.Errorf("озвучка пуста или отсутствует: %w", timeline.ErrInvalidDuration)
	}
	return audio, nil
}

// loadPool декодирует пул изображений и добавляет QR-карточку, если задана
// ссылка
func (p *Project) loadPool() ([]asset.ImageAsset, error) {
	src := p.Source
	if p.Config.QRLink != "" {
		card, err := source.NewQRCard(p.Config.QRLink, p.Config.Width, p.Config.Height)
		if err != nil {
			return nil, err
		}
		src = source.NewCombined(p.Source, card)
		fmt.Printf("[*] В конец добавлена QR-карточка: %s\n", p.Config.QRLink)
	}

	if src.Count() == 0 {
		return nil, fmt.Errorf("источник не содержит изображений: %w", timeline.ErrInsufficientAssets)
	}

	pool := asset.LoadPool(src)
	for _, a := range pool {
		if a.Malformed() {
			fmt.Printf("[!] Изображение не прочитано: %v\n", a.Err)
		}
	}
	return pool, nil
}

// resolveTimeline планирует таймлайн либо берет готовую раскадровку,
// масштабируя ее под фактическую длительность озвучки
func (p *Project) resolveTimeline(total float64, imageCount int) (*timeline.Timeline, error) {
	if p.Config.StoryboardInput != "" {
		tl, err := timeline.ReadStoryboard(p.Config.StoryboardInput)
		if err != nil {
			return nil, fmt.Errorf("чтение раскадровки: %w", err)
		}
		fmt.Printf("[*] Используется раскадровка: %s\n", p.Config.StoryboardInput)

		if tl.Total != total {
			scaled, err := tl.Rescale(total)
			if err != nil {
				return nil, err
			}
			fmt.Printf("[*] Раскадровка масштабирована под озвучку (x%.3f)\n", total/tl.Total)
			tl = scaled
		}
		return tl, nil
	}

	planCfg := timeline.PlanConfig{
		MinSegment: p.Config.MinSegment,
		MaxSegment: p.Config.MaxSegment,
		Crossfade:  p.Config.FadeDuration,
	}
	return timeline.Plan(total, imageCount, planCfg)
}
