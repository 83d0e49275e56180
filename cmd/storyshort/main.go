package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/storyshort/internal/config"
	"github.com/ivlev/storyshort/internal/engine"
	"github.com/ivlev/storyshort/internal/source"
	"github.com/ivlev/storyshort/internal/system"
	"github.com/ivlev/storyshort/internal/video"
)

const buildVersion = "storyshort-1.0"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// Создаем нужные директории, если их нет
	dirs := []string{"input/audio", "input/images", "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	configPtr := flag.String("config", "", "Путь к YAML-пресету конфигурации")
	audioPtr := flag.String("audio", "", "Путь к озвучке (по умолчанию: самый свежий файл в input/audio/)")
	imagesPtr := flag.String("images", "input/images", "Папка с изображениями, файл или PDF-колода")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	durationPtr := flag.Float64("duration", 0, "Длительность видео (если 0, берется из озвучки)")
	fpsPtr := flag.Int("fps", 30, "FPS")
	workersPtr := flag.Int("workers", 0, "Потоки рендеринга (0 - авто по CPU и памяти)")
	minSegPtr := flag.Float64("min-slide", 2.5, "Минимальный показ одного изображения (сек)")
	maxSegPtr := flag.Float64("max-slide", 5.0, "Максимальный показ одного изображения (сек)")
	fadePtr := flag.Float64("fade", 0.5, "Длительность перехода (сек)")
	presetPtr := flag.String("preset", "9:16", "Пресет формата: 9:16 (Shorts/TikTok), 16:9, 4:5 (Instagram)")
	dpiPtr := flag.Int("dpi", 150, "DPI рендеринга страниц PDF-колоды")
	qrPtr := flag.String("qr-link", "", "Ссылка для QR-карточки в конце ролика")
	sbInPtr := flag.String("storyboard", "", "Готовая раскадровка (YAML), масштабируется под озвучку")
	sbOutPtr := flag.String("storyboard-output", "", "Куда сохранить раскадровку")
	sbGenPtr := flag.Bool("gen-storyboard", false, "Только спланировать и сохранить раскадровку, без кодирования")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")

	flag.Parse()

	cfg := &config.Config{}
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка пресета: %v", err)
		}
		cfg = loaded
	}

	// Явно указанные флаги имеют приоритет над пресетом
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	pick := func(name string, current *float64, flagValue float64) {
		if explicit[name] || *current == 0 {
			*current = flagValue
		}
	}
	pickInt := func(name string, current *int, flagValue int) {
		if explicit[name] || *current == 0 {
			*current = flagValue
		}
	}

	if explicit["preset"] || cfg.Width == 0 || cfg.Height == 0 {
		cfg.ApplyPreset(*presetPtr)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		cfg.Width, cfg.Height = 1080, 1920
	}

	if explicit["duration"] {
		cfg.TotalDuration = *durationPtr
	}
	pickInt("fps", &cfg.FPS, *fpsPtr)
	if explicit["workers"] {
		cfg.Workers = *workersPtr
	}
	pick("min-slide", &cfg.MinSegment, *minSegPtr)
	pick("max-slide", &cfg.MaxSegment, *maxSegPtr)
	if explicit["fade"] || cfg.FadeDuration == 0 {
		cfg.FadeDuration = *fadePtr
	}
	pickInt("dpi", &cfg.DPI, *dpiPtr)
	if *qrPtr != "" {
		cfg.QRLink = *qrPtr
	}
	if *sbInPtr != "" {
		cfg.StoryboardInput = *sbInPtr
	}
	if *sbOutPtr != "" {
		cfg.StoryboardOutput = *sbOutPtr
	}
	cfg.GenerateStoryboard = *sbGenPtr
	cfg.ShowStats = cfg.ShowStats || *statsPtr
	cfg.BuildVersion = buildVersion

	// Озвучка: явный путь или самый свежий файл
	audioPath := *audioPtr
	if audioPath == "" {
		audioPath = cfg.AudioPath
	}
	if audioPath == "" {
		latest, err := system.FindLatestAudio("input/audio")
		if err == nil {
			audioPath = latest
			fmt.Printf("[*] Выбрана озвучка: %s\n", audioPath)
		}
	}
	if audioPath == "" && cfg.TotalDuration <= 0 {
		log.Fatalf("[-] Ошибка: нет озвучки. Положите файл в input/audio/ или задайте -duration")
	}
	cfg.AudioPath = audioPath

	imagesPath := *imagesPtr
	if cfg.ImagesPath != "" && !explicit["images"] {
		imagesPath = cfg.ImagesPath
	}
	cfg.ImagesPath = imagesPath

	src, err := source.Open(imagesPath, cfg.DPI)
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации источника: %v", err)
	}
	defer src.Close()

	if src.Count() == 0 {
		log.Fatalf("[-] Ошибка: в %s нет изображений", imagesPath)
	}

	if explicit["output"] || cfg.OutputVideo == "" {
		cfg.OutputVideo = *outputPtr
	}
	if cfg.OutputVideo == "" {
		nameSource := audioPath
		if nameSource == "" {
			nameSource = imagesPath
		}
		baseName := filepath.Base(nameSource)
		nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
		cleanName := strings.ReplaceAll(nameOnly, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		cfg.OutputVideo = filepath.Join("output", fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
	}

	if cfg.GenerateStoryboard && cfg.StoryboardOutput == "" {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		cfg.StoryboardOutput = filepath.Join("output", fmt.Sprintf("storyboard_%s.yaml", timestamp))
	}

	if cfg.VideoEncoder == "" {
		encoderName, _ := system.GetBestH264Encoder()
		if encoderName != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
		}
		cfg.VideoEncoder = encoderName
	}

	if *qualityPtr != 0 {
		cfg.Quality = *qualityPtr
	}
	if cfg.Quality == 0 {
		switch cfg.VideoEncoder {
		case "h264_videotoolbox":
			cfg.Quality = 75 // Хорошее качество для VideoToolbox
		case "h264_nvenc":
			cfg.Quality = 28 // Эквивалент CRF для NVENC
		default:
			cfg.Quality = 23 // Стандартный CRF для x264
		}
	}

	project := engine.NewProject(cfg, src, &video.FFmpegEncoder{})
	if err := project.Run(context.Background()); err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	if cfg.GenerateStoryboard {
		fmt.Printf("[+++] Успех! Раскадровка: %s\n", cfg.StoryboardOutput)
	} else {
		fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputVideo)
	}
}
