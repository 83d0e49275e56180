package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	}
}

var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true,
	".ogg": true, ".aac": true, ".flac": true,
}

// FindLatestAudio возвращает самый свежий аудио-файл в папке
func FindLatestAudio(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latest string
	var latestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().After(latestMod) {
			continue
		}
		latestMod = info.ModTime()
		latest = filepath.Join(dir, e.Name())
	}

	if latest == "" {
		return "", fmt.Errorf("в папке %s не найдено аудио-файлов", dir)
	}
	return latest, nil
}

// GetAudioDuration измеряет длительность аудио-дорожки через ffprobe
func GetAudioDuration(path string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	raw := strings.TrimSpace(string(out))
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: неожиданный вывод %q", path, raw)
	}
	return duration, nil
}

// RenderWorkers подбирает количество потоков рендеринга кадров:
// по числу логических ядер, но с ограничением по доступной памяти,
// чтобы буферы кадров (вместе с очередью переупорядочивания) не
// выдавили систему в swap.
func RenderWorkers(width, height int) int {
	workers, err := cpu.Counts(true)
	if err != nil || workers < 1 {
		workers = 2
	}

	frameBytes := uint64(width) * uint64(height) * 4
	if frameBytes == 0 {
		return workers
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		// На каждый воркер приходится до трех кадров в полете
		// (рендер + очередь записи); берем не больше половины свободной памяти
		budget := vm.Available / 2
		maxByMem := int(budget / (frameBytes * 3))
		if maxByMem < 1 {
			maxByMem = 1
		}
		if workers > maxByMem {
			workers = maxByMem
		}
	}

	return workers
}

func GetBestH264Encoder() (string, string) {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)

	out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput()
	if err == nil {
		for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
			if strings.Contains(string(out), name) {
				return name, ""
			}
		}
	}

	return "libx264", ""
}
