package system

import (
	"image"
	"sync"
)

// FramePool переиспользует буферы кадров *image.RGBA между воркерами
// кодирования, чтобы снизить нагрузку на Garbage Collector (GC).
// Пул привязан к одной геометрии кадра: в одном прогоне она всегда одна.
type FramePool struct {
	rect image.Rectangle
	pool sync.Pool
}

// NewFramePool создает пул буферов кадров заданной геометрии
func NewFramePool(rect image.Rectangle) *FramePool {
	p := &FramePool{rect: rect}
	p.pool.New = func() interface{} {
		return image.NewRGBA(rect)
	}
	return p
}

// Get возвращает буфер кадра из пула или создает новый
func (p *FramePool) Get() *image.RGBA {
	return p.pool.Get().(*image.RGBA)
}

// Put возвращает буфер в пул. Чужая геометрия и nil молча отбрасываются.
func (p *FramePool) Put(img *image.RGBA) {
	if img == nil || img.Rect != p.rect {
		return
	}
	p.pool.Put(img)
}
