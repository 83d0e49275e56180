package video

import (
	"image"
	"io"

	"github.com/ivlev/storyshort/internal/system"
)

// orderedWriter выписывает кадры в поток строго по индексу: обгонные кадры
// откладываются до прихода недостающих. Объем отложенного ограничен снаружи
// емкостью канала rendered плюс числом воркеров. После первой ошибки записи
// кадры продолжают приниматься и возвращаться в пул, чтобы не заблокировать
// воркеров, но в поток уже ничего не уходит.
type orderedWriter struct {
	w       io.Writer
	pool    *system.FramePool
	pending map[int]*image.RGBA
	next    int
	err     error
}

func newOrderedWriter(w io.Writer, pool *system.FramePool) *orderedWriter {
	return &orderedWriter{
		w:       w,
		pool:    pool,
		pending: make(map[int]*image.RGBA),
	}
}

func (ow *orderedWriter) Push(index int, frame *image.RGBA) {
	ow.pending[index] = frame
	for {
		buf, ok := ow.pending[ow.next]
		if !ok {
			return
		}
		delete(ow.pending, ow.next)
		if ow.err == nil {
			if _, err := ow.w.Write(buf.Pix); err != nil {
				ow.err = err
			}
		}
		ow.pool.Put(buf)
		ow.next++
	}
}
