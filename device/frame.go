package device

import (
	"github.com/kestrelcam/v4lcap/v4l2"
)

// Frame is one dequeued buffer's worth of captured (or, for output
// devices, about-to-be-queued) image data, together with the metadata
// the kernel reported alongside it.
type Frame struct {
	// Data is the buffer payload, truncated to BytesUsed. It is a copy
	// taken out of the session's memory-mapped buffer before that buffer
	// was re-queued with the driver, so it remains valid and unaffected by
	// any later RawRead/Read on the same session.
	Data []byte

	Format v4l2.PixFormat

	Index     uint32
	BufType   v4l2.BufType
	Flags     uint32
	Field     v4l2.FieldOrder
	Sequence  uint32
	Memory    v4l2.MemoryType
	Timestamp float64 // seconds, Sec + Usec/1e6
	Timecode  *v4l2.Timecode
}

func (f Frame) IsKeyFrame() bool { return f.Flags&v4l2.BufFlagKeyFrame != 0 }
func (f Frame) IsPFrame() bool   { return f.Flags&v4l2.BufFlagPFrame != 0 }
func (f Frame) IsBFrame() bool   { return f.Flags&v4l2.BufFlagBFrame != 0 }
func (f Frame) HasError() bool   { return f.Flags&v4l2.BufFlagError != 0 }

func frameFromBuffer(buf v4l2.Buffer, format v4l2.PixFormat, data []byte) Frame {
	f := Frame{
		Data:      data[:buf.BytesUsed],
		Format:    format,
		Index:     buf.Index,
		BufType:   buf.BufType,
		Flags:     buf.Flags,
		Field:     buf.Field,
		Sequence:  buf.Sequence,
		Memory:    buf.Memory,
		Timestamp: float64(buf.Timestamp.Sec) + float64(buf.Timestamp.Usec)/1e6,
	}
	if buf.Timecode.Type != 0 || buf.Timecode.Flags != 0 {
		tc := buf.Timecode
		f.Timecode = &tc
	}
	return f
}
