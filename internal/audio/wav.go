package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 0x0001
	wavFormatFloat      = 0x0003
	wavFormatExtensible = 0xFFFE

	// Larger fmt chunks than this are not WAV headers we understand.
	maxFmtChunk = 1 << 10
)

// wavHeader is the part of a RIFF/WAVE header needed to pick a decoder.
// format holds the subformat for WAVE_FORMAT_EXTENSIBLE streams.
type wavHeader struct {
	format   uint16
	channels int
	rate     int
	bits     int
	dataSize int64
}

// DecodeWAV reads a WAV stream into a shaped waveform ([samples] for mono,
// [channels, samples] otherwise). Integer PCM and IEEE float data are
// accepted, either plain or wrapped in WAVE_FORMAT_EXTENSIBLE.
func DecodeWAV(r io.ReadSeeker) (Waveform, error) {
	h, err := readWAVHeader(r)
	if err != nil {
		return Waveform{}, err
	}
	switch h.format {
	case wavFormatPCM:
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return Waveform{}, fmt.Errorf("audio: rewind wav: %w", err)
		}
		return decodePCM(r)
	case wavFormatFloat:
		// The reader sits at the start of the data chunk.
		return decodeFloat(r, h)
	default:
		return Waveform{}, fmt.Errorf("audio: unsupported wav format %#04x", h.format)
	}
}

func decodePCM(r io.ReadSeeker) (Waveform, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return Waveform{}, fmt.Errorf("audio: not a valid wav stream")
	}
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("audio: decode wav: %w", err)
	}
	channels := int(d.NumChans)
	if channels <= 0 {
		return Waveform{}, fmt.Errorf("audio: wav declares %d channels", channels)
	}
	depth := pcm.SourceBitDepth
	if depth == 0 {
		depth = int(d.BitDepth)
	}
	scale := float32(math.Exp2(float64(depth - 1)))
	data := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		if depth == 8 {
			// 8-bit WAV is unsigned.
			data[i] = float32(v-128) / 128
			continue
		}
		data[i] = float32(v) / scale
	}
	return FromInterleaved(data, channels, int(d.SampleRate)), nil
}

func decodeFloat(r io.Reader, h wavHeader) (Waveform, error) {
	width := h.bits / 8
	if h.bits != 32 && h.bits != 64 {
		return Waveform{}, fmt.Errorf("audio: unsupported float wav depth %d", h.bits)
	}
	raw, err := io.ReadAll(io.LimitReader(r, h.dataSize))
	if err != nil {
		return Waveform{}, fmt.Errorf("audio: read wav data: %w", err)
	}
	frame := width * h.channels
	n := (len(raw) / frame) * h.channels
	data := make([]float32, n)
	for i := range data {
		b := raw[i*width:]
		var v float64
		if width == 4 {
			v = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		} else {
			v = math.Float64frombits(binary.LittleEndian.Uint64(b))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		data[i] = float32(v)
	}
	return FromInterleaved(data, h.channels, h.rate), nil
}

// readWAVHeader walks the RIFF chunks up to the data chunk and leaves r
// positioned at its first byte.
func readWAVHeader(r io.ReadSeeker) (wavHeader, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil ||
		string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return wavHeader{}, fmt.Errorf("audio: not a valid wav stream")
	}
	var (
		h       wavHeader
		haveFmt bool
	)
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return wavHeader{}, fmt.Errorf("audio: not a valid wav stream: no data chunk")
		}
		id := string(chunk[:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:]))
		switch id {
		case "fmt ":
			if size < 16 || size > maxFmtChunk {
				return wavHeader{}, fmt.Errorf("audio: wav fmt chunk of %d bytes", size)
			}
			body := make([]byte, size+size&1)
			if _, err := io.ReadFull(r, body); err != nil {
				return wavHeader{}, fmt.Errorf("audio: read wav fmt chunk: %w", err)
			}
			var err error
			if h, err = parseFmtChunk(body[:size]); err != nil {
				return wavHeader{}, err
			}
			haveFmt = true
			continue
		case "data":
			if !haveFmt {
				return wavHeader{}, fmt.Errorf("audio: wav data chunk before fmt chunk")
			}
			h.dataSize = size
			return h, nil
		}
		if _, err := r.Seek(size+size&1, io.SeekCurrent); err != nil {
			return wavHeader{}, fmt.Errorf("audio: skip wav chunk %q: %w", id, err)
		}
	}
}

// parseFmtChunk reads a WAVEFORMATEX body, resolving the subformat GUID of
// extensible headers to its format tag.
func parseFmtChunk(body []byte) (wavHeader, error) {
	le := binary.LittleEndian
	h := wavHeader{
		format:   le.Uint16(body[0:2]),
		channels: int(le.Uint16(body[2:4])),
		rate:     int(le.Uint32(body[4:8])),
		bits:     int(le.Uint16(body[14:16])),
	}
	if h.format == wavFormatExtensible {
		// cbSize(2) validBits(2) channelMask(4) then the 16-byte GUID,
		// whose leading two bytes carry the plain format tag.
		if len(body) < 40 || le.Uint16(body[16:18]) < 22 {
			return wavHeader{}, fmt.Errorf("audio: truncated extensible wav header")
		}
		guid := body[24:40]
		if !bytes.Equal(guid[2:], ksDataFormatSuffix[:]) {
			return wavHeader{}, fmt.Errorf("audio: unsupported wav subformat % x", guid)
		}
		h.format = le.Uint16(guid[0:2])
	}
	if h.channels <= 0 {
		return wavHeader{}, fmt.Errorf("audio: wav declares %d channels", h.channels)
	}
	if h.rate <= 0 {
		return wavHeader{}, fmt.Errorf("audio: wav declares sample rate %d", h.rate)
	}
	return h, nil
}

// ksDataFormatSuffix is the tail shared by the KSDATAFORMAT_SUBTYPE GUIDs.
var ksDataFormatSuffix = [14]byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, fmt.Errorf("audio: open wav: %w", err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

// EncodeWAV writes b as 16-bit mono PCM.
func EncodeWAV(w io.WriteSeeker, b Buffer) error {
	enc := wav.NewEncoder(w, b.SampleRate, 16, 1, wavFormatPCM)
	ints := make([]int, len(b.Samples))
	for i, s := range b.Samples {
		ints[i] = int(toInt16(s))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: b.SampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audio: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: finalize wav: %w", err)
	}
	return nil
}

// WriteWAVFile writes b to path as 16-bit mono PCM.
func WriteWAVFile(path string, b Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create wav: %w", err)
	}
	if err := EncodeWAV(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadMonoWAV decodes WAV bytes and reduces them to mono.
func ReadMonoWAV(data []byte) (Buffer, error) {
	w, err := DecodeWAV(bytes.NewReader(data))
	if err != nil {
		return Buffer{}, err
	}
	return Normalize(w)
}

// PCM16 encodes b as signed 16-bit little-endian samples.
func PCM16(b Buffer) []byte {
	out := make([]byte, 2*len(b.Samples))
	for i, s := range b.Samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(toInt16(s)))
	}
	return out
}

func toInt16(s float32) int16 {
	v := math.Round(float64(s) * 32767)
	if v > math.MaxInt16 {
		v = math.MaxInt16
	}
	if v < math.MinInt16 {
		v = math.MinInt16
	}
	return int16(v)
}
