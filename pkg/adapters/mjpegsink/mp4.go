package mjpegsink

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Milliseconds; keeps sample timing exact for the pts values we receive.
const timescale = 1000

// buildMP4 creates a fragmented MP4 container from the JPEG samples.
// Every sample is a sync sample since MJPEG has no inter-frame prediction.
func (s *Sink) buildMP4() ([]byte, error) {
	trackID := uint32(1)

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")

	trak := init.Moov.Trak

	entry := mp4.CreateVisualSampleEntryBox("jpeg", uint16(s.width), uint16(s.height), nil)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)

	trak.Tkhd.Width = mp4.Fixed32(s.width << 16)
	trak.Tkhd.Height = mp4.Fixed32(s.height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	nominalDur := uint32(float64(timescale) / s.fps)
	if nominalDur == 0 {
		nominalDur = 1
	}

	for i, sm := range s.samples {
		var dur uint32
		if i < len(s.samples)-1 {
			dur = uint32(s.samples[i+1].timeMs - sm.timeMs)
		} else {
			dur = nominalDur
		}
		if dur == 0 {
			dur = nominalDur
		}

		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: mp4.SyncSampleFlags,
				Size:  uint32(len(sm.data)),
				Dur:   dur,
			},
			DecodeTime: uint64(sm.timeMs),
			Data:       sm.data,
		})
	}

	var buf bytes.Buffer

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}

	return buf.Bytes(), nil
}
