package audio

import (
	"encoding/binary"
	"testing"
)

func TestEncodeWAV_Header(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1}
	data := EncodeWAV(samples, 16000)

	if len(data) != 44+len(samples)*2 {
		t.Fatalf("unexpected length %d", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}
	if dataLen := binary.LittleEndian.Uint32(data[40:44]); dataLen != uint32(len(samples)*2) {
		t.Errorf("data length = %d, want %d", dataLen, len(samples)*2)
	}
}

func TestFloatToPCM16_Clipping(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},   // clipped
		{-2, -32767}, // clipped
	}
	for _, tt := range tests {
		if got := floatToPCM16(tt.in); got != tt.want {
			t.Errorf("floatToPCM16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
