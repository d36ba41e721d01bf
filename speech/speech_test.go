package speech

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestPCMToInts(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x80}
	got := pcmToInts(pcm)
	want := []int{1, -1, -32768}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestWriteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	pcm := make([]byte, 4800) // 100ms of silence
	if err := writeWAV(path, pcm); err != nil {
		t.Fatalf("writeWAV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("output is not a valid wav file")
	}
	dec.ReadInfo()
	if dec.SampleRate != ttsSampleRate {
		t.Fatalf("sample rate = %d, want %d", dec.SampleRate, ttsSampleRate)
	}
	if dec.NumChans != ttsChannels {
		t.Fatalf("channels = %d, want %d", dec.NumChans, ttsChannels)
	}
	if dec.BitDepth != ttsBitDepth {
		t.Fatalf("bit depth = %d, want %d", dec.BitDepth, ttsBitDepth)
	}
}
