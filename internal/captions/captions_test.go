package captions

import "testing"

const sampleVTT = `WEBVTT

1
00:00:00.000 --> 00:00:02.500
Hello there,

2
00:00:02.500 --> 00:00:05.000
it's a beautiful day.

NOTE this is a comment block
and should be ignored

3
00:00:05.000 --> 00:00:06.250
Isn't it?
`

func TestParseBasic(t *testing.T) {
	cues := Parse(sampleVTT)
	if len(cues) != 3 {
		t.Fatalf("len(cues) = %d, want 3", len(cues))
	}
	if cues[0].Text != "Hello there," {
		t.Errorf("cues[0].Text = %q", cues[0].Text)
	}
	if cues[0].Start != 0 || cues[0].Duration != 2.5 {
		t.Errorf("cues[0] = %+v, want Start=0 Duration=2.5", cues[0])
	}
	if cues[2].Text != "Isn't it?" {
		t.Errorf("cues[2].Text = %q", cues[2].Text)
	}
}

func TestParseMultiLineCueTextJoined(t *testing.T) {
	vtt := "WEBVTT\n\n00:00:00.000 --> 00:00:03.000\nfirst line\nsecond line\n"
	cues := Parse(vtt)
	if len(cues) != 1 {
		t.Fatalf("len(cues) = %d, want 1", len(cues))
	}
	if cues[0].Text != "first line second line" {
		t.Errorf("cues[0].Text = %q", cues[0].Text)
	}
}

func TestParseDropsEmptyCues(t *testing.T) {
	vtt := "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\n\n00:00:01.000 --> 00:00:02.000\nactual text\n"
	cues := Parse(vtt)
	if len(cues) != 1 {
		t.Fatalf("len(cues) = %d, want 1 (empty cue dropped)", len(cues))
	}
	if cues[0].Text != "actual text" {
		t.Errorf("cues[0].Text = %q", cues[0].Text)
	}
}

func TestParseHourTimestamps(t *testing.T) {
	vtt := "WEBVTT\n\n01:02:03.004 --> 01:02:04.500\ntext\n"
	cues := Parse(vtt)
	if len(cues) != 1 {
		t.Fatalf("len(cues) = %d, want 1", len(cues))
	}
	want := float64(1*3600+2*60+3) + 0.004
	if cues[0].Start != want {
		t.Errorf("Start = %v, want %v", cues[0].Start, want)
	}
}

func TestMergeChunksShiftsOffsets(t *testing.T) {
	chunks := [][]Cue{
		{{Text: "a", Start: 1, Duration: 1}},
		{{Text: "b", Start: 1, Duration: 1}},
	}
	merged := MergeChunks(chunks, 30)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if merged[0].Start != 1 {
		t.Errorf("merged[0].Start = %v, want 1", merged[0].Start)
	}
	if merged[1].Start != 31 {
		t.Errorf("merged[1].Start = %v, want 31", merged[1].Start)
	}
}

func TestMergeChunksEmpty(t *testing.T) {
	merged := MergeChunks(nil, 30)
	if len(merged) != 0 {
		t.Errorf("len(merged) = %d, want 0", len(merged))
	}
}
