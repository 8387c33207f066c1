package main

import (
	"testing"

	"cutline/internal/domain"
	"cutline/internal/edl"
	"cutline/internal/engine"
)

func TestParseBox(t *testing.T) {
	box, err := parseBox("0.1, 0.2,0.3,0.4")
	if err != nil || box != (domain.Box{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4}) {
		t.Fatalf("box=%+v err=%v", box, err)
	}
	if _, err := parseBox("1,2,3"); err == nil {
		t.Fatalf("expected arity error")
	}
	if _, err := parseBox("1,2,x,4"); err == nil {
		t.Fatalf("expected number error")
	}
}

func TestParseSeconds(t *testing.T) {
	if v, err := parseSeconds("12.5s"); err != nil || v != 12.5 {
		t.Fatalf("v=%v err=%v", v, err)
	}
	if _, err := parseSeconds("soon"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEffectUpdateOnlyChangedFlags(t *testing.T) {
	cmd := effectCmd(engine.TrackZoom)
	update, _, err := cmd.Find([]string{"update"})
	if err != nil {
		t.Fatal(err)
	}
	if err := update.ParseFlags([]string{"--end", "9", "--scale", "3"}); err != nil {
		t.Fatal(err)
	}
	u, err := effectUpdateFromFlags(update, string(edl.OpResizeEnd))
	if err != nil {
		t.Fatal(err)
	}
	if u.Start != nil || u.End == nil || *u.End != 9 || u.Scale == nil || *u.Scale != 3 || u.X != nil || u.Speed != nil {
		t.Fatalf("update = %+v", u)
	}
	if _, err := effectUpdateFromFlags(update, "stretch"); err == nil {
		t.Fatalf("expected unknown op error")
	}
}

func TestLookUpdateKeepsUntouchedGroups(t *testing.T) {
	cmd := lookCmd()
	if err := cmd.ParseFlags([]string{"--mic-mute", "--brightness", "0.2"}); err != nil {
		t.Fatal(err)
	}
	cur := domain.NewProject("p", "p", 10, domain.Resolution{}, "").EDL
	u := lookUpdateFromFlags(cmd, cur)
	if u.CameraOverlay != nil {
		t.Fatalf("camera should be untouched: %+v", u.CameraOverlay)
	}
	if u.AudioMix == nil || !u.AudioMix.MicrophoneMute || u.AudioMix.MicrophoneGain != 1 {
		t.Fatalf("audio = %+v", u.AudioMix)
	}
	if u.ColorCorrection == nil || u.ColorCorrection.Brightness != 0.2 || u.ColorCorrection.Contrast != 1 {
		t.Fatalf("color = %+v", u.ColorCorrection)
	}
}
