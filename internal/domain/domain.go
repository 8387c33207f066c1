package domain

import "github.com/google/uuid"

// MinEffectDuration is the shortest zoom or speed effect, in seconds.
const MinEffectDuration = 0.5

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Sources struct {
	Screen     string `json:"screen,omitempty"`
	Camera     string `json:"camera,omitempty"`
	Microphone string `json:"microphone,omitempty"`
}

type Project struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	CreatedAt  string           `json:"created_at" format:"date-time"`
	Sources    Sources          `json:"sources"`
	Duration   float64          `json:"duration"`
	Resolution Resolution       `json:"resolution"`
	EDL        EditDecisionList `json:"edl"`
}

type EditDecisionList struct {
	Segments        []Segment       `json:"segments"`
	Zoom            []ZoomEffect    `json:"zoom"`
	Speed           []SpeedEffect   `json:"speed"`
	Annotations     []Annotation    `json:"annotations"`
	CameraOverlay   CameraOverlay   `json:"camera_overlay"`
	AudioMix        AudioMix        `json:"audio_mix"`
	ColorCorrection ColorCorrection `json:"color_correction"`
}

type Segment struct {
	ID      string  `json:"id"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Enabled bool    `json:"enabled"`
}

type ZoomEffect struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

func (z ZoomEffect) EffectID() string { return z.ID }

func (z ZoomEffect) Bounds() (float64, float64) { return z.Start, z.End }

func (z ZoomEffect) WithBounds(start, end float64) ZoomEffect {
	z.Start, z.End = start, end
	return z
}

type SpeedEffect struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Speed float64 `json:"speed"`
}

func (s SpeedEffect) EffectID() string { return s.ID }

func (s SpeedEffect) Bounds() (float64, float64) { return s.Start, s.End }

func (s SpeedEffect) WithBounds(start, end float64) SpeedEffect {
	s.Start, s.End = start, end
	return s
}

type AnnotationMode string

const (
	AnnotationOutline AnnotationMode = "outline"
	AnnotationBlur    AnnotationMode = "blur"
	AnnotationText    AnnotationMode = "text"
	AnnotationArrow   AnnotationMode = "arrow"
)

// Valid reports whether m is a known annotation mode.
func (m AnnotationMode) Valid() bool {
	switch m {
	case AnnotationOutline, AnnotationBlur, AnnotationText, AnnotationArrow:
		return true
	}
	return false
}

// Box is a rectangle in normalized frame coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Annotation struct {
	ID        string         `json:"id"`
	Start     float64        `json:"start"`
	End       float64        `json:"end"`
	Box       Box            `json:"box"`
	Color     string         `json:"color"`
	Opacity   float64        `json:"opacity"`
	Thickness float64        `json:"thickness"`
	Text      string         `json:"text,omitempty"`
	Mode      AnnotationMode `json:"mode" enum:"outline,blur,text,arrow"`
}

type CameraOverlay struct {
	Enabled     bool    `json:"enabled"`
	Shape       string  `json:"shape" enum:"circle,rounded,square"`
	Position    string  `json:"position" enum:"top-left,top-right,bottom-left,bottom-right"`
	Size        float64 `json:"size"`
	BorderWidth float64 `json:"border_width"`
	BorderColor string  `json:"border_color,omitempty"`
}

type AudioMix struct {
	MicrophoneGain float64 `json:"microphone_gain"`
	SystemGain     float64 `json:"system_gain"`
	MicrophoneMute bool    `json:"microphone_mute"`
	SystemMute     bool    `json:"system_mute"`
	NoiseReduction bool    `json:"noise_reduction"`
}

type ColorCorrection struct {
	Brightness  float64 `json:"brightness"`
	Contrast    float64 `json:"contrast"`
	Saturation  float64 `json:"saturation"`
	Temperature float64 `json:"temperature"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.NewString()
}

// NewProject synthesizes an empty project: one enabled segment spanning the
// whole source and neutral overlay, mix and color settings.
func NewProject(id, name string, duration float64, res Resolution, createdAt string) Project {
	if duration < 0 {
		duration = 0
	}
	return Project{
		ID:         id,
		Name:       name,
		CreatedAt:  createdAt,
		Duration:   duration,
		Resolution: res,
		EDL: EditDecisionList{
			Segments:    []Segment{{ID: NewID(), Start: 0, End: duration, Enabled: true}},
			Zoom:        []ZoomEffect{},
			Speed:       []SpeedEffect{},
			Annotations: []Annotation{},
			CameraOverlay: CameraOverlay{
				Shape:    "circle",
				Position: "bottom-right",
				Size:     0.2,
			},
			AudioMix: AudioMix{
				MicrophoneGain: 1,
				SystemGain:     1,
			},
			ColorCorrection: ColorCorrection{
				Contrast:   1,
				Saturation: 1,
			},
		},
	}
}
