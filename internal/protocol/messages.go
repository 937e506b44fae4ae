// Package protocol defines the control messages exchanged with the backend
// over the duplex channel. Data frames are raw PCM16 and have no type here.
package protocol

// Client → server message types.
const (
	TypeHello      = "hello"
	TypeAudioStart = "audio_start"
	TypeAudioStop  = "audio_stop"
	TypeGenerate   = "generate"
	TypeAction     = "action"
)

// Server → client message types.
const (
	TypeStatus            = "status"
	TypeModels            = "models"
	TypeTranscriptPartial = "transcript_partial"
	TypeTranscriptFinal   = "transcript_final"
	TypeGenStarted        = "gen_started"
	TypeGenProgress       = "gen_progress"
	TypeGenResult         = "gen_result"
	TypeGallery           = "gallery"
	TypeSaved             = "saved"
	TypeError             = "error"
)

// Action names.
const (
	ActionRegenerate = "regenerate"
	ActionSaveImage  = "save_image"
	ActionSetStyle   = "set_style"
)

// Phase is the server-authoritative session phase.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseListening    Phase = "listening"
	PhaseRecording    Phase = "recording"
	PhaseTranscribing Phase = "transcribing"
	PhaseGenerating   Phase = "generating"
	PhaseSaving       Phase = "saving"
	PhaseReady        Phase = "ready"
)

// Hello announces the client after every channel open.
type Hello struct {
	Type      string `json:"type"`
	UIVersion string `json:"ui_version"`
	Client    string `json:"client"`
}

// AudioStart precedes the data frames of one utterance.
type AudioStart struct {
	Type       string `json:"type"`
	SampleRate int    `json:"sample_rate"`
	Format     string `json:"format"`
	Channels   int    `json:"channels"`
}

// AudioStop ends an utterance.
type AudioStop struct {
	Type string `json:"type"`
}

// Generate requests an image for prompt.
type Generate struct {
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
}

// Action carries a named user action with an optional value.
type Action struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

func NewHello(uiVersion, client string) Hello {
	return Hello{Type: TypeHello, UIVersion: uiVersion, Client: client}
}

func NewAudioStart(sampleRate int, format string, channels int) AudioStart {
	return AudioStart{Type: TypeAudioStart, SampleRate: sampleRate, Format: format, Channels: channels}
}

func NewAudioStop() AudioStop { return AudioStop{Type: TypeAudioStop} }

func NewGenerate(prompt string) Generate { return Generate{Type: TypeGenerate, Prompt: prompt} }

func NewAction(name, value string) Action { return Action{Type: TypeAction, Name: name, Value: value} }

// ServerMessage is implemented by every decoded server → client message.
type ServerMessage interface {
	MessageType() string
}

type Status struct {
	Phase  Phase  `json:"phase"`
	Detail string `json:"detail"`
}

type Models struct {
	STTModel   string `json:"stt_model"`
	ImageModel string `json:"image_model"`
	Device     string `json:"device"`
}

type TranscriptPartial struct {
	Text string `json:"text"`
}

type TranscriptFinal struct {
	Text string `json:"text"`
}

type GenStarted struct {
	Prompt string `json:"prompt,omitempty"`
	Seed   int64  `json:"seed,omitempty"`
	Steps  int    `json:"steps,omitempty"`
}

type GenProgress struct {
	Step       int     `json:"step"`
	TotalSteps int     `json:"total_steps"`
	Percent    float64 `json:"percent"`
}

type GenResult struct {
	ID     string  `json:"id,omitempty"`
	URL    string  `json:"url"`
	Prompt string  `json:"prompt,omitempty"`
	Seed   int64   `json:"seed,omitempty"`
	Style  string  `json:"style,omitempty"`
	TS     float64 `json:"ts,omitempty"`
}

// GalleryItem is one generated image reference.
type GalleryItem struct {
	ID  string  `json:"id"`
	URL string  `json:"url"`
	TS  float64 `json:"ts"`
}

type Gallery struct {
	Items []GalleryItem `json:"items"`
}

type Saved struct {
	ID   string `json:"id,omitempty"`
	Path string `json:"path,omitempty"`
}

type Error struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (Status) MessageType() string            { return TypeStatus }
func (Models) MessageType() string            { return TypeModels }
func (TranscriptPartial) MessageType() string { return TypeTranscriptPartial }
func (TranscriptFinal) MessageType() string   { return TypeTranscriptFinal }
func (GenStarted) MessageType() string        { return TypeGenStarted }
func (GenProgress) MessageType() string       { return TypeGenProgress }
func (GenResult) MessageType() string         { return TypeGenResult }
func (Gallery) MessageType() string           { return TypeGallery }
func (Saved) MessageType() string             { return TypeSaved }
func (Error) MessageType() string             { return TypeError }
