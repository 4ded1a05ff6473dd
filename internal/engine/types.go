package engine

// State represents the lifecycle state of the engine.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateError      State = "error"
)

// Component identifies one model sub-component managed for residency.
type Component string

const (
	ComponentTextEncoder  Component = "text_encoder"
	ComponentAudioEncoder Component = "audio_encoder"
	ComponentTransformer  Component = "transformer"
	ComponentVAE          Component = "vae"
	ComponentFaceAligner  Component = "face_aligner"
)

// Components lists every managed component in a stable order.
func Components() []Component {
	return []Component{
		ComponentTextEncoder,
		ComponentAudioEncoder,
		ComponentTransformer,
		ComponentVAE,
		ComponentFaceAligner,
	}
}

// Placement records where a component's weights currently live.
type Placement string

const (
	OnAccelerator Placement = "on_accelerator"
	OnHost        Placement = "on_host"
)

// Status classifies the outcome of one generation request.
type Status string

const (
	StatusOK               Status = "ok"
	StatusRejectedBusy     Status = "rejected_busy"
	StatusInvalidInput     Status = "invalid_input"
	StatusPreprocessFailed Status = "preprocess_failed"
	StatusOOMRecovered     Status = "oom_recovered"
	StatusOOMFatal         Status = "oom_fatal"
	StatusGenerationFailed Status = "generation_failed"
)

// Request is one accepted generation request. Immutable after validation.
type Request struct {
	ImagePath string
	AudioPath string
	Prompt    string
	FrameRate int
}

// Result is the terminal outcome of one generation request. Video is nil
// unless Status is StatusOK or StatusOOMRecovered.
type Result struct {
	Status  Status
	Video   []byte
	Message string
}

// Succeeded reports whether the request produced a video.
func (r Result) Succeeded() bool {
	return r.Status == StatusOK || r.Status == StatusOOMRecovered
}

// Batch is the preprocessed form of a request handed to the pipeline:
// extracted audio features, the aligned reference image and tokenized
// prompt. Feature payloads are opaque to the engine. Out-of-process
// pipelines may keep the tensors on their side and hand back only Ref.
type Batch struct {
	Ref           string
	AudioFeatures []byte
	RefImage      []byte
	PromptTokens  []int32
	AudioSeconds  float64
	FrameRate     int
}

// AudioFrames returns the number of video frames covered by the driving
// audio at the batch frame rate. Audio length is the source of truth for
// output trimming.
func (b *Batch) AudioFrames() int {
	n := int(b.AudioSeconds * float64(b.FrameRate))
	if n < 1 {
		n = 1
	}
	return n
}

// FrameSet is the raw model output: decoded frames prior to muxing.
type FrameSet struct {
	Frames [][]byte
	Width  int
	Height int
}

// Truncate drops frames beyond n. The model may legitimately produce more
// frames than the audio covers.
func (f *FrameSet) Truncate(n int) {
	if n >= 0 && n < len(f.Frames) {
		f.Frames = f.Frames[:n]
	}
}
