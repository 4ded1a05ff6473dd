package types

// GenerateRequest is the payload accepted by POST /generate.
type GenerateRequest struct {
	// Absolute path to the reference image on disk.
	// example: /data/inputs/speaker.png
	ImagePath string `json:"image_path" example:"/data/inputs/speaker.png"`
	// Absolute path to the driving audio clip on disk.
	// example: /data/inputs/speech.wav
	AudioPath string `json:"audio_path" example:"/data/inputs/speech.wav"`
	// Optional text prompt steering the generation.
	// example: A person talking in a bright room.
	Prompt string `json:"prompt,omitempty" example:"A person talking in a bright room."`
	// Frame rate of the saved video. Defaults to 25 when omitted.
	// example: 25
	SaveFPS int `json:"save_fps,omitempty" example:"25"`
}

// GenerateContent carries one generated artifact inside a GenerateResponse.
type GenerateContent struct {
	// Base64-encoded video bytes, or null on failure.
	Buffer *string `json:"buffer"`
}

// GenerateResponse mirrors the serving contract of the upstream model
// service: errCode 0 means success, negative codes denote failure classes.
type GenerateResponse struct {
	// 0 success; -1 generation failed or busy; -2 preprocess failed; -3 invalid input.
	// example: 0
	ErrCode int `json:"errCode" example:"0"`
	// Generated artifacts. Exactly one entry; buffer is null on failure.
	Content []GenerateContent `json:"content"`
	// Human-readable diagnostic message.
	// example: succeed
	Info string `json:"info" example:"succeed"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// ComponentStatus reports the placement of one model component for /status.
type ComponentStatus struct {
	// Component identifier (text_encoder, audio_encoder, transformer, vae, face_aligner).
	// example: transformer
	Component string `json:"component" example:"transformer"`
	// Current placement: on_accelerator or on_host.
	// example: on_accelerator
	Placement string `json:"placement" example:"on_accelerator"`
}

// RunConfigStatus is the resolved run configuration exposed by /status.
type RunConfigStatus struct {
	// Square output resolution in pixels.
	// example: 256
	Resolution int `json:"resolution" example:"256"`
	// Generated clip length in frames.
	// example: 16
	ClipLength int `json:"clip_length" example:"16"`
	// Diffusion step count.
	// example: 20
	Steps int `json:"steps" example:"20"`
	// Classifier-free guidance scale.
	// example: 7.5
	GuidanceScale float64 `json:"guidance_scale" example:"7.5"`
	// Batch size per invocation.
	// example: 1
	BatchSize int `json:"batch_size" example:"1"`
	// Weight precision: full, half or int8.
	// example: half
	Precision string `json:"precision" example:"half"`
	// Whether idle components rest on host memory.
	// example: true
	CPUOffload bool `json:"cpu_offload" example:"true"`
	// Maximum accepted driving-audio duration in seconds.
	// example: 10
	MaxAudioSeconds int `json:"max_audio_seconds" example:"10"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall engine state (idle, generating, error).
	// example: idle
	State string `json:"state" example:"idle"`
	// Selected operating tier.
	// example: ultra_low
	Tier string `json:"tier" example:"ultra_low"`
	// Resolved baseline run configuration for the tier.
	Config RunConfigStatus `json:"config"`
	// Placement of each model component.
	Components []ComponentStatus `json:"components"`
	// Accelerator memory capacity in bytes (0 when no accelerator).
	// example: 8000000000
	CapacityBytes uint64 `json:"capacity_bytes" example:"8000000000"`
	// Currently allocated accelerator memory in bytes.
	// example: 2000000000
	AllocatedBytes uint64 `json:"allocated_bytes" example:"2000000000"`
	// Fraction of accelerator memory the process may claim.
	// example: 0.85
	MemoryFraction float64 `json:"memory_fraction" example:"0.85"`
	// Total completed generations.
	// example: 12
	GenerationsTotal uint64 `json:"generations_total" example:"12"`
	// Generations that succeeded only after an emergency downgrade.
	// example: 1
	OOMRecoveriesTotal uint64 `json:"oom_recoveries_total" example:"1"`
	// Requests rejected because a generation was already in flight.
	// example: 3
	BusyRejectionsTotal uint64 `json:"busy_rejections_total" example:"3"`
	// Last error observed by the engine (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
