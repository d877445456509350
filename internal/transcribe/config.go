package transcribe

// Engine defaults and command names.
const (
	UVXCommand       = "uvx"
	EngineCommand    = "whisperx"
	DefaultBatchSize = 4
	OutputFormat     = "json"
	VADMethodSilero  = "silero"
	CUDAIndexURL     = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL     = "https://pypi.org/simple"
	DeviceCPU        = "cpu"
	DeviceCUDA       = "cuda"
	ComputeFloat16   = "float16"
)
