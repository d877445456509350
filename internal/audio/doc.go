// Package audio extracts the speech track from a video into the mono 16 kHz
// PCM WAV file the transcription engine consumes.
//
// Extraction shells out to ffmpeg. The extracted file lives in a temporary
// location owned by the returned TempAudio handle; closing the handle removes
// it, and every failure path removes it before returning.
package audio
