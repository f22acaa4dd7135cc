package tts

import "context"

// Synthesizer abstracts the voice-cloning TTS service so the pipeline can be
// tested with a fake. Implementations read the reference voice from
// referencePath and write a WAV file to outputPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, referencePath, text, outputPath string) error
}

// Loader is implemented by synthesizers that need a one-time initialization
// before the first Synthesize call.
type Loader interface {
	Load(ctx context.Context) error
}
