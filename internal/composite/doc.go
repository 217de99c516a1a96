// Package composite replaces the background behind a matted subject.
//
// Frames travel through ffmpeg raw pipes: the foreground and background are
// decoded to rgb24 (the background scaled to the foreground size), a Matter
// produces a per-pixel alpha for each foreground frame, the alpha is cleaned
// up (bilateral smoothing, sharpening, gamma, hard threshold), and the blend
// is encoded back through ffmpeg. Decode, matte and encode run as separate
// goroutines joined by an errgroup; matting itself stays sequential because
// the network carries recurrent state from frame to frame.
//
// Two Matter implementations exist:
//   - ONNX: Robust Video Matting run in-process through ONNX Runtime
//   - MatteVideo: a precomputed alpha matte video read frame by frame
package composite
