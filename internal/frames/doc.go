// Package frames samples still images from a video at a fixed rate.
//
// The sampler probes the source frame rate, keeps every Nth decoded frame
// where N = max(1, floor(source_fps / fps)), and writes them as
// frame_0000.png, frame_0001.png, ... into an output directory guarded by an
// advisory lock.
package frames
