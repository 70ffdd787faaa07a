// Package audio pulls the spoken-audio track out of a video for transcription.
//
// Extraction shells out to ffmpeg and always produces a mono 16 kHz, 16-bit
// file; the container suffix of the output path picks the codec (.wav for
// PCM, .mp3 for LAME at 192k). When a video carries several audio streams,
// SelectTrack picks the one most likely to contain the speech in the
// requested language.
package audio
