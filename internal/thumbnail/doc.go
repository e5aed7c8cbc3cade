// Package thumbnail produces preview images for library videos by
// extracting a single frame with FFmpeg and encoding it as WebP.
//
// Thumbnail generation is strictly best effort: a missing ffmpeg binary,
// a non-zero exit status or an empty output file only means the video
// ends up without a preview. Generate never returns an error and never
// leaves a partial output file behind.
package thumbnail
