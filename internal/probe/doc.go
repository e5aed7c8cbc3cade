// Package probe inspects media files by shelling out to ffprobe and
// parsing its sectioned KEY=VALUE output into typed metadata.
//
// The parser handles the bracket-delimited default writer format:
//
//	[FORMAT]
//	format_name=matroska,webm
//	duration=10.000000
//	TAG:title=Example
//	[/FORMAT]
//
// Malformed or truncated output is rejected with a descriptive error;
// the extractor then maps the FORMAT section onto container kind,
// duration and the optional descriptive tags. The subprocess invocation
// goes through the Runner interface so tests can substitute a fake.
package probe
