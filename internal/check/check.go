// Package check provides the check subcommand diagnostics and the
// pre-flight dependency validation run before any file is touched.
package check

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/fatih/color"

	"github.com/akrbdk/media-optimize-tools/internal/config"
	"github.com/akrbdk/media-optimize-tools/internal/transform"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrRsyncNotFound   = errors.New("rsync not found on PATH")
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
	ErrMagickNotFound  = errors.New("imagemagick not found on PATH")
)

// neededEncoders are the ffmpeg encoder names the video plans can emit.
var neededEncoders = []string{"libx264", "libx265", "libvpx-vp9", "aac", "libopus"}

// CheckDeps verifies that every external tool the configured run will shell
// out to is present, before the destination tree exists. rsync is always
// required; ffmpeg and ffprobe only when videos are selected; ImageMagick
// only when it was requested explicitly rather than resolved by fallback.
func CheckDeps(cfg *config.Config) error {
	if _, err := exec.LookPath("rsync"); err != nil {
		return ErrRsyncNotFound
	}
	if cfg.WantVideos() {
		if _, err := exec.LookPath("ffmpeg"); err != nil {
			return ErrFfmpegNotFound
		}
		if _, err := exec.LookPath("ffprobe"); err != nil {
			return ErrFfprobeNotFound
		}
	}
	if cfg.WantImages() && cfg.ImageEngine == config.EngineMagick {
		if _, ok := transform.LookMagick(); !ok {
			return ErrMagickNotFound
		}
	}
	return nil
}

// RunCheck prints availability and versions of every external tool, which of
// the needed ffmpeg encoders are compiled in, a pair of smoke encodes, and
// the image engine an optimize run would resolve. Informational only; it
// never fails the process.
func RunCheck(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "=== system check ===")

	checkTool(w, "rsync", "rsync", "--version")
	checkTool(w, "ffmpeg", "ffmpeg", "-version")
	checkTool(w, "ffprobe", "ffprobe", "-version")
	if bin, ok := transform.LookMagick(); ok {
		checkTool(w, "imagemagick", bin, "--version")
	} else {
		fmt.Fprintf(w, "%-13s %s\n", "imagemagick:", bad("not found"))
	}

	checkEncoders(w)
	checkSmokeEncodes(w)

	fmt.Fprintf(w, "%-13s %s\n", "image engine:", selectedEngine(cfg))
}

// checkTool prints one "name: version" line, using the first line of the
// tool's version output.
func checkTool(w io.Writer, label, bin string, args ...string) {
	if _, err := exec.LookPath(bin); err != nil {
		fmt.Fprintf(w, "%-13s %s\n", label+":", bad("not found"))
		return
	}
	out, err := exec.Command(bin, args...).Output()
	if err != nil {
		fmt.Fprintf(w, "%-13s %s\n", label+":", bad(fmt.Sprintf("found but %s failed: %v", strings.Join(args, " "), err)))
		return
	}
	fmt.Fprintf(w, "%-13s %s\n", label+":", good(firstLine(string(out))))
}

// checkEncoders lists which of the encoders the video plans use are compiled
// into the installed ffmpeg.
func checkEncoders(w io.Writer) {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil {
		fmt.Fprintf(w, "%-13s %s\n", "encoders:", bad("could not list (is ffmpeg installed?)"))
		return
	}
	available := parseEncoders(string(out))

	var marks []string
	for _, name := range neededEncoders {
		if available[name] {
			marks = append(marks, good(name))
		} else {
			marks = append(marks, bad(name+" (missing)"))
		}
	}
	fmt.Fprintf(w, "%-13s %s\n", "encoders:", strings.Join(marks, " "))
}

// checkSmokeEncodes runs two tiny synthetic encodes so a broken encoder
// build shows up here instead of halfway through a run.
func checkSmokeEncodes(w io.Writer) {
	if runSilent("ffmpeg",
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c:v", "libx265",
		"-f", "null", "-",
	) {
		fmt.Fprintf(w, "%-13s %s\n", "x265 encode:", good("ok"))
	} else {
		fmt.Fprintf(w, "%-13s %s\n", "x265 encode:", bad("failed"))
	}

	if runSilent("ffmpeg",
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-c:a", "aac", "-f", "null", "-",
	) {
		fmt.Fprintf(w, "%-13s %s\n", "aac encode:", good("ok"))
	} else {
		fmt.Fprintf(w, "%-13s %s\n", "aac encode:", bad("failed"))
	}
}

// selectedEngine reports the image engine an optimize run would resolve
// under the current configuration, without constructing a transformer.
func selectedEngine(cfg *config.Config) string {
	switch cfg.ImageEngine {
	case config.EngineNative:
		return "native (built-in jpeg/png encoder)"
	case config.EngineMagick:
		if bin, ok := transform.LookMagick(); ok {
			return good("imagemagick (" + bin + ")")
		}
		return bad("imagemagick requested but not found")
	default:
		if bin, ok := transform.LookMagick(); ok {
			return good("imagemagick (" + bin + ")")
		}
		return "native (imagemagick not found)"
	}
}

// --- internal helpers ---

func good(s string) string { return color.GreenString(s) }
func bad(s string) string  { return color.RedString(s) }

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// parseEncoders extracts encoder names from ffmpeg -encoders output, whose
// rows look like " V....D libx264  H.264 / AVC ...".
func parseEncoders(out string) map[string]bool {
	names := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] == "=" {
			continue
		}
		if !strings.ContainsAny(fields[0], "VAS") {
			continue
		}
		names[fields[1]] = true
	}
	return names
}

// runSilent runs a command and reports whether it exited zero. Both output
// streams are discarded.
func runSilent(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
