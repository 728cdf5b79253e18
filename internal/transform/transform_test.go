package transform

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/akrbdk/media-optimize-tools/internal/classify"
	"github.com/akrbdk/media-optimize-tools/internal/planner"
)

func TestTempPath(t *testing.T) {
	tests := []struct {
		name string
		dst  string
		want string
	}{
		{"plain file", "/dest/photo.jpg", "/dest/.mediaopt-tmp-photo.jpg"},
		{"nested", "/dest/a/b/clip.mp4", "/dest/a/b/.mediaopt-tmp-clip.mp4"},
		{"keeps extension", "/d/x.webm", "/d/.mediaopt-tmp-x.webm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TempPath(tt.dst); got != tt.want {
				t.Errorf("TempPath(%q) = %q, want %q", tt.dst, got, tt.want)
			}
		})
	}
}

func TestReplaceWithTemp_Success(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(dst, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := replaceWithTemp(dst, func(tmp string) error {
		return os.WriteFile(tmp, []byte("rewritten"), 0o644)
	})
	if err != nil {
		t.Fatalf("replaceWithTemp: %v", err)
	}

	got, _ := os.ReadFile(dst)
	if string(got) != "rewritten" {
		t.Errorf("dst content = %q, want %q", got, "rewritten")
	}
	if _, err := os.Stat(TempPath(dst)); !os.IsNotExist(err) {
		t.Error("temp file should be gone after rename")
	}
}

func TestReplaceWithTemp_WriteFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(dst, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("encoder exploded")
	err := replaceWithTemp(dst, func(tmp string) error {
		os.WriteFile(tmp, []byte("partial"), 0o644)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped encoder failure", err)
	}

	got, _ := os.ReadFile(dst)
	if string(got) != "original" {
		t.Errorf("dst content = %q, original must survive a failed transform", got)
	}
	if _, err := os.Stat(TempPath(dst)); !os.IsNotExist(err) {
		t.Error("temp file should be cleaned up after failure")
	}
}

func TestReplaceWithTemp_EmptyOutputRejected(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(dst, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := replaceWithTemp(dst, func(tmp string) error {
		return os.WriteFile(tmp, nil, 0o644)
	})
	if err == nil {
		t.Fatal("empty transform output should be rejected")
	}

	got, _ := os.ReadFile(dst)
	if string(got) != "original" {
		t.Errorf("dst content = %q, original must survive", got)
	}
}

func TestReplaceWithTemp_MissingOutputRejected(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(dst, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := replaceWithTemp(dst, func(string) error { return nil })
	if err == nil {
		t.Fatal("a write hook that produced no file should be rejected")
	}
}

// --- Fake ---

func TestFake_Hooks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, make([]byte, 1000), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &Fake{Video: Truncate(250)}
	err := fake.TransformVideo(context.Background(), planner.VideoPlan{Path: path})
	if err != nil {
		t.Fatalf("TransformVideo: %v", err)
	}
	fi, _ := os.Stat(path)
	if fi.Size() != 250 {
		t.Errorf("size = %d, want 250", fi.Size())
	}

	// Nil hooks succeed without touching anything.
	quiet := &Fake{}
	if err := quiet.TransformImage(context.Background(), planner.ImagePlan{Path: path}); err != nil {
		t.Errorf("nil image hook: %v", err)
	}
	fi, _ = os.Stat(path)
	if fi.Size() != 250 {
		t.Errorf("nil hook changed the file: size = %d", fi.Size())
	}
}

// --- Native engine ---

func fillGradient(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 7 % 256), uint8(y * 11 % 256), 128, 255})
		}
	}
}

func makeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillGradient(img)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}
}

func makePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillGradient(img)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func decodeDims(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return cfg.Width, cfg.Height
}

func TestNativeEncode_ResizesJPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	tmp := filepath.Join(dir, "out.jpg")
	makeJPEG(t, src, 64, 48)

	plan := planner.ImagePlan{Path: src, Kind: classify.ImageJPEG, MaxDim: 32, Quality: 80}
	if err := (nativeEncoder{}).Encode(context.Background(), plan, tmp); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	w, h := decodeDims(t, tmp)
	if w != 32 || h != 24 {
		t.Errorf("dims = %dx%d, want 32x24 (aspect preserved)", w, h)
	}
}

func TestNativeEncode_NeverUpscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.jpg")
	tmp := filepath.Join(dir, "out.jpg")
	makeJPEG(t, src, 64, 48)

	plan := planner.ImagePlan{Path: src, Kind: classify.ImageJPEG, MaxDim: 2560, Quality: 80}
	if err := (nativeEncoder{}).Encode(context.Background(), plan, tmp); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	w, h := decodeDims(t, tmp)
	if w != 64 || h != 48 {
		t.Errorf("dims = %dx%d, small sources must keep native size", w, h)
	}
}

func TestNativeEncode_PNG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "chart.png")
	tmp := filepath.Join(dir, "out.png")
	makePNG(t, src, 48, 64)

	plan := planner.ImagePlan{Path: src, Kind: classify.ImagePNG, Lossless: true, MaxDim: 32, Compression: 9}
	if err := (nativeEncoder{}).Encode(context.Background(), plan, tmp); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	w, h := decodeDims(t, tmp)
	if w != 24 || h != 32 {
		t.Errorf("dims = %dx%d, want 24x32", w, h)
	}
}

func TestNativeEncode_RejectsUnsupportedFormats(t *testing.T) {
	plan := planner.ImagePlan{Path: "hero.webp", Kind: classify.ImageWebP, MaxDim: 100, Quality: 80}
	err := (nativeEncoder{}).Encode(context.Background(), plan, "out.webp")
	if err == nil {
		t.Fatal("webp must be rejected by the built-in engine")
	}
}

func TestMediaTransformer_TransformImageInPlace(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "photo.jpg")
	makeJPEG(t, dst, 64, 48)

	tr := &MediaTransformer{images: nativeEncoder{}}
	plan := planner.ImagePlan{Path: dst, Kind: classify.ImageJPEG, MaxDim: 32, Quality: 80}
	if err := tr.TransformImage(context.Background(), plan); err != nil {
		t.Fatalf("TransformImage: %v", err)
	}

	w, h := decodeDims(t, dst)
	if w != 32 || h != 24 {
		t.Errorf("dims = %dx%d, want 32x24", w, h)
	}
	if _, err := os.Stat(TempPath(dst)); !os.IsNotExist(err) {
		t.Error("temp artifact left behind")
	}
}

// --- Orientation ---

func TestApplyOrientation(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}

	// A 2x1 strip: red on the left, blue on the right.
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, red)
	src.Set(1, 0, blue)

	tests := []struct {
		name        string
		orientation int
		w, h        int
		checks      map[[2]int]color.RGBA
	}{
		{"upright unchanged", 1, 2, 1, map[[2]int]color.RGBA{{0, 0}: red, {1, 0}: blue}},
		{"mirrored", 2, 2, 1, map[[2]int]color.RGBA{{0, 0}: blue, {1, 0}: red}},
		{"upside down", 3, 2, 1, map[[2]int]color.RGBA{{0, 0}: blue, {1, 0}: red}},
		{"rotate cw", 6, 1, 2, map[[2]int]color.RGBA{{0, 0}: red, {0, 1}: blue}},
		{"rotate ccw", 8, 1, 2, map[[2]int]color.RGBA{{0, 0}: blue, {0, 1}: red}},
		{"transposed", 5, 1, 2, map[[2]int]color.RGBA{{0, 0}: red, {0, 1}: blue}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyOrientation(src, tt.orientation)
			b := got.Bounds()
			if b.Dx() != tt.w || b.Dy() != tt.h {
				t.Fatalf("dims = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.w, tt.h)
			}
			for pos, want := range tt.checks {
				if c := color.RGBAModel.Convert(got.At(pos[0], pos[1])).(color.RGBA); c != want {
					t.Errorf("pixel %v = %v, want %v", pos, c, want)
				}
			}
		})
	}
}

func TestReadOrientation_MissingExif(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.jpg")
	makeJPEG(t, src, 8, 8)

	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if got := readOrientation(data); got != 1 {
		t.Errorf("readOrientation = %d, want 1 for EXIF-less JPEG", got)
	}
}

func TestPNGLevelMapping(t *testing.T) {
	tests := []struct {
		level int
		want  png.CompressionLevel
	}{
		{0, png.NoCompression},
		{1, png.BestSpeed},
		{3, png.BestSpeed},
		{4, png.DefaultCompression},
		{6, png.DefaultCompression},
		{7, png.BestCompression},
		{9, png.BestCompression},
	}
	for _, tt := range tests {
		if got := pngLevel(tt.level); got != tt.want {
			t.Errorf("pngLevel(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
